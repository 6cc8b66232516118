package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/riskroute/config"
	"github.com/pthm-cable/riskroute/grid"
	"github.com/pthm-cable/riskroute/gridgen"
	"github.com/pthm-cable/riskroute/planner"
)

// Scoring constants.
const (
	unreachablePenalty = 10.0 // Score for missing a goal the baseline reaches
	expansionWeight    = 0.5  // Weight of the expanded-node fraction
)

// scenario is one generated grid with its request and baseline cost.
type scenario struct {
	env      *grid.Environment
	req      planner.Request
	baseline float64 // Risk + length of the uniform-cost plan; 0 = unreachable
}

// FitnessEvaluator plans over a fixed set of generated grids and scores a
// parameter vector by how close it gets to the uniform-cost baseline and how
// few nodes it expands.
type FitnessEvaluator struct {
	params     *ParamVector
	algorithm  string
	baseConfig *config.Config
	scenarios  []scenario

	mu          sync.Mutex
	lastQuality float64 // mean cost ratio from the most recent Evaluate call
}

// NewFitnessEvaluator generates one grid per seed and plans each once with
// uniform-cost search to fix the baseline.
func NewFitnessEvaluator(params *ParamVector, algorithm string, rows, cols int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	fe := &FitnessEvaluator{
		params:     params,
		algorithm:  algorithm,
		baseConfig: baseCfg,
	}

	for _, seed := range seeds {
		opts := gridgen.DefaultOptions()
		opts.Seed = seed
		cost := gridgen.Generate(rows, cols, opts)
		gridgen.Clear(cost, 1, [2]int{0, 0}, [2]int{rows - 1, cols - 1})
		env := grid.NewEnvironment(cost, baseCfg.Grid.Diagonals)
		env.BuildGraph()

		sc := scenario{
			env: env,
			req: planner.Request{Start: grid.Pos(0, 0), Goal: grid.Pos(rows-1, cols-1)},
		}
		base := sc.req
		base.Algorithm = planner.AlgoDijkstra
		if plan, err := planner.Run(env, base, baseCfg.Planner, nil); err == nil && plan.Reachable {
			sc.baseline = plan.Risk + plan.Length
		}
		fe.scenarios = append(fe.scenarios, sc)
	}
	return fe
}

// LastQuality returns the mean cost ratio from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// seedResult holds the result from one scenario.
type seedResult struct {
	fitness float64
	ratio   float64
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Planner.Algorithm = fe.algorithm

	// Run all scenarios in parallel
	results := make([]seedResult, len(fe.scenarios))
	var wg sync.WaitGroup
	for i, sc := range fe.scenarios {
		wg.Add(1)
		go func(idx int, sc scenario) {
			defer wg.Done()
			results[idx] = fe.score(sc, cfg.Planner)
		}(i, sc)
	}
	wg.Wait()

	var totalFitness, totalRatio float64
	for _, r := range results {
		totalFitness += r.fitness
		totalRatio += r.ratio
	}
	n := float64(len(results))

	fe.mu.Lock()
	fe.lastQuality = totalRatio / n
	fe.mu.Unlock()

	return totalFitness / n
}

func (fe *FitnessEvaluator) score(sc scenario, pc config.PlannerConfig) seedResult {
	plan, err := planner.Run(sc.env, sc.req, pc, nil)
	if err != nil || !plan.Reachable {
		if sc.baseline == 0 {
			return seedResult{}
		}
		return seedResult{fitness: unreachablePenalty, ratio: unreachablePenalty}
	}
	if sc.baseline == 0 {
		return seedResult{}
	}

	ratio := (plan.Risk + plan.Length) / sc.baseline
	expanded := float64(plan.Expanded) / float64(sc.env.Size())
	return seedResult{
		fitness: ratio + expansionWeight*math.Min(expanded, 1),
		ratio:   ratio,
	}
}

// copyConfig returns a fresh copy of the base config for one evaluation.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	return fe.baseConfig.Clone()
}
