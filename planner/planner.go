// Package planner implements the risk-aware route planners and the
// dispatcher that builds one from configuration.
package planner

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/riskroute/config"
	"github.com/pthm-cable/riskroute/grid"
	"github.com/pthm-cable/riskroute/heuristic"
	"github.com/pthm-cable/riskroute/telemetry"
)

// Algorithm names accepted by NewSearcher and the config file.
const (
	AlgoDijkstra  = "dijkstra"
	AlgoTheta     = "theta"
	AlgoJump      = "jps"
	AlgoGenetic   = "genetic"
	AlgoThreshold = "threshold"
)

// Algorithms lists every algorithm name.
var Algorithms = []string{AlgoDijkstra, AlgoTheta, AlgoJump, AlgoGenetic, AlgoThreshold}

// Result is the raw outcome of one search.
type Result struct {
	Path        grid.Path // nil if the goal is unreachable
	Expanded    int
	Generations []telemetry.GenerationStats // Genetic planner only
	Threshold   float64                     // Threshold solver only
	Evaluations int                         // Threshold solver only
}

// Searcher is implemented by every planner.
type Searcher interface {
	Name() string
	FindPath(start, goal grid.Position) Result
}

// trivial resolves the cases no search loop is needed for: start == goal
// yields the one-cell path; a blocked endpoint is unreachable.
func trivial(env *grid.Environment, start, goal grid.Position) (Result, bool) {
	if start == goal {
		return Result{Path: grid.Path{start}}, true
	}
	if env.Blocked(start) || env.Blocked(goal) {
		return Result{}, true
	}
	return Result{}, false
}

// NewSearcher builds the named algorithm from configuration. Configuration
// errors are returned here, before any search work.
func NewSearcher(env *grid.Environment, algorithm string, cfg config.PlannerConfig) (Searcher, error) {
	agg, err := grid.ParseAggregation(cfg.Theta.Aggregation)
	if err != nil {
		return nil, err
	}
	theta := ThetaOptions{
		RiskThreshold:   cfg.Theta.RiskThreshold,
		Smooth:          cfg.Theta.Smooth,
		Aggregation:     agg,
		SmoothingWeight: cfg.Theta.SmoothingWeight,
	}

	switch algorithm {
	case AlgoDijkstra:
		edge, err := ParseEdgePolicy(cfg.Dijkstra.EdgeCost)
		if err != nil {
			return nil, err
		}
		seeding, err := ParseSeeding(cfg.Dijkstra.Seeding)
		if err != nil {
			return nil, err
		}
		return NewDijkstra(env, DijkstraOptions{Edge: edge, Seeding: seeding}), nil

	case AlgoTheta:
		return NewThetaStar(env, theta), nil

	case AlgoJump:
		h, err := heuristic.New(cfg.Heuristic.Kind, env, cfg.Heuristic.RiskToDistRatio, cfg.Heuristic.CacheSize)
		if err != nil {
			return nil, err
		}
		return NewJumpPoint(env, h, JumpOptions{Gap: cfg.Jump.Gap, Limit: cfg.Jump.Limit})

	case AlgoGenetic:
		gc := cfg.Genetic
		objectives := make([]Objective, 0, len(gc.Objectives))
		for _, name := range gc.Objectives {
			o, err := ObjectiveByName(name, gc.BlockedPenalty)
			if err != nil {
				return nil, err
			}
			objectives = append(objectives, o)
		}
		return NewGenetic(env, objectives, gc.Weights, GeneticOptions{
			Generations:         gc.Generations,
			Population:          gc.Population,
			StagnantGenerations: gc.StagnantGenerations,
			InitialLength:       gc.InitialLength,
			MutationRate:        gc.MutationRate,
			CullRate:            gc.CullRate,
			Seed:                gc.Seed,
		})

	case AlgoThreshold:
		tc := cfg.Threshold
		return NewThresholdSolver(env, theta, ThresholdOptions{
			Target:         tc.TargetRisk,
			Lower:          tc.Lower,
			Upper:          tc.Upper,
			MaxEvaluations: tc.MaxEvaluations,
			Tolerance:      tc.Tolerance,
		}), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownAlgorithm, algorithm)
}

// Request is one planning call. An empty Algorithm selects the configured
// default.
type Request struct {
	Start     grid.Position `json:"start"`
	Goal      grid.Position `json:"goal"`
	Algorithm string        `json:"algorithm,omitempty"`
}

// Plan is the reported outcome of a planning call.
type Plan struct {
	Algorithm   string
	Path        grid.Path
	Reachable   bool
	Expanded    int
	Risk        float64 // Cumulative aggregated risk over the path's edges
	Length      float64
	Edges       []grid.EdgeCost
	Stats       telemetry.PathStats
	Duration    time.Duration
	Generations []telemetry.GenerationStats
	Threshold   float64
	Evaluations int
}

// Run validates req, builds the searcher, runs it and reports the outcome.
// perf may be nil.
func Run(env *grid.Environment, req Request, cfg config.PlannerConfig, perf *telemetry.PerfCollector) (*Plan, error) {
	run := perf.Begin()
	run.Phase(telemetry.PhaseValidate)

	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = cfg.Algorithm
	}
	for _, p := range []grid.Position{req.Start, req.Goal} {
		if !env.InBounds(p) {
			run.End()
			return nil, fmt.Errorf("%w: %v", ErrOutOfBounds, p)
		}
	}

	run.Phase(telemetry.PhaseSetup)
	searcher, err := NewSearcher(env, algorithm, cfg)
	if err != nil {
		run.End()
		return nil, err
	}

	run.Phase(telemetry.PhaseSearch)
	start := time.Now()
	var res Result
	if req.Start == req.Goal {
		res = Result{Path: grid.Path{req.Start}}
	} else {
		res = searcher.FindPath(req.Start, req.Goal)
	}
	elapsed := time.Since(start)

	run.Phase(telemetry.PhaseReport)
	agg, _ := grid.ParseAggregation(cfg.Theta.Aggregation)
	plan := &Plan{
		Algorithm:   searcher.Name(),
		Path:        res.Path,
		Reachable:   res.Path != nil,
		Expanded:    res.Expanded,
		Duration:    elapsed,
		Generations: res.Generations,
		Threshold:   res.Threshold,
		Evaluations: res.Evaluations,
	}
	if plan.Reachable {
		plan.Edges = res.Path.EdgeCosts(env, agg)
		plan.Stats = telemetry.ComputePathStats(env, res.Path, agg)
		plan.Risk = plan.Stats.TotalRisk
		plan.Length = plan.Stats.Length
	}
	run.End()

	slog.Info("plan",
		"algorithm", plan.Algorithm,
		"start", req.Start.String(),
		"goal", req.Goal.String(),
		"reachable", plan.Reachable,
		"waypoints", len(plan.Path),
		"expanded", plan.Expanded,
		"risk", plan.Risk,
		"length", plan.Length,
		"duration_ms", elapsed.Milliseconds(),
	)
	return plan, nil
}
