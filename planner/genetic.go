package planner

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/riskroute/grid"
	"github.com/pthm-cable/riskroute/telemetry"
)

// GeneticOptions holds the run parameters of the genetic planner.
type GeneticOptions struct {
	Generations         int
	Population          int
	StagnantGenerations int // Stop after this many generations without improvement
	InitialLength       int // Waypoints per random individual, endpoints included
	MutationRate        float64
	CullRate            float64 // Chance of dropping each interior waypoint when culling
	Seed                int64   // 0 = time-based
}

// DefaultGeneticOptions returns the standard run parameters.
func DefaultGeneticOptions() GeneticOptions {
	return GeneticOptions{
		Generations:         500,
		Population:          400,
		StagnantGenerations: 40,
		InitialLength:       200,
		MutationRate:        0.3,
		CullRate:            0.1,
	}
}

// Genetic evolves variable-length waypoint lists pinned at start and goal.
// Fitness is the weighted sum of the objective scores; lower is better.
type Genetic struct {
	env        *grid.Environment
	objectives []Objective
	weights    []float64
	opts       GeneticOptions
}

// Evolution is the outcome of one genetic run.
type Evolution struct {
	Best      grid.Path
	Fitness   float64
	History   []telemetry.GenerationStats
	Converged bool // Stopped early on stagnation
	Seed      int64
}

// NewGenetic creates a genetic planner. objectives and weights must be
// non-empty and parallel.
func NewGenetic(env *grid.Environment, objectives []Objective, weights []float64, opts GeneticOptions) (*Genetic, error) {
	if len(objectives) == 0 || len(objectives) != len(weights) {
		return nil, fmt.Errorf("%w: %d objectives, %d weights", ErrObjectiveWeights, len(objectives), len(weights))
	}
	if opts.Population < 2 {
		opts.Population = 2
	}
	if opts.Generations < 1 {
		opts.Generations = 1
	}
	if opts.InitialLength < 2 {
		opts.InitialLength = 2
	}
	if opts.StagnantGenerations < 1 {
		opts.StagnantGenerations = opts.Generations
	}
	return &Genetic{
		env:        env,
		objectives: objectives,
		weights:    weights,
		opts:       opts,
	}, nil
}

func (g *Genetic) Name() string { return AlgoGenetic }

// Fitness returns the weighted objective sum for p.
func (g *Genetic) Fitness(p grid.Path) float64 {
	var f float64
	for i, o := range g.objectives {
		f += g.weights[i] * o.Score(g.env, p)
	}
	return f
}

// FindPath evolves a path. The result is nil if even the best individual
// crosses an obstacle.
func (g *Genetic) FindPath(start, goal grid.Position) Result {
	if r, done := trivial(g.env, start, goal); done {
		return r
	}
	ev := g.Evolve(start, goal)
	r := Result{
		Expanded:    len(ev.History) * g.opts.Population,
		Generations: ev.History,
	}
	for _, q := range ev.Best.Expand() {
		if g.env.Blocked(q) {
			return r
		}
	}
	r.Path = ev.Best
	return r
}

// Evolve runs the generational loop and returns the best individual seen.
// History[i].BestSoFar is non-increasing in i.
func (g *Genetic) Evolve(start, goal grid.Position) Evolution {
	seed := g.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	if start == goal {
		p := grid.Path{start}
		return Evolution{Best: p, Fitness: g.Fitness(p), Seed: seed}
	}

	pop := make([]grid.Path, g.opts.Population)
	for i := range pop {
		pop[i] = g.randomPath(rng, start, goal)
	}
	fit := make([]float64, len(pop))

	ev := Evolution{Fitness: math.Inf(1), Seed: seed}
	stagnant := 0
	for gen := 0; gen < g.opts.Generations; gen++ {
		for i, p := range pop {
			fit[i] = g.Fitness(p)
		}
		bestIdx := floats.MinIdx(fit)
		stats := telemetry.GenerationStats{
			Generation: gen,
			Best:       fit[bestIdx],
			Mean:       stat.Mean(fit, nil),
			Worst:      floats.Max(fit),
		}

		if fit[bestIdx] < ev.Fitness {
			ev.Fitness = fit[bestIdx]
			ev.Best = slices.Clone(pop[bestIdx])
			stagnant = 0
		} else {
			stagnant++
		}
		stats.BestSoFar = ev.Fitness
		ev.History = append(ev.History, stats)

		if stagnant >= g.opts.StagnantGenerations {
			ev.Converged = true
			break
		}
		if gen < g.opts.Generations-1 {
			pop = g.breed(rng, pop, fit)
		}
	}
	return ev
}

// randomPath scatters InitialLength-2 interior waypoints uniformly.
func (g *Genetic) randomPath(rng *rand.Rand, start, goal grid.Position) grid.Path {
	rows, cols := g.env.Dims()
	p := make(grid.Path, 0, g.opts.InitialLength)
	p = append(p, start)
	for i := 0; i < g.opts.InitialLength-2; i++ {
		p = append(p, grid.Pos(rng.Intn(rows), rng.Intn(cols)))
	}
	p = append(p, goal)
	return dedupe(p)
}

// breed builds the next generation: pairwise tournament into a mating pool,
// then crossover and mutation of consecutive pool pairs.
func (g *Genetic) breed(rng *rand.Rand, pop []grid.Path, fit []float64) []grid.Path {
	n := len(pop)
	pool := make([]grid.Path, n)
	for i := range pool {
		a, b := rng.Intn(n), rng.Intn(n)
		if fit[b] < fit[a] {
			a = b
		}
		pool[i] = pop[a]
	}

	next := make([]grid.Path, 0, n)
	for i := 0; len(next) < n; i += 2 {
		a, b := pool[i%n], pool[(i+1)%n]
		next = append(next, g.mutate(rng, crossover(rng, a, b)))
		if len(next) < n {
			next = append(next, g.mutate(rng, crossover(rng, b, a)))
		}
	}
	return next
}

// crossover splices a[:cut] with b[cut:]. The cut is bounded by the
// shorter parent so both endpoints survive.
func crossover(rng *rand.Rand, a, b grid.Path) grid.Path {
	m := min(len(a), len(b))
	cut := 1 + rng.Intn(m-1)
	child := make(grid.Path, 0, cut+len(b)-cut)
	child = append(child, a[:cut]...)
	child = append(child, b[cut:]...)
	return dedupe(child)
}

// mutate either culls interior waypoints or replaces a random span with its
// rasterized straight line, itself culled.
func (g *Genetic) mutate(rng *rand.Rand, p grid.Path) grid.Path {
	if rng.Float64() >= g.opts.MutationRate {
		return p
	}
	if len(p) > 2 && rng.Intn(2) == 0 {
		return g.cull(rng, p)
	}

	i := rng.Intn(len(p) - 1)
	j := i + 1 + rng.Intn(len(p)-1-i)
	span := g.cull(rng, grid.Path(grid.Line(p[i], p[j])))

	out := make(grid.Path, 0, i+len(span)+len(p)-j)
	out = append(out, p[:i]...)
	out = append(out, span...)
	out = append(out, p[j+1:]...)
	return dedupe(out)
}

// cull drops each interior waypoint with probability CullRate.
func (g *Genetic) cull(rng *rand.Rand, p grid.Path) grid.Path {
	if len(p) <= 2 {
		return p
	}
	out := make(grid.Path, 0, len(p))
	out = append(out, p[0])
	for _, q := range p[1 : len(p)-1] {
		if rng.Float64() >= g.opts.CullRate {
			out = append(out, q)
		}
	}
	return append(out, p[len(p)-1])
}

// dedupe removes consecutive repeats in place.
func dedupe(p grid.Path) grid.Path {
	return slices.Compact(p)
}
