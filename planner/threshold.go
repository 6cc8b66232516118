package planner

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/riskroute/grid"
)

// infeasible is the objective value of a threshold whose search found no
// path.
const infeasible = 1e100

// ThresholdOptions configures the threshold solver.
type ThresholdOptions struct {
	Target         float64 // Desired cumulative path risk
	Lower          float64
	Upper          float64 // 0 = derived from the grid maximum
	MaxEvaluations int
	Tolerance      float64 // Absolute objective change treated as converged
}

// ThresholdResult is the best evaluation the solver saw.
type ThresholdResult struct {
	Path        grid.Path
	Threshold   float64
	Risk        float64
	Evaluations int // Distinct thresholds searched
	Expanded    int // Nodes expanded over all searches
}

// ThresholdSolver tunes the any-angle risk threshold so the resulting
// path's cumulative risk is as close as possible to a target.
type ThresholdSolver struct {
	env   *grid.Environment
	theta ThetaOptions
	opts  ThresholdOptions
}

// NewThresholdSolver creates a solver. theta.RiskThreshold is ignored.
func NewThresholdSolver(env *grid.Environment, theta ThetaOptions, opts ThresholdOptions) *ThresholdSolver {
	if opts.MaxEvaluations < 1 {
		opts.MaxEvaluations = 40
	}
	return &ThresholdSolver{env: env, theta: theta, opts: opts}
}

func (s *ThresholdSolver) Name() string { return AlgoThreshold }

// Bracket returns the threshold interval searched.
func (s *ThresholdSolver) Bracket() (lo, hi float64) {
	lo, hi = s.opts.Lower, s.opts.Upper
	if hi == 0 {
		// A summed adjacent edge spans two cells.
		hi = s.env.MaxCost()
		if s.theta.Aggregation == grid.AggregateSum {
			hi *= 2
		}
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// FindPath implements Searcher.
func (s *ThresholdSolver) FindPath(start, goal grid.Position) Result {
	if r, done := trivial(s.env, start, goal); done {
		return r
	}
	res := s.Solve(start, goal)
	return Result{
		Path:        res.Path,
		Expanded:    res.Expanded,
		Threshold:   res.Threshold,
		Evaluations: res.Evaluations,
	}
}

type thresholdEval struct {
	path      grid.Path
	threshold float64
	risk      float64
	objective float64
}

// Solve minimises |risk(t) - target| over the bracket with Nelder-Mead on a
// sigmoid reparameterisation, so every trial threshold stays inside it.
func (s *ThresholdSolver) Solve(start, goal grid.Position) ThresholdResult {
	lo, hi := s.Bracket()
	toThreshold := func(x float64) float64 {
		return lo + (hi-lo)/(1+math.Exp(-x))
	}

	var (
		memo     = make(map[float64]thresholdEval)
		best     = thresholdEval{objective: math.Inf(1)}
		expanded int
	)
	evaluate := func(t float64) float64 {
		if ev, ok := memo[t]; ok {
			return ev.objective
		}
		opts := s.theta
		opts.RiskThreshold = t
		r := NewThetaStar(s.env, opts).FindPath(start, goal)
		expanded += r.Expanded

		ev := thresholdEval{path: r.Path, threshold: t, objective: infeasible}
		if r.Path != nil {
			ev.risk = r.Path.Risk(s.env, s.theta.Aggregation)
			ev.objective = math.Abs(ev.risk - s.opts.Target)
		}
		memo[t] = ev
		if ev.objective < best.objective {
			best = ev
		}
		return ev.objective
	}

	// The bracket ends are out of the sigmoid's reach; try them directly.
	evaluate(lo)
	evaluate(hi)

	if best.path != nil && len(memo) < s.opts.MaxEvaluations {
		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				return evaluate(toThreshold(x[0]))
			},
		}
		settings := &optimize.Settings{
			FuncEvaluations: s.opts.MaxEvaluations - len(memo),
			Converger: &optimize.FunctionConverge{
				Absolute:   s.opts.Tolerance,
				Iterations: 5,
			},
		}
		result, err := optimize.Minimize(problem, []float64{0}, settings, &optimize.NelderMead{SimplexSize: 2})
		if err != nil {
			slog.Debug("threshold search stopped", "error", err)
		} else {
			slog.Debug("threshold search finished", "status", result.Status.String(), "evaluations", result.FuncEvaluations)
		}
	}

	return ThresholdResult{
		Path:        best.path,
		Threshold:   best.threshold,
		Risk:        best.risk,
		Evaluations: len(memo),
		Expanded:    expanded,
	}
}
