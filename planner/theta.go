package planner

import (
	"math"

	"github.com/pthm-cable/riskroute/grid"
)

// DefaultSmoothingWeight is the k in f = g + k*|child current|.
const DefaultSmoothingWeight = 0.9

// ThetaOptions configures any-angle search.
type ThetaOptions struct {
	RiskThreshold   float64          // Edges with aggregated risk below this cost distance only
	Smooth          bool             // Allow re-linking a child to its grandparent
	Aggregation     grid.Aggregation // How line costs combine into edge risk
	SmoothingWeight float64
}

// DefaultThetaOptions returns smoothing on, sum aggregation, threshold 0.
func DefaultThetaOptions() ThetaOptions {
	return ThetaOptions{
		Smooth:          true,
		Aggregation:     grid.AggregateSum,
		SmoothingWeight: DefaultSmoothingWeight,
	}
}

// ThetaStar is a Theta*-style any-angle search whose edge costs charge the
// risk along the straight segment between two waypoints.
type ThetaStar struct {
	env  *grid.Environment
	opts ThetaOptions
}

// NewThetaStar creates an any-angle searcher.
func NewThetaStar(env *grid.Environment, opts ThetaOptions) *ThetaStar {
	return &ThetaStar{env: env, opts: opts}
}

func (t *ThetaStar) Name() string { return AlgoTheta }

// Options returns the search options.
func (t *ThetaStar) Options() ThetaOptions { return t.opts }

// EdgeCost returns the cost of flying straight from a to b: +Inf if the
// segment touches a blocked cell, the distance if the aggregated risk is
// below the threshold, distance plus risk otherwise.
func (t *ThetaStar) EdgeCost(a, b grid.Position) float64 {
	risk := t.env.EdgeRisk(a, b, t.opts.Aggregation)
	if math.IsInf(risk, 1) {
		return risk
	}
	d := grid.Euclidean(a, b)
	if risk < t.opts.RiskThreshold {
		return d
	}
	return d + risk
}

// FindPath returns a waypoint path from start to goal, or a nil path if the
// goal is unreachable. Consecutive waypoints are joined by clear segments.
func (t *ThetaStar) FindPath(start, goal grid.Position) Result {
	if r, done := trivial(t.env, start, goal); done {
		return r
	}

	a := newArena(t.env, 256)
	s := a.node(start)
	a.nodes[s].G = 0
	a.nodes[s].F = 0

	var q openQueue
	q.push(s, 0)

	expanded := 0
	for q.Len() > 0 {
		e := q.pop()
		// Only the most recent entry of a node is live.
		if a.closed[e.id] || e.key != a.nodes[e.id].F {
			continue
		}
		a.closed[e.id] = true
		expanded++
		best := a.nodes[e.id]
		if best.Pos == goal {
			return Result{Path: a.path(e.id), Expanded: expanded}
		}

		for _, np := range t.env.Neighbors(best.Pos) {
			cid := a.node(np)
			if a.closed[cid] {
				continue
			}

			g := best.G + t.EdgeCost(best.Pos, np)
			parent := e.id
			if t.opts.Smooth && best.Parent != NoParent {
				gp := a.nodes[best.Parent]
				// Ties go to the grandparent so collinear runs collapse.
				if g2 := gp.G + t.EdgeCost(gp.Pos, np); g2 <= g {
					g = g2
					parent = best.Parent
				}
			}
			if math.IsInf(g, 1) || g >= a.nodes[cid].G {
				continue
			}

			f := g + t.opts.SmoothingWeight*grid.Euclidean(np, best.Pos)
			a.nodes[cid].G = g
			a.nodes[cid].H = f - g
			a.nodes[cid].F = f
			a.nodes[cid].Parent = parent
			q.push(cid, f)
		}
	}
	return Result{Expanded: expanded}
}
