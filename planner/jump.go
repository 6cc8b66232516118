package planner

import (
	"fmt"
	"math"

	"github.com/pthm-cable/riskroute/grid"
	"github.com/pthm-cable/riskroute/heuristic"
)

// Default jump parameters.
const (
	DefaultJumpGap   = 5.0
	DefaultJumpLimit = 64
)

// allDirections are the eight step directions tried from the start node.
var allDirections = []grid.Position{
	{Row: -1, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 0, Col: -1},
	{Row: -1, Col: 1}, {Row: 1, Col: 1}, {Row: 1, Col: -1}, {Row: -1, Col: -1},
}

// JumpOptions bounds each jump.
type JumpOptions struct {
	Gap   float64 // Stop when |cost - origin cost| exceeds this
	Limit int     // Stop after this many steps
}

// JumpPoint is jump-point search with risk-aware stopping rules. Scans run
// along straight and diagonal lines and stop at the goal, at forced
// neighbours, where the cell cost departs from the scan origin by more than
// Gap, or after Limit steps.
type JumpPoint struct {
	env  *grid.Environment
	h    heuristic.Heuristic
	opts JumpOptions
}

// NewJumpPoint validates the pairing and creates a jump-point searcher.
// The environment must be 8-connected and h must be risk-aware.
func NewJumpPoint(env *grid.Environment, h heuristic.Heuristic, opts JumpOptions) (*JumpPoint, error) {
	if !env.Diagonals() {
		return nil, ErrNeedsDiagonals
	}
	if !heuristic.IsRiskAware(h) {
		return nil, fmt.Errorf("%w: %s", ErrNotRiskAware, h.Name())
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultJumpLimit
	}
	if opts.Gap < 0 {
		opts.Gap = 0
	}
	return &JumpPoint{env: env, h: h, opts: opts}, nil
}

func (j *JumpPoint) Name() string { return AlgoJump }

// FindPath returns a path of jump points from start to goal, or a nil path
// if the search exhausts. Consecutive points lie on a common straight or
// diagonal line.
func (j *JumpPoint) FindPath(start, goal grid.Position) Result {
	if r, done := trivial(j.env, start, goal); done {
		return r
	}

	a := newArena(j.env, 256)
	s := a.node(start)
	a.nodes[s].G = 0
	a.nodes[s].H = j.h.Estimate(start, goal)
	a.nodes[s].F = a.nodes[s].H

	var q openQueue
	q.push(s, a.nodes[s].F)

	var dirs []grid.Position
	expanded := 0
	for q.Len() > 0 {
		e := q.pop()
		if a.closed[e.id] || e.key != a.nodes[e.id].F {
			continue
		}
		a.closed[e.id] = true
		expanded++
		cur := a.nodes[e.id]
		if cur.Pos == goal {
			return Result{Path: a.path(e.id), Expanded: expanded}
		}

		if cur.Parent == NoParent {
			dirs = append(dirs[:0], allDirections...)
		} else {
			dirs = j.prune(dirs[:0], cur.Pos, grid.Direction(a.nodes[cur.Parent].Pos, cur.Pos))
		}

		for _, d := range dirs {
			jp, ok := j.jump(cur.Pos, d, goal)
			if !ok {
				continue
			}
			cid := a.node(jp)
			if a.closed[cid] {
				continue
			}
			g := cur.G + j.h.Estimate(cur.Pos, jp)
			if g >= a.nodes[cid].G {
				continue
			}
			h := j.h.Estimate(jp, goal)
			a.nodes[cid].G = g
			a.nodes[cid].H = h
			a.nodes[cid].F = g + h
			a.nodes[cid].Parent = e.id
			q.push(cid, g+h)
		}
	}
	return Result{Expanded: expanded}
}

// prune appends the natural and forced directions for a node reached by
// moving along d.
func (j *JumpPoint) prune(dst []grid.Position, p, d grid.Position) []grid.Position {
	dr, dc := d.Row, d.Col
	switch {
	case dr != 0 && dc != 0:
		dst = append(dst, grid.Pos(dr, 0), grid.Pos(0, dc), d)
		if j.env.Blocked(p.Add(grid.Pos(-dr, 0))) {
			dst = append(dst, grid.Pos(-dr, dc))
		}
		if j.env.Blocked(p.Add(grid.Pos(0, -dc))) {
			dst = append(dst, grid.Pos(dr, -dc))
		}
	case dr == 0:
		dst = append(dst, d)
		if j.env.Blocked(p.Add(grid.Pos(1, 0))) {
			dst = append(dst, grid.Pos(1, dc))
		}
		if j.env.Blocked(p.Add(grid.Pos(-1, 0))) {
			dst = append(dst, grid.Pos(-1, dc))
		}
	default:
		dst = append(dst, d)
		if j.env.Blocked(p.Add(grid.Pos(0, 1))) {
			dst = append(dst, grid.Pos(dr, 1))
		}
		if j.env.Blocked(p.Add(grid.Pos(0, -1))) {
			dst = append(dst, grid.Pos(dr, -1))
		}
	}
	return dst
}

// forced reports whether p, entered along d, has a forced neighbour.
func (j *JumpPoint) forced(p, d grid.Position) bool {
	dr, dc := d.Row, d.Col
	blocked := j.env.Blocked
	switch {
	case dr != 0 && dc != 0:
		return (blocked(p.Add(grid.Pos(-dr, 0))) && !blocked(p.Add(grid.Pos(-dr, dc)))) ||
			(blocked(p.Add(grid.Pos(0, -dc))) && !blocked(p.Add(grid.Pos(dr, -dc))))
	case dr == 0:
		return (blocked(p.Add(grid.Pos(1, 0))) && !blocked(p.Add(grid.Pos(1, dc)))) ||
			(blocked(p.Add(grid.Pos(-1, 0))) && !blocked(p.Add(grid.Pos(-1, dc))))
	default:
		return (blocked(p.Add(grid.Pos(0, 1))) && !blocked(p.Add(grid.Pos(dr, 1)))) ||
			(blocked(p.Add(grid.Pos(0, -1))) && !blocked(p.Add(grid.Pos(dr, -1))))
	}
}

func (j *JumpPoint) costBreak(origin float64, p grid.Position) bool {
	return math.Abs(j.env.Cost(p)-origin) > j.opts.Gap
}

// jump scans from p along d and returns the first jump point. Diagonal
// scans probe both orthogonal components at every step.
func (j *JumpPoint) jump(p, d, goal grid.Position) (grid.Position, bool) {
	if d.Row == 0 || d.Col == 0 {
		return j.scan(p, d, goal)
	}
	origin := j.env.Cost(p)
	for steps := 1; ; steps++ {
		p = p.Add(d)
		if j.env.Blocked(p) {
			return grid.Position{}, false
		}
		if p == goal || j.forced(p, d) || j.costBreak(origin, p) || steps >= j.opts.Limit {
			return p, true
		}
		if _, ok := j.scan(p, grid.Pos(d.Row, 0), goal); ok {
			return p, true
		}
		if _, ok := j.scan(p, grid.Pos(0, d.Col), goal); ok {
			return p, true
		}
	}
}

// scan is the straight-line jump.
func (j *JumpPoint) scan(p, d, goal grid.Position) (grid.Position, bool) {
	origin := j.env.Cost(p)
	for steps := 1; ; steps++ {
		p = p.Add(d)
		if j.env.Blocked(p) {
			return grid.Position{}, false
		}
		if p == goal || j.forced(p, d) || j.costBreak(origin, p) || steps >= j.opts.Limit {
			return p, true
		}
	}
}
