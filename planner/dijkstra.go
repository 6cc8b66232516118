package planner

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/pthm-cable/riskroute/grid"
)

// EdgePolicy selects the uniform-cost edge weight.
type EdgePolicy uint8

const (
	// GoalAgnostic weighs u→v as cost(v) + |uv|.
	GoalAgnostic EdgePolicy = iota
	// GoalBiased adds |v goal|, pulling the search toward the goal.
	GoalBiased
)

// Seeding selects how the open set is populated.
type Seeding uint8

const (
	// SeedAll pushes every passable cell at +Inf before the search starts.
	// Ties pop in row-major order. This is the canonical policy.
	SeedAll Seeding = iota
	// SeedLazy pushes cells when first discovered and skips stale entries.
	// Ties pop in discovery order.
	SeedLazy
)

// ParseEdgePolicy maps a config name to an EdgePolicy.
func ParseEdgePolicy(s string) (EdgePolicy, error) {
	switch s {
	case "goal_agnostic":
		return GoalAgnostic, nil
	case "goal_biased", "":
		return GoalBiased, nil
	}
	return 0, fmt.Errorf("planner: unknown dijkstra edge cost %q", s)
}

// ParseSeeding maps a config name to a Seeding.
func ParseSeeding(s string) (Seeding, error) {
	switch s {
	case "all", "":
		return SeedAll, nil
	case "lazy":
		return SeedLazy, nil
	}
	return 0, fmt.Errorf("planner: unknown dijkstra seeding %q", s)
}

// DijkstraOptions configures uniform-cost search.
type DijkstraOptions struct {
	Edge    EdgePolicy
	Seeding Seeding
}

// Dijkstra is uniform-cost search over the cost grid.
type Dijkstra struct {
	env  *grid.Environment
	opts DijkstraOptions
}

// NewDijkstra creates a uniform-cost searcher.
func NewDijkstra(env *grid.Environment, opts DijkstraOptions) *Dijkstra {
	return &Dijkstra{env: env, opts: opts}
}

func (d *Dijkstra) Name() string { return AlgoDijkstra }

// FindPath returns the cheapest cell path from start to goal, or a nil path
// if the goal is unreachable.
func (d *Dijkstra) FindPath(start, goal grid.Position) Result {
	if r, done := trivial(d.env, start, goal); done {
		return r
	}
	if d.opts.Seeding == SeedLazy {
		return d.lazy(start, goal)
	}
	return d.seeded(start, goal)
}

func (d *Dijkstra) edge(u, v, goal grid.Position) float64 {
	c := d.env.Cost(v) + grid.Euclidean(u, v)
	if d.opts.Edge == GoalBiased {
		c += grid.Euclidean(v, goal)
	}
	return c
}

// seeded runs the decrease-key variant. Node handles are assigned in
// row-major order, so the handle doubles as the tie-break sequence.
func (d *Dijkstra) seeded(start, goal grid.Position) Result {
	a := newArena(d.env, d.env.Size())
	q := &seededQueue{a: a}

	rows, cols := d.env.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			p := grid.Pos(r, c)
			if d.env.Blocked(p) {
				continue
			}
			id := a.node(p)
			if p == start {
				a.nodes[id].G = 0
				a.nodes[id].F = 0
			}
			q.where = append(q.where, len(q.items))
			q.items = append(q.items, id)
		}
	}
	heap.Init(q)

	expanded := 0
	for q.Len() > 0 {
		id := heap.Pop(q).(int32)
		cur := a.nodes[id]
		if math.IsInf(cur.G, 1) {
			break // everything left is disconnected from start
		}
		a.closed[id] = true
		expanded++
		if cur.Pos == goal {
			return Result{Path: a.path(id), Expanded: expanded}
		}

		for _, np := range d.env.Neighbors(cur.Pos) {
			cid := a.node(np)
			if a.closed[cid] {
				continue
			}
			alt := cur.G + d.edge(cur.Pos, np, goal)
			if alt < a.nodes[cid].G {
				a.nodes[cid].G = alt
				a.nodes[cid].F = alt
				a.nodes[cid].Parent = id
				heap.Fix(q, q.where[cid])
			}
		}
	}
	return Result{Expanded: expanded}
}

// lazy runs the push-on-discover variant.
func (d *Dijkstra) lazy(start, goal grid.Position) Result {
	a := newArena(d.env, 256)
	s := a.node(start)
	a.nodes[s].G = 0
	a.nodes[s].F = 0

	var q openQueue
	q.push(s, 0)

	expanded := 0
	for q.Len() > 0 {
		e := q.pop()
		if a.closed[e.id] || e.key > a.nodes[e.id].G {
			continue
		}
		a.closed[e.id] = true
		expanded++
		cur := a.nodes[e.id]
		if cur.Pos == goal {
			return Result{Path: a.path(e.id), Expanded: expanded}
		}

		for _, np := range d.env.Neighbors(cur.Pos) {
			cid := a.node(np)
			if a.closed[cid] {
				continue
			}
			alt := cur.G + d.edge(cur.Pos, np, goal)
			if alt < a.nodes[cid].G {
				a.nodes[cid].G = alt
				a.nodes[cid].F = alt
				a.nodes[cid].Parent = e.id
				q.push(cid, alt)
			}
		}
	}
	return Result{Expanded: expanded}
}

// seededQueue is an indexed heap over arena handles keyed by G.
type seededQueue struct {
	a     *arena
	items []int32
	where []int // handle -> heap index, -1 once popped
}

func (q *seededQueue) Len() int { return len(q.items) }

func (q *seededQueue) Less(i, j int) bool {
	gi, gj := q.a.nodes[q.items[i]].G, q.a.nodes[q.items[j]].G
	if gi != gj {
		return gi < gj
	}
	return q.items[i] < q.items[j]
}

func (q *seededQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.where[q.items[i]] = i
	q.where[q.items[j]] = j
}

func (q *seededQueue) Push(x any) {
	id := x.(int32)
	q.where[id] = len(q.items)
	q.items = append(q.items, id)
}

func (q *seededQueue) Pop() any {
	n := len(q.items)
	id := q.items[n-1]
	q.items = q.items[:n-1]
	q.where[id] = -1
	return id
}
