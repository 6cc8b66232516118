package planner

import (
	"math"
	"slices"

	"github.com/pthm-cable/riskroute/grid"
)

// NoParent marks a node without a predecessor.
const NoParent int32 = -1

// Node is the search state of one grid cell. Identity is the position only;
// two nodes at the same cell are the same node regardless of their scores.
type Node struct {
	Pos    grid.Position
	Parent int32 // Arena handle of the predecessor, or NoParent
	G      float64
	H      float64
	F      float64
}

// Key returns the identity of the node.
func (n Node) Key() grid.Position { return n.Pos }

// Equal reports whether n and o refer to the same cell.
func (n Node) Equal(o Node) bool { return n.Pos == o.Pos }

// arena owns the nodes of a single search. Parents are indices into nodes,
// so a search never holds pointers across appends.
type arena struct {
	env    *grid.Environment
	nodes  []Node
	closed []bool
	lookup []int32 // cell index -> node handle, -1 if not yet created
}

func newArena(env *grid.Environment, capacity int) *arena {
	lookup := make([]int32, env.Size())
	for i := range lookup {
		lookup[i] = -1
	}
	return &arena{
		env:    env,
		nodes:  make([]Node, 0, capacity),
		closed: make([]bool, 0, capacity),
		lookup: lookup,
	}
}

// node returns the handle for p, creating an unvisited node if needed.
func (a *arena) node(p grid.Position) int32 {
	i := a.env.Index(p)
	if id := a.lookup[i]; id >= 0 {
		return id
	}
	id := int32(len(a.nodes))
	a.nodes = append(a.nodes, Node{
		Pos:    p,
		Parent: NoParent,
		G:      math.Inf(1),
		F:      math.Inf(1),
	})
	a.closed = append(a.closed, false)
	a.lookup[i] = id
	return id
}

// path walks parent handles back from id and returns start→id.
func (a *arena) path(id int32) grid.Path {
	var p grid.Path
	for ; id != NoParent; id = a.nodes[id].Parent {
		p = append(p, a.nodes[id].Pos)
	}
	slices.Reverse(p)
	return p
}
