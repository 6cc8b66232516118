package grid

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// ErrEmptyGrid is returned when a grid has no rows or no columns.
var ErrEmptyGrid = errors.New("grid: empty cost grid")

// Neighbour offsets: orthogonals first (N, E, S, W), then diagonals
// (NE, SE, SW, NW). The order is part of the determinism contract.
var offsets = [8]Position{
	{-1, 0}, {0, 1}, {1, 0}, {0, -1},
	{-1, 1}, {1, 1}, {1, -1}, {-1, -1},
}

// Environment owns a cost raster and its connectivity rule.
// Cells with a negative or non-finite cost are blocked. Positions outside
// the raster are treated as blocked by every query.
//
// An Environment is read-only after construction and may be shared by
// concurrent searches. BuildGraph is the only mutating call and it runs at
// most once.
type Environment struct {
	cost      *mat.Dense
	data      []float64
	stride    int
	rows      int
	cols      int
	diagonals bool
	maxCost   float64

	graphOnce sync.Once
	graph     atomic.Pointer[[][]Position]
}

// NewEnvironment wraps a cost matrix. The matrix must not be modified while
// the environment is in use.
func NewEnvironment(cost *mat.Dense, diagonals bool) *Environment {
	rows, cols := cost.Dims()
	raw := cost.RawMatrix()
	e := &Environment{
		cost:      cost,
		data:      raw.Data,
		stride:    raw.Stride,
		rows:      rows,
		cols:      cols,
		diagonals: diagonals,
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := e.data[r*e.stride+c]; passable(v) && v > e.maxCost {
				e.maxCost = v
			}
		}
	}
	return e
}

// FromRows builds an environment from row slices. All rows must have the
// same non-zero length.
func FromRows(rows [][]float64, diagonals bool) (*Environment, error) {
	cost, err := DenseFromRows(rows)
	if err != nil {
		return nil, err
	}
	return NewEnvironment(cost, diagonals), nil
}

// DenseFromRows copies row slices into a dense matrix.
func DenseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("grid: row %d has %d columns, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

func passable(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Dims returns the grid shape.
func (e *Environment) Dims() (rows, cols int) {
	return e.rows, e.cols
}

// Diagonals reports whether the environment is 8-connected.
func (e *Environment) Diagonals() bool {
	return e.diagonals
}

// Matrix returns the underlying cost matrix.
func (e *Environment) Matrix() *mat.Dense {
	return e.cost
}

// MaxCost returns the largest passable cost in the grid (0 for a grid with
// no passable cells).
func (e *Environment) MaxCost() float64 {
	return e.maxCost
}

// InBounds reports whether p indexes a cell of the grid.
func (e *Environment) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < e.rows && p.Col >= 0 && p.Col < e.cols
}

// Cost returns the raw cost of p. Out-of-bounds positions return NaN.
func (e *Environment) Cost(p Position) float64 {
	if !e.InBounds(p) {
		return math.NaN()
	}
	return e.data[p.Row*e.stride+p.Col]
}

// Blocked reports whether p is out of bounds or an obstacle.
func (e *Environment) Blocked(p Position) bool {
	if !e.InBounds(p) {
		return true
	}
	return !passable(e.data[p.Row*e.stride+p.Col])
}

// Size returns the number of cells.
func (e *Environment) Size() int {
	return e.rows * e.cols
}

// Index returns the row-major index of p.
func (e *Environment) Index(p Position) int {
	return p.Row*e.cols + p.Col
}

// PositionAt is the inverse of Index.
func (e *Environment) PositionAt(i int) Position {
	return Position{Row: i / e.cols, Col: i % e.cols}
}

// Neighbors returns the passable in-bounds neighbours of p. Diagonal moves
// are not suppressed next to blocked corners. The returned slice must not be
// modified: once BuildGraph has run it is shared.
func (e *Environment) Neighbors(p Position) []Position {
	if !e.InBounds(p) {
		return nil
	}
	if g := e.graph.Load(); g != nil {
		return (*g)[e.Index(p)]
	}
	return e.AppendNeighbors(nil, p)
}

// AppendNeighbors appends the neighbours of p to dst without consulting the
// cached graph.
func (e *Environment) AppendNeighbors(dst []Position, p Position) []Position {
	n := 4
	if e.diagonals {
		n = 8
	}
	for _, d := range offsets[:n] {
		q := p.Add(d)
		if !e.Blocked(q) {
			dst = append(dst, q)
		}
	}
	return dst
}

// BuildGraph precomputes the neighbour list of every cell. Concurrent callers
// block until the first call has published the graph.
func (e *Environment) BuildGraph() {
	e.graphOnce.Do(func() {
		g := make([][]Position, e.Size())
		for i := range g {
			g[i] = e.AppendNeighbors(nil, e.PositionAt(i))
		}
		e.graph.Store(&g)
	})
}

// HasGraph reports whether BuildGraph has completed.
func (e *Environment) HasGraph() bool {
	return e.graph.Load() != nil
}
