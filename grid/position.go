// Package grid provides the cost raster, line rasterizers and path utilities
// shared by every planner.
package grid

import (
	"fmt"
	"math"
)

// Position is a (row, column) index into the cost grid. Row 0 is the top.
type Position struct {
	Row int `json:"row" yaml:"row" msgpack:"row"`
	Col int `json:"col" yaml:"col" msgpack:"col"`
}

// Pos is shorthand for Position{Row: row, Col: col}.
func Pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

// Add returns p offset by d.
func (p Position) Add(d Position) Position {
	return Position{Row: p.Row + d.Row, Col: p.Col + d.Col}
}

// Sub returns the offset from q to p.
func (p Position) Sub(q Position) Position {
	return Position{Row: p.Row - q.Row, Col: p.Col - q.Col}
}

// Less orders positions row-major.
func (p Position) Less(q Position) bool {
	if p.Row != q.Row {
		return p.Row < q.Row
	}
	return p.Col < q.Col
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Adjacent reports whether p and q are distinct 8-neighbours.
func (p Position) Adjacent(q Position) bool {
	dr, dc := abs(p.Row-q.Row), abs(p.Col-q.Col)
	return dr <= 1 && dc <= 1 && (dr+dc) > 0
}

// Euclidean returns the straight-line distance between two positions.
func Euclidean(a, b Position) float64 {
	dr := float64(a.Row - b.Row)
	dc := float64(a.Col - b.Col)
	return math.Sqrt(dr*dr + dc*dc)
}

// Manhattan returns the L1 distance between two positions.
func Manhattan(a, b Position) float64 {
	return float64(abs(a.Row-b.Row) + abs(a.Col-b.Col))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// Direction returns the unit step (each component in {-1,0,1}) from a
// towards b.
func Direction(a, b Position) Position {
	return Position{Row: sign(b.Row - a.Row), Col: sign(b.Col - a.Col)}
}
