package grid

import "slices"

// Coverage is one cell touched by an anti-aliased line and the fraction of
// the line's unit-width footprint that falls in it.
type Coverage struct {
	Pos    Position
	Weight float64
}

// Line returns every cell on the Bresenham line from a to b, both endpoints
// included. Line(b, a) is exactly Line(a, b) reversed: the walk always starts
// from the row-major smaller endpoint.
func Line(a, b Position) []Position {
	if b.Less(a) {
		pts := bresenham(b, a)
		slices.Reverse(pts)
		return pts
	}
	return bresenham(a, b)
}

func bresenham(a, b Position) []Position {
	dc := abs(b.Col - a.Col)
	dr := abs(b.Row - a.Row)
	sc, sr := sign(b.Col-a.Col), sign(b.Row-a.Row)
	err := dc - dr

	pts := make([]Position, 0, max(dc, dr)+1)
	p := a
	for {
		pts = append(pts, p)
		if p == b {
			return pts
		}
		e2 := 2 * err
		if e2 > -dr {
			err -= dr
			p.Col += sc
		}
		if e2 < dc {
			err += dc
			p.Row += sr
		}
	}
}

// LineAA returns the cells touched by Xiaolin Wu's anti-aliased line from a
// to b with their coverage. Coverages in each major-axis column sum to 1.
// Like Line, it is symmetric under endpoint exchange.
func LineAA(a, b Position) []Coverage {
	if b.Less(a) {
		cov := wu(b, a)
		slices.Reverse(cov)
		return cov
	}
	return wu(a, b)
}

func wu(a, b Position) []Coverage {
	// x is the major axis after the optional transpose.
	x0, y0, x1, y1 := a.Col, a.Row, b.Col, b.Row
	steep := abs(y1-y0) > abs(x1-x0)
	if steep {
		x0, y0 = y0, x0
		x1, y1 = y1, x1
	}
	reversed := false
	if x0 > x1 {
		x0, x1 = x1, x0
		y0, y1 = y1, y0
		reversed = true
	}

	dx, dy := x1-x0, y1-y0
	plot := func(x, y int) Position {
		if steep {
			return Position{Row: x, Col: y}
		}
		return Position{Row: y, Col: x}
	}

	out := make([]Coverage, 0, 2*(dx+1))
	for x := x0; x <= x1; x++ {
		// Exact intersection y0 + dy*(x-x0)/dx split into integer and
		// fractional parts without floating-point drift.
		yi, frac := y0, 0.0
		if dx != 0 {
			num := dy * (x - x0)
			q := floorDiv(num, dx)
			yi = y0 + q
			frac = float64(num-q*dx) / float64(dx)
		}
		out = append(out, Coverage{Pos: plot(x, yi), Weight: 1 - frac})
		if frac > 0 {
			out = append(out, Coverage{Pos: plot(x, yi+1), Weight: frac})
		}
	}
	if reversed {
		slices.Reverse(out)
	}
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// LineCosts returns the cost of each cell on Line(a, b) and whether every
// cell on it is passable.
func (e *Environment) LineCosts(a, b Position) ([]float64, bool) {
	cells := Line(a, b)
	costs := make([]float64, len(cells))
	clear := true
	for i, p := range cells {
		costs[i] = e.Cost(p)
		if e.Blocked(p) {
			clear = false
		}
	}
	return costs, clear
}

// LineSum returns the summed cost of the passable cells on Line(a, b).
// Blocked cells contribute nothing.
func (e *Environment) LineSum(a, b Position) float64 {
	var sum float64
	for _, p := range Line(a, b) {
		if !e.Blocked(p) {
			sum += e.Cost(p)
		}
	}
	return sum
}

// Clear reports whether every cell on Line(a, b) is passable.
func (e *Environment) Clear(a, b Position) bool {
	for _, p := range Line(a, b) {
		if e.Blocked(p) {
			return false
		}
	}
	return true
}

// WeightedLineCost integrates cost along LineAA(a, b), charging blockedCost
// for every blocked cell touched.
func (e *Environment) WeightedLineCost(a, b Position, blockedCost float64) float64 {
	var sum float64
	for _, c := range LineAA(a, b) {
		v := blockedCost
		if !e.Blocked(c.Pos) {
			v = e.Cost(c.Pos)
		}
		sum += c.Weight * v
	}
	return sum
}
