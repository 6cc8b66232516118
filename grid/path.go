package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Aggregation selects how the cell costs along an edge are combined.
type Aggregation uint8

const (
	AggregateSum Aggregation = iota
	AggregateMean
)

// ParseAggregation maps "sum" or "mean" to an Aggregation.
func ParseAggregation(s string) (Aggregation, error) {
	switch s {
	case "sum", "":
		return AggregateSum, nil
	case "mean":
		return AggregateMean, nil
	}
	return 0, fmt.Errorf("grid: unknown aggregation %q", s)
}

func (a Aggregation) String() string {
	if a == AggregateMean {
		return "mean"
	}
	return "sum"
}

// Apply combines costs. An empty slice aggregates to 0.
func (a Aggregation) Apply(costs []float64) float64 {
	if len(costs) == 0 {
		return 0
	}
	if a == AggregateMean {
		return stat.Mean(costs, nil)
	}
	return floats.Sum(costs)
}

// EdgeRisk aggregates the cell costs along the line a→b. Adjacent cells
// aggregate their two endpoint costs. A line crossing a blocked cell has
// infinite risk.
func (e *Environment) EdgeRisk(a, b Position, agg Aggregation) float64 {
	costs, clear := e.LineCosts(a, b)
	if !clear {
		return math.Inf(1)
	}
	return agg.Apply(costs)
}

// Path is an ordered sequence of positions from start to goal inclusive.
// A nil Path means the goal is unreachable. Consecutive positions need not
// be adjacent; Expand rasterizes each segment.
type Path []Position

// Start returns the first position. The path must be non-empty.
func (p Path) Start() Position { return p[0] }

// Goal returns the last position. The path must be non-empty.
func (p Path) Goal() Position { return p[len(p)-1] }

// Length returns the Euclidean length summed over segments.
func (p Path) Length() float64 {
	var l float64
	for i := 1; i < len(p); i++ {
		l += Euclidean(p[i-1], p[i])
	}
	return l
}

// ManhattanLength returns the L1 length summed over segments.
func (p Path) ManhattanLength() float64 {
	var l float64
	for i := 1; i < len(p); i++ {
		l += Manhattan(p[i-1], p[i])
	}
	return l
}

// Expand returns the contiguous cell path obtained by rasterizing each
// segment. Shared segment endpoints appear once.
func (p Path) Expand() Path {
	if len(p) < 2 {
		return append(Path(nil), p...)
	}
	out := Path{p[0]}
	for i := 1; i < len(p); i++ {
		seg := Line(p[i-1], p[i])
		out = append(out, seg[1:]...)
	}
	return out
}

// Contains reports whether q is one of the path's positions.
func (p Path) Contains(q Position) bool {
	for _, x := range p {
		if x == q {
			return true
		}
	}
	return false
}

// EdgeCost is the per-segment cost breakdown of a path.
type EdgeCost struct {
	Index    int      `json:"edge"`
	From     Position `json:"from"`
	To       Position `json:"to"`
	Distance float64  `json:"distance"`
	Risk     float64  `json:"risk"`
}

// EdgeCosts returns the distance and aggregated risk of every segment.
func (p Path) EdgeCosts(e *Environment, agg Aggregation) []EdgeCost {
	if len(p) < 2 {
		return nil
	}
	edges := make([]EdgeCost, 0, len(p)-1)
	for i := 1; i < len(p); i++ {
		a, b := p[i-1], p[i]
		edges = append(edges, EdgeCost{
			Index:    i - 1,
			From:     a,
			To:       b,
			Distance: Euclidean(a, b),
			Risk:     e.EdgeRisk(a, b, agg),
		})
	}
	return edges
}

// Risk returns the cumulative aggregated risk of the path.
func (p Path) Risk(e *Environment, agg Aggregation) float64 {
	var total float64
	for i := 1; i < len(p); i++ {
		total += e.EdgeRisk(p[i-1], p[i], agg)
	}
	return total
}
