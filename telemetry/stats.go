package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/riskroute/grid"
)

// PathStats summarises the per-edge risk distribution of a path.
type PathStats struct {
	Waypoints    int     `csv:"waypoints" json:"waypoints"`
	Cells        int     `csv:"cells" json:"cells"` // Length of the rasterized path
	Length       float64 `csv:"length" json:"length"`
	TotalRisk    float64 `csv:"total_risk" json:"total_risk"`
	MeanEdgeRisk float64 `csv:"mean_edge_risk" json:"mean_edge_risk"`
	StdEdgeRisk  float64 `csv:"std_edge_risk" json:"std_edge_risk"`
	P50EdgeRisk  float64 `csv:"p50_edge_risk" json:"p50_edge_risk"`
	P90EdgeRisk  float64 `csv:"p90_edge_risk" json:"p90_edge_risk"`
	MaxEdgeRisk  float64 `csv:"max_edge_risk" json:"max_edge_risk"`
	MaxCellCost  float64 `csv:"max_cell_cost" json:"max_cell_cost"` // Highest cost cell flown over
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputePathStats summarises path p over env. An empty or nil path yields
// zero stats.
func ComputePathStats(env *grid.Environment, p grid.Path, agg grid.Aggregation) PathStats {
	if len(p) == 0 {
		return PathStats{}
	}
	cells := p.Expand()
	s := PathStats{
		Waypoints: len(p),
		Cells:     len(cells),
		Length:    p.Length(),
	}
	for _, q := range cells {
		if c := env.Cost(q); !math.IsNaN(c) && c > s.MaxCellCost {
			s.MaxCellCost = c
		}
	}

	edges := p.EdgeCosts(env, agg)
	if len(edges) == 0 {
		return s
	}
	risks := make([]float64, len(edges))
	for i, e := range edges {
		risks[i] = e.Risk
		s.TotalRisk += e.Risk
	}
	s.MeanEdgeRisk, s.StdEdgeRisk = stat.PopMeanStdDev(risks, nil)

	sort.Float64s(risks)
	s.P50EdgeRisk = Percentile(risks, 0.50)
	s.P90EdgeRisk = Percentile(risks, 0.90)
	s.MaxEdgeRisk = risks[len(risks)-1]
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s PathStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("waypoints", s.Waypoints),
		slog.Int("cells", s.Cells),
		slog.Float64("length", s.Length),
		slog.Float64("total_risk", s.TotalRisk),
		slog.Float64("mean_edge_risk", s.MeanEdgeRisk),
		slog.Float64("p90_edge_risk", s.P90EdgeRisk),
		slog.Float64("max_edge_risk", s.MaxEdgeRisk),
		slog.Float64("max_cell_cost", s.MaxCellCost),
	)
}
