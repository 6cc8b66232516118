package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/riskroute/grid"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputePathStats(t *testing.T) {
	env, err := grid.FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	// Two edges: (0,0)->(0,2) sums 1+2+3, (0,2)->(2,2) sums 3+6+9.
	p := grid.Path{grid.Pos(0, 0), grid.Pos(0, 2), grid.Pos(2, 2)}
	s := ComputePathStats(env, p, grid.AggregateSum)

	if s.Waypoints != 3 || s.Cells != 5 {
		t.Errorf("waypoints=%d cells=%d, want 3 and 5", s.Waypoints, s.Cells)
	}
	if s.Length != 4 {
		t.Errorf("length = %v, want 4", s.Length)
	}
	if s.TotalRisk != 24 {
		t.Errorf("total risk = %v, want 24", s.TotalRisk)
	}
	if s.MeanEdgeRisk != 12 || s.StdEdgeRisk != 6 {
		t.Errorf("mean/std = %v/%v, want 12/6", s.MeanEdgeRisk, s.StdEdgeRisk)
	}
	if s.MaxEdgeRisk != 18 || s.MaxCellCost != 9 {
		t.Errorf("max edge %v, max cell %v", s.MaxEdgeRisk, s.MaxCellCost)
	}
}

func TestComputePathStatsEmpty(t *testing.T) {
	env, _ := grid.FromRows([][]float64{{1}}, false)
	if s := ComputePathStats(env, nil, grid.AggregateSum); s != (PathStats{}) {
		t.Errorf("expected zero stats for nil path, got %+v", s)
	}
	s := ComputePathStats(env, grid.Path{grid.Pos(0, 0)}, grid.AggregateSum)
	if s.Waypoints != 1 || s.TotalRisk != 0 {
		t.Errorf("single waypoint stats = %+v", s)
	}
}
