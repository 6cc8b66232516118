package grid

import (
	"math"
	"sync"
	"testing"
)

// exampleRows is the 5x5 risk grid used across the planner tests.
var exampleRows = [][]float64{
	{0, 1, 1, 3, 6},
	{2, 5, 12, 56, 56},
	{12, 34, 45, 45, 12},
	{10, 24, 30, 30, 10},
	{25, 12, 10, 2, 0},
}

func mustEnv(t *testing.T, rows [][]float64, diagonals bool) *Environment {
	t.Helper()
	env, err := FromRows(rows, diagonals)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return env
}

// TestNeighborsNeverBlocked checks neighbour generation excludes obstacles,
// non-finite cells and out-of-bounds positions on every cell.
func TestNeighborsNeverBlocked(t *testing.T) {
	rows := [][]float64{
		{0, -1, 2, math.NaN()},
		{1, 3, math.Inf(1), 4},
		{-5, 0, 0, 1},
	}
	for _, diag := range []bool{false, true} {
		env := mustEnv(t, rows, diag)
		r, c := env.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				for _, n := range env.Neighbors(Pos(i, j)) {
					if !env.InBounds(n) {
						t.Errorf("diag=%v: neighbour %v of (%d,%d) out of bounds", diag, n, i, j)
					}
					if env.Blocked(n) {
						t.Errorf("diag=%v: neighbour %v of (%d,%d) is blocked (cost %v)", diag, n, i, j, env.Cost(n))
					}
				}
			}
		}
	}
}

// TestNeighborCounts verifies 4- vs 8-connectivity on an open grid.
func TestNeighborCounts(t *testing.T) {
	env4 := mustEnv(t, exampleRows, false)
	env8 := mustEnv(t, exampleRows, true)

	tests := []struct {
		pos   Position
		want4 int
		want8 int
	}{
		{Pos(0, 0), 2, 3},
		{Pos(2, 2), 4, 8},
		{Pos(4, 2), 3, 5},
	}
	for _, tt := range tests {
		if got := len(env4.Neighbors(tt.pos)); got != tt.want4 {
			t.Errorf("4-connected %v: got %d neighbours, want %d", tt.pos, got, tt.want4)
		}
		if got := len(env8.Neighbors(tt.pos)); got != tt.want8 {
			t.Errorf("8-connected %v: got %d neighbours, want %d", tt.pos, got, tt.want8)
		}
	}
}

// TestDiagonalCornerCutting documents that diagonal moves past blocked
// corners are allowed.
func TestDiagonalCornerCutting(t *testing.T) {
	env := mustEnv(t, [][]float64{
		{0, -1},
		{-1, 0},
	}, true)
	got := env.Neighbors(Pos(0, 0))
	if len(got) != 1 || got[0] != Pos(1, 1) {
		t.Errorf("Expected only diagonal neighbour (1,1), got %v", got)
	}
}

// TestBuildGraphConcurrent builds the graph from many goroutines and checks
// it matches on-demand neighbours.
func TestBuildGraphConcurrent(t *testing.T) {
	env := mustEnv(t, exampleRows, true)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.BuildGraph()
		}()
	}
	wg.Wait()

	if !env.HasGraph() {
		t.Fatal("Expected graph to be built")
	}
	r, c := env.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			p := Pos(i, j)
			cached := env.Neighbors(p)
			fresh := env.AppendNeighbors(nil, p)
			if len(cached) != len(fresh) {
				t.Fatalf("%v: cached %v, fresh %v", p, cached, fresh)
			}
			for k := range cached {
				if cached[k] != fresh[k] {
					t.Errorf("%v: neighbour %d differs: %v vs %v", p, k, cached[k], fresh[k])
				}
			}
		}
	}
}

func TestFromRowsRejectsRagged(t *testing.T) {
	if _, err := FromRows([][]float64{{1, 2}, {3}}, true); err == nil {
		t.Error("Expected error for ragged rows")
	}
	if _, err := FromRows(nil, true); err != ErrEmptyGrid {
		t.Errorf("Expected ErrEmptyGrid, got %v", err)
	}
}

func TestMaxCostIgnoresObstacles(t *testing.T) {
	env := mustEnv(t, [][]float64{{1, math.Inf(1)}, {-9, 7}}, false)
	if env.MaxCost() != 7 {
		t.Errorf("MaxCost = %v, want 7", env.MaxCost())
	}
	if !env.Blocked(Pos(-1, 0)) || !env.Blocked(Pos(0, 2)) {
		t.Error("Expected out-of-bounds positions to be blocked")
	}
}
