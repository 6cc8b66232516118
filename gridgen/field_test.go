package gridgen

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestGenerateDeterministic(t *testing.T) {
	opts := DefaultOptions()
	a := Generate(32, 48, opts)
	b := Generate(32, 48, opts)
	if !mat.Equal(a, b) {
		t.Error("Expected identical fields for the same seed")
	}

	opts.Seed = 2
	if mat.Equal(a, Generate(32, 48, opts)) {
		t.Error("Expected different fields for different seeds")
	}
}

func TestGenerateRange(t *testing.T) {
	opts := DefaultOptions()
	opts.ObstacleLevel = 0.8
	opts.ObstacleDensity = 0.05
	cost := Generate(40, 40, opts)

	rows, cols := cost.Dims()
	if rows != 40 || cols != 40 {
		t.Fatalf("dims = %dx%d", rows, cols)
	}
	var blocked, open int
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := cost.At(r, c)
			switch {
			case v == Obstacle:
				blocked++
			case v >= 0 && v <= opts.MaxCost && !math.IsNaN(v):
				open++
			default:
				t.Fatalf("cell (%d,%d) = %v out of range", r, c, v)
			}
		}
	}
	if blocked == 0 || open == 0 {
		t.Errorf("Expected a mix of obstacles and open cells, got %d blocked %d open", blocked, open)
	}
}

func TestClear(t *testing.T) {
	opts := DefaultOptions()
	opts.ObstacleLevel = 0 // everything above the minimum is blocked
	cost := Generate(10, 10, opts)
	Clear(cost, 1, [2]int{0, 0}, [2]int{9, 9})
	for _, p := range [][2]int{{0, 0}, {1, 1}, {8, 9}, {9, 9}} {
		if v := cost.At(p[0], p[1]); v != 0 {
			t.Errorf("cell %v = %v, want 0", p, v)
		}
	}
}

func TestPerlinBounded(t *testing.T) {
	p := NewPerlin(7)
	for i := 0; i < 1000; i++ {
		x, y := float64(i)*0.173, float64(i)*0.091
		if v := p.Noise2D(x, y); v < -1.5 || v > 1.5 {
			t.Fatalf("Noise2D(%v,%v) = %v out of range", x, y, v)
		}
	}
	if v := p.Noise2D(3, 5); v != 0 {
		t.Errorf("Expected zero at lattice points, got %v", v)
	}
}
