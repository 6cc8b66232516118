// Package gridgen builds synthetic cost rasters from fractal Perlin noise.
// The fields stand in for real ground-risk maps in demos, benchmarks and
// tests.
package gridgen

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Obstacle is the cost written for blocked cells.
const Obstacle = -1.0

// Options controls field generation.
type Options struct {
	Seed       int64
	Scale      float64 // Base noise frequency across the whole field
	Octaves    int
	Lacunarity float64 // Frequency multiplier per octave
	Gain       float64 // Amplitude multiplier per octave
	Contrast   float64 // Exponent applied to the normalised field
	MaxCost    float64 // Costs are scaled into [0, MaxCost]

	// ObstacleLevel blocks cells whose normalised value exceeds it.
	// Values >= 1 disable noise obstacles.
	ObstacleLevel float64
	// ObstacleDensity scatters isolated obstacles with this probability.
	ObstacleDensity float64
}

// DefaultOptions returns a moderately rough field with a few no-fly zones.
func DefaultOptions() Options {
	return Options{
		Seed:            1,
		Scale:           4,
		Octaves:         5,
		Lacunarity:      2,
		Gain:            0.5,
		Contrast:        1.5,
		MaxCost:         100,
		ObstacleLevel:   0.92,
		ObstacleDensity: 0,
	}
}

// Generate returns a rows×cols cost matrix.
func Generate(rows, cols int, opts Options) *mat.Dense {
	noise := NewPerlin(opts.Seed)
	rng := rand.New(rand.NewSource(opts.Seed + 1))
	if opts.Octaves < 1 {
		opts.Octaves = 1
	}
	if opts.Contrast <= 0 {
		opts.Contrast = 1
	}

	raw := make([]float64, rows*cols)
	lo, hi := math.Inf(1), math.Inf(-1)
	longest := float64(max(rows, cols))
	for r := 0; r < rows; r++ {
		v := (float64(r) + 0.5) / longest
		for c := 0; c < cols; c++ {
			u := (float64(c) + 0.5) / longest
			x := fbm(noise, u, v, opts)
			raw[r*cols+c] = x
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
	}

	span := hi - lo
	if span == 0 {
		span = 1
	}
	for i, x := range raw {
		n := math.Pow((x-lo)/span, opts.Contrast)
		switch {
		case n > opts.ObstacleLevel:
			raw[i] = Obstacle
		case opts.ObstacleDensity > 0 && rng.Float64() < opts.ObstacleDensity:
			raw[i] = Obstacle
		default:
			raw[i] = n * opts.MaxCost
		}
	}
	return mat.NewDense(rows, cols, raw)
}

// fbm sums octaves of noise at (u, v).
func fbm(noise *Perlin, u, v float64, opts Options) float64 {
	sum := 0.0
	amp := 0.5
	freq := opts.Scale
	for o := 0; o < opts.Octaves; o++ {
		sum += amp * noise.Noise2D(u*freq, v*freq)
		freq *= opts.Lacunarity
		amp *= opts.Gain
	}
	return sum
}

// Clear sets cost to 0 in a square of the given radius around each point,
// so generated fields keep chosen endpoints passable.
func Clear(cost *mat.Dense, radius int, points ...[2]int) {
	rows, cols := cost.Dims()
	for _, p := range points {
		for r := p[0] - radius; r <= p[0]+radius; r++ {
			for c := p[1] - radius; c <= p[1]+radius; c++ {
				if r >= 0 && r < rows && c >= 0 && c < cols {
					cost.Set(r, c, 0)
				}
			}
		}
	}
}
