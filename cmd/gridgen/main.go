// Command gridgen writes a synthetic risk grid built from fractal Perlin noise.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/pthm-cable/riskroute/grid"
	"github.com/pthm-cable/riskroute/gridgen"
)

func main() {
	def := gridgen.DefaultOptions()

	rows := flag.Int("rows", 128, "Grid rows")
	cols := flag.Int("cols", 128, "Grid columns")
	seed := flag.Int64("seed", def.Seed, "Noise seed")
	scale := flag.Float64("scale", def.Scale, "Base noise frequency across the grid")
	octaves := flag.Int("octaves", def.Octaves, "Noise octaves")
	contrast := flag.Float64("contrast", def.Contrast, "Exponent applied to the normalised field")
	maxCost := flag.Float64("max-cost", def.MaxCost, "Highest passable cost")
	obstacleLevel := flag.Float64("obstacle-level", def.ObstacleLevel, "Block cells above this normalised value (>= 1 disables)")
	density := flag.Float64("density", def.ObstacleDensity, "Probability of a scattered obstacle per cell")
	clearRadius := flag.Int("clear", 1, "Clear this radius around both corners (-1 = keep)")
	out := flag.String("out", "grid.csv", "Output file (.csv or .grid.zst)")
	flag.Parse()

	if *rows < 1 || *cols < 1 {
		log.Fatal("-rows and -cols must be positive")
	}

	opts := def
	opts.Seed = *seed
	opts.Scale = *scale
	opts.Octaves = *octaves
	opts.Contrast = *contrast
	opts.MaxCost = *maxCost
	opts.ObstacleLevel = *obstacleLevel
	opts.ObstacleDensity = *density

	cost := gridgen.Generate(*rows, *cols, opts)
	if *clearRadius >= 0 {
		gridgen.Clear(cost, *clearRadius, [2]int{0, 0}, [2]int{*rows - 1, *cols - 1})
	}

	if err := grid.Save(*out, cost); err != nil {
		log.Fatalf("failed to write grid: %v", err)
	}

	env := grid.NewEnvironment(cost, true)
	blocked := 0
	for i := 0; i < env.Size(); i++ {
		if env.Blocked(env.PositionAt(i)) {
			blocked++
		}
	}
	fmt.Printf("wrote %dx%d grid to %s (max cost %.2f, %d obstacles)\n", *rows, *cols, *out, env.MaxCost(), blocked)
}
