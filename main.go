package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/riskroute/config"
	"github.com/pthm-cable/riskroute/grid"
	"github.com/pthm-cable/riskroute/gridgen"
	"github.com/pthm-cable/riskroute/planner"
	"github.com/pthm-cable/riskroute/server"
	"github.com/pthm-cable/riskroute/telemetry"
)

func main() {
	// Environment overrides from .env, if present
	_ = godotenv.Load()

	// CLI flags
	configPath := flag.String("config", getEnv("RISKROUTE_CONFIG", ""), "Path to config.yaml (empty = use defaults)")
	gridPath := flag.String("grid", getEnv("RISKROUTE_GRID", ""), "Cost grid file (.csv or .grid.zst); empty = generate one")
	rows := flag.Int("rows", 64, "Generated grid rows (without -grid)")
	cols := flag.Int("cols", 64, "Generated grid columns (without -grid)")
	seed := flag.Int64("seed", 1, "Generated grid seed (without -grid)")
	algo := flag.String("algo", "", "Planner: dijkstra, theta, jps, genetic, threshold (empty = config)")
	startFlag := flag.String("start", "", "Start cell as row,col (empty = top-left)")
	goalFlag := flag.String("goal", "", "Goal cell as row,col (empty = bottom-right)")
	compare := flag.Bool("compare", false, "Run every planner on the same request")
	serve := flag.Bool("serve", false, "Serve the HTTP API instead of planning once")
	addr := flag.String("addr", getEnv("RISKROUTE_ADDR", ""), "HTTP listen address (empty = config)")
	outputDir := flag.String("output-dir", getEnv("RISKROUTE_OUTPUT_DIR", ""), "Output directory for CSV logs and config snapshot")
	logLevel := flag.String("log-level", getEnv("RISKROUTE_LOG_LEVEL", ""), "debug, info, warn, error (empty = config)")
	logFile := flag.String("log-file", getEnv("RISKROUTE_LOG_FILE", ""), "Also write logs to this rotated file")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Logging.File = *logFile
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Recompute(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logCloser := telemetry.SetupLogger(cfg.Logging, cfg.Derived.LogLevel)
	defer logCloser.Close()

	if err := run(cfg, options{
		gridPath:  *gridPath,
		rows:      *rows,
		cols:      *cols,
		seed:      *seed,
		algo:      *algo,
		start:     *startFlag,
		goal:      *goalFlag,
		compare:   *compare,
		serve:     *serve,
		outputDir: *outputDir,
	}); err != nil {
		slog.Error("riskroute failed", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

type options struct {
	gridPath   string
	rows, cols int
	seed       int64
	algo       string
	start      string
	goal       string
	compare    bool
	serve      bool
	outputDir  string
}

func run(cfg *config.Config, opts options) error {
	env, err := loadEnvironment(cfg, opts)
	if err != nil {
		return err
	}
	r, c := env.Dims()
	slog.Info("grid ready", "rows", r, "cols", c, "diagonals", env.Diagonals(), "max_cost", env.MaxCost())

	out, err := telemetry.NewOutputManager(opts.outputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	defer func() {
		stats := perf.Stats()
		if stats.TotalRuns == 0 {
			return
		}
		stats.LogStats()
		if err := out.WritePerf(stats); err != nil {
			slog.Warn("writing perf stats", "error", err)
		}
	}()

	if opts.serve {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		srv := server.New(cfg, env, perf, out)
		return srv.ListenAndServe(ctx)
	}

	start, err := positionOr(opts.start, grid.Pos(0, 0))
	if err != nil {
		return fmt.Errorf("-start: %w", err)
	}
	goal, err := positionOr(opts.goal, grid.Pos(r-1, c-1))
	if err != nil {
		return fmt.Errorf("-goal: %w", err)
	}

	if opts.compare {
		return compareAll(env, cfg, start, goal, perf, out)
	}

	req := planner.Request{Start: start, Goal: goal, Algorithm: opts.algo}
	plan, err := planner.Run(env, req, cfg.Planner, perf)
	if err != nil {
		return err
	}
	if err := planner.WritePlan(out, uuid.New().String(), req, plan); err != nil {
		return err
	}
	printPlans([]*planner.Plan{plan})
	if plan.Reachable {
		fmt.Printf("\npath: %v\n", plan.Path)
	}
	return nil
}

// loadEnvironment reads the grid file, or generates a noise field with both
// corners cleared when none is given.
func loadEnvironment(cfg *config.Config, opts options) (*grid.Environment, error) {
	var env *grid.Environment
	if opts.gridPath != "" {
		cost, err := grid.Load(opts.gridPath)
		if err != nil {
			return nil, err
		}
		env = grid.NewEnvironment(cost, cfg.Grid.Diagonals)
	} else {
		if opts.rows < 1 || opts.cols < 1 {
			return nil, errors.New("-rows and -cols must be positive")
		}
		gopts := gridgen.DefaultOptions()
		gopts.Seed = opts.seed
		cost := gridgen.Generate(opts.rows, opts.cols, gopts)
		gridgen.Clear(cost, 1, [2]int{0, 0}, [2]int{opts.rows - 1, opts.cols - 1})
		env = grid.NewEnvironment(cost, cfg.Grid.Diagonals)
	}
	if cfg.Grid.BuildGraph {
		t := time.Now()
		env.BuildGraph()
		slog.Debug("graph built", "duration_ms", time.Since(t).Milliseconds())
	}
	return env, nil
}

// compareAll runs every planner concurrently on the same request.
func compareAll(env *grid.Environment, cfg *config.Config, start, goal grid.Position, perf *telemetry.PerfCollector, out *telemetry.OutputManager) error {
	plans := make([]*planner.Plan, len(planner.Algorithms))
	var g errgroup.Group
	for i, algo := range planner.Algorithms {
		i, algo := i, algo
		g.Go(func() error {
			req := planner.Request{Start: start, Goal: goal, Algorithm: algo}
			plan, err := planner.Run(env, req, cfg.Planner, perf)
			if err != nil {
				return fmt.Errorf("%s: %w", algo, err)
			}
			plans[i] = plan
			return planner.WritePlan(out, uuid.New().String(), req, plan)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	printPlans(plans)
	return nil
}

func printPlans(plans []*planner.Plan) {
	fmt.Printf("%-10s %9s %6s %10s %10s %9s %10s\n", "algorithm", "reachable", "cells", "length", "risk", "expanded", "time")
	for _, p := range plans {
		fmt.Printf("%-10s %9t %6d %10.2f %10.2f %9d %10s\n",
			p.Algorithm, p.Reachable, len(p.Path), p.Length, p.Risk, p.Expanded, p.Duration.Round(time.Microsecond))
	}
}

// positionOr parses "row,col", returning def for an empty string.
func positionOr(s string, def grid.Position) (grid.Position, error) {
	if s == "" {
		return def, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return grid.Position{}, fmt.Errorf("expected row,col, got %q", s)
	}
	r, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return grid.Position{}, fmt.Errorf("row: %w", err)
	}
	c, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return grid.Position{}, fmt.Errorf("col: %w", err)
	}
	return grid.Pos(r, c), nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
