// Package config provides configuration loading and access for the planner.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/brunoga/deep"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/riskroute/grid"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all planner configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Planner   PlannerConfig   `yaml:"planner"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds environment construction settings.
type GridConfig struct {
	Diagonals  bool `yaml:"diagonals" json:"diagonals"`
	BuildGraph bool `yaml:"build_graph" json:"build_graph"` // Precompute the full adjacency graph
}

// PlannerConfig selects an algorithm and holds the parameters of every
// algorithm.
type PlannerConfig struct {
	Algorithm string          `yaml:"algorithm" json:"algorithm"`
	Heuristic HeuristicConfig `yaml:"heuristic" json:"heuristic"`
	Dijkstra  DijkstraConfig  `yaml:"dijkstra" json:"dijkstra"`
	Theta     ThetaConfig     `yaml:"theta" json:"theta"`
	Jump      JumpConfig      `yaml:"jump" json:"jump"`
	Genetic   GeneticConfig   `yaml:"genetic" json:"genetic"`
	Threshold ThresholdConfig `yaml:"threshold" json:"threshold"`
}

// HeuristicConfig holds heuristic selection parameters.
type HeuristicConfig struct {
	Kind            string  `yaml:"kind" json:"kind"`                             // euclidean, manhattan, risk_euclidean, risk_manhattan
	RiskToDistRatio float64 `yaml:"risk_to_dist_ratio" json:"risk_to_dist_ratio"` // Weight k of the log10 risk term
	CacheSize       int     `yaml:"cache_size" json:"cache_size"`                 // Line-of-sight LRU entries
}

// DijkstraConfig holds uniform-cost search parameters.
type DijkstraConfig struct {
	EdgeCost string `yaml:"edge_cost" json:"edge_cost"` // goal_agnostic or goal_biased
	Seeding  string `yaml:"seeding" json:"seeding"`     // all (pre-seed every cell) or lazy
}

// ThetaConfig holds any-angle search parameters.
type ThetaConfig struct {
	RiskThreshold   float64 `yaml:"risk_threshold" json:"risk_threshold"`
	Smooth          bool    `yaml:"smooth" json:"smooth"`                     // Re-link to the grandparent when cheaper
	Aggregation     string  `yaml:"aggregation" json:"aggregation"`           // sum or mean
	SmoothingWeight float64 `yaml:"smoothing_weight" json:"smoothing_weight"` // k in f = g + k*|child-current|
}

// JumpConfig holds jump-point search parameters.
type JumpConfig struct {
	Gap   float64 `yaml:"gap" json:"gap"`     // Stop a jump when |cost - origin cost| exceeds this
	Limit int     `yaml:"limit" json:"limit"` // Maximum steps per jump
}

// GeneticConfig holds genetic planner parameters.
type GeneticConfig struct {
	Generations         int       `yaml:"generations" json:"generations"`
	Population          int       `yaml:"population" json:"population"`
	StagnantGenerations int       `yaml:"stagnant_generations" json:"stagnant_generations"`
	InitialLength       int       `yaml:"initial_length" json:"initial_length"` // Waypoints incl. both endpoints
	MutationRate        float64   `yaml:"mutation_rate" json:"mutation_rate"`
	CullRate            float64   `yaml:"cull_rate" json:"cull_rate"`
	BlockedPenalty      float64   `yaml:"blocked_penalty" json:"blocked_penalty"` // Obstacle cells cost this * max grid cost
	Seed                int64     `yaml:"seed" json:"seed"`                       // 0 = time-based
	Objectives          []string  `yaml:"objectives" json:"objectives"`
	Weights             []float64 `yaml:"weights" json:"weights"`
}

// ThresholdConfig holds iterative threshold solver parameters.
type ThresholdConfig struct {
	TargetRisk     float64 `yaml:"target_risk" json:"target_risk"`
	Lower          float64 `yaml:"lower" json:"lower"`
	Upper          float64 `yaml:"upper" json:"upper"` // 0 = derived from the grid maximum
	MaxEvaluations int     `yaml:"max_evaluations" json:"max_evaluations"`
	Tolerance      float64 `yaml:"tolerance" json:"tolerance"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxGridCells   int           `yaml:"max_grid_cells"` // Largest inline grid accepted per request
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error
	File       string `yaml:"file"`  // Empty = stdout only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// TelemetryConfig holds run telemetry parameters.
type TelemetryConfig struct {
	PerfWindow int `yaml:"perf_window"` // Runs averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Aggregation grid.Aggregation // Planner.Theta.Aggregation parsed
	LogLevel    slog.Level       // Logging.Level parsed
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	agg, err := grid.ParseAggregation(c.Planner.Theta.Aggregation)
	if err != nil {
		return fmt.Errorf("planner.theta.aggregation: %w", err)
	}
	c.Derived.Aggregation = agg

	switch c.Logging.Level {
	case "debug":
		c.Derived.LogLevel = slog.LevelDebug
	case "info", "":
		c.Derived.LogLevel = slog.LevelInfo
	case "warn":
		c.Derived.LogLevel = slog.LevelWarn
	case "error":
		c.Derived.LogLevel = slog.LevelError
	default:
		return fmt.Errorf("logging.level: invalid level %q", c.Logging.Level)
	}
	return nil
}

// Recompute refreshes derived values after fields were changed in place.
func (c *Config) Recompute() error {
	if err := c.computeDerived(); err != nil {
		return err
	}
	return c.Validate()
}

// Validate checks ranges that no algorithm can recover from.
func (c *Config) Validate() error {
	p := c.Planner
	switch {
	case p.Jump.Limit < 1:
		return fmt.Errorf("planner.jump.limit must be >= 1, got %d", p.Jump.Limit)
	case p.Jump.Gap < 0:
		return fmt.Errorf("planner.jump.gap must be >= 0, got %v", p.Jump.Gap)
	case p.Genetic.Generations < 1:
		return fmt.Errorf("planner.genetic.generations must be >= 1, got %d", p.Genetic.Generations)
	case p.Genetic.Population < 2:
		return fmt.Errorf("planner.genetic.population must be >= 2, got %d", p.Genetic.Population)
	case p.Genetic.InitialLength < 2:
		return fmt.Errorf("planner.genetic.initial_length must be >= 2, got %d", p.Genetic.InitialLength)
	case p.Threshold.MaxEvaluations < 1:
		return fmt.Errorf("planner.threshold.max_evaluations must be >= 1, got %d", p.Threshold.MaxEvaluations)
	case p.Threshold.Upper != 0 && p.Threshold.Upper <= p.Threshold.Lower:
		return fmt.Errorf("planner.threshold.upper (%v) must exceed lower (%v)", p.Threshold.Upper, p.Threshold.Lower)
	}
	return nil
}

// Clone returns a deep copy, used for per-request overrides.
func (c *Config) Clone() *Config {
	return deep.MustCopy(c)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
