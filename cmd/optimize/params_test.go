package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/riskroute/config"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-12 {
			t.Errorf("%s: got %v, want %v", pv.Specs[i].Name, back[i], def[i])
		}
	}
}

// TestDefaultsMatchConfig keeps the parameter defaults in step with defaults.yaml.
func TestDefaultsMatchConfig(t *testing.T) {
	pv := NewParamVector()
	got := pv.ExtractFromConfig(config.Default())
	for i, want := range pv.DefaultVector() {
		if got[i] != want {
			t.Errorf("%s: config has %v, param default %v", pv.Specs[i].Path, got[i], want)
		}
	}
}

func TestApplyClamps(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()
	pv.ApplyToConfig(cfg, []float64{-5, 100, 50, 10})

	if cfg.Planner.Heuristic.RiskToDistRatio != 0 {
		t.Errorf("Expected ratio clamped to 0, got %v", cfg.Planner.Heuristic.RiskToDistRatio)
	}
	if cfg.Planner.Theta.SmoothingWeight != 2 {
		t.Errorf("Expected smoothing weight clamped to 2, got %v", cfg.Planner.Theta.SmoothingWeight)
	}
	if cfg.Planner.Theta.RiskThreshold != 50 || cfg.Planner.Jump.Gap != 10 {
		t.Error("Expected in-range values applied unchanged")
	}
}

func TestEvaluateDefaults(t *testing.T) {
	cfg := config.Default()
	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, "theta", 16, 16, []int64{1, 2}, cfg)

	fitness := fe.Evaluate(pv.DefaultVector())
	if math.IsNaN(fitness) || fitness < 0 {
		t.Fatalf("Expected non-negative fitness, got %v", fitness)
	}
	if q := fe.LastQuality(); q < 0 || q > unreachablePenalty {
		t.Errorf("Expected cost ratio in a sane range, got %v", q)
	}
}
