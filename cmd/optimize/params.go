// Package main provides CMA-ES tuning of planner parameters.
package main

import (
	"github.com/pthm-cable/riskroute/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "risk_ratio", Path: "planner.heuristic.risk_to_dist_ratio", Min: 0, Max: 20, Default: 1},
			{Name: "smoothing_weight", Path: "planner.theta.smoothing_weight", Min: 0.1, Max: 2, Default: 0.9},
			{Name: "risk_threshold", Path: "planner.theta.risk_threshold", Min: 0, Max: 100, Default: 0},
			{Name: "jump_gap", Path: "planner.jump.gap", Min: 0, Max: 50, Default: 5},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Planner.Heuristic.RiskToDistRatio = clamped[0]
	cfg.Planner.Theta.SmoothingWeight = clamped[1]
	cfg.Planner.Theta.RiskThreshold = clamped[2]
	cfg.Planner.Jump.Gap = clamped[3]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Planner.Heuristic.RiskToDistRatio,
		cfg.Planner.Theta.SmoothingWeight,
		cfg.Planner.Theta.RiskThreshold,
		cfg.Planner.Jump.Gap,
	}
}
