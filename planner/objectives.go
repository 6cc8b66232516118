package planner

import (
	"fmt"
	"math"

	"github.com/pthm-cable/riskroute/grid"
)

// Objective names accepted by ObjectiveByName and the config file.
const (
	ObjectiveRisk       = "risk"
	ObjectiveSmoothRisk = "smooth_risk"
	ObjectiveLength     = "length"
)

// DefaultBlockedPenalty charges a blocked cell ten times the grid maximum.
const DefaultBlockedPenalty = 10.0

// Objective scores a waypoint path. Lower is better.
type Objective interface {
	Name() string
	Score(env *grid.Environment, p grid.Path) float64
}

// RiskObjective integrates cell cost along the rasterized path and
// normalises by the grid maximum. Blocked cells are charged
// BlockedPenalty times the maximum.
type RiskObjective struct {
	BlockedPenalty float64
}

func (RiskObjective) Name() string { return ObjectiveRisk }

func (o RiskObjective) Score(env *grid.Environment, p grid.Path) float64 {
	norm := normaliser(env)
	blocked := o.BlockedPenalty * norm
	var total float64
	for _, q := range p.Expand() {
		if env.Blocked(q) {
			total += blocked
		} else {
			total += env.Cost(q)
		}
	}
	return total / norm
}

// SmoothRiskObjective is RiskObjective sampled with anti-aliased coverage
// weights, so near misses of high-cost cells also count.
type SmoothRiskObjective struct {
	BlockedPenalty float64
}

func (SmoothRiskObjective) Name() string { return ObjectiveSmoothRisk }

func (o SmoothRiskObjective) Score(env *grid.Environment, p grid.Path) float64 {
	norm := normaliser(env)
	blocked := o.BlockedPenalty * norm
	var total float64
	for i := 1; i < len(p); i++ {
		total += env.WeightedLineCost(p[i-1], p[i], blocked)
	}
	return total / norm
}

// LengthObjective is the Manhattan path length over the grid diagonal.
type LengthObjective struct{}

func (LengthObjective) Name() string { return ObjectiveLength }

func (LengthObjective) Score(env *grid.Environment, p grid.Path) float64 {
	rows, cols := env.Dims()
	return p.ManhattanLength() / math.Hypot(float64(rows), float64(cols))
}

func normaliser(env *grid.Environment) float64 {
	if m := env.MaxCost(); m > 0 {
		return m
	}
	return 1
}

// ObjectiveByName builds an objective from its config name.
func ObjectiveByName(name string, blockedPenalty float64) (Objective, error) {
	switch name {
	case ObjectiveRisk:
		return RiskObjective{BlockedPenalty: blockedPenalty}, nil
	case ObjectiveSmoothRisk:
		return SmoothRiskObjective{BlockedPenalty: blockedPenalty}, nil
	case ObjectiveLength:
		return LengthObjective{}, nil
	}
	return nil, fmt.Errorf("planner: unknown objective %q", name)
}
