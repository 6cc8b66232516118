// Package heuristic provides remaining-cost estimates for the planners.
// Geometric variants ignore the grid; risk-aware variants add a penalty for
// the cost along the line of sight to the goal.
package heuristic

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pthm-cable/riskroute/grid"
)

// ErrUnknownHeuristic is returned by New for an unrecognised kind.
var ErrUnknownHeuristic = errors.New("heuristic: unknown kind")

// Kind names accepted by New and the config file.
const (
	KindEuclidean     = "euclidean"
	KindManhattan     = "manhattan"
	KindRiskEuclidean = "risk_euclidean"
	KindRiskManhattan = "risk_manhattan"
)

// DefaultCacheSize is the line-of-sight cache capacity used when none is
// configured.
const DefaultCacheSize = 1 << 16

// Heuristic estimates the remaining cost between two cells.
// Estimate(p, p) is 0 for every implementation.
type Heuristic interface {
	Estimate(from, to grid.Position) float64
	Name() string
}

// RiskAware is implemented by heuristics that consult the cost grid.
type RiskAware interface {
	Heuristic
	RiskRatio() float64
}

// Distance is a purely geometric metric.
type Distance func(a, b grid.Position) float64

// Euclidean is the straight-line distance heuristic.
type Euclidean struct{}

func (Euclidean) Estimate(from, to grid.Position) float64 { return grid.Euclidean(from, to) }
func (Euclidean) Name() string                            { return KindEuclidean }

// Manhattan is the L1 distance heuristic.
type Manhattan struct{}

func (Manhattan) Estimate(from, to grid.Position) float64 { return grid.Manhattan(from, to) }
func (Manhattan) Name() string                            { return KindManhattan }

// Risk adds k*log10(S) to a base distance, where S is the summed cost of
// the passable cells on the line of sight from→to. The risk term applies
// only when S > 1.
type Risk struct {
	env   *grid.Environment
	base  Distance
	kind  string
	ratio float64
	sums  *lru.Cache[uint64, float64]
}

// NewRisk builds a risk-aware heuristic. A negative ratio is clamped to 0.
// cacheSize <= 0 selects DefaultCacheSize.
func NewRisk(env *grid.Environment, manhattan bool, ratio float64, cacheSize int) *Risk {
	if ratio < 0 {
		slog.Warn("negative risk-to-distance ratio clamped to 0", "ratio", ratio)
		ratio = 0
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[uint64, float64](cacheSize)

	r := &Risk{
		env:   env,
		base:  grid.Euclidean,
		kind:  KindRiskEuclidean,
		ratio: ratio,
		sums:  cache,
	}
	if manhattan {
		r.base = grid.Manhattan
		r.kind = KindRiskManhattan
	}
	return r
}

// Estimate implements Heuristic.
func (r *Risk) Estimate(from, to grid.Position) float64 {
	if from == to {
		return 0
	}
	d := r.base(from, to)
	if r.ratio == 0 {
		return d
	}
	if s := r.lineSum(from, to); s > 1 {
		return d + r.ratio*math.Log10(s)
	}
	return d
}

// lineSum memoises LineSum. Line is symmetric, so the key is the unordered
// cell pair.
func (r *Risk) lineSum(a, b grid.Position) float64 {
	ia, ib := uint64(r.env.Index(a)), uint64(r.env.Index(b))
	if ib < ia {
		ia, ib = ib, ia
	}
	key := ia<<32 | ib
	if s, ok := r.sums.Get(key); ok {
		return s
	}
	s := r.env.LineSum(a, b)
	r.sums.Add(key, s)
	return s
}

func (r *Risk) Name() string       { return r.kind }
func (r *Risk) RiskRatio() float64 { return r.ratio }

// New builds the heuristic named by kind. env is only used by risk-aware
// kinds.
func New(kind string, env *grid.Environment, ratio float64, cacheSize int) (Heuristic, error) {
	switch kind {
	case KindEuclidean:
		return Euclidean{}, nil
	case KindManhattan:
		return Manhattan{}, nil
	case KindRiskEuclidean:
		return NewRisk(env, false, ratio, cacheSize), nil
	case KindRiskManhattan:
		return NewRisk(env, true, ratio, cacheSize), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownHeuristic, kind)
}

// IsRiskAware reports whether h consults the cost grid.
func IsRiskAware(h Heuristic) bool {
	_, ok := h.(RiskAware)
	return ok
}
