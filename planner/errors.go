package planner

import "errors"

// Configuration errors. They are returned before any search work starts.
var (
	ErrNotRiskAware     = errors.New("planner: heuristic is not risk-aware")
	ErrNeedsDiagonals   = errors.New("planner: environment must be 8-connected")
	ErrObjectiveWeights = errors.New("planner: objectives and weights must be non-empty and of equal length")
	ErrUnknownAlgorithm = errors.New("planner: unknown algorithm")
	ErrOutOfBounds      = errors.New("planner: position out of bounds")
)
