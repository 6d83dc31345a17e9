package engine

import "errors"

var (
	// ErrNoPredicate indicates a checker configured without a privacy predicate.
	ErrNoPredicate = errors.New("engine: privacy predicate is required")
	// ErrNoMetric indicates a checker configured without an information loss metric.
	ErrNoMetric = errors.New("engine: information loss metric is required")
	// ErrNoPriorState indicates an incremental transformation without a previous table.
	ErrNoPriorState = errors.New("engine: no previous transformation to derive from")
	// ErrNoDataset indicates a checker created without input data.
	ErrNoDataset = errors.New("engine: dataset is required")
)
