package lattice

import "errors"

var (
	// ErrDimensionMismatch indicates a level vector whose length differs from the configured dimensionality.
	ErrDimensionMismatch = errors.New("lattice: level vector length does not match dimensionality")
	// ErrLevelOutOfRange indicates a level below zero or above the column's hierarchy height.
	ErrLevelOutOfRange = errors.New("lattice: generalization level out of range")
	// ErrEmptyLattice indicates a space without columns.
	ErrEmptyLattice = errors.New("lattice: at least one column is required")
)
