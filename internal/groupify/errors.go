package groupify

import "errors"

var (
	// ErrInvalidKey indicates a signature whose width differs from the table's dimensionality.
	ErrInvalidKey = errors.New("groupify: signature width does not match table dimensions")
	// ErrRowsNotTracked indicates an output operation on a table built without row tracking.
	ErrRowsNotTracked = errors.New("groupify: row to class mapping was not recorded")
	// ErrNoPredicate indicates an analysis without a privacy predicate.
	ErrNoPredicate = errors.New("groupify: privacy predicate is required")
	// ErrNotNumeric indicates a numeric aggregate over a non-numeric value.
	ErrNotNumeric = errors.New("groupify: value is not numeric")
	// ErrEmptyDistribution indicates an aggregate over a class without values.
	ErrEmptyDistribution = errors.New("groupify: distribution is empty")
	// ErrUnknownColumn indicates a microaggregation column outside the analyzed columns.
	ErrUnknownColumn = errors.New("groupify: analyzed column out of range")
)
