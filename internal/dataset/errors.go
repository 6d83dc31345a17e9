package dataset

import "errors"

var (
	// ErrNonRectangular indicates rows of differing lengths.
	ErrNonRectangular = errors.New("dataset: all rows must have the same length")
	// ErrEmptyHierarchy indicates a hierarchy without rows or levels.
	ErrEmptyHierarchy = errors.New("dataset: hierarchy must have at least one row and one level")
	// ErrUncoveredValue indicates a quasi-identifier code without a hierarchy row.
	ErrUncoveredValue = errors.New("dataset: value is not covered by its hierarchy")
	// ErrHierarchyCount indicates a hierarchy count different from the quasi-identifier count.
	ErrHierarchyCount = errors.New("dataset: one hierarchy per quasi-identifier is required")
	// ErrRowCount indicates analyzed and quasi-identifier matrices of different heights.
	ErrRowCount = errors.New("dataset: analyzed rows do not match quasi-identifier rows")
	// ErrUnknownColumn indicates a schema column missing from the CSV header.
	ErrUnknownColumn = errors.New("dataset: column not found in header")
	// ErrMalformedRow indicates a CSV row with fewer fields than required.
	ErrMalformedRow = errors.New("dataset: row has too few fields")
)
