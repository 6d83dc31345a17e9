package privacy

import "errors"

var (
	// ErrInvalidParameter indicates a criterion parameter below its minimum.
	ErrInvalidParameter = errors.New("privacy: invalid criterion parameter")
	// ErrUnknownCriterion indicates a criterion name that is not supported.
	ErrUnknownCriterion = errors.New("privacy: unknown criterion")
)
