package bootstrap

import "errors"

// Validation failures. All of them are detected before any random draw happens.
var (
	ErrInvalidBoundaries       = errors.New("invalid category boundaries")
	ErrInvalidReturn           = errors.New("invalid return value")
	ErrEmptyPool               = errors.New("historical pool is empty")
	ErrInvalidAllocation       = errors.New("allocation must be within [0, 1]")
	ErrInvalidSampleParameters = errors.New("years and samples must be positive")
	ErrPayoffCategoryMismatch  = errors.New("payoff vector does not match category space")
	ErrNonPositiveGrowth       = errors.New("period growth factor must be positive")
	ErrEmptyTrajectory         = errors.New("trajectory has no paths or no periods")
	ErrInvalidQuantile         = errors.New("quantile must be within [0, 1]")
)
