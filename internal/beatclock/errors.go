package beatclock

import "errors"

// ErrInvalidInterval reports a non-positive beat interval.
var ErrInvalidInterval = errors.New("beat interval must be positive")
