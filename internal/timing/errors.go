package timing

import "errors"

var (
	// ErrRingExhausted is returned by Record when every slot of the query
	// ring is in use since the last completed measurement.
	ErrRingExhausted = errors.New("timing: timestamp query ring exhausted")

	// ErrInvalidCapacity is returned by New for a zero pair count.
	ErrInvalidCapacity = errors.New("timing: pair capacity must be positive")
)
