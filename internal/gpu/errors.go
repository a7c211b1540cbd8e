package gpu

import "errors"

// Device errors.
var (
	// ErrNilHALDevice is returned when an operation needs a device and none was given.
	ErrNilHALDevice = errors.New("gpu: hal device is nil")

	// ErrNilHALQueue is returned when an operation needs a queue and none was given.
	ErrNilHALQueue = errors.New("gpu: hal queue is nil")

	// ErrInvalidDimensions is returned when a target is requested with a zero size.
	ErrInvalidDimensions = errors.New("gpu: invalid target dimensions")
)
