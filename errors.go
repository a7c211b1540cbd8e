package fur

import "errors"

var (
	// ErrInvalidProvider is returned by NewFromProvider when the provider
	// does not expose a hal device and queue.
	ErrInvalidProvider = errors.New("fur: provider does not expose hal device and queue")

	// ErrInvalidTarget is returned by Frame for a target without a view or
	// with a zero dimension.
	ErrInvalidTarget = errors.New("fur: invalid frame target")

	// ErrDestroyed is returned when the renderer is used after Destroy.
	ErrDestroyed = errors.New("fur: renderer destroyed")
)
