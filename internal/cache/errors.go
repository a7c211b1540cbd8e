package cache

import "errors"

var (
	// ErrNilDevice is returned when a cache is created without a device.
	ErrNilDevice = errors.New("cache: nil device")

	// ErrNilLayout is returned when a bind group descriptor has no layout.
	ErrNilLayout = errors.New("cache: bind group descriptor has no layout")

	// ErrDuplicateBinding is returned when a bind group descriptor binds
	// two resources at the same index.
	ErrDuplicateBinding = errors.New("cache: bind group descriptor repeats a binding index")

	// ErrLayoutMismatch describes a comparison between descriptors built
	// against different layouts. Such descriptors are never equivalent.
	ErrLayoutMismatch = errors.New("cache: descriptors target different layouts")

	// ErrNoLayout is returned by a LayoutSource that has no layout at the
	// requested group index.
	ErrNoLayout = errors.New("cache: pipeline has no bind group layout at index")
)
