package camera

import "golang.org/x/exp/constraints"

// Clamp returns f clamped to [low, high].
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Lerp interpolates linearly from a to b.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}
