// Package mutils holds small generic numeric helpers.
package mutils

import "golang.org/x/exp/constraints"

// Number is any integer or float type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Clamp limits x to [lo, hi].
func Clamp[T Number](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Clamp01 limits x to [0, 1].
func Clamp01[T constraints.Float](x T) T {
	return Clamp(x, 0, 1)
}

// Lerp interpolates linearly from a to b without clamping t.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}
