package utils

import (
	"math"
)

// AbsInt returns the absolute value of n.
func AbsInt(n int) int {
	if n < 0 {
		return -1 * n
	}
	return n
}

// MaxInt returns the larger of a and b.
func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// MinInt returns the smaller of a and b.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ClampInt restricts n to [lo, hi].
func ClampInt(n, lo, hi int) int {
	return MinInt(MaxInt(n, lo), hi)
}

// ClampF64 restricts n to [lo, hi].
func ClampF64(n, lo, hi float64) float64 {
	return math.Min(math.Max(n, lo), hi)
}

// ClampUint8 rounds n and restricts it to the byte range.
func ClampUint8(n float64) uint8 {
	return uint8(ClampF64(math.Round(n), 0, 255))
}

// Square returns n*n. Math.pow( x, 2 ) is slow, this is faster.
func Square(n float64) float64 {
	return n * n
}

// SquareInt returns n*n.
func SquareInt(n int) int {
	return n * n
}
