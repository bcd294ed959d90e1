// Package sizing provides safe size arithmetic and conversions to prevent overflow.
package sizing

import "math"

// ToInt converts a uint64 to int, returning overflowErr if it doesn't fit.
func ToInt(size uint64, overflowErr error) (int, error) {
	if size > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// Fits reports whether the half-open range [off, off+n) lies within a
// source of the given size.
func Fits(off, n uint64, size int64) bool {
	if size < 0 {
		return false
	}
	end := off + n
	if end < off {
		return false
	}
	return end <= uint64(size)
}
