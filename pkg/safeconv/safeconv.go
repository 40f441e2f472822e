// Package safeconv provides checked integer conversions for arena indices and on-disk sizes.
package safeconv

import (
	"errors"
	"fmt"
	"math"
)

// MaxInt is the maximum value for int type (platform-dependent).
const MaxInt = int(^uint(0) >> 1)

// MinInt is the minimum value for int type (platform-dependent).
const MinInt = -MaxInt - 1

// MaxUint32 is the maximum value for uint32 type.
const MaxUint32 = uint32(math.MaxUint32)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("integer overflow")

// MustIntToUint32 converts int to uint32, panics on bounds violation.
// Use only when bounds violations are logically impossible.
func MustIntToUint32(v int) uint32 {
	if v < 0 || uint64(v) > uint64(MaxUint32) {
		panic("safeconv: int to uint32 out of bounds")
	}

	return uint32(v)
}

// MustUint32ToInt converts uint32 to int, panics if int cannot hold it.
func MustUint32ToInt(v uint32) int {
	if uint64(v) > uint64(MaxInt) {
		panic("safeconv: uint32 to int overflow")
	}

	return int(v)
}

// Int64ToInt converts int64 to int, returning ErrOverflow on 32-bit platforms
// when the value is out of range.
func Int64ToInt(v int64) (int, error) {
	if v > int64(MaxInt) || v < int64(MinInt) {
		return 0, fmt.Errorf("%w: %d does not fit int", ErrOverflow, v)
	}

	return int(v), nil
}
