package snapshot

import "math"

// FloatBitsEqual32 compares two float32 values by bit pattern rather than
// numeric value. Numeric equality would treat -0.0 and +0.0 as equal and
// would treat two NaNs with different payloads as unequal only by accident
// (since NaN != NaN in IEEE 754); bitwise comparison is the only relation
// that preserves an exact round trip through the delta engine.
func FloatBitsEqual32(a, b float32) bool {
	return math.Float32bits(a) == math.Float32bits(b)
}

// FloatBitsEqual64 is the float64 counterpart of FloatBitsEqual32.
func FloatBitsEqual64(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}
