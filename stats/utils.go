package stats

import "math"

// WeightedMean averages a and b by their weights, degrading to zero when
// both weights are zero. A side with zero weight leaves the other unchanged.
func WeightedMean(a, wa, b, wb float64) float64 {
	switch {
	case wa == 0 && wb == 0:
		return 0
	case wa == 0:
		return b
	case wb == 0:
		return a
	}
	return (a*wa + b*wb) / (wa + wb)
}

// Sign returns -1, 0 or 1. NaN has sign 0.
func Sign(x float64) float64 {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	default:
		return 0
	}
}

// FloorIndex is floor(x) as an int64, clamped to the int64 range so that
// infinities land on the extreme indexes.
func FloorIndex(x float64) int64 {
	f := math.Floor(x)
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}
