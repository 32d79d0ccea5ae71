package model

// TriangleSettings controls the triangle filter on pivot highs.
type TriangleSettings struct {
	Enabled       bool
	AllowedShapes []Shape
	TimeScale     float64 // price units per calendar day
	TolerancePct  float64
	MinSymmetry   float64 // 0..100
}

// Allows reports whether shape is in the allowed set.
func (s TriangleSettings) Allows(shape Shape) bool {
	for _, a := range s.AllowedShapes {
		if a == shape {
			return true
		}
	}
	return false
}

// BacktestSettings controls reversal validation.
type BacktestSettings struct {
	Lookback          int // closes used for the prior-trend fit
	ToleranceWindow   int // bars scanned after the projected bar
	MinSuccessCandles int // consecutive confirming closes required
	MinOverlapFilter  int // only validate projections with at least this many overlaps
}
