// Package triangle scores the apex/base geometry around pivot highs.
package triangle

import (
	"math"
	"sort"

	"CycleScope/internal/calculator"
	"CycleScope/internal/model"
)

// Distance is the Euclidean distance between two vertices after mapping one
// calendar day to timeScale price units.
func Distance(a, b model.Point, timeScale float64) float64 {
	days := math.Abs(b.Time.Sub(a.Time).Hours() / 24)
	price := math.Abs(b.Price - a.Price)
	return math.Hypot(days*timeScale, price)
}

// Classify labels a triangle from its three side lengths. Only the pairwise
// ratios matter, so the result is invariant to uniform scaling.
func Classify(sides [3]float64, tolPct float64) model.Shape {
	s := sides
	sort.Float64s(s[:])
	limit := 1 + tolPct/100

	if ratio(s[2], s[0]) <= limit {
		return model.ShapeEquilateral
	}
	if ratio(s[1], s[0]) <= limit || ratio(s[2], s[1]) <= limit {
		return model.ShapeIsosceles
	}
	return model.ShapeScalene
}

// ratio returns long/short for non-negative sides; a zero short side only
// matches a zero long side.
func ratio(long, short float64) float64 {
	if short == 0 {
		if long == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return long / short
}

// SymmetryScore blends time balance (bar distances) and price balance
// (|apex − base|) into a 0..100 score. Swapping left and right leaves it unchanged.
func SymmetryScore(apex, left, right model.Point) float64 {
	leftDur := float64(apex.Index - left.Index)
	rightDur := float64(right.Index - apex.Index)
	leftMove := math.Abs(apex.Price - left.Price)
	rightMove := math.Abs(apex.Price - right.Price)

	score := (balance(math.Abs(leftDur), math.Abs(rightDur)) + balance(leftMove, rightMove)) / 2
	return math.Max(0, math.Min(100, score))
}

func balance(a, b float64) float64 {
	hi := math.Max(a, b)
	if hi == 0 {
		if a == b {
			return 100
		}
		return 0
	}
	return 100 * (1 - math.Abs(a-b)/hi)
}

// Analyze builds the formation around the pivot high at bar idx. The bases
// are the lowest lows in the radius bars before and after the apex. It
// returns false when either window is empty.
func Analyze(bars []model.PriceBar, idx, radius int, price, timeScale, tolPct float64) (*model.TriangleFormation, bool) {
	if idx < 0 || idx >= len(bars) || radius < 1 {
		return nil, false
	}
	leftStart := idx - radius
	if leftStart < 0 {
		leftStart = 0
	}
	rightEnd := idx + radius + 1
	if rightEnd > len(bars) {
		rightEnd = len(bars)
	}

	li, lLow, err := calculator.LowestLow(bars[leftStart:idx])
	if err != nil {
		return nil, false
	}
	ri, rLow, err := calculator.LowestLow(bars[idx+1 : rightEnd])
	if err != nil {
		return nil, false
	}

	apex := model.Point{Index: idx, Time: bars[idx].Time, Price: price}
	left := model.Point{Index: leftStart + li, Time: bars[leftStart+li].Time, Price: lLow}
	right := model.Point{Index: idx + 1 + ri, Time: bars[idx+1+ri].Time, Price: rLow}

	f := &model.TriangleFormation{
		Apex:   apex,
		Left:   left,
		Right:  right,
		SideAL: Distance(apex, left, timeScale),
		SideAR: Distance(apex, right, timeScale),
		SideLR: Distance(left, right, timeScale),
	}
	f.Shape = Classify([3]float64{f.SideAL, f.SideAR, f.SideLR}, tolPct)
	f.Symmetry = SymmetryScore(apex, left, right)
	return f, true
}

// Filter applies the triangle rule to pivot highs. Lows pass through
// untouched; highs are kept only when their formation exists, has an allowed
// shape and meets the symmetry floor. Kept highs are copies carrying the
// formation. With the filter disabled the input is returned as is.
func Filter(bars []model.PriceBar, pivots []model.Pivot, radius int, s model.TriangleSettings) []model.Pivot {
	if !s.Enabled {
		return pivots
	}
	out := make([]model.Pivot, 0, len(pivots))
	for _, p := range pivots {
		if p.Kind != model.PivotHigh {
			out = append(out, p)
			continue
		}
		f, ok := Analyze(bars, p.Index, radius, p.Price, s.TimeScale, s.TolerancePct)
		if !ok {
			continue
		}
		if Keep(f, s) {
			p.Triangle = f
			out = append(out, p)
		}
	}
	return out
}

// Keep reports whether a formation passes the shape and symmetry rule.
func Keep(f *model.TriangleFormation, s model.TriangleSettings) bool {
	return f != nil && s.Allows(f.Shape) && f.Symmetry >= s.MinSymmetry
}
