// Package pivot finds local price extrema over symmetric, pivot-exclusive windows.
package pivot

import (
	"errors"
	"fmt"
	"strings"

	"CycleScope/internal/calculator"
	"CycleScope/internal/model"
)

var (
	ErrEmptySeries    = errors.New("empty price series")
	ErrInvalidRadius  = errors.New("window radius must be at least 1")
	ErrRadiusTooLarge = errors.New("window radius must be smaller than the series length")
	ErrNegativeMove   = errors.New("minimum move must not be negative")
)

// Params configures a pivot scan.
type Params struct {
	Radius  int     // bars on each side of the candidate
	MinMove float64 // required move against each window
	TolPct  float64 // optional side-balance tolerance; 0 disables
}

// Detect scans bars with the given radius and minimum move.
func Detect(bars []model.PriceBar, radius int, minMove float64) ([]model.Pivot, error) {
	return DetectWithParams(bars, Params{Radius: radius, MinMove: minMove})
}

// DetectWithParams emits every bar that strictly dominates both of its
// windows. The pivot bar itself is never part of either window. Candidates
// that miss the move (or balance) test are returned with Valid=false.
func DetectWithParams(bars []model.PriceBar, p Params) ([]model.Pivot, error) {
	if err := p.validate(len(bars)); err != nil {
		return nil, err
	}

	r := p.Radius
	out := make([]model.Pivot, 0, len(bars)/(2*r+1)+1)
	for i := r; i < len(bars)-r; i++ {
		left := bars[i-r : i]
		right := bars[i+1 : i+r+1]

		_, leftHigh, _ := calculator.HighestHigh(left)
		_, rightHigh, _ := calculator.HighestHigh(right)
		_, leftLow, _ := calculator.LowestLow(left)
		_, rightLow, _ := calculator.LowestLow(right)

		b := bars[i]
		if b.High > leftHigh && b.High > rightHigh {
			out = append(out, p.candidate(i, b, model.PivotHigh, b.High, b.High-leftLow, b.High-rightLow))
		}
		if b.Low < leftLow && b.Low < rightLow {
			out = append(out, p.candidate(i, b, model.PivotLow, b.Low, leftHigh-b.Low, rightHigh-b.Low))
		}
	}
	return out, nil
}

// Valid filters pivots down to the accepted ones.
func Valid(pivots []model.Pivot) []model.Pivot {
	out := make([]model.Pivot, 0, len(pivots))
	for _, pv := range pivots {
		if pv.Valid {
			out = append(out, pv)
		}
	}
	return out
}

func (p Params) validate(n int) error {
	if n == 0 {
		return ErrEmptySeries
	}
	if p.Radius < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidRadius, p.Radius)
	}
	if p.Radius >= n {
		return fmt.Errorf("%w: radius %d, %d bars", ErrRadiusTooLarge, p.Radius, n)
	}
	if p.MinMove < 0 {
		return fmt.Errorf("%w: got %g", ErrNegativeMove, p.MinMove)
	}
	return nil
}

func (p Params) candidate(i int, b model.PriceBar, kind model.PivotKind, price, movePrev, moveNext float64) model.Pivot {
	move := movePrev
	if moveNext < move {
		move = moveNext
	}

	var reasons []string
	if movePrev < p.MinMove || moveNext < p.MinMove {
		var sides []string
		if movePrev < p.MinMove {
			sides = append(sides, fmt.Sprintf("prev short by %.2f", p.MinMove-movePrev))
		}
		if moveNext < p.MinMove {
			sides = append(sides, fmt.Sprintf("next short by %.2f", p.MinMove-moveNext))
		}
		reasons = append(reasons, "min move miss ("+strings.Join(sides, ", ")+")")
	}
	if p.TolPct > 0 {
		diff := movePrev - moveNext
		if diff < 0 {
			diff = -diff
		}
		if limit := p.TolPct / 100 * move; diff > limit {
			reasons = append(reasons, fmt.Sprintf("side imbalance (%.2f > %.2f)", diff, limit))
		}
	}

	return model.Pivot{
		Index:    i,
		Time:     b.Time,
		Kind:     kind,
		Price:    price,
		MovePrev: movePrev,
		MoveNext: moveNext,
		Move:     move,
		Valid:    len(reasons) == 0,
		Reason:   strings.Join(reasons, "; "),
	}
}
