package calculator

import (
	"errors"

	"github.com/markcheno/go-talib"

	"CycleScope/internal/model"
)

var errEmptyWindow = errors.New("empty window")

// HighestHigh returns the index (within bars) and value of the maximum high.
// Ties resolve to the earliest bar; pivot dominance and triangle base points
// depend on that, so this stays a plain scan.
func HighestHigh(bars []model.PriceBar) (idx int, high float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errEmptyWindow
	}
	high = bars[0].High
	for i := 1; i < len(bars); i++ {
		if bars[i].High > high {
			idx, high = i, bars[i].High
		}
	}
	return idx, high, nil
}

// LowestLow returns the index (within bars) and value of the minimum low.
// Ties resolve to the earliest bar.
func LowestLow(bars []model.PriceBar) (idx int, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errEmptyWindow
	}
	low = bars[0].Low
	for i := 1; i < len(bars); i++ {
		if bars[i].Low < low {
			idx, low = i, bars[i].Low
		}
	}
	return idx, low, nil
}

// Range returns the overall high and low of bars.
func Range(bars []model.PriceBar) (high, low float64, err error) {
	n := len(bars)
	switch n {
	case 0:
		return 0, 0, errors.New("no bars provided")
	case 1:
		return bars[0].High, bars[0].Low, nil
	}
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range bars {
		highs[i], lows[i] = b.High, b.Low
	}
	return talib.Max(highs, n)[n-1], talib.Min(lows, n)[n-1], nil
}
