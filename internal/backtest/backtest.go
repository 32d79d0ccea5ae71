// Package backtest checks whether price reversed near projected dates and
// summarises the hit rate per interval.
package backtest

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"CycleScope/internal/model"
)

// Backtester validates projections against a fixed price series.
type Backtester struct {
	bars     []model.PriceBar
	index    map[int64]int
	settings model.BacktestSettings
}

// New indexes bars by timestamp for constant-time projected-date lookups.
func New(bars []model.PriceBar, settings model.BacktestSettings) *Backtester {
	idx := make(map[int64]int, len(bars))
	for i, b := range bars {
		idx[b.Time.UnixNano()] = i
	}
	return &Backtester{bars: bars, index: idx, settings: settings}
}

func (bt *Backtester) lookup(t time.Time) (int, bool) {
	i, ok := bt.index[t.UnixNano()]
	return i, ok
}

// SourceType classifies a bar as a high-type pivot when its close sits
// nearer the high than the low. It ignores the detected pivot kind.
func SourceType(b model.PriceBar) model.PivotKind {
	if math.Abs(b.High-b.Close) < math.Abs(b.Close-b.Low) {
		return model.PivotHigh
	}
	return model.PivotLow
}

// TrendBefore fits a line through the lookback closes before bar idx.
// It returns false when fewer than lookback bars precede idx.
func TrendBefore(bars []model.PriceBar, idx, lookback int) (model.Trend, bool) {
	if lookback < 2 || idx < lookback || idx > len(bars) {
		return model.TrendIndeterminate, false
	}
	slope := talib.LinearRegSlope(model.Closes(bars[idx-lookback:idx]), lookback)[lookback-1]
	if slope > 0 {
		return model.TrendUp, true
	}
	return model.TrendDown, true
}

// Validate checks one projection. Failures are reported on the result, never
// as an error.
func (bt *Backtester) Validate(p model.Projection) model.ValidationResult {
	res := model.ValidationResult{
		SourceDate:    p.Source,
		Interval:      p.Interval,
		ProjectedDate: p.Projected,
	}
	if si, ok := bt.lookup(p.Source); ok {
		res.SourceType = SourceType(bt.bars[si])
	}

	pi, ok := bt.lookup(p.Projected)
	if !ok {
		res.Reason = model.ReasonMissingDate
		return res
	}
	trend, ok := TrendBefore(bt.bars, pi, bt.settings.Lookback)
	if !ok {
		res.Reason = model.ReasonInsufficientHistory
		return res
	}
	w := bt.settings.ToleranceWindow
	if pi+w >= len(bt.bars) {
		res.Reason = model.ReasonInsufficientFuture
		return res
	}
	res.PriorTrend = trend

	ref := bt.bars[pi].Close
	need := bt.settings.MinSuccessCandles
	if need < 1 {
		need = 1
	}
	run := 0
	for k := 1; k <= w; k++ {
		c := bt.bars[pi+k].Close
		confirms := c > ref
		if trend == model.TrendUp {
			confirms = c < ref
		}
		if !confirms {
			run = 0
			continue
		}
		if run++; run >= need {
			res.Success = true
			res.CandlesToReversal = k - need + 1
			res.ReversalDate = bt.bars[pi+k].Time
			res.Reason = model.ReasonSuccess
			return res
		}
	}
	res.Reason = model.ReasonNoReversal
	return res
}

// ValidateAll validates every projection in order.
func (bt *Backtester) ValidateAll(projections []model.Projection) []model.ValidationResult {
	out := make([]model.ValidationResult, len(projections))
	for i, p := range projections {
		out[i] = bt.Validate(p)
	}
	return out
}

// Analyze validates projections and aggregates them per interval.
func (bt *Backtester) Analyze(projections []model.Projection) ([]model.ValidationResult, []model.IntervalStats) {
	results := bt.ValidateAll(projections)
	return results, AnalyzeIntervals(results)
}
