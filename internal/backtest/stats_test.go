package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleScope/internal/model"
)

func results() []model.ValidationResult {
	return []model.ValidationResult{
		{Interval: 30, Success: true, CandlesToReversal: 1},
		{Interval: 30, Success: true, CandlesToReversal: 3},
		{Interval: 30, Success: false, Reason: model.ReasonNoReversal},
		{Interval: 60, Success: true, CandlesToReversal: 1},
		{Interval: 60, Success: false, Reason: model.ReasonMissingDate},
		{Interval: 90, Success: false, Reason: model.ReasonNoReversal},
	}
}

func TestAnalyzeIntervals(t *testing.T) {
	stats := AnalyzeIntervals(results())
	require.Len(t, stats, 3)

	s30 := stats[0]
	assert.Equal(t, 30, s30.Interval)
	assert.Equal(t, 3, s30.Total)
	assert.Equal(t, 2, s30.Successes)
	assert.InDelta(t, 66.666, s30.SuccessRate, 1e-2)
	assert.Equal(t, 1, s30.Immediate)
	assert.InDelta(t, 33.333, s30.ImmediateRate, 1e-2)
	assert.InDelta(t, 2.0, s30.AvgCandlesToReversal, 1e-9)

	s60 := stats[1]
	assert.InDelta(t, 50, s60.SuccessRate, 1e-9)
	assert.InDelta(t, 1.0, s60.AvgCandlesToReversal, 1e-9)

	s90 := stats[2]
	assert.Zero(t, s90.SuccessRate)
	assert.Zero(t, s90.AvgCandlesToReversal)
}

func TestGenerateInsights(t *testing.T) {
	rs := results()
	insights := GenerateInsights(AnalyzeIntervals(rs), rs)
	assert.Equal(t, []string{
		"Top performing intervals: 30 (66.7%)",
		"67% of successful reversals occurred immediately (next candle)",
		"Average reversal occurs within 1.7 candles of projection",
		"Overall success rate: 50.0% (3/6)",
	}, insights)
}

func TestGenerateInsights_Empty(t *testing.T) {
	assert.Empty(t, GenerateInsights(nil, nil))

	failed := []model.ValidationResult{{Interval: 10, Reason: model.ReasonNoReversal}}
	assert.Equal(t, []string{"Overall success rate: 0.0% (0/1)"}, GenerateInsights(AnalyzeIntervals(failed), failed))
}
