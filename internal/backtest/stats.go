package backtest

import (
	"fmt"
	"sort"
	"strings"

	"CycleScope/internal/model"
)

// topIntervals is how many intervals the ranking insight names at most.
const topIntervals = 3

// AnalyzeIntervals aggregates results per interval, ordered by interval.
func AnalyzeIntervals(results []model.ValidationResult) []model.IntervalStats {
	byInterval := make(map[int]*model.IntervalStats)
	for _, r := range results {
		s, ok := byInterval[r.Interval]
		if !ok {
			s = &model.IntervalStats{Interval: r.Interval}
			byInterval[r.Interval] = s
		}
		s.AddResult(r)
	}

	out := make([]model.IntervalStats, 0, len(byInterval))
	for _, s := range byInterval {
		s.Finalize()
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Interval < out[j].Interval })
	return out
}

// GenerateInsights turns stats and results into short descriptive lines.
func GenerateInsights(stats []model.IntervalStats, results []model.ValidationResult) []string {
	var insights []string

	ranked := append([]model.IntervalStats(nil), stats...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].SuccessRate > ranked[j].SuccessRate })
	if len(ranked) > topIntervals {
		ranked = ranked[:topIntervals]
	}
	var top []string
	for _, s := range ranked {
		if s.SuccessRate > 50 {
			top = append(top, fmt.Sprintf("%d (%.1f%%)", s.Interval, s.SuccessRate))
		}
	}
	if len(top) > 0 {
		insights = append(insights, "Top performing intervals: "+strings.Join(top, ", "))
	}

	var successes, immediate, candles int
	for _, r := range results {
		if !r.Success {
			continue
		}
		successes++
		candles += r.CandlesToReversal
		if r.CandlesToReversal == 1 {
			immediate++
		}
	}
	if successes > 0 {
		insights = append(insights,
			fmt.Sprintf("%.0f%% of successful reversals occurred immediately (next candle)", float64(immediate)/float64(successes)*100),
			fmt.Sprintf("Average reversal occurs within %.1f candles of projection", float64(candles)/float64(successes)),
		)
	}
	if n := len(results); n > 0 {
		insights = append(insights, fmt.Sprintf("Overall success rate: %.1f%% (%d/%d)", float64(successes)/float64(n)*100, successes, n))
	}
	return insights
}
