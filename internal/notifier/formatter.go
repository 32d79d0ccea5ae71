package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"CycleScope/internal/engine"
	"CycleScope/internal/model"
)

// MaxOverlapLines caps the overlap rows listed in one message.
const MaxOverlapLines = 10

func stamp(t time.Time, intraday bool) string {
	if intraday {
		return t.Format("02-Jan-2006 15:04")
	}
	return t.Format("02-Jan-2006")
}

// FormatRunReport formats the digest sent after every scheduled run.
func FormatRunReport(symbol string, res *engine.Result, intraday bool) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔭 <b>CycleScope</b> | %s | %s\n\n", html.EscapeString(symbol), res.StartedAt.Format("2006-01-02 15:04")))

	highs, lows := engine.CountPivots(res.Pivots)
	b.WriteString(fmt.Sprintf("Range: %.2f – %.2f\n", res.PriceLow, res.PriceHigh))
	b.WriteString(fmt.Sprintf("Pivots: %d (%d H / %d L) of %d candidates\n", len(res.Pivots), highs, lows, len(res.Candidates)))
	b.WriteString(fmt.Sprintf("Projections: %d\n\n", len(res.Projections)))

	b.WriteString(FormatOverlaps(res, intraday))

	if len(res.Insights) > 0 {
		b.WriteString("\n💡 <b>Insights:</b>\n")
		for _, s := range res.Insights {
			b.WriteString("  • " + html.EscapeString(s) + "\n")
		}
	}
	return b.String()
}

// FormatOverlaps lists the strongest overlap dates.
func FormatOverlaps(res *engine.Result, intraday bool) string {
	var b strings.Builder
	if len(res.Overlaps) == 0 {
		b.WriteString("📅 No overlap dates at the current threshold.\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("📅 <b>Overlap dates</b> (%d):\n", len(res.Overlaps)))
	for i, g := range res.Overlaps {
		if i == MaxOverlapLines {
			b.WriteString(fmt.Sprintf("  … %d more\n", len(res.Overlaps)-MaxOverlapLines))
			break
		}
		ivs := make([]string, 0, len(g.Projections))
		for _, iv := range g.Intervals() {
			ivs = append(ivs, fmt.Sprint(iv))
		}
		b.WriteString(fmt.Sprintf("  %s ×%d [%s]\n", stamp(g.Time, intraday), g.Count, strings.Join(ivs, ",")))
	}
	return b.String()
}

// FormatStats formats the per-interval backtest table.
func FormatStats(stats []model.IntervalStats) string {
	var b strings.Builder
	if len(stats) == 0 {
		b.WriteString("📈 No backtest results. Enable backtest in the config.\n")
		return b.String()
	}
	b.WriteString("📈 <b>Interval backtest:</b>\n")
	for _, s := range stats {
		b.WriteString(fmt.Sprintf("  %4d: %d/%d (%.1f%%) immediate %.0f%% avg %.1f\n",
			s.Interval, s.Successes, s.Total, s.SuccessRate, s.ImmediateRate, s.AvgCandlesToReversal))
	}
	return b.String()
}
