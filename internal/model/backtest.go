package model

import "time"

// Trend is the direction of the closes leading into a projected bar.
type Trend string

const (
	TrendUp            Trend = "UP"
	TrendDown          Trend = "DOWN"
	TrendIndeterminate Trend = ""
)

// Failure reasons recorded on a ValidationResult.
const (
	ReasonSuccess             = "success"
	ReasonMissingDate         = "projected date not in data"
	ReasonInsufficientHistory = "insufficient history"
	ReasonInsufficientFuture  = "insufficient future data"
	ReasonNoReversal          = "no reversal within window"
)

// ValidationResult is the backtest outcome for one projection.
type ValidationResult struct {
	SourceDate        time.Time
	SourceType        PivotKind // re-derived from the source bar's shape
	Interval          int
	ProjectedDate     time.Time
	Success           bool
	CandlesToReversal int
	ReversalDate      time.Time // zero unless Success
	PriorTrend        Trend
	Reason            string
}

// IntervalStats aggregates validation results for one interval.
type IntervalStats struct {
	Interval             int
	Total                int
	Successes            int
	SuccessRate          float64 // percent
	Immediate            int
	ImmediateRate        float64 // percent
	AvgCandlesToReversal float64

	candleSum int
}

// AddResult folds one validation result into the stats.
func (s *IntervalStats) AddResult(r ValidationResult) {
	s.Total++
	if !r.Success {
		return
	}
	s.Successes++
	s.candleSum += r.CandlesToReversal
	if r.CandlesToReversal == 1 {
		s.Immediate++
	}
}

// Finalize computes the rates and averages from the counters.
func (s *IntervalStats) Finalize() {
	s.SuccessRate, s.ImmediateRate, s.AvgCandlesToReversal = 0, 0, 0
	if s.Total > 0 {
		s.SuccessRate = float64(s.Successes) / float64(s.Total) * 100
		s.ImmediateRate = float64(s.Immediate) / float64(s.Total) * 100
	}
	if s.Successes > 0 {
		s.AvgCandlesToReversal = float64(s.candleSum) / float64(s.Successes)
	}
}
