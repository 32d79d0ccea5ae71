package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"CycleScope/internal/calendar"
	"CycleScope/internal/model"
)

// Observer receives the outcome of each run, e.g. to export metrics.
type Observer interface {
	ObserveRun(res *Result, elapsed time.Duration)
	ObserveFailure(err error, elapsed time.Duration)
}

// Runner wraps Run with logging, run identity and an optional observer.
// The pipeline itself stays free of logging.
type Runner struct {
	Logger   zerolog.Logger
	Observer Observer
	now      func() time.Time
}

// NewRunner creates a Runner. obs may be nil.
func NewRunner(logger zerolog.Logger, obs Observer) *Runner {
	return &Runner{Logger: logger, Observer: obs, now: time.Now}
}

// Run analyses series and stamps the result with a fresh run ID.
func (r *Runner) Run(series *model.PriceSeries, cal *calendar.Calendar, s Settings) (*Result, error) {
	now := r.now
	if now == nil {
		now = time.Now
	}
	runID := uuid.NewString()
	start := now()
	logger := r.Logger.With().Str("run_id", runID).Str("symbol", series.Symbol).Logger()

	logger.Info().
		Int("bars", len(series.Bars)).
		Int("holidays", cal.Len()).
		Int("radius", s.Radius).
		Float64("min_move", s.MinMove).
		Ints("intervals", s.Intervals).
		Str("unit", string(s.Unit)).
		Bool("triangle", s.Triangle.Enabled).
		Bool("backtest", s.RunBacktest).
		Msg("analysis started")

	res, err := Run(series.Bars, cal, s)
	elapsed := now().Sub(start)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", elapsed).Msg("analysis failed")
		if r.Observer != nil {
			r.Observer.ObserveFailure(err, elapsed)
		}
		return nil, err
	}
	res.RunID = runID
	res.StartedAt = start

	highs, lows := CountPivots(res.Pivots)
	logger.Info().
		Int("candidates", len(res.Candidates)).
		Int("pivot_highs", highs).
		Int("pivot_lows", lows).
		Int("projections", len(res.Projections)).
		Int("overlaps", len(res.Overlaps)).
		Int("validations", len(res.Validations)).
		Dur("elapsed", elapsed).
		Msg("analysis finished")
	if r.Observer != nil {
		r.Observer.ObserveRun(res, elapsed)
	}
	return res, nil
}
