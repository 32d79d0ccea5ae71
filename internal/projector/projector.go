// Package projector pushes pivots forward by a list of intervals, counted
// either in calendar days or in intraday session bars.
package projector

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"CycleScope/internal/calendar"
	"CycleScope/internal/model"
)

// Trading session bounds (local wall clock). Bars starting in
// [SessionOpen, SessionLastBar] are session bars; the session closes at SessionClose.
const (
	SessionOpen    = 9*time.Hour + 15*time.Minute
	SessionLastBar = 15*time.Hour + 29*time.Minute
	SessionClose   = 15*time.Hour + 30*time.Minute
)

var (
	ErrNegativeInterval = errors.New("interval must not be negative")
	ErrNoSessionBars    = errors.New("fewer than two intraday session bars on business days")
	ErrBadGranularity   = errors.New("cannot infer bar granularity")
)

// Project dispatches to the calendar-day or bar-count projector.
func Project(unit model.Unit, pivots []model.Pivot, intervals []int, bars []model.PriceBar, cal *calendar.Calendar) ([]model.Projection, error) {
	switch unit {
	case model.UnitCalendarDays:
		return ProjectCalendarDays(pivots, intervals, cal)
	case model.UnitBars:
		return ProjectBars(pivots, intervals, bars, cal)
	default:
		return nil, fmt.Errorf("unknown interval unit %q", unit)
	}
}

// ProjectCalendarDays adds each interval in days to each pivot. A landing on
// a non-business day moves to the preceding business day.
func ProjectCalendarDays(pivots []model.Pivot, intervals []int, cal *calendar.Calendar) ([]model.Projection, error) {
	if err := checkIntervals(intervals); err != nil {
		return nil, err
	}
	out := make([]model.Projection, 0, len(pivots)*len(intervals))
	for _, src := range sortedSources(pivots) {
		for _, iv := range intervals {
			target := src.AddDate(0, 0, iv)
			projected, err := cal.ScanBackward(target)
			if err != nil {
				return nil, fmt.Errorf("project %s +%dd: %w", src.Format(time.DateTime), iv, err)
			}
			out = append(out, model.Projection{Source: src, Interval: iv, Unit: model.UnitCalendarDays, Projected: projected})
		}
	}
	return out, nil
}

// ProjectBars counts intervals in session bars. Granularity comes from the
// first two session bars; projections may run past the end of the data.
func ProjectBars(pivots []model.Pivot, intervals []int, bars []model.PriceBar, cal *calendar.Calendar) ([]model.Projection, error) {
	if err := checkIntervals(intervals); err != nil {
		return nil, err
	}
	step, err := Granularity(bars, cal)
	if err != nil {
		return nil, err
	}
	s := session{cal: cal, step: step}

	out := make([]model.Projection, 0, len(pivots)*len(intervals))
	for _, src := range sortedSources(pivots) {
		for _, iv := range intervals {
			projected, err := s.advance(src, iv)
			if err != nil {
				return nil, fmt.Errorf("project %s +%d bars: %w", src.Format(time.DateTime), iv, err)
			}
			out = append(out, model.Projection{Source: src, Interval: iv, Unit: model.UnitBars, Projected: projected})
		}
	}
	return out, nil
}

// SessionBars keeps bars that start inside the trading session on a business day.
func SessionBars(bars []model.PriceBar, cal *calendar.Calendar) []model.PriceBar {
	out := make([]model.PriceBar, 0, len(bars))
	for _, b := range bars {
		tod := timeOfDay(b.Time)
		if tod >= SessionOpen && tod <= SessionLastBar && cal.IsBusinessDay(b.Time) {
			out = append(out, b)
		}
	}
	return out
}

// Granularity infers the bar size, in whole minutes, from the first two session bars.
func Granularity(bars []model.PriceBar, cal *calendar.Calendar) (time.Duration, error) {
	sb := SessionBars(bars, cal)
	if len(sb) < 2 {
		return 0, ErrNoSessionBars
	}
	step := sb[1].Time.Sub(sb[0].Time).Truncate(time.Minute)
	if step <= 0 {
		return 0, fmt.Errorf("%w: delta %s between %s and %s", ErrBadGranularity, step,
			sb[0].Time.Format(time.DateTime), sb[1].Time.Format(time.DateTime))
	}
	if (SessionClose-step-SessionOpen)/step < 1 {
		return 0, fmt.Errorf("%w: bar size %s leaves no room in the session", ErrBadGranularity, step)
	}
	return step, nil
}

type session struct {
	cal  *calendar.Calendar
	step time.Duration
}

// advance walks n bars forward from t, filling each trading day up to its
// last bar start before rolling to the next business day's open.
func (s session) advance(t time.Time, n int) (time.Time, error) {
	cur, err := s.clamp(t)
	if err != nil {
		return time.Time{}, err
	}
	remaining := n
	// Granularity guarantees every open has room for a bar, so each rollover
	// consumes at least one bar and the loop ends after at most n+1 rolls.
	// The unbounded part is the holiday scan, capped by calendar.MaxScanDays.
	for remaining > 0 {
		lastStart := at(cur, SessionClose).Add(-s.step)
		avail := 0
		if cur.Before(lastStart) {
			avail = int(lastStart.Sub(cur) / s.step)
		}
		if avail <= 0 {
			if cur, err = s.nextOpen(cur); err != nil {
				return time.Time{}, err
			}
			continue
		}
		take := remaining
		if avail < take {
			take = avail
		}
		cur = cur.Add(time.Duration(take) * s.step)
		remaining -= take
	}
	return cur, nil
}

// clamp moves a start point that sits outside the session onto the session grid.
func (s session) clamp(t time.Time) (time.Time, error) {
	if !s.cal.IsBusinessDay(t) || timeOfDay(t) > SessionLastBar {
		return s.nextOpen(t)
	}
	if timeOfDay(t) < SessionOpen {
		return at(t, SessionOpen), nil
	}
	return t, nil
}

func (s session) nextOpen(t time.Time) (time.Time, error) {
	d, err := s.cal.ScanForward(at(t, 0).AddDate(0, 0, 1))
	if err != nil {
		return time.Time{}, err
	}
	return at(d, SessionOpen), nil
}

func at(t time.Time, tod time.Duration) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).Add(tod)
}

func timeOfDay(t time.Time) time.Duration {
	return t.Sub(at(t, 0))
}

func checkIntervals(intervals []int) error {
	for _, iv := range intervals {
		if iv < 0 {
			return fmt.Errorf("%w: %d", ErrNegativeInterval, iv)
		}
	}
	return nil
}

func sortedSources(pivots []model.Pivot) []time.Time {
	out := make([]time.Time, len(pivots))
	for i, p := range pivots {
		out[i] = p.Time
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
