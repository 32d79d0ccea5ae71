// Package engine wires pivot detection, triangle filtering, projection,
// overlap counting and reversal backtesting into one synchronous run.
package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"CycleScope/internal/backtest"
	"CycleScope/internal/calculator"
	"CycleScope/internal/calendar"
	"CycleScope/internal/model"
	"CycleScope/internal/overlap"
	"CycleScope/internal/pivot"
	"CycleScope/internal/projector"
	"CycleScope/internal/triangle"
)

// Settings is the full configuration of one run.
type Settings struct {
	Radius           int
	MinMove          float64
	SideTolPct       float64 // 0 disables the side-balance check
	Intervals        []int
	Unit             model.Unit
	OverlapThreshold int
	Triangle         model.TriangleSettings
	RunBacktest      bool
	Backtest         model.BacktestSettings
}

// Result holds every table produced by a run.
type Result struct {
	RunID     string
	StartedAt time.Time

	Candidates  []model.Pivot // every strict extremum, valid or not
	Pivots      []model.Pivot // valid pivots that survived the triangle filter
	Projections []model.Projection
	Counts      map[time.Time]int
	Overlaps    []model.OverlapGroup // groups at or above the threshold
	Validations []model.ValidationResult
	Stats       []model.IntervalStats
	Insights    []string

	PriceHigh float64
	PriceLow  float64
}

// ConfigError reports a structural problem that aborts the whole run.
type ConfigError struct {
	Op    string
	Index int // bar index, -1 when not tied to a bar
	Time  time.Time
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: bar %d (%s): %v", e.Op, e.Index, e.Time.Format(time.DateTime), e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(op string, err error) *ConfigError {
	return &ConfigError{Op: op, Index: -1, Err: err}
}

// Validate checks the settings without looking at any data.
func (s Settings) Validate() error {
	switch {
	case s.Radius < 1:
		return configErr("settings", fmt.Errorf("window radius must be >= 1, got %d", s.Radius))
	case s.MinMove < 0:
		return configErr("settings", fmt.Errorf("minimum move must be >= 0, got %g", s.MinMove))
	case s.SideTolPct < 0:
		return configErr("settings", fmt.Errorf("side tolerance must be >= 0, got %g", s.SideTolPct))
	case len(s.Intervals) == 0:
		return configErr("settings", errors.New("interval list is empty"))
	case s.OverlapThreshold < 1:
		return configErr("settings", fmt.Errorf("overlap threshold must be >= 1, got %d", s.OverlapThreshold))
	}
	for _, iv := range s.Intervals {
		if iv < 0 {
			return configErr("settings", fmt.Errorf("interval must be >= 0, got %d", iv))
		}
	}
	if s.Unit != model.UnitBars && s.Unit != model.UnitCalendarDays {
		return configErr("settings", fmt.Errorf("unknown interval unit %q", s.Unit))
	}
	if t := s.Triangle; t.Enabled {
		switch {
		case len(t.AllowedShapes) == 0:
			return configErr("settings", errors.New("triangle filter enabled with no allowed shapes"))
		case t.TimeScale < 0 || t.TolerancePct < 0:
			return configErr("settings", errors.New("triangle time scale and tolerance must be >= 0"))
		case t.MinSymmetry < 0 || t.MinSymmetry > 100:
			return configErr("settings", fmt.Errorf("minimum symmetry must be within [0,100], got %g", t.MinSymmetry))
		}
	}
	if b := s.Backtest; s.RunBacktest {
		switch {
		case b.Lookback < 2:
			return configErr("settings", fmt.Errorf("trend lookback must be >= 2, got %d", b.Lookback))
		case b.ToleranceWindow < 1:
			return configErr("settings", fmt.Errorf("tolerance window must be >= 1, got %d", b.ToleranceWindow))
		case b.MinSuccessCandles < 1:
			return configErr("settings", fmt.Errorf("minimum success candles must be >= 1, got %d", b.MinSuccessCandles))
		case b.MinOverlapFilter < 0:
			return configErr("settings", fmt.Errorf("minimum overlap filter must be >= 0, got %d", b.MinOverlapFilter))
		}
	}
	return nil
}

// ValidateSeries checks that bars are non-empty, strictly ascending and finite.
func ValidateSeries(bars []model.PriceBar) error {
	if len(bars) == 0 {
		return configErr("series", pivot.ErrEmptySeries)
	}
	for i, b := range bars {
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &ConfigError{Op: "series", Index: i, Time: b.Time, Err: errors.New("non-finite price")}
			}
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return &ConfigError{Op: "series", Index: i, Time: b.Time, Err: errors.New("timestamps must be unique and ascending")}
		}
	}
	return nil
}

// Run executes the pipeline. On error no partial result is returned.
func Run(bars []model.PriceBar, cal *calendar.Calendar, s Settings) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateSeries(bars); err != nil {
		return nil, err
	}
	if cal == nil {
		cal = calendar.New(nil)
	}

	candidates, err := pivot.DetectWithParams(bars, pivot.Params{Radius: s.Radius, MinMove: s.MinMove, TolPct: s.SideTolPct})
	if err != nil {
		return nil, configErr("detect pivots", err)
	}
	retained := triangle.Filter(bars, pivot.Valid(candidates), s.Radius, s.Triangle)

	projections, err := projector.Project(s.Unit, retained, s.Intervals, bars, cal)
	if err != nil {
		return nil, configErr("project intervals", err)
	}

	res := &Result{
		Candidates:  candidates,
		Pivots:      retained,
		Projections: projections,
		Counts:      overlap.Count(projections),
		Overlaps:    overlap.Group(projections, s.OverlapThreshold),
	}
	res.PriceHigh, res.PriceLow, _ = calculator.Range(bars)

	if s.RunBacktest {
		selected := make([]model.Projection, 0, len(projections))
		for _, p := range projections {
			if overlap.CountAt(res.Counts, p.Projected) >= s.Backtest.MinOverlapFilter {
				selected = append(selected, p)
			}
		}
		res.Validations, res.Stats = backtest.New(bars, s.Backtest).Analyze(selected)
		res.Insights = backtest.GenerateInsights(res.Stats, res.Validations)
	}
	return res, nil
}

// CountPivots tallies pivots by kind.
func CountPivots(pivots []model.Pivot) (highs, lows int) {
	for _, p := range pivots {
		switch p.Kind {
		case model.PivotHigh:
			highs++
		case model.PivotLow:
			lows++
		}
	}
	return highs, lows
}
