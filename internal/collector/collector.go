package collector

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"CycleScope/internal/calendar"
	"CycleScope/internal/model"
)

// SyntheticSource generates a deterministic oscillating series for demos and
// tests. Weekdays only, starting at Start. With Step > 0 bars are intraday,
// Step apart from 09:15 through 15:29; otherwise one bar per day.
type SyntheticSource struct {
	Start     time.Time
	Bars      int
	Step      time.Duration
	BasePrice float64
	// Amplitude and Period shape the sine wave the closes follow.
	Amplitude float64
	Period    int
}

func (s *SyntheticSource) Name() string { return "synthetic" }

func (s *SyntheticSource) LoadBars() ([]model.PriceBar, error) {
	if s.Bars <= 0 {
		return nil, fmt.Errorf("synthetic source: bar count must be positive, got %d", s.Bars)
	}
	period := s.Period
	if period <= 0 {
		period = 40
	}
	base := s.BasePrice
	if base == 0 {
		base = 18000
	}
	amp := s.Amplitude
	if amp == 0 {
		amp = base * 0.05
	}
	start := s.Start
	if start.IsZero() {
		start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	bars := make([]model.PriceBar, 0, s.Bars)
	add := func(t time.Time) {
		i := float64(len(bars))
		c := base + amp*math.Sin(2*math.Pi*i/float64(period)) + i*base*0.0002
		o := c - amp*0.05*math.Cos(i)
		bars = append(bars, model.PriceBar{
			Time:  t,
			Open:  o,
			High:  math.Max(o, c) + amp*0.04,
			Low:   math.Min(o, c) - amp*0.04,
			Close: c,
		})
	}
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for len(bars) < s.Bars {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			if s.Step <= 0 {
				add(day)
			} else {
				open := day.Add(9*time.Hour + 15*time.Minute)
				last := day.Add(15*time.Hour + 29*time.Minute)
				for t := open; !t.After(last) && len(bars) < s.Bars; t = t.Add(s.Step) {
					add(t)
				}
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return bars, nil
}

// Collector loads the price series and business calendar for one run.
type Collector struct {
	Source       Source
	Symbol       string
	HolidayFile  string
	AdhocHoliday []string
	Intraday     bool
}

// NewCollector creates a new Collector.
func NewCollector(src Source, symbol string) *Collector {
	return &Collector{Source: src, Symbol: symbol}
}

// Collect loads bars and holidays.
func (c *Collector) Collect() (*model.PriceSeries, *calendar.Calendar, error) {
	bars, err := c.Source.LoadBars()
	if err != nil {
		return nil, nil, fmt.Errorf("load bars from %s: %w", c.Source.Name(), err)
	}
	cal, err := LoadCalendar(c.HolidayFile, c.AdhocHoliday)
	if err != nil {
		return nil, nil, fmt.Errorf("load holidays: %w", err)
	}

	series := &model.PriceSeries{
		Symbol:   c.Symbol,
		Bars:     bars,
		Intraday: c.Intraday || hasIntradayTimes(bars),
		LoadedAt: time.Now(),
	}
	ev := log.Info().Str("source", c.Source.Name()).Str("symbol", c.Symbol).
		Int("bars", len(bars)).Int("holidays", cal.Len()).Bool("intraday", series.Intraday)
	if len(bars) > 0 {
		ev = ev.Time("first", bars[0].Time).Time("last", bars[len(bars)-1].Time)
	}
	ev.Msg("series collected")
	return series, cal, nil
}

func hasIntradayTimes(bars []model.PriceBar) bool {
	for _, b := range bars {
		if b.Time.Hour() != 0 || b.Time.Minute() != 0 {
			return true
		}
	}
	return false
}
