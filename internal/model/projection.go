package model

import (
	"fmt"
	"time"
)

// Unit selects how an interval is counted.
type Unit string

const (
	UnitBars         Unit = "bars"
	UnitCalendarDays Unit = "calendar_days"
)

// ParseUnit accepts the config spellings of a Unit.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "bars", "Bars", "BARS":
		return UnitBars, nil
	case "calendar_days", "days", "Calendar Days", "CALENDAR_DAYS":
		return UnitCalendarDays, nil
	default:
		return "", fmt.Errorf("unknown interval unit %q", s)
	}
}

// Projection is one pivot pushed forward by one interval.
type Projection struct {
	Source    time.Time
	Interval  int
	Unit      Unit
	Projected time.Time
}

// OverlapGroup collects projections landing on the same timestamp.
type OverlapGroup struct {
	Time        time.Time
	Projections []Projection
	Count       int
}

// Sources returns the contributing pivot timestamps in group order.
func (g OverlapGroup) Sources() []time.Time {
	out := make([]time.Time, len(g.Projections))
	for i, p := range g.Projections {
		out[i] = p.Source
	}
	return out
}

// Intervals returns the contributing intervals in group order.
func (g OverlapGroup) Intervals() []int {
	out := make([]int, len(g.Projections))
	for i, p := range g.Projections {
		out[i] = p.Interval
	}
	return out
}
