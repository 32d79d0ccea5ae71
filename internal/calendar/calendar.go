// Package calendar answers business-day questions against a holiday set.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// MaxScanDays caps how far a business-day search may walk before giving up.
// A calendar with this many consecutive non-business days is treated as misconfigured.
const MaxScanDays = 366

// ErrCalendarExhausted is returned when no business day is found within MaxScanDays.
var ErrCalendarExhausted = errors.New("no business day within scan limit")

type dateKey struct {
	y int
	m time.Month
	d int
}

func keyOf(t time.Time) dateKey {
	y, m, d := t.Date()
	return dateKey{y, m, d}
}

// Calendar holds a set of holiday dates. It is immutable after New.
type Calendar struct {
	holidays map[dateKey]struct{}
}

// New builds a Calendar. Only the date part of each holiday is kept.
func New(holidays []time.Time) *Calendar {
	c := &Calendar{holidays: make(map[dateKey]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[keyOf(h)] = struct{}{}
	}
	return c
}

// IsHoliday reports whether t's calendar date is in the holiday set.
func (c *Calendar) IsHoliday(t time.Time) bool {
	if c == nil {
		return false
	}
	_, ok := c.holidays[keyOf(t)]
	return ok
}

// IsBusinessDay reports whether t falls on Mon–Fri and is not a holiday.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.IsHoliday(t)
}

// ScanBackward returns t itself if it is a business day, else the nearest
// earlier business day at the same wall-clock time.
func (c *Calendar) ScanBackward(t time.Time) (time.Time, error) {
	return c.scan(t, -1)
}

// ScanForward returns t itself if it is a business day, else the nearest
// later business day at the same wall-clock time.
func (c *Calendar) ScanForward(t time.Time) (time.Time, error) {
	return c.scan(t, 1)
}

func (c *Calendar) scan(t time.Time, step int) (time.Time, error) {
	cur := t
	for i := 0; i <= MaxScanDays; i++ {
		if c.IsBusinessDay(cur) {
			return cur, nil
		}
		cur = cur.AddDate(0, 0, step)
	}
	return time.Time{}, fmt.Errorf("scan from %s: %w", t.Format("2006-01-02"), ErrCalendarExhausted)
}

// Holidays returns the holiday dates in ascending order, as UTC midnights.
func (c *Calendar) Holidays() []time.Time {
	if c == nil {
		return nil
	}
	out := make([]time.Time, 0, len(c.holidays))
	for k := range c.holidays {
		out = append(out, time.Date(k.y, k.m, k.d, 0, 0, 0, 0, time.UTC))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Len returns the number of holiday dates.
func (c *Calendar) Len() int {
	if c == nil {
		return 0
	}
	return len(c.holidays)
}
