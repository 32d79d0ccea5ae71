package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDay(t *testing.T) {
	// 2024-01-26 is a Friday, holiday; 2024-01-27/28 weekend.
	cal := New([]time.Time{time.Date(2024, 1, 26, 13, 45, 0, 0, time.UTC)})

	assert.True(t, cal.IsBusinessDay(day(2024, 1, 25)))
	assert.False(t, cal.IsBusinessDay(day(2024, 1, 26)), "holiday")
	assert.False(t, cal.IsBusinessDay(time.Date(2024, 1, 26, 10, 15, 0, 0, time.UTC)), "holiday ignores time of day")
	assert.False(t, cal.IsBusinessDay(day(2024, 1, 27)), "saturday")
	assert.False(t, cal.IsBusinessDay(day(2024, 1, 28)), "sunday")
	assert.True(t, cal.IsBusinessDay(day(2024, 1, 29)))
}

func TestScan(t *testing.T) {
	cal := New([]time.Time{day(2024, 1, 26), day(2024, 1, 29)})

	back, err := cal.ScanBackward(time.Date(2024, 1, 28, 9, 15, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 25, 9, 15, 0, 0, time.UTC), back)

	fwd, err := cal.ScanForward(day(2024, 1, 27))
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 30), fwd)

	same, err := cal.ScanForward(day(2024, 1, 30))
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 30), same)
}

func TestScan_Exhausted(t *testing.T) {
	var all []time.Time
	start := day(2024, 1, 1)
	for i := 0; i < 3*MaxScanDays; i++ {
		all = append(all, start.AddDate(0, 0, i))
	}
	cal := New(all)

	_, err := cal.ScanForward(start.AddDate(0, 0, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCalendarExhausted))

	_, err = cal.ScanBackward(start.AddDate(0, 0, 2*MaxScanDays))
	assert.ErrorIs(t, err, ErrCalendarExhausted)
}

func TestHolidays_SortedDateOnly(t *testing.T) {
	cal := New([]time.Time{day(2024, 3, 8), time.Date(2024, 1, 26, 23, 0, 0, 0, time.UTC), day(2024, 3, 8)})
	assert.Equal(t, 2, cal.Len())
	assert.Equal(t, []time.Time{day(2024, 1, 26), day(2024, 3, 8)}, cal.Holidays())
}
