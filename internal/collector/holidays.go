package collector

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"CycleScope/internal/calendar"
)

// ParseHolidays reads dates from the first column of a holiday CSV. The
// first row is treated as a header. Unparseable values are skipped.
func ParseHolidays(r io.Reader) ([]time.Time, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read holiday csv: %w", err)
	}
	var out []time.Time
	skipped := 0
	for i, row := range records {
		if i == 0 || len(row) == 0 {
			continue
		}
		d, err := time.Parse(DateLayout, strings.TrimSpace(row[0]))
		if err != nil {
			skipped++
			continue
		}
		out = append(out, d)
	}
	return out, skipped, nil
}

// ParseAdhocDates accepts ISO (2006-01-02) or 02-Jan-2006 dates; unparseable
// values are skipped.
func ParseAdhocDates(values []string) ([]time.Time, int) {
	var out []time.Time
	skipped := 0
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			if d, err = time.Parse(DateLayout, v); err != nil {
				skipped++
				continue
			}
		}
		out = append(out, d)
	}
	return out, skipped
}

// LoadCalendar builds a business calendar from an optional holiday file plus ad-hoc dates.
func LoadCalendar(path string, adhoc []string) (*calendar.Calendar, error) {
	var dates []time.Time
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open holiday file: %w", err)
		}
		defer f.Close()
		fileDates, skipped, err := ParseHolidays(f)
		if err != nil {
			return nil, err
		}
		if skipped > 0 {
			log.Warn().Str("file", path).Int("skipped", skipped).Msg("unparseable holiday rows ignored")
		}
		dates = append(dates, fileDates...)
	}
	extra, skipped := ParseAdhocDates(adhoc)
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("unparseable ad-hoc holidays ignored")
	}
	dates = append(dates, extra...)
	return calendar.New(dates), nil
}
