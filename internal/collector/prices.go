package collector

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"CycleScope/internal/model"
)

// Date layouts accepted in price and holiday files.
const (
	DateLayout     = "02-Jan-2006"
	DateTimeLayout = "02-Jan-2006 15:04"
)

var requiredColumns = []string{"Date", "Open", "High", "Low", "Close"}

// CSVSource reads bars from a CSV file with Date/Open/High/Low/Close columns.
type CSVSource struct {
	Path     string
	Location *time.Location
}

func (c *CSVSource) Name() string { return "csv:" + filepath.Base(c.Path) }

func (c *CSVSource) LoadBars() ([]model.PriceBar, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()
	bars, _, err := ParsePrices(f, c.Location)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.Path, err)
	}
	return bars, nil
}

// ParsePrices decodes a price table. Header names are matched after trimming
// and title-casing. The Date column is intraday when any value contains ':'.
// Rows are returned sorted ascending; duplicate timestamps are rejected.
func ParsePrices(r io.Reader, loc *time.Location) (bars []model.PriceBar, intraday bool, err error) {
	if loc == nil {
		loc = time.UTC
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, false, errors.New("price file has no data rows")
	}

	cols := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		cols[titleCase(h)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, false, fmt.Errorf("missing required column %q", name)
		}
	}

	rows := records[1:]
	for _, row := range rows {
		if strings.Contains(field(row, cols["Date"]), ":") {
			intraday = true
			break
		}
	}
	layout := DateLayout
	if intraday {
		layout = DateTimeLayout
	}

	bars = make([]model.PriceBar, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		ts, err := time.ParseInLocation(layout, field(row, cols["Date"]), loc)
		if err != nil {
			return nil, false, fmt.Errorf("line %d: parse date: %w", line, err)
		}
		var vals [4]float64
		for j, name := range requiredColumns[1:] {
			v, err := strconv.ParseFloat(strings.ReplaceAll(field(row, cols[name]), ",", ""), 64)
			if err != nil {
				return nil, false, fmt.Errorf("line %d: parse %s: %w", line, name, err)
			}
			vals[j] = v
		}
		bars = append(bars, model.PriceBar{Time: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	for i := 1; i < len(bars); i++ {
		if bars[i].Time.Equal(bars[i-1].Time) {
			return nil, false, fmt.Errorf("duplicate timestamp %s", bars[i].Time.Format(layout))
		}
	}
	return bars, intraday, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func titleCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
