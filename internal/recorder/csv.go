package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"CycleScope/internal/engine"
	"CycleScope/internal/model"
)

const timeLayout = time.DateTime

// Table file names written for every run.
const (
	PivotsFile      = "pivots.csv"
	ProjectionsFile = "projections.csv"
	OverlapsFile    = "overlaps.csv"
	ValidationsFile = "validations.csv"
	StatsFile       = "interval_stats.csv"
)

// CSVRecorder writes each run into its own directory under Dir.
type CSVRecorder struct {
	dir string
	mu  sync.Mutex
}

// NewCSVRecorder creates the export directory if needed.
func NewCSVRecorder(dir string) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	log.Info().Str("dir", dir).Msg("csv recorder opened")
	return &CSVRecorder{dir: dir}, nil
}

// RunDir returns the directory a run with the given id is written to.
func (r *CSVRecorder) RunDir(runID string) string {
	return filepath.Join(r.dir, runID)
}

func (r *CSVRecorder) RecordRun(res *engine.Result) error {
	if res == nil {
		return nil
	}
	runID := res.RunID
	if runID == "" {
		runID = res.StartedAt.Format("20060102T150405")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dir := r.RunDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	tables := []struct {
		name string
		rows [][]string
	}{
		{PivotsFile, pivotRows(res.Candidates)},
		{ProjectionsFile, projectionRows(res.Projections)},
		{OverlapsFile, overlapRows(res.Overlaps)},
		{ValidationsFile, validationRows(res.Validations)},
		{StatsFile, statsRows(res.Stats)},
	}
	for _, t := range tables {
		if err := writeTable(filepath.Join(dir, t.name), t.rows); err != nil {
			return fmt.Errorf("write %s: %w", t.name, err)
		}
	}
	log.Debug().Str("run_id", runID).Str("dir", dir).Msg("run exported")
	return nil
}

func (r *CSVRecorder) Close() error { return nil }

func writeTable(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func pivotRows(pivots []model.Pivot) [][]string {
	rows := [][]string{{"index", "time", "type", "price", "move_prev", "move_next", "move", "valid", "reason", "shape", "symmetry"}}
	for _, p := range pivots {
		shape, sym := "", ""
		if p.Triangle != nil {
			shape = string(p.Triangle.Shape)
			sym = ftoa(p.Triangle.Symmetry)
		}
		rows = append(rows, []string{
			strconv.Itoa(p.Index), p.Time.Format(timeLayout), string(p.Kind), ftoa(p.Price),
			ftoa(p.MovePrev), ftoa(p.MoveNext), ftoa(p.Move),
			strconv.FormatBool(p.Valid), p.Reason, shape, sym,
		})
	}
	return rows
}

func projectionRows(projs []model.Projection) [][]string {
	rows := [][]string{{"source", "interval", "unit", "projected"}}
	for _, p := range projs {
		rows = append(rows, []string{
			p.Source.Format(timeLayout), strconv.Itoa(p.Interval), string(p.Unit), p.Projected.Format(timeLayout),
		})
	}
	return rows
}

func overlapRows(groups []model.OverlapGroup) [][]string {
	rows := [][]string{{"time", "count", "sources", "intervals"}}
	for _, g := range groups {
		srcs := make([]string, 0, len(g.Projections))
		for _, s := range g.Sources() {
			srcs = append(srcs, s.Format(timeLayout))
		}
		ivs := make([]string, 0, len(g.Projections))
		for _, iv := range g.Intervals() {
			ivs = append(ivs, strconv.Itoa(iv))
		}
		rows = append(rows, []string{
			g.Time.Format(timeLayout), strconv.Itoa(g.Count), strings.Join(srcs, "; "), strings.Join(ivs, "; "),
		})
	}
	return rows
}

func validationRows(results []model.ValidationResult) [][]string {
	rows := [][]string{{"source", "type", "interval", "projected", "success", "candles_to_reversal", "reversal", "prior_trend", "reason"}}
	for _, v := range results {
		candles, reversal := "", ""
		if v.Success {
			candles = strconv.Itoa(v.CandlesToReversal)
			reversal = v.ReversalDate.Format(timeLayout)
		}
		rows = append(rows, []string{
			v.SourceDate.Format(timeLayout), string(v.SourceType), strconv.Itoa(v.Interval),
			v.ProjectedDate.Format(timeLayout), strconv.FormatBool(v.Success), candles, reversal,
			string(v.PriorTrend), string(v.Reason),
		})
	}
	return rows
}

func statsRows(stats []model.IntervalStats) [][]string {
	rows := [][]string{{"interval", "total", "successes", "success_rate", "immediate", "immediate_rate", "avg_candles"}}
	for _, s := range stats {
		rows = append(rows, []string{
			strconv.Itoa(s.Interval), strconv.Itoa(s.Total), strconv.Itoa(s.Successes), ftoa(s.SuccessRate),
			strconv.Itoa(s.Immediate), ftoa(s.ImmediateRate), ftoa(s.AvgCandlesToReversal),
		})
	}
	return rows
}
