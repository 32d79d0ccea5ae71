package recorder

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleScope/internal/engine"
	"CycleScope/internal/model"
)

func readTable(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func sampleResult() *engine.Result {
	src := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	proj := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)
	p1 := model.Projection{Source: src, Interval: 30, Unit: model.UnitCalendarDays, Projected: proj}
	p2 := model.Projection{Source: src.AddDate(0, 0, -2), Interval: 33, Unit: model.UnitCalendarDays, Projected: proj}
	return &engine.Result{
		RunID: "run-1",
		Candidates: []model.Pivot{
			{Index: 5, Time: src, Kind: model.PivotHigh, Price: 120, Move: 20, Valid: true,
				Triangle: &model.TriangleFormation{Shape: model.ShapeIsosceles, Symmetry: 81.5}},
			{Index: 9, Time: src.AddDate(0, 0, 4), Kind: model.PivotLow, Price: 90, Move: 3, Reason: "min move miss"},
		},
		Projections: []model.Projection{p1, p2},
		Overlaps:    []model.OverlapGroup{{Time: proj, Projections: []model.Projection{p1, p2}, Count: 2}},
		Validations: []model.ValidationResult{
			{SourceDate: src, SourceType: model.PivotHigh, Interval: 30, ProjectedDate: proj, Success: true,
				CandlesToReversal: 1, ReversalDate: proj.AddDate(0, 0, 1), PriorTrend: model.TrendUp, Reason: model.ReasonSuccess},
		},
		Stats: []model.IntervalStats{{Interval: 30, Total: 1, Successes: 1, SuccessRate: 100, Immediate: 1, ImmediateRate: 100, AvgCandlesToReversal: 1}},
	}
}

func TestCSVRecorder_RecordRun(t *testing.T) {
	rec, err := NewCSVRecorder(filepath.Join(t.TempDir(), "export"))
	require.NoError(t, err)
	defer rec.Close()

	require.NoError(t, rec.RecordRun(sampleResult()))
	dir := rec.RunDir("run-1")

	pivots := readTable(t, filepath.Join(dir, PivotsFile))
	require.Len(t, pivots, 3)
	assert.Equal(t, []string{"5", "2024-01-10 00:00:00", "H", "120.00", "0.00", "0.00", "20.00", "true", "", "isosceles", "81.50"}, pivots[1])
	assert.Equal(t, "false", pivots[2][7])
	assert.Equal(t, "min move miss", pivots[2][8])

	overlaps := readTable(t, filepath.Join(dir, OverlapsFile))
	require.Len(t, overlaps, 2)
	assert.Equal(t, []string{"2024-02-12 00:00:00", "2", "2024-01-10 00:00:00; 2024-01-08 00:00:00", "30; 33"}, overlaps[1])

	vals := readTable(t, filepath.Join(dir, ValidationsFile))
	require.Len(t, vals, 2)
	assert.Equal(t, "2024-02-13 00:00:00", vals[1][6])
	assert.Equal(t, "UP", vals[1][7])

	assert.Len(t, readTable(t, filepath.Join(dir, ProjectionsFile)), 3)
	stats := readTable(t, filepath.Join(dir, StatsFile))
	assert.Equal(t, "100.00", stats[1][3])
}

func TestCSVRecorder_KeepsSeconds(t *testing.T) {
	rec, err := NewCSVRecorder(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	res := &engine.Result{
		RunID: "sub-minute",
		Projections: []model.Projection{
			{Source: base, Interval: 1, Unit: model.UnitBars, Projected: base.Add(30 * time.Second)},
			{Source: base, Interval: 2, Unit: model.UnitBars, Projected: base.Add(time.Minute)},
		},
	}
	require.NoError(t, rec.RecordRun(res))

	rows := readTable(t, filepath.Join(rec.RunDir("sub-minute"), ProjectionsFile))
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-01-02 09:15:30", rows[1][3])
	assert.Equal(t, "2024-01-02 09:16:00", rows[2][3])
}

func TestCSVRecorder_NilResult(t *testing.T) {
	rec, err := NewCSVRecorder(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, rec.RecordRun(nil))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(sampleResult()))
	assert.NoError(t, r.Close())
}
