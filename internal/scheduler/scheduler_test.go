package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleScope/internal/collector"
	"CycleScope/internal/engine"
	"CycleScope/internal/model"
)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
	return nil
}

type fakeRecorder struct {
	runs []*engine.Result
	err  error
}

func (f *fakeRecorder) RecordRun(res *engine.Result) error {
	f.runs = append(f.runs, res)
	return f.err
}
func (f *fakeRecorder) Close() error { return nil }

type brokenSource struct{}

func (brokenSource) Name() string                        { return "broken" }
func (brokenSource) LoadBars() ([]model.PriceBar, error) { return nil, errors.New("disk gone") }

func settings() engine.Settings {
	return engine.Settings{
		Radius:           5,
		MinMove:          100,
		Intervals:        []int{20, 40},
		Unit:             model.UnitCalendarDays,
		OverlapThreshold: 1,
		RunBacktest:      true,
		Backtest:         model.BacktestSettings{Lookback: 5, ToleranceWindow: 5, MinSuccessCandles: 1, MinOverlapFilter: 1},
	}
}

func newTestScheduler(src collector.Source, n *fakeNotifier, rec *fakeRecorder) *Scheduler {
	col := collector.NewCollector(src, "DEMO")
	runner := engine.NewRunner(zerolog.Nop(), nil)
	return NewScheduler(context.Background(), col, runner, settings(), n, rec)
}

func TestRunNow_PublishesAndRecords(t *testing.T) {
	n, rec := &fakeNotifier{}, &fakeRecorder{}
	s := newTestScheduler(&collector.SyntheticSource{Bars: 200}, n, rec)

	res, err := s.RunNow()
	require.NoError(t, err)
	assert.NotEmpty(t, res.Pivots)
	assert.NotEmpty(t, res.Projections)
	assert.Same(t, res, s.Last())
	require.Len(t, rec.runs, 1)
	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "DEMO")
}

func TestRunNow_RecorderErrorDoesNotFailRun(t *testing.T) {
	n, rec := &fakeNotifier{}, &fakeRecorder{err: errors.New("read-only")}
	s := newTestScheduler(&collector.SyntheticSource{Bars: 120}, n, rec)

	_, err := s.RunNow()
	require.NoError(t, err)
	assert.Len(t, n.msgs, 1)
}

func TestAnalysisTask_ReportsFailure(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(brokenSource{}, n, &fakeRecorder{})

	s.analysisTask()
	assert.Nil(t, s.Last())
	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "disk gone")
}

func TestCommands(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(&collector.SyntheticSource{Bars: 200}, n, &fakeRecorder{})
	d := s.Commands()
	ctx := context.Background()

	assert.Contains(t, d.Dispatch(ctx, "/overlaps"), "No analysis has run yet")
	assert.Contains(t, d.Dispatch(ctx, "/stats"), "No analysis has run yet")
	help := d.Dispatch(ctx, "hello")
	for _, name := range []string{"/overlaps", "/run", "/stats"} {
		assert.Contains(t, help, name)
	}

	assert.Empty(t, d.Dispatch(ctx, "/run"))
	require.NotNil(t, s.Last())
	assert.Len(t, n.msgs, 1)
	assert.Contains(t, d.Dispatch(ctx, "/overlaps@CycleBot"), "Overlap dates")
	assert.Contains(t, d.Dispatch(ctx, "/STATS"), "Interval backtest")
}

func TestCommands_RunFailureIsReported(t *testing.T) {
	s := newTestScheduler(brokenSource{}, &fakeNotifier{}, &fakeRecorder{})
	reply := s.Commands().Dispatch(context.Background(), "/run")
	assert.Contains(t, reply, "/run failed")
	assert.Contains(t, reply, "disk gone")
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(&collector.SyntheticSource{Bars: 10}, &fakeNotifier{}, &fakeRecorder{})
	require.NoError(t, s.Register("0 30 16 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.Register("not a cron"))

	s.Start()
	s.Stop()
}

func TestNewScheduler_Defaults(t *testing.T) {
	s := NewScheduler(context.Background(), nil, nil, settings(), nil, nil)
	assert.NotNil(t, s.Notifier)
	assert.NotNil(t, s.Recorder)
}
