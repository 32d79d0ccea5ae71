package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"CycleScope/internal/collector"
	"CycleScope/internal/engine"
	"CycleScope/internal/notifier"
	"CycleScope/internal/recorder"
)

// Scheduler re-runs the analysis on a cron schedule and publishes the result.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Runner    *engine.Runner
	Settings  engine.Settings
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Ctx       context.Context

	mu       sync.Mutex
	last     *engine.Result
	intraday bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, runner *engine.Runner, settings engine.Settings,
	n notifier.Notifier, rec recorder.Recorder) *Scheduler {
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Runner:    runner,
		Settings:  settings,
		Notifier:  n,
		Recorder:  rec,
		Ctx:       ctx,
	}
}

// Register adds the analysis job under a six-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.analysisTask); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the analysis immediately (manual trigger / run_on_start).
func (s *Scheduler) RunNow() (*engine.Result, error) {
	series, cal, err := s.Collector.Collect()
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	res, err := s.Runner.Run(series, cal, s.Settings)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.last = res
	s.intraday = series.Intraday
	s.mu.Unlock()

	if err := s.Recorder.RecordRun(res); err != nil {
		log.Error().Err(err).Str("run_id", res.RunID).Msg("record run")
	}
	s.trySend(notifier.FormatRunReport(series.Symbol, res, series.Intraday))
	return res, nil
}

// Last returns the most recent successful result, or nil.
func (s *Scheduler) Last() *engine.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) analysisTask() {
	log.Info().Msg("running scheduled analysis")
	if _, err := s.RunNow(); err != nil {
		log.Error().Err(err).Msg("scheduled analysis")
		s.trySend(fmt.Sprintf("❌ Analysis failed: %v", err))
	}
}

// Commands returns the chat commands served while the scheduler runs.
func (s *Scheduler) Commands() *notifier.Dispatcher {
	d := notifier.NewDispatcher()
	d.Handle("run", "re-run the analysis now", func(context.Context, notifier.Command) (string, error) {
		// RunNow already publishes the report.
		_, err := s.RunNow()
		return "", err
	})
	d.Handle("overlaps", "latest overlap dates", func(context.Context, notifier.Command) (string, error) {
		s.mu.Lock()
		res, intraday := s.last, s.intraday
		s.mu.Unlock()
		if res == nil {
			return errNoRun, nil
		}
		return notifier.FormatOverlaps(res, intraday), nil
	})
	d.Handle("stats", "latest interval backtest", func(context.Context, notifier.Command) (string, error) {
		res := s.Last()
		if res == nil {
			return errNoRun, nil
		}
		return notifier.FormatStats(res.Stats), nil
	})
	return d
}

const errNoRun = "No analysis has run yet. Send /run."

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
