package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"CycleScope/internal/engine"
	"CycleScope/internal/metrics"
	"CycleScope/internal/notifier"
	"CycleScope/internal/recorder"
	"CycleScope/internal/scheduler"
)

func newScheduleCmd() *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Re-run the analysis on a cron schedule",
		Long: `Start the long-running service: the analysis is re-run on the configured
cron schedule, results are exported and sent to Telegram, chat commands are
answered and Prometheus metrics are served.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("run-on-start") {
				cfg.Schedule.RunOnStart = runOnStart
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			settings, err := cfg.EngineSettings()
			if err != nil {
				return err
			}
			col, err := newCollector(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			mc := metrics.NewCollector()
			runner := engine.NewRunner(log.Logger, mc)

			var rec recorder.Recorder = recorder.NewNoopRecorder()
			if cfg.Export.Dir != "" {
				cr, err := recorder.NewCSVRecorder(cfg.Export.Dir)
				if err != nil {
					log.Warn().Err(err).Msg("init csv recorder failed, using noop")
				} else {
					rec = cr
				}
			}
			defer rec.Close()

			var n notifier.Notifier = notifier.NoopNotifier{}
			var tn *notifier.TelegramNotifier
			if cfg.TelegramEnabled() {
				tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
				n = tn
			} else {
				log.Info().Msg("telegram not configured, notifications disabled")
			}

			sched := scheduler.NewScheduler(ctx, col, runner, settings, n, rec)
			if err := sched.Register(cfg.Schedule.Cron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.Commands())
				log.Info().Msg("telegram polling started")
			}

			var srv *http.Server
			if cfg.Metrics.Listen != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", mc.Handler())
				srv = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error().Err(err).Msg("metrics server")
					}
				}()
				log.Info().Str("addr", cfg.Metrics.Listen).Msg("metrics endpoint listening")
			}

			if cfg.Schedule.RunOnStart {
				log.Info().Msg("run_on_start enabled, executing analysis now")
				go func() {
					if _, err := sched.RunNow(); err != nil {
						log.Error().Err(err).Msg("initial analysis")
					}
				}()
			}

			log.Info().Str("cron", cfg.Schedule.Cron).Msgf("%s is running. Press Ctrl+C to stop.", appName)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			log.Info().Msg("shutdown signal received, stopping...")
			cancel()
			if srv != nil {
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				_ = srv.Shutdown(shutdownCtx)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run the analysis immediately on start")
	return cmd
}
