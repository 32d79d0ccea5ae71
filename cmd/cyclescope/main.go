package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"CycleScope/internal/collector"
	"CycleScope/internal/config"
)

const (
	appName = "CycleScope"
	version = "v0.4.0"
)

var (
	cfgPath  string
	logLevel string
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "cyclescope",
		Short:   "Time-cycle pivot projection and overlap analysis",
		Version: version,
		Long: `CycleScope detects price pivots, projects them forward by a fixed set of
intervals (bars or calendar days) and reports the dates where projections
converge. Pivot highs can be filtered by triangle geometry and projections
can be backtested for price reversals.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			zerolog.SetGlobalLevel(lvl)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(newAnalyzeCmd(), newScheduleCmd(), newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
		},
	}
}

// newCollector builds the input pipeline from the data section.
func newCollector(cfg *config.Config) (*collector.Collector, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	var src collector.Source
	if cfg.Data.PriceFile != "" {
		src = &collector.CSVSource{Path: cfg.Data.PriceFile, Location: loc}
	} else {
		log.Warn().Int("bars", cfg.Data.SyntheticBars).Dur("step", cfg.Data.SyntheticStep).
			Msg("no price file configured, using synthetic series")
		src = &collector.SyntheticSource{
			Start: time.Date(2023, 1, 2, 0, 0, 0, 0, loc),
			Bars:  cfg.Data.SyntheticBars,
			Step:  cfg.Data.SyntheticStep,
		}
	}
	col := collector.NewCollector(src, cfg.Data.Symbol)
	col.HolidayFile = cfg.Data.HolidayFile
	col.AdhocHoliday = cfg.Data.Holidays
	return col, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
