package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"CycleScope/internal/config"
	"CycleScope/internal/engine"
	"CycleScope/internal/recorder"
)

type analyzeFlags struct {
	prices    string
	holidays  string
	adhoc     []string
	radius    int
	minMove   float64
	intervals string
	unit      string
	threshold int
	triangle  bool
	shapes    []string
	backtest  bool
	export    string
	top       int
}

func newAnalyzeCmd() *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis and print the overlap table",
		Long: `Load the price series and holidays, detect pivots, project intervals and
print the overlap dates. Flags override the config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			return runAnalyze(cmd.OutOrStdout(), cfg, f.top)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.prices, "prices", "", "Price CSV (Date,Open,High,Low,Close)")
	fl.StringVar(&f.holidays, "holidays", "", "Holiday CSV, dates in the first column")
	fl.StringSliceVar(&f.adhoc, "holiday", nil, "Extra holiday date (repeatable, YYYY-MM-DD)")
	fl.IntVar(&f.radius, "radius", 0, "Pivot window radius in bars")
	fl.Float64Var(&f.minMove, "min-move", 0, "Minimum move on each side of a pivot")
	fl.StringVar(&f.intervals, "intervals", "", "Comma-separated intervals")
	fl.StringVar(&f.unit, "unit", "", "Interval unit (bars|calendar_days)")
	fl.IntVar(&f.threshold, "threshold", 0, "Minimum projections per overlap date")
	fl.BoolVar(&f.triangle, "triangle", false, "Filter pivot highs by triangle geometry")
	fl.StringSliceVar(&f.shapes, "shapes", nil, "Allowed triangle shapes")
	fl.BoolVar(&f.backtest, "backtest", false, "Backtest reversals at projected dates")
	fl.StringVar(&f.export, "export", "", "Write CSV tables to this directory")
	fl.IntVar(&f.top, "top", 20, "Overlap rows to print (0 for all)")
	return cmd
}

func (f *analyzeFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("prices") {
		cfg.Data.PriceFile = f.prices
	}
	if fl.Changed("holidays") {
		cfg.Data.HolidayFile = f.holidays
	}
	if fl.Changed("holiday") {
		cfg.Data.Holidays = append(cfg.Data.Holidays, f.adhoc...)
	}
	if fl.Changed("radius") {
		cfg.Pivot.Radius = f.radius
	}
	if fl.Changed("min-move") {
		cfg.Pivot.MinMove = f.minMove
	}
	if fl.Changed("intervals") {
		ivs, err := config.ParseIntervals(f.intervals)
		if err != nil {
			return fmt.Errorf("--intervals: %w", err)
		}
		cfg.Intervals.Values = ivs
	}
	if fl.Changed("unit") {
		cfg.Intervals.Unit = f.unit
	}
	if fl.Changed("threshold") {
		cfg.Overlap.Threshold = f.threshold
	}
	if fl.Changed("triangle") {
		cfg.Triangle.Enabled = f.triangle
	}
	if fl.Changed("shapes") {
		cfg.Triangle.Shapes = f.shapes
	}
	if fl.Changed("backtest") {
		cfg.Backtest.Enabled = f.backtest
	}
	if fl.Changed("export") {
		cfg.Export.Dir = f.export
	}
	return nil
}

func runAnalyze(out io.Writer, cfg *config.Config, top int) error {
	col, err := newCollector(cfg)
	if err != nil {
		return err
	}
	series, cal, err := col.Collect()
	if err != nil {
		return err
	}
	settings, err := cfg.EngineSettings()
	if err != nil {
		return err
	}
	res, err := engine.NewRunner(log.Logger, nil).Run(series, cal, settings)
	if err != nil {
		return err
	}

	if cfg.Export.Dir != "" {
		rec, err := recorder.NewCSVRecorder(cfg.Export.Dir)
		if err != nil {
			return err
		}
		defer rec.Close()
		if err := rec.RecordRun(res); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		log.Info().Str("dir", rec.RunDir(res.RunID)).Msg("tables exported")
	}

	printResult(out, res, series.Intraday, top)
	return nil
}

func printResult(out io.Writer, res *engine.Result, intraday bool, top int) {
	layout := "02-Jan-2006"
	if intraday {
		layout = "02-Jan-2006 15:04"
	}
	highs, lows := engine.CountPivots(res.Pivots)
	fmt.Fprintf(out, "Run %s\n", res.RunID)
	fmt.Fprintf(out, "Price range %.2f – %.2f\n", res.PriceLow, res.PriceHigh)
	fmt.Fprintf(out, "Pivots %d (%d H / %d L) from %d candidates, %d projections\n\n",
		len(res.Pivots), highs, lows, len(res.Candidates), len(res.Projections))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCOUNT\tINTERVALS\tSOURCES")
	for i, g := range res.Overlaps {
		if top > 0 && i == top {
			break
		}
		ivs := make([]string, 0, g.Count)
		for _, iv := range g.Intervals() {
			ivs = append(ivs, fmt.Sprint(iv))
		}
		srcs := make([]string, 0, g.Count)
		for _, s := range g.Sources() {
			srcs = append(srcs, s.Format(layout))
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", g.Time.Format(layout), g.Count, strings.Join(ivs, ","), strings.Join(srcs, ", "))
	}
	tw.Flush()
	if len(res.Overlaps) == 0 {
		fmt.Fprintln(out, "(no overlap dates at this threshold)")
	}

	if len(res.Stats) > 0 {
		fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "INTERVAL\tTOTAL\tSUCCESS\tRATE%\tIMMEDIATE%\tAVG CANDLES\t")
		for _, s := range res.Stats {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%.1f\t%.1f\t%.2f\t\n",
				s.Interval, s.Total, s.Successes, s.SuccessRate, s.ImmediateRate, s.AvgCandlesToReversal)
		}
		tw.Flush()
	}
	for _, s := range res.Insights {
		fmt.Fprintln(out, "• "+s)
	}
}
