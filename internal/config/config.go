package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"CycleScope/internal/engine"
	"CycleScope/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Data struct {
		Symbol      string   `yaml:"symbol"`
		PriceFile   string   `yaml:"price_file"`
		HolidayFile string   `yaml:"holiday_file"`
		Holidays    []string `yaml:"holidays"`
		Timezone    string   `yaml:"timezone"`
		// SyntheticBars and SyntheticStep describe the demo series used
		// when no price file is configured. A zero step gives daily bars.
		SyntheticBars int           `yaml:"synthetic_bars"`
		SyntheticStep time.Duration `yaml:"synthetic_step"`
	} `yaml:"data"`
	Pivot struct {
		Radius     int     `yaml:"radius"`
		MinMove    float64 `yaml:"min_move"`
		SideTolPct float64 `yaml:"side_tolerance_pct"`
	} `yaml:"pivot"`
	Intervals struct {
		Values []int  `yaml:"values"`
		Unit   string `yaml:"unit"`
	} `yaml:"intervals"`
	Overlap struct {
		Threshold int `yaml:"threshold"`
	} `yaml:"overlap"`
	Triangle struct {
		Enabled      bool     `yaml:"enabled"`
		Shapes       []string `yaml:"shapes"`
		TimeScale    float64  `yaml:"time_scale"`
		TolerancePct float64  `yaml:"tolerance_pct"`
		MinSymmetry  float64  `yaml:"min_symmetry"`
	} `yaml:"triangle"`
	Backtest struct {
		Enabled           bool `yaml:"enabled"`
		Lookback          int  `yaml:"lookback"`
		ToleranceWindow   int  `yaml:"tolerance_window"`
		MinSuccessCandles int  `yaml:"min_success_candles"`
		MinOverlapFilter  int  `yaml:"min_overlap_filter"`
	} `yaml:"backtest"`
	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	cfg := &Config{}
	cfg.Data.Symbol = "NIFTY"
	cfg.Data.Timezone = "Asia/Kolkata"
	cfg.Data.SyntheticBars = 2000
	cfg.Data.SyntheticStep = 15 * time.Minute
	cfg.Pivot.Radius = 5
	cfg.Pivot.MinMove = 100
	cfg.Intervals.Values = []int{30, 60, 90, 120, 144, 180, 210, 240, 270, 360}
	cfg.Intervals.Unit = string(model.UnitBars)
	cfg.Overlap.Threshold = 3
	cfg.Triangle.Shapes = []string{string(model.ShapeEquilateral), string(model.ShapeIsosceles)}
	cfg.Triangle.TimeScale = 10
	cfg.Triangle.TolerancePct = 10
	cfg.Triangle.MinSymmetry = 70
	cfg.Backtest.Lookback = 5
	cfg.Backtest.ToleranceWindow = 5
	cfg.Backtest.MinSuccessCandles = 1
	cfg.Backtest.MinOverlapFilter = 1
	cfg.Schedule.Cron = "0 30 16 * * 1-5"
	cfg.Export.Dir = "data/export"
	cfg.Metrics.Listen = ":9090"
	return cfg
}

// Load reads .env, then the YAML file over the defaults, then applies
// environment variable overrides. A missing file of either kind is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("CYCLE_SYMBOL", &c.Data.Symbol)
	setString("CYCLE_PRICE_FILE", &c.Data.PriceFile)
	setString("CYCLE_HOLIDAY_FILE", &c.Data.HolidayFile)
	setString("CYCLE_TIMEZONE", &c.Data.Timezone)
	setString("CYCLE_UNIT", &c.Intervals.Unit)
	setString("CYCLE_CRON", &c.Schedule.Cron)
	setString("CYCLE_EXPORT_DIR", &c.Export.Dir)
	setString("CYCLE_METRICS_LISTEN", &c.Metrics.Listen)
	setString("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	setString("HTTPS_PROXY", &c.Proxy)

	if v := os.Getenv("CYCLE_HOLIDAYS"); v != "" {
		c.Data.Holidays = append(c.Data.Holidays, splitList(v)...)
	}
	if v := os.Getenv("CYCLE_RADIUS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CYCLE_RADIUS: %w", err)
		}
		c.Pivot.Radius = n
	}
	if v := os.Getenv("CYCLE_MIN_MOVE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CYCLE_MIN_MOVE: %w", err)
		}
		c.Pivot.MinMove = f
	}
	if v := os.Getenv("CYCLE_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CYCLE_THRESHOLD: %w", err)
		}
		c.Overlap.Threshold = n
	}
	if v := os.Getenv("CYCLE_INTERVALS"); v != "" {
		ivs, err := ParseIntervals(v)
		if err != nil {
			return fmt.Errorf("CYCLE_INTERVALS: %w", err)
		}
		c.Intervals.Values = ivs
	}
	return nil
}

// ParseIntervals parses a comma-separated interval list such as "30,60,90".
func ParseIntervals(s string) ([]int, error) {
	parts := splitList(s)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("interval %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Location resolves data.timezone, falling back to UTC when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Data.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Data.Timezone)
	if err != nil {
		return nil, fmt.Errorf("data.timezone: %w", err)
	}
	return loc, nil
}

// TelegramEnabled reports whether both telegram credentials are present.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	if c.Data.PriceFile == "" && c.Data.SyntheticBars <= 0 {
		return fmt.Errorf("data.price_file is required when data.synthetic_bars is 0")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	s, err := c.EngineSettings()
	if err != nil {
		return err
	}
	return s.Validate()
}

// EngineSettings converts the analysis sections into engine.Settings.
func (c *Config) EngineSettings() (engine.Settings, error) {
	unit, err := model.ParseUnit(c.Intervals.Unit)
	if err != nil {
		return engine.Settings{}, fmt.Errorf("intervals.unit: %w", err)
	}
	shapes := make([]model.Shape, 0, len(c.Triangle.Shapes))
	for _, name := range c.Triangle.Shapes {
		sh, ok := model.ParseShape(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return engine.Settings{}, fmt.Errorf("triangle.shapes: unknown shape %q", name)
		}
		shapes = append(shapes, sh)
	}
	return engine.Settings{
		Radius:           c.Pivot.Radius,
		MinMove:          c.Pivot.MinMove,
		SideTolPct:       c.Pivot.SideTolPct,
		Intervals:        append([]int(nil), c.Intervals.Values...),
		Unit:             unit,
		OverlapThreshold: c.Overlap.Threshold,
		Triangle: model.TriangleSettings{
			Enabled:       c.Triangle.Enabled,
			AllowedShapes: shapes,
			TimeScale:     c.Triangle.TimeScale,
			TolerancePct:  c.Triangle.TolerancePct,
			MinSymmetry:   c.Triangle.MinSymmetry,
		},
		RunBacktest: c.Backtest.Enabled,
		Backtest: model.BacktestSettings{
			Lookback:          c.Backtest.Lookback,
			ToleranceWindow:   c.Backtest.ToleranceWindow,
			MinSuccessCandles: c.Backtest.MinSuccessCandles,
			MinOverlapFilter:  c.Backtest.MinOverlapFilter,
		},
	}, nil
}
