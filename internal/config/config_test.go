package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleScope/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Pivot.Radius)
	assert.Equal(t, 100.0, cfg.Pivot.MinMove)
	assert.Equal(t, []int{30, 60, 90, 120, 144, 180, 210, 240, 270, 360}, cfg.Intervals.Values)
	assert.Equal(t, 3, cfg.Overlap.Threshold)
	require.NoError(t, cfg.Validate())

	s, err := cfg.EngineSettings()
	require.NoError(t, err)
	assert.Equal(t, model.UnitBars, s.Unit)
	assert.Equal(t, []model.Shape{model.ShapeEquilateral, model.ShapeIsosceles}, s.Triangle.AllowedShapes)
	assert.Equal(t, 70.0, s.Triangle.MinSymmetry)
	assert.Equal(t, 1, s.Backtest.MinOverlapFilter)
	assert.False(t, s.RunBacktest)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
data:
  price_file: prices.csv
  timezone: UTC
pivot:
  radius: 3
  min_move: 0
intervals:
  values: [10, 20]
  unit: calendar_days
triangle:
  enabled: true
  shapes: [Equilateral]
backtest:
  enabled: true
  lookback: 8
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	s, err := cfg.EngineSettings()
	require.NoError(t, err)
	assert.Equal(t, 3, s.Radius)
	assert.Zero(t, s.MinMove)
	assert.Equal(t, []int{10, 20}, s.Intervals)
	assert.Equal(t, model.UnitCalendarDays, s.Unit)
	assert.True(t, s.Triangle.Enabled)
	assert.Equal(t, []model.Shape{model.ShapeEquilateral}, s.Triangle.AllowedShapes)
	assert.True(t, s.RunBacktest)
	assert.Equal(t, 8, s.Backtest.Lookback)
	assert.Equal(t, 5, s.Backtest.ToleranceWindow)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CYCLE_RADIUS", "7")
	t.Setenv("CYCLE_MIN_MOVE", "250.5")
	t.Setenv("CYCLE_INTERVALS", "5, 15 ,45")
	t.Setenv("CYCLE_HOLIDAYS", "2024-01-26,2024-03-08")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(writeConfig(t, "pivot:\n  radius: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Pivot.Radius)
	assert.Equal(t, 250.5, cfg.Pivot.MinMove)
	assert.Equal(t, []int{5, 15, 45}, cfg.Intervals.Values)
	assert.Equal(t, []string{"2024-01-26", "2024-03-08"}, cfg.Data.Holidays)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoad_BadEnvNumber(t *testing.T) {
	t.Setenv("CYCLE_THRESHOLD", "three")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "CYCLE_THRESHOLD")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "pivot: [unclosed"))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad unit", func(c *Config) { c.Intervals.Unit = "weeks" }, "intervals.unit"},
		{"bad shape", func(c *Config) { c.Triangle.Shapes = []string{"circle"} }, "triangle.shapes"},
		{"zero radius", func(c *Config) { c.Pivot.Radius = 0 }, "radius"},
		{"empty intervals", func(c *Config) { c.Intervals.Values = nil }, "interval list is empty"},
		{"no data", func(c *Config) { c.Data.SyntheticBars = 0 }, "data.price_file"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }, "telegram"},
		{"bad timezone", func(c *Config) { c.Data.Timezone = "Mars/Olympus" }, "data.timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestParseIntervals(t *testing.T) {
	got, err := ParseIntervals("30,60, 90")
	require.NoError(t, err)
	assert.Equal(t, []int{30, 60, 90}, got)

	_, err = ParseIntervals("30,x")
	assert.Error(t, err)
}
