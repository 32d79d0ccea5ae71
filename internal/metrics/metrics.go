// Package metrics exposes run statistics in Prometheus format.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"CycleScope/internal/engine"
)

// Collector records analysis runs. It implements engine.Observer.
type Collector struct {
	registry *prometheus.Registry

	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram
	Pivots      *prometheus.GaugeVec
	Projections prometheus.Gauge
	Overlaps    prometheus.Gauge
	MaxOverlap  prometheus.Gauge
	SuccessRate *prometheus.GaugeVec
	LastRun     prometheus.Gauge
}

// NewCollector creates a collector registered on its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cyclescope_runs_total",
				Help: "Analysis runs by outcome",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cyclescope_run_duration_seconds",
				Help:    "Wall time of one analysis run",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		Pivots: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cyclescope_pivots",
				Help: "Retained pivots in the last run by type",
			},
			[]string{"type"},
		),
		Projections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyclescope_projections",
			Help: "Projections produced by the last run",
		}),
		Overlaps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyclescope_overlap_groups",
			Help: "Overlap groups at or above the threshold in the last run",
		}),
		MaxOverlap: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyclescope_overlap_max_count",
			Help: "Largest overlap count in the last run",
		}),
		SuccessRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cyclescope_interval_success_rate",
				Help: "Backtest success rate (percent) per interval in the last run",
			},
			[]string{"interval"},
		),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyclescope_last_run_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
	}
	c.registry.MustRegister(c.Runs, c.RunDuration, c.Pivots, c.Projections,
		c.Overlaps, c.MaxOverlap, c.SuccessRate, c.LastRun)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry on /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveRun(res *engine.Result, d time.Duration) {
	c.Runs.WithLabelValues("ok").Inc()
	c.RunDuration.Observe(d.Seconds())

	highs, lows := engine.CountPivots(res.Pivots)
	c.Pivots.WithLabelValues("high").Set(float64(highs))
	c.Pivots.WithLabelValues("low").Set(float64(lows))
	c.Projections.Set(float64(len(res.Projections)))
	c.Overlaps.Set(float64(len(res.Overlaps)))
	maxCount := 0
	for _, n := range res.Counts {
		maxCount = max(maxCount, n)
	}
	c.MaxOverlap.Set(float64(maxCount))

	c.SuccessRate.Reset()
	for _, s := range res.Stats {
		c.SuccessRate.WithLabelValues(strconv.Itoa(s.Interval)).Set(s.SuccessRate)
	}
	c.LastRun.Set(float64(res.StartedAt.Unix()))
}

func (c *Collector) ObserveFailure(err error, d time.Duration) {
	status := "error"
	var ce *engine.ConfigError
	if errors.As(err, &ce) {
		status = "config_error"
	}
	c.Runs.WithLabelValues(status).Inc()
	c.RunDuration.Observe(d.Seconds())
}
