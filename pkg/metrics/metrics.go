// Package metrics exposes Prometheus metrics for migration runs. A CLI run
// is short-lived, so metrics are exported as a node_exporter textfile rather
// than served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the migration metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Migrations        *prometheus.CounterVec
	MigrationDuration *prometheus.HistogramVec
	StageFailures     *prometheus.CounterVec
	Warnings          prometheus.Counter
	DroppedInterfaces prometheus.Counter
	RenamedInterfaces prometheus.Counter
	LastRun           prometheus.Gauge
}

// NewCollector registers the migration metrics against reg, defaulting to
// the global registry when nil. Registering twice on the same registry
// returns the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	migrations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tnmigrate_migrations_total",
		Help: "Device pairs processed, labeled by outcome status.",
	}, []string{"status"}), "tnmigrate_migrations_total")
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tnmigrate_migration_duration_seconds",
		Help:    "Wall time of one device-pair migration.",
		Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"status"}), "tnmigrate_migration_duration_seconds")
	if err != nil {
		return nil, err
	}
	failures, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tnmigrate_stage_failures_total",
		Help: "Failed migrations, labeled by the stage that failed.",
	}, []string{"stage"}), "tnmigrate_stage_failures_total")
	if err != nil {
		return nil, err
	}
	warnings, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tnmigrate_ignored_vlan_settings_total",
		Help: "VLAN settings dropped because the target generation does not support them.",
	}), "tnmigrate_ignored_vlan_settings_total")
	if err != nil {
		return nil, err
	}
	dropped, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tnmigrate_dropped_interfaces_total",
		Help: "Source interfaces not carried over to the target.",
	}), "tnmigrate_dropped_interfaces_total")
	if err != nil {
		return nil, err
	}
	renamed, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tnmigrate_renamed_interfaces_total",
		Help: "Interfaces renamed to the multi-gigabit naming.",
	}), "tnmigrate_renamed_interfaces_total")
	if err != nil {
		return nil, err
	}
	lastRun, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tnmigrate_last_run_timestamp_seconds",
		Help: "Unix time the last migration run finished.",
	}), "tnmigrate_last_run_timestamp_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		Migrations:        migrations,
		MigrationDuration: duration,
		StageFailures:     failures,
		Warnings:          warnings,
		DroppedInterfaces: dropped,
		RenamedInterfaces: renamed,
		LastRun:           lastRun,
	}, nil
}

// Migration is what the collector needs to know about one finished pair.
type Migration struct {
	Status   string
	Stage    string // failing stage, empty on success
	Duration time.Duration
	Warnings int
	Dropped  int
	Renamed  int
}

// ObserveMigration records one finished pair. Safe on a nil collector.
func (c *Collector) ObserveMigration(m Migration) {
	if c == nil {
		return
	}
	c.Migrations.WithLabelValues(m.Status).Inc()
	c.MigrationDuration.WithLabelValues(m.Status).Observe(m.Duration.Seconds())
	if m.Stage != "" {
		c.StageFailures.WithLabelValues(m.Stage).Inc()
	}
	c.Warnings.Add(float64(m.Warnings))
	c.DroppedInterfaces.Add(float64(m.Dropped))
	c.RenamedInterfaces.Add(float64(m.Renamed))
}

// RunFinished stamps the end of a run.
func (c *Collector) RunFinished(t time.Time) {
	if c == nil {
		return
	}
	c.LastRun.Set(float64(t.Unix()))
}

// WriteTextfile writes every gathered metric to path in the text exposition
// format, for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
