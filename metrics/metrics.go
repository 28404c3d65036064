// Package metrics keeps per-run Prometheus counters. Batch runs do not serve
// HTTP, so the registry is dumped to a node-exporter textfile at exit.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the convert and stats commands.
type Metrics struct {
	Registry          *prometheus.Registry
	RowsTotal         *prometheus.CounterVec
	FilesTotal        *prometheus.CounterVec
	UnitsWrittenTotal *prometheus.CounterVec
	StatsUnits        *prometheus.GaugeVec
	LastRunTimestamp  *prometheus.GaugeVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	rows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "psnhub_rows_total",
			Help: "Spreadsheet data rows seen by the converter, by result.",
		},
		[]string{"result"},
	)
	files := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "psnhub_files_total",
			Help: "Input files processed, by command and outcome.",
		},
		[]string{"command", "outcome"},
	)
	unitsWritten := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "psnhub_units_written_total",
			Help: "Units written to catalog files, by developer slug and deal.",
		},
		[]string{"slug", "deal"},
	)
	statsUnits := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "psnhub_stats_units",
			Help: "Unit counts from the last stats run.",
		},
		[]string{"kind"},
	)
	lastRun := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "psnhub_last_run_timestamp_seconds",
			Help: "Unix time the command last completed.",
		},
		[]string{"command"},
	)

	registry.MustRegister(rows, files, unitsWritten, statsUnits, lastRun)

	return &Metrics{
		Registry:          registry,
		RowsTotal:         rows,
		FilesTotal:        files,
		UnitsWrittenTotal: unitsWritten,
		StatsUnits:        statsUnits,
		LastRunTimestamp:  lastRun,
	}
}

// IncRow counts one spreadsheet row as converted or skipped.
func (m *Metrics) IncRow(result string) {
	if m == nil {
		return
	}
	m.RowsTotal.WithLabelValues(result).Inc()
}

// IncFile counts one processed input file.
func (m *Metrics) IncFile(command, outcome string) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(command, outcome).Inc()
}

// AddUnitsWritten records units written to one catalog.
func (m *Metrics) AddUnitsWritten(slug, deal string, n int) {
	if m == nil {
		return
	}
	m.UnitsWrittenTotal.WithLabelValues(slug, deal).Add(float64(n))
}

// SetStatsUnits publishes a stats total.
func (m *Metrics) SetStatsUnits(kind string, n int) {
	if m == nil {
		return
	}
	m.StatsUnits.WithLabelValues(kind).Set(float64(n))
}

// MarkRun stamps the completion time of a command.
func (m *Metrics) MarkRun(command string, at time.Time) {
	if m == nil {
		return
	}
	m.LastRunTimestamp.WithLabelValues(command).Set(float64(at.Unix()))
}

// WriteTextfile dumps the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics: create dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
