// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	SnapshotsServed     prometheus.Counter
	SnapshotsFailed     prometheus.Counter
	RecordingsStarted   prometheus.Counter
	RecordingsSucceeded prometheus.Counter
	RecordingsFailed    prometheus.Counter
	RecordingsTimedOut  prometheus.Counter
	DeliveriesRejected  prometheus.Counter // artifact over the transport size ceiling

	// Histograms
	RecordingDuration prometheus.Observer // seconds, wall clock of the whole job
	ArtifactBytes     prometheus.Observer

	// Gauges
	ActiveRecordings prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		SnapshotsServed = promauto.NewCounter(prometheus.CounterOpts{Name: "camrelay_snapshots_served_total", Help: "Number of camera snapshots delivered"})
		SnapshotsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "camrelay_snapshots_failed_total", Help: "Number of camera snapshot requests that failed"})
		RecordingsStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "camrelay_recordings_started_total", Help: "Number of clip recordings started"})
		RecordingsSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "camrelay_recordings_succeeded_total", Help: "Number of clip recordings completed with a valid artifact"})
		RecordingsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "camrelay_recordings_failed_total", Help: "Number of clip recordings that failed"})
		RecordingsTimedOut = promauto.NewCounter(prometheus.CounterOpts{Name: "camrelay_recordings_timed_out_total", Help: "Number of clip recordings killed at the deadline"})
		DeliveriesRejected = promauto.NewCounter(prometheus.CounterOpts{Name: "camrelay_deliveries_rejected_total", Help: "Number of artifacts rejected for exceeding the upload size ceiling"})
		RecordingDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "camrelay_recording_duration_seconds", Help: "Recording job duration seconds", Buckets: prometheus.DefBuckets})
		ArtifactBytes = promauto.NewHistogram(prometheus.HistogramOpts{Name: "camrelay_artifact_bytes", Help: "Size of delivered artifacts in bytes", Buckets: prometheus.ExponentialBuckets(1024, 4, 10)})
		ActiveRecordings = promauto.NewGauge(prometheus.GaugeOpts{Name: "camrelay_active_recordings", Help: "Recordings currently in flight"})
	})
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
