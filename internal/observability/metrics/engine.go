// Package metrics provides custom Prometheus metrics for the soundwatch
// application.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics contains all Prometheus metrics related to the detection
// engine.
type EngineMetrics struct {
	DetectionCounter  *prometheus.CounterVec
	SuppressedCounter *prometheus.CounterVec
	LevelGauge        prometheus.Gauge
	CycleDuration     prometheus.Histogram
	MalformedFrames   prometheus.Counter

	registry *prometheus.Registry
}

// NewEngineMetrics creates a new instance of EngineMetrics and registers the
// metrics with the provided registry.
func NewEngineMetrics(registry *prometheus.Registry) (*EngineMetrics, error) {
	m := &EngineMetrics{registry: registry}
	m.initMetrics()
	for _, c := range []prometheus.Collector{
		m.DetectionCounter,
		m.SuppressedCounter,
		m.LevelGauge,
		m.CycleDuration,
		m.MalformedFrames,
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register engine metrics: %w", err)
		}
	}
	return m, nil
}

func (m *EngineMetrics) initMetrics() {
	m.DetectionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundwatch_detections_total",
			Help: "Total number of emitted detection events partitioned by signature kind.",
		},
		[]string{"kind"},
	)
	m.SuppressedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundwatch_candidates_suppressed_total",
			Help: "Candidates dropped by the event gate partitioned by kind and reason.",
		},
		[]string{"kind", "reason"},
	)
	m.LevelGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "soundwatch_audio_level",
			Help: "Smoothed audio level of the active listening session, range 0-1.",
		},
	)
	m.CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soundwatch_cycle_duration_seconds",
			Help:    "Time taken to run one analysis cycle.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
	)
	m.MalformedFrames = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "soundwatch_malformed_frames_total",
			Help: "Frames skipped because they failed validation.",
		},
	)
}

// RecordDetection increments the detection counter for a kind.
func (m *EngineMetrics) RecordDetection(kind string) {
	if m == nil {
		return
	}
	m.DetectionCounter.WithLabelValues(kind).Inc()
}

// RecordSuppressed increments the suppressed-candidate counter.
func (m *EngineMetrics) RecordSuppressed(kind, reason string) {
	if m == nil {
		return
	}
	m.SuppressedCounter.WithLabelValues(kind, reason).Inc()
}

// RecordLevel sets the smoothed audio level gauge.
func (m *EngineMetrics) RecordLevel(level float64) {
	if m == nil {
		return
	}
	m.LevelGauge.Set(level)
}

// RecordCycleDuration observes one analysis cycle duration in seconds.
func (m *EngineMetrics) RecordCycleDuration(seconds float64) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(seconds)
}

// RecordMalformedFrame counts a skipped malformed frame.
func (m *EngineMetrics) RecordMalformedFrame() {
	if m == nil {
		return
	}
	m.MalformedFrames.Inc()
}
