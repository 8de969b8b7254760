package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CaptureMetrics contains Prometheus metrics for the audio capture path.
type CaptureMetrics struct {
	FramesTotal  prometheus.Counter
	DroppedBytes prometheus.Counter

	registry *prometheus.Registry
}

// NewCaptureMetrics creates a new instance of CaptureMetrics and registers
// the metrics with the provided registry.
func NewCaptureMetrics(registry *prometheus.Registry) (*CaptureMetrics, error) {
	m := &CaptureMetrics{registry: registry}
	m.FramesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "soundwatch_capture_frames_total",
			Help: "Complete audio frames assembled from the capture device.",
		},
	)
	m.DroppedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "soundwatch_capture_dropped_bytes_total",
			Help: "Captured bytes dropped because the frame buffer was full.",
		},
	)
	for _, c := range []prometheus.Collector{m.FramesTotal, m.DroppedBytes} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register capture metrics: %w", err)
		}
	}
	return m, nil
}

// RecordFrame counts one assembled capture frame.
func (m *CaptureMetrics) RecordFrame() {
	if m == nil {
		return
	}
	m.FramesTotal.Inc()
}

// RecordDroppedBytes counts capture bytes discarded on buffer overrun.
func (m *CaptureMetrics) RecordDroppedBytes(n int) {
	if m == nil {
		return
	}
	m.DroppedBytes.Add(float64(n))
}
