// Package observability provides Prometheus metrics functionality for
// monitoring the soundwatch application.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/soundwatch-go/internal/observability/metrics"
)

// Metrics aggregates all metric groups behind a single registry.
type Metrics struct {
	Engine  *metrics.EngineMetrics
	Capture *metrics.CaptureMetrics

	registry *prometheus.Registry
}

// NewMetrics creates the registry, the standard Go runtime collectors and
// all application metric groups.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine, err := metrics.NewEngineMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine metrics: %w", err)
	}
	capture, err := metrics.NewCaptureMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture metrics: %w", err)
	}

	return &Metrics{
		Engine:   engine,
		Capture:  capture,
		registry: registry,
	}, nil
}

// RegisterHandlers attaches the Prometheus scrape handler to the mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
