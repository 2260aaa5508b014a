// Package observability provides Prometheus metrics functionality for
// monitoring the capture pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/decentraland/voicecapture-go/internal/observability/metrics"
)

// Metrics bundles all metric groups with their shared registry.
type Metrics struct {
	registry *prometheus.Registry

	Capture *metrics.CaptureMetrics
}

// NewMetrics creates a registry with process/go collectors and the capture
// metric group registered.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	captureMetrics, err := metrics.NewCaptureMetrics(registry)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		registry: registry,
		Capture:  captureMetrics,
	}, nil
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
