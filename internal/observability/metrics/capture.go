// Package metrics provides capture pipeline metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CaptureMetrics contains Prometheus metrics for capture pipeline operations.
// All record methods are safe to call on a nil receiver so the pipeline can
// run without telemetry wired in.
type CaptureMetrics struct {
	framesDispatched  *prometheus.CounterVec
	framesDiscarded   *prometheus.CounterVec
	bytesCaptured     *prometheus.CounterVec
	bytesDropped      *prometheus.CounterVec
	reconfigurations  *prometheus.CounterVec
	apmFailures       *prometheus.CounterVec
	transportErrors   *prometheus.CounterVec
	callbackDuration  *prometheus.HistogramVec
	bufferUsedBytes   *prometheus.GaugeVec
	audioLevel        *prometheus.GaugeVec
	audioClipping     *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewCaptureMetrics creates and registers new capture metrics
func NewCaptureMetrics(registry *prometheus.Registry) (*CaptureMetrics, error) {
	m := &CaptureMetrics{}
	m.initMetrics()
	for _, c := range m.collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *CaptureMetrics) initMetrics() {
	m.framesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicecapture_frames_dispatched_total",
			Help: "Total number of completed frames handed to the transport sink",
		},
		[]string{"source_id"},
	)

	m.framesDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicecapture_frames_discarded_total",
			Help: "Total number of frames discarded before dispatch",
		},
		[]string{"source_id", "reason"},
	)

	m.bytesCaptured = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicecapture_bytes_captured_total",
			Help: "Total PCM bytes written to the ring buffer",
		},
		[]string{"source_id"},
	)

	m.bytesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicecapture_bytes_dropped_total",
			Help: "Total PCM bytes rejected on ring buffer overflow",
		},
		[]string{"source_id"},
	)

	m.reconfigurations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicecapture_reconfigurations_total",
			Help: "Total number of format reconfigurations",
		},
		[]string{"source_id"},
	)

	m.apmFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicecapture_apm_failures_total",
			Help: "Total number of acoustic processing failures",
		},
		[]string{"source_id"},
	)

	m.transportErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicecapture_transport_errors_total",
			Help: "Total number of transport sink push failures",
		},
		[]string{"source_id"},
	)

	m.callbackDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voicecapture_callback_duration_seconds",
			Help:    "Time spent inside the capture callback",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100us to ~400ms
		},
		[]string{"source_id"},
	)

	m.bufferUsedBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "voicecapture_buffer_used_bytes",
			Help: "Bytes currently buffered in the ring buffer",
		},
		[]string{"source_id"},
	)

	m.audioLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "voicecapture_audio_level",
			Help: "Audio level of the last dispatched frame, 0-100",
		},
		[]string{"source_id"},
	)

	m.audioClipping = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicecapture_audio_clipping_total",
			Help: "Total number of dispatched frames containing clipped samples",
		},
		[]string{"source_id"},
	)

	m.collectors = []prometheus.Collector{
		m.framesDispatched, m.framesDiscarded, m.bytesCaptured, m.bytesDropped,
		m.reconfigurations, m.apmFailures, m.transportErrors,
		m.callbackDuration, m.bufferUsedBytes, m.audioLevel, m.audioClipping,
	}
}

// RecordFrameDispatched increments the dispatched frame counter.
func (m *CaptureMetrics) RecordFrameDispatched(sourceID string) {
	if m == nil {
		return
	}
	m.framesDispatched.WithLabelValues(sourceID).Inc()
}

// RecordFrameDiscarded increments the discarded frame counter with a reason.
func (m *CaptureMetrics) RecordFrameDiscarded(sourceID, reason string) {
	if m == nil {
		return
	}
	m.framesDiscarded.WithLabelValues(sourceID, reason).Inc()
}

// RecordBytesCaptured adds to the captured byte counter.
func (m *CaptureMetrics) RecordBytesCaptured(sourceID string, n int) {
	if m == nil {
		return
	}
	m.bytesCaptured.WithLabelValues(sourceID).Add(float64(n))
}

// RecordBytesDropped adds to the dropped byte counter.
func (m *CaptureMetrics) RecordBytesDropped(sourceID string, n int) {
	if m == nil {
		return
	}
	m.bytesDropped.WithLabelValues(sourceID).Add(float64(n))
}

// RecordReconfiguration increments the reconfiguration counter.
func (m *CaptureMetrics) RecordReconfiguration(sourceID string) {
	if m == nil {
		return
	}
	m.reconfigurations.WithLabelValues(sourceID).Inc()
}

// RecordApmFailure increments the acoustic processing failure counter.
func (m *CaptureMetrics) RecordApmFailure(sourceID string) {
	if m == nil {
		return
	}
	m.apmFailures.WithLabelValues(sourceID).Inc()
}

// RecordTransportError increments the transport failure counter.
func (m *CaptureMetrics) RecordTransportError(sourceID string) {
	if m == nil {
		return
	}
	m.transportErrors.WithLabelValues(sourceID).Inc()
}

// RecordCallbackDuration observes one callback duration in seconds.
func (m *CaptureMetrics) RecordCallbackDuration(sourceID string, seconds float64) {
	if m == nil {
		return
	}
	m.callbackDuration.WithLabelValues(sourceID).Observe(seconds)
}

// UpdateBufferUsed sets the ring buffer fill gauge.
func (m *CaptureMetrics) UpdateBufferUsed(sourceID string, bytes int) {
	if m == nil {
		return
	}
	m.bufferUsedBytes.WithLabelValues(sourceID).Set(float64(bytes))
}

// UpdateAudioLevel sets the audio level gauge and counts clipping frames.
func (m *CaptureMetrics) UpdateAudioLevel(sourceID string, level int, clipping bool) {
	if m == nil {
		return
	}
	m.audioLevel.WithLabelValues(sourceID).Set(float64(level))
	if clipping {
		m.audioClipping.WithLabelValues(sourceID).Inc()
	}
}
