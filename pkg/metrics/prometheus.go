package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalFetches *prometheus.CounterVec
	signalLatency *prometheus.HistogramVec
	registrations prometheus.Histogram
	registrySize  prometheus.Gauge
	sinkErrors    *prometheus.CounterVec
}

// New registers the recorder on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the recorder on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		signalFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "axii_signal_fetches_total",
				Help: "Signal fetches by signal and outcome (measured or fallback)",
			},
			[]string{"signal", "outcome"},
		),
		signalLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "axii_signal_fetch_duration_seconds",
				Help:    "Duration of one signal fetch",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
			},
			[]string{"signal"},
		),
		registrations: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "axii_registration_duration_seconds",
				Help:    "End-to-end duration of one artist registration",
				Buckets: prometheus.DefBuckets,
			},
		),
		registrySize: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "axii_registry_artists",
				Help: "Number of artists currently tracked",
			},
		),
		sinkErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "axii_sink_errors_total",
				Help: "Failures writing to history, event or snapshot sinks",
			},
			[]string{"sink"},
		),
	}
}

// RecordSignal records one signal fetch.
func (r *Recorder) RecordSignal(signal string, succeeded bool, seconds float64) {
	outcome := "measured"
	if !succeeded {
		outcome = "fallback"
	}
	r.signalFetches.WithLabelValues(signal, outcome).Inc()
	r.signalLatency.WithLabelValues(signal).Observe(seconds)
}

// RecordRegistration records registration latency in seconds.
func (r *Recorder) RecordRegistration(seconds float64) {
	r.registrations.Observe(seconds)
}

// SetRegistrySize sets the tracked artist gauge.
func (r *Recorder) SetRegistrySize(n int) {
	r.registrySize.Set(float64(n))
}

// RecordSinkError counts a failed side-effect write.
func (r *Recorder) RecordSinkError(sink string) {
	r.sinkErrors.WithLabelValues(sink).Inc()
}
