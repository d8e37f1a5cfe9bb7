package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordSignal("news", false, 0.2)
	r.RecordSignal("news", true, 0.1)
	r.RecordSignal("news", false, 0.3)
	r.SetRegistrySize(4)
	r.RecordSinkError("kafka")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.signalFetches.WithLabelValues("news", "fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.signalFetches.WithLabelValues("news", "measured")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.registrySize))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sinkErrors.WithLabelValues("kafka")))
}
