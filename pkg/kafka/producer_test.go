package kafka

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Lz4, parseCompression("lz4"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression("gzip"))
	assert.Equal(t, kafka.Gzip, parseCompression("unknown"))
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)
}

func TestNewProducerOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("lz4"),
		WithRequiredAcks(1),
		WithMaxAttempts(0),
		WithWriteTimeout(2*time.Second),
		WithBatchTimeout(20*time.Millisecond),
	)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, "lz4", p.comp)
	assert.Equal(t, kafka.RequiredAcks(1), p.writer.RequiredAcks)
	assert.Equal(t, 3, p.writer.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.writer.WriteTimeout)
	assert.Equal(t, 20*time.Millisecond, p.writer.BatchTimeout)
}
