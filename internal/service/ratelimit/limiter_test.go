package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(2, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst exhausted")
	assert.True(t, l.Allow("b"), "keys are independent")

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestLimiterPrune(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	assert.Equal(t, 0, l.Prune(time.Minute))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, l.Prune(time.Minute))
	assert.True(t, l.Allow("a"))
}

func TestLimiterFractionalCapacity(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(0.5, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"), "capacity is at least one token")
	assert.False(t, l.Allow("a"))
	assert.Equal(t, 1, l.Len())
}
