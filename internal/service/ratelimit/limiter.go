package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	lim  *rate.Limiter
	last time.Time
}

// Limiter is a keyed token bucket. Every key shares the same capacity and refill rate.
type Limiter struct {
	mu     sync.Mutex
	m      map[string]*bucket
	burst  int
	refill rate.Limit
	now    func() time.Time
}

// New returns a limiter allowing bursts of capacity per key, refilled at refillPerSec.
func New(capacity, refillPerSec float64) *Limiter {
	return &Limiter{
		m:      make(map[string]*bucket),
		burst:  max(int(capacity), 1),
		refill: rate.Limit(refillPerSec),
		now:    time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.refill, l.burst)}
		l.m[key] = b
	}
	b.last = now
	return b.lim.AllowN(now, 1)
}

// Prune drops buckets that are full again and unused for at least idle.
func (l *Limiter) Prune(idle time.Duration) int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, b := range l.m {
		if now.Sub(b.last) >= idle && b.lim.TokensAt(now) >= float64(l.burst) {
			delete(l.m, k)
			n++
		}
	}
	return n
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
