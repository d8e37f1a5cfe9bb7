package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"AXII/internal/domain/models"
	domrepo "AXII/internal/domain/repository"
	applogger "AXII/pkg/logger"
)

// BufferedPublisher sits between the registry and an event publisher. The
// first attempt is synchronous; a failed event is queued and retried in the
// background with exponential backoff. While anything is queued, new events
// queue behind it so delivery order matches publish order.
type BufferedPublisher struct {
	next    domrepo.EventPublisher
	metrics domrepo.Metrics
	l       *applogger.Logger

	bufSize    int
	minBackoff time.Duration
	maxBackoff time.Duration
	bufCh      chan models.RegistryEvent
	stopCh     chan struct{}
	doneCh     chan struct{}

	mu      sync.Mutex
	started bool
	pending int // queued plus the one being retried
}

type BufferOption func(*BufferedPublisher)

// WithBufferSize sets how many undelivered events are kept for retry.
func WithBufferSize(n int) BufferOption {
	return func(p *BufferedPublisher) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBackoff sets the retry backoff bounds.
func WithBackoff(lo, hi time.Duration) BufferOption {
	return func(p *BufferedPublisher) {
		if lo > 0 && hi >= lo {
			p.minBackoff, p.maxBackoff = lo, hi
		}
	}
}

func NewBufferedPublisher(next domrepo.EventPublisher, metrics domrepo.Metrics, l *applogger.Logger, opts ...BufferOption) *BufferedPublisher {
	p := &BufferedPublisher{
		next:       next,
		metrics:    metrics,
		l:          l,
		bufSize:    1000,
		minBackoff: 50 * time.Millisecond,
		maxBackoff: 2 * time.Second,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan models.RegistryEvent, p.bufSize)
	return p
}

// Start launches background flushing of buffered events.
func (p *BufferedPublisher) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.doneCh)
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case ev := <-p.bufCh:
				if !p.deliver(ctx, ev) {
					return
				}
			}
		}
	}()
}

// deliver retries ev until it is published. It reports false if stopped first.
func (p *BufferedPublisher) deliver(ctx context.Context, ev models.RegistryEvent) bool {
	backoff := p.minBackoff
	for {
		err := p.next.Publish(ctx, ev)
		if err == nil {
			p.mu.Lock()
			p.pending--
			p.mu.Unlock()
			return true
		}
		p.metrics.RecordSinkError("events_retry")
		p.l.Debug("event retry failed",
			applogger.String("artist", ev.Name),
			applogger.Duration("backoff_ms", backoff),
			applogger.Error(err),
		)
		select {
		case <-time.After(backoff):
		case <-p.stopCh:
			return false
		case <-ctx.Done():
			return false
		}
		backoff = min(backoff*2, p.maxBackoff)
	}
}

// Stop stops the background flushing and reports how many events were left unsent.
func (p *BufferedPublisher) Stop() int {
	p.mu.Lock()
	if !p.started {
		n := p.pending
		p.mu.Unlock()
		return n
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.doneCh
	if n := p.Pending(); n > 0 {
		p.l.Warn("event buffer stopped with pending events", applogger.Int("pending", n))
		return n
	}
	return 0
}

// Publish forwards ev, buffering it on failure. The error is still returned
// so the caller can count it. If earlier events are still waiting, ev is
// queued behind them without a direct attempt.
func (p *BufferedPublisher) Publish(ctx context.Context, ev models.RegistryEvent) error {
	p.mu.Lock()
	if p.pending > 0 {
		ok := p.enqueueLocked(ev)
		p.mu.Unlock()
		if !ok {
			return fmt.Errorf("publish %s %q: event buffer full", ev.Type, ev.Name)
		}
		return nil
	}
	p.mu.Unlock()

	if err := p.next.Publish(ctx, ev); err != nil {
		p.mu.Lock()
		p.enqueueLocked(ev)
		p.mu.Unlock()
		return fmt.Errorf("publish %s %q (buffered for retry): %w", ev.Type, ev.Name, err)
	}
	return nil
}

// Pending reports the number of undelivered events.
func (p *BufferedPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// enqueueLocked must be called with p.mu held. bufCh never blocks because
// pending counts every event in it.
func (p *BufferedPublisher) enqueueLocked(ev models.RegistryEvent) bool {
	if p.pending >= p.bufSize {
		p.metrics.RecordSinkError("events_dropped")
		p.l.Warn("event buffer full, dropping event", applogger.String("artist", ev.Name))
		return false
	}
	p.pending++
	p.bufCh <- ev
	return true
}

var _ domrepo.EventPublisher = (*BufferedPublisher)(nil)
