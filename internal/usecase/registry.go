package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"AXII/internal/domain/models"
	domrepo "AXII/internal/domain/repository"
	domsvc "AXII/internal/domain/service"
	applogger "AXII/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// MaxNameLength bounds an artist name, in runes.
const MaxNameLength = 200

var (
	ErrInvalidName     = errors.New("invalid artist name")
	ErrNotFound        = errors.New("artist not found")
	ErrHistoryDisabled = errors.New("history store not configured")
)

// Broadcaster receives registry events for live subscribers. It must not block.
type Broadcaster interface {
	Broadcast(ev models.RegistryEvent)
}

// Sources groups the three signal providers, one per index.
type Sources struct {
	News   domsvc.SignalSource
	Social domsvc.SignalSource
	Market domsvc.SignalSource
}

// Registry is the ordered set of tracked artists. Insertion order is display
// order and an overwrite keeps the original position.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]models.Artist

	// writeMu orders mutations with their sink writes, so snapshot positions
	// and events follow the same sequence as order. Readers only take mu.
	writeMu sync.Mutex

	sources      Sources
	images       domsvc.ImageLookup
	metrics      domrepo.Metrics
	history      domrepo.HistoryStore
	publisher    domrepo.EventPublisher
	snapshots    domrepo.SnapshotStore
	broadcaster  Broadcaster
	fetchTimeout time.Duration
	now          func() time.Time
	l            *applogger.Logger
}

type RegistryOption func(*Registry)

func WithImageLookup(il domsvc.ImageLookup) RegistryOption {
	return func(r *Registry) { r.images = il }
}

func WithMetrics(m domrepo.Metrics) RegistryOption {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

func WithHistory(h domrepo.HistoryStore) RegistryOption {
	return func(r *Registry) { r.history = h }
}

func WithPublisher(p domrepo.EventPublisher) RegistryOption {
	return func(r *Registry) { r.publisher = p }
}

func WithSnapshotStore(s domrepo.SnapshotStore) RegistryOption {
	return func(r *Registry) { r.snapshots = s }
}

func WithBroadcaster(b Broadcaster) RegistryOption {
	return func(r *Registry) { r.broadcaster = b }
}

// WithFetchTimeout bounds each signal fetch. A signal that exceeds it falls back.
func WithFetchTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.fetchTimeout = d
		}
	}
}

func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

func WithLogger(l *applogger.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.l = l
		}
	}
}

func NewRegistry(sources Sources, opts ...RegistryOption) *Registry {
	r := &Registry{
		byName:       make(map[string]models.Artist),
		sources:      sources,
		metrics:      nopMetrics{},
		fetchTimeout: 8 * time.Second,
		now:          time.Now,
		l:            applogger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeName trims name and checks it is usable as a registry key.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidName, MaxNameLength)
	}
	return name, nil
}

// Register fetches the three signals for name, composes the record and
// upserts it. Signal failures never fail a registration.
func (r *Registry) Register(ctx context.Context, name string, creds models.Credentials) (models.Artist, error) {
	a, _, err := r.register(ctx, name, creds, false)
	return a, err
}

// register fetches and stores name. With existingOnly set the record is only
// written if name is still tracked once the fetch returns, and ok is false otherwise.
func (r *Registry) register(ctx context.Context, name string, creds models.Credentials, existingOnly bool) (a models.Artist, ok bool, err error) {
	name, err = NormalizeName(name)
	if err != nil {
		return models.Artist{}, false, err
	}
	start := time.Now()

	news, social, market, image := r.fetchSignals(ctx, name, creds)
	a = Compose(name, news, social, market, r.now())
	a.ImageURL = image

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	pos, size, ok := r.upsert(a, existingOnly)
	if !ok {
		r.l.Debug("artist removed during refresh", applogger.String("artist", name))
		return a, false, nil
	}
	r.metrics.RecordRegistration(time.Since(start).Seconds())
	r.metrics.SetRegistrySize(size)
	r.l.Info("artist registered",
		applogger.String("artist", name),
		applogger.Int("cci", a.Scores.CCI),
		applogger.Int("ees", a.Scores.EES),
		applogger.Int("rsmi", a.Scores.RSMI),
		applogger.Bool("measured", a.Measured()),
		applogger.Duration("took_ms", time.Since(start)),
	)

	r.notifyUpsert(ctx, a, pos)
	return a, true, nil
}

// fetchSignals runs the three sources and the image lookup concurrently and joins them.
func (r *Registry) fetchSignals(ctx context.Context, name string, creds models.Credentials) (news, social, market models.SignalResult, image string) {
	var g errgroup.Group
	fetch := func(src domsvc.SignalSource, out *models.SignalResult) {
		g.Go(func() error {
			*out = r.fetchOne(ctx, src, name, creds)
			return nil
		})
	}
	fetch(r.sources.News, &news)
	fetch(r.sources.Social, &social)
	fetch(r.sources.Market, &market)
	if r.images != nil {
		g.Go(func() error {
			ictx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
			defer cancel()
			image = r.images.Lookup(ictx, name)
			return nil
		})
	}
	_ = g.Wait()
	return news, social, market, image
}

func (r *Registry) fetchOne(ctx context.Context, src domsvc.SignalSource, name string, creds models.Credentials) models.SignalResult {
	if src == nil {
		return models.Fallback("source not configured")
	}
	fctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	start := time.Now()
	res := src.Fetch(fctx, name, creds)
	r.metrics.RecordSignal(src.Name(), res.Succeeded, time.Since(start).Seconds())
	return res
}

func (r *Registry) upsert(a models.Artist, existingOnly bool) (pos, size int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, tracked := r.byName[a.Name]; tracked {
		pos = slices.Index(r.order, a.Name)
	} else if existingOnly {
		return 0, len(r.order), false
	} else {
		pos = len(r.order)
		r.order = append(r.order, a.Name)
	}
	r.byName[a.Name] = a
	return pos, len(r.order), true
}

// List iterates over the registry as it was when List was called, in insertion order.
// The sequence may be ranged over more than once.
func (r *Registry) List() iter.Seq[models.Artist] {
	snap := r.Snapshot()
	return func(yield func(models.Artist) bool) {
		for _, a := range snap {
			if !yield(a) {
				return
			}
		}
	}
}

// Snapshot copies the registry in insertion order.
func (r *Registry) Snapshot() []models.Artist {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Artist, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, cloneArtist(r.byName[n]))
	}
	return out
}

// Filter returns the tracked artists whose names are in names, in registry order.
// Unknown names are ignored.
func (r *Registry) Filter(names []string) []models.Artist {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	out := make([]models.Artist, 0, len(names))
	for a := range r.List() {
		if _, ok := want[a.Name]; ok {
			out = append(out, a)
		}
	}
	return out
}

func (r *Registry) Get(name string) (models.Artist, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byName[name]
	if !ok {
		return models.Artist{}, false
	}
	return cloneArtist(a), true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Remove deletes name and reports whether it was tracked.
func (r *Registry) Remove(ctx context.Context, name string) bool {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	idx := slices.Index(r.order, name)
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	r.order = slices.Delete(r.order, idx, idx+1)
	delete(r.byName, name)
	size := len(r.order)
	r.mu.Unlock()

	r.metrics.SetRegistrySize(size)
	r.l.Info("artist removed", applogger.String("artist", name))
	r.notifyRemove(ctx, name)
	return true
}

// Restore loads persisted records without refetching. Existing names are overwritten in place.
func (r *Registry) Restore(artists []models.Artist) int {
	size := 0
	for _, a := range artists {
		if _, err := NormalizeName(a.Name); err != nil {
			continue
		}
		_, size, _ = r.upsert(cloneArtist(a), false)
	}
	if size > 0 {
		r.metrics.SetRegistrySize(size)
	}
	return r.Len()
}

// RefreshAll re-registers every tracked artist in registry order. Artists
// removed while the refresh runs are skipped, including those removed while
// their signals were being fetched.
func (r *Registry) RefreshAll(ctx context.Context, creds models.Credentials) ([]models.Artist, error) {
	r.mu.RLock()
	names := slices.Clone(r.order)
	r.mu.RUnlock()

	out := make([]models.Artist, 0, len(names))
	for _, n := range names {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("refresh interrupted: %w", err)
		}
		if _, ok := r.Get(n); !ok {
			continue
		}
		a, ok, err := r.register(ctx, n, creds, true)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// RunRefresher calls RefreshAll every interval until ctx is done.
func (r *Registry) RunRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			refreshed, err := r.RefreshAll(ctx, models.Credentials{})
			if err != nil && ctx.Err() == nil {
				r.l.Error("periodic refresh failed", applogger.Error(err))
				continue
			}
			r.l.Debug("periodic refresh done", applogger.Int("artists", len(refreshed)))
		}
	}
}

// History returns recorded snapshots of name, newest first.
func (r *Registry) History(ctx context.Context, name string, since time.Time, limit int) ([]models.Artist, error) {
	if r.history == nil {
		return nil, ErrHistoryDisabled
	}
	return r.history.History(ctx, name, since, limit)
}

func (r *Registry) notifyUpsert(ctx context.Context, a models.Artist, pos int) {
	ev := models.RegistryEvent{Type: models.EventUpsert, Name: a.Name, Artist: &a}
	if r.history != nil {
		r.sinkErr("history", r.history.Append(ctx, a))
	}
	if r.snapshots != nil {
		r.sinkErr("snapshot", r.snapshots.Save(ctx, a, pos))
	}
	r.emit(ctx, ev)
}

func (r *Registry) notifyRemove(ctx context.Context, name string) {
	if r.snapshots != nil {
		r.sinkErr("snapshot", r.snapshots.Delete(ctx, name))
	}
	r.emit(ctx, models.RegistryEvent{Type: models.EventRemove, Name: name})
}

func (r *Registry) emit(ctx context.Context, ev models.RegistryEvent) {
	if r.publisher != nil {
		r.sinkErr("events", r.publisher.Publish(ctx, ev))
	}
	if r.broadcaster != nil {
		r.broadcaster.Broadcast(ev)
	}
}

func (r *Registry) sinkErr(sink string, err error) {
	if err == nil {
		return
	}
	r.metrics.RecordSinkError(sink)
	r.l.Error("registry sink failed", applogger.String("sink", sink), applogger.Error(err))
}

func cloneArtist(a models.Artist) models.Artist {
	a.Evidence = slices.Clone(a.Evidence)
	return a
}

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string, bool, float64) {}
func (nopMetrics) RecordRegistration(float64)         {}
func (nopMetrics) SetRegistrySize(int)                {}
func (nopMetrics) RecordSinkError(string)             {}
