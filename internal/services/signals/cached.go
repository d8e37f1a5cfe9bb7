package signals

import (
	"context"
	"encoding/json"
	"time"

	"AXII/internal/domain/models"
	domsvc "AXII/internal/domain/service"
	"AXII/internal/service/cache"
	applogger "AXII/pkg/logger"
)

// CachedSource memoizes successful results of an inner source for ttl.
// Fallbacks are never cached so a transient outage is retried on the next fetch.
// Reads are served only for contexts marked with domsvc.WithCachedSignals;
// other fetches go upstream and refresh the entry. Requests carrying their own
// news API key bypass the cache entirely.
type CachedSource struct {
	inner domsvc.SignalSource
	cache cache.BytesCache
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedSource(inner domsvc.SignalSource, c cache.BytesCache, ttl time.Duration, l *applogger.Logger) *CachedSource {
	return &CachedSource{inner: inner, cache: c, ttl: ttl, l: l}
}

func (s *CachedSource) Name() string { return s.inner.Name() }

func (s *CachedSource) key(artist string) string {
	return "signal:" + s.inner.Name() + ":" + artist
}

func (s *CachedSource) Fetch(ctx context.Context, artist string, creds models.Credentials) models.SignalResult {
	if creds.NewsAPIKey != "" {
		return s.inner.Fetch(ctx, artist, creds)
	}
	key := s.key(artist)
	if domsvc.CachedSignalsAllowed(ctx) {
		if res, ok := s.read(ctx, key); ok {
			return res
		}
	}

	res := s.inner.Fetch(ctx, artist, creds)
	if !res.Succeeded {
		return res
	}
	b, err := json.Marshal(res)
	if err != nil {
		return res
	}
	if err := s.cache.SetBytes(ctx, key, b, s.ttl); err != nil {
		s.l.Warn("signal cache write failed", applogger.String("key", key), applogger.Error(err))
	}
	return res
}

func (s *CachedSource) read(ctx context.Context, key string) (models.SignalResult, bool) {
	var res models.SignalResult
	b, ok, err := s.cache.GetBytes(ctx, key)
	if err != nil {
		s.l.Warn("signal cache read failed", applogger.String("key", key), applogger.Error(err))
		return res, false
	}
	if !ok {
		return res, false
	}
	if err := json.Unmarshal(b, &res); err != nil {
		_ = s.cache.Delete(ctx, key)
		return res, false
	}
	return res, true
}

var _ domsvc.SignalSource = (*CachedSource)(nil)
