package service

import (
	"context"

	"AXII/internal/domain/models"
)

// SignalSource produces one normalized score for an artist. It never fails:
// problems are reported through SignalResult.Succeeded.
type SignalSource interface {
	Name() string
	Fetch(ctx context.Context, artist string, creds models.Credentials) models.SignalResult
}

// ImageLookup resolves an artist portrait URL, or a placeholder.
type ImageLookup interface {
	Lookup(ctx context.Context, artist string) string
}

type cachedSignalsKey struct{}

// WithCachedSignals marks ctx as accepting memoized signal results. Fetches
// without the mark always reach the upstream provider.
func WithCachedSignals(ctx context.Context) context.Context {
	return context.WithValue(ctx, cachedSignalsKey{}, true)
}

// CachedSignalsAllowed reports whether ctx was marked by WithCachedSignals.
func CachedSignalsAllowed(ctx context.Context) bool {
	ok, _ := ctx.Value(cachedSignalsKey{}).(bool)
	return ok
}
