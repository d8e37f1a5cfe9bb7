package server

import (
	"context"
	"time"

	"AXII/internal/domain/models"
	"AXII/internal/domain/repository"
	domsvc "AXII/internal/domain/service"
	"AXII/internal/service/ratelimit"
	"AXII/internal/usecase"
	"AXII/pkg/config"
	xhttp "AXII/pkg/http"
	applogger "AXII/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	seedConcurrency = 4
	limiterIdle     = 10 * time.Minute
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	reg        *usecase.Registry
	snapshots  repository.SnapshotStore
	httpServer *xhttp.Server
	limiter    *ratelimit.Limiter
	l          *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	reg *usecase.Registry,
	snapshots repository.SnapshotStore,
	httpServer *xhttp.Server,
	limiter *ratelimit.Limiter,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:        cfg,
		reg:        reg,
		snapshots:  snapshots,
		httpServer: httpServer,
		limiter:    limiter,
		l:          l,
	}
}

// Registry exposes the registry for callers that embed the app.
func (a *App) Registry() *usecase.Registry { return a.reg }

// Run restores the registry, starts the HTTP server and background loops, and
// blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.restore(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	go a.seed(ctx)
	if iv := a.cfg.Registry.RefreshInterval; iv > 0 {
		go a.reg.RunRefresher(ctx, iv)
		a.l.Info("periodic refresh enabled", applogger.Duration("interval_ms", iv))
	}
	go a.pruneLimiter(ctx)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// restore loads the persisted registry so a restart does not refetch everything.
func (a *App) restore(ctx context.Context) {
	if a.snapshots == nil {
		return
	}
	artists, err := a.snapshots.LoadAll(ctx)
	if err != nil {
		a.l.Error("registry restore failed", applogger.Error(err))
		return
	}
	n := a.reg.Restore(artists)
	a.l.Info("registry restored", applogger.Int("artists", n))
}

// seed registers configured artists that are not tracked yet. Seeding may
// reuse signal results memoized by a previous run.
func (a *App) seed(ctx context.Context) {
	ctx = domsvc.WithCachedSignals(ctx)
	var g errgroup.Group
	g.SetLimit(seedConcurrency)
	for _, name := range a.cfg.Registry.Artists {
		if _, ok := a.reg.Get(name); ok {
			continue
		}
		g.Go(func() error {
			if _, err := a.reg.Register(ctx, name, models.Credentials{}); err != nil {
				a.l.Warn("seed artist rejected", applogger.String("artist", name), applogger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	a.l.Info("registry seeded", applogger.Int("artists", a.reg.Len()))
}

func (a *App) pruneLimiter(ctx context.Context) {
	if a.limiter == nil {
		return
	}
	t := time.NewTicker(limiterIdle)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.limiter.Prune(limiterIdle); n > 0 {
				a.l.Debug("rate limiter pruned", applogger.Int("buckets", n))
			}
		}
	}
}

// shutdown gracefully stops the HTTP server. Infrastructure clients are
// closed by the cleanup returned from the injector.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.l.Info("shutdown complete")
	return nil
}
