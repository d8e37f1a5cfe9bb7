package di

import (
	"context"
	"fmt"
	"time"

	"AXII/internal/domain/repository"
	domsvc "AXII/internal/domain/service"
	"AXII/internal/handler/api"
	mid "AXII/internal/middleware"
	internalrepo "AXII/internal/repository"
	"AXII/internal/service/auction"
	"AXII/internal/service/cache"
	"AXII/internal/service/newsapi"
	"AXII/internal/service/ratelimit"
	"AXII/internal/service/wikipedia"
	"AXII/internal/services/signals"
	"AXII/internal/usecase"
	pkgch "AXII/pkg/clickhouse"
	"AXII/pkg/config"
	xhttp "AXII/pkg/http"
	pkgkafka "AXII/pkg/kafka"
	applogger "AXII/pkg/logger"
	"AXII/pkg/metrics"
	"AXII/pkg/server"
)

// ProvideLogger builds the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSignalCache returns Redis when enabled, otherwise an in-process TTL cache.
func ProvideSignalCache(cfg *config.Config, l *applogger.Logger) (cache.BytesCache, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewTTLCache(), func() {}, nil
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Cache.Redis.Addr, err)
	}
	l.Info("redis signal cache ready", applogger.String("addr", cfg.Cache.Redis.Addr))
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideNewsClient creates the rate limited news API client.
func ProvideNewsClient(cfg *config.Config) *newsapi.Client {
	return newsapi.New(cfg.News.BaseURL, cfg.News.Timeout,
		newsapi.WithPageSize(cfg.News.PageSize),
		newsapi.WithRateLimit(cfg.News.RPS),
	)
}

// ProvideAuctionClient creates the auction page scraper.
func ProvideAuctionClient(cfg *config.Config) *auction.Client {
	return auction.New(cfg.Auction.Timeout, cfg.Auction.UserAgent)
}

// ProvideSources assembles the three signal sources. Measured sources are
// memoized, and only seeding reads the memo back.
func ProvideSources(
	cfg *config.Config,
	news *newsapi.Client,
	auc *auction.Client,
	c cache.BytesCache,
	l *applogger.Logger,
) usecase.Sources {
	houses := make([]auction.House, 0, len(cfg.Auction.Houses))
	for _, h := range cfg.Auction.Houses {
		houses = append(houses, auction.House{Name: h.Name, SearchURL: h.SearchURL, Selector: h.Selector})
	}

	newsSig := signals.NewNewsSignal(news, cfg.News.APIKey, l,
		signals.WithLookback(cfg.News.Lookback),
		signals.WithMaxEvidence(cfg.News.MaxEvidence),
	)
	marketSig := signals.NewMarketSignal(auc, houses, l)

	return usecase.Sources{
		News:   signals.NewCachedSource(newsSig, c, cfg.Cache.TTL, l),
		Social: signals.NewSocialSignal(cfg.Social.Min, cfg.Social.Max),
		Market: signals.NewCachedSource(marketSig, c, cfg.Cache.TTL, l),
	}
}

// ProvideImageLookup returns nil when image lookup is disabled.
func ProvideImageLookup(cfg *config.Config, l *applogger.Logger) domsvc.ImageLookup {
	if !cfg.Images.Enabled {
		return nil
	}
	return wikipedia.NewImageLookup(cfg.Images.BaseURL, cfg.Images.Placeholder, cfg.Images.Timeout, l)
}

// ProvideClickHouseClient creates a ClickHouse client and the history schema. Nil when disabled.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.HistorySchema); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse history store ready", applogger.String("database", client.Database()))
	return client, func() { _ = client.Close() }, nil
}

// ProvideHistoryStore returns a nil interface when ClickHouse is disabled.
func ProvideHistoryStore(ch *pkgch.Client, l *applogger.Logger) repository.HistoryStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHHistoryStore(ch, l)
}

// ProvideKafkaProducer creates a Kafka producer. Nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideEventPublisher returns a nil interface when Kafka is disabled. Failed
// publishes are buffered and retried in the background.
func ProvideEventPublisher(p *pkgkafka.Producer, cfg *config.Config, m repository.Metrics, l *applogger.Logger) (repository.EventPublisher, func()) {
	if p == nil {
		return nil, func() {}
	}
	buf := mid.NewBufferedPublisher(internalrepo.NewKafkaEventPublisher(p, cfg.Kafka.Topic), m, l)
	buf.Start(context.Background())
	return buf, func() { buf.Stop() }
}

// ProvideSnapshotStore opens the SQLite registry snapshot. Nil interface when disabled.
func ProvideSnapshotStore(cfg *config.Config) (repository.SnapshotStore, func(), error) {
	if !cfg.Store.SQLite.Enabled {
		return nil, func() {}, nil
	}
	s, err := internalrepo.OpenSQLiteRegistryStore(cfg.Store.SQLite.Path)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Close() }, nil
}

// ProvideHub creates the websocket fan-out hub.
func ProvideHub(l *applogger.Logger) *api.Hub {
	return api.NewHub(l)
}

// ProvideRegistry builds the registry with every configured sink.
func ProvideRegistry(
	cfg *config.Config,
	sources usecase.Sources,
	images domsvc.ImageLookup,
	m repository.Metrics,
	history repository.HistoryStore,
	publisher repository.EventPublisher,
	snapshots repository.SnapshotStore,
	hub *api.Hub,
	l *applogger.Logger,
) *usecase.Registry {
	return usecase.NewRegistry(sources,
		usecase.WithImageLookup(images),
		usecase.WithMetrics(m),
		usecase.WithHistory(history),
		usecase.WithPublisher(publisher),
		usecase.WithSnapshotStore(snapshots),
		usecase.WithBroadcaster(hub),
		usecase.WithFetchTimeout(cfg.Registry.FetchTimeout),
		usecase.WithLogger(l),
	)
}

// ProvideFetchRegistry builds a registry without sinks for one-shot CLI fetches.
func ProvideFetchRegistry(cfg *config.Config, sources usecase.Sources, images domsvc.ImageLookup, l *applogger.Logger) *usecase.Registry {
	return usecase.NewRegistry(sources,
		usecase.WithImageLookup(images),
		usecase.WithFetchTimeout(cfg.Registry.FetchTimeout),
		usecase.WithLogger(l),
	)
}

// ProvideRateLimiter creates the limiter guarding artist registration.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RegisterBurst, cfg.Server.RegisterRate)
}

// ProvideHTTPHandler groups the echo handlers.
func ProvideHTTPHandler(l *applogger.Logger, reg *usecase.Registry, rl *ratelimit.Limiter, hub *api.Hub) xhttp.Handler {
	return xhttp.Handlers{
		api.NewArtistsEchoHandler(l, reg, rl),
		api.NewStreamEchoHandler(hub, reg, l),
	}
}

// ProvideHealthChecks probes the optional backends that the service reads from.
func ProvideHealthChecks(ch *pkgch.Client, c cache.BytesCache) []xhttp.HealthCheck {
	var checks []xhttp.HealthCheck
	if ch != nil {
		checks = append(checks, xhttp.HealthCheck{Name: "clickhouse", Check: ch.Health})
	}
	if p, ok := c.(interface{ Ping(context.Context) error }); ok {
		checks = append(checks, xhttp.HealthCheck{Name: "redis", Check: p.Ping})
	}
	return checks
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, checks []xhttp.HealthCheck, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithHealthChecks(checks...),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	reg *usecase.Registry,
	snapshots repository.SnapshotStore,
	srv *xhttp.Server,
	rl *ratelimit.Limiter,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, reg, snapshots, srv, rl, l)
}
