//go:build wireinject
// +build wireinject

package di

import (
	"AXII/internal/usecase"
	"AXII/pkg/config"
	"AXII/pkg/server"

	"github.com/google/wire"
)

// signalSet builds the three signal sources and the image lookup.
var signalSet = wire.NewSet(
	ProvideLogger,
	ProvideSignalCache,
	ProvideNewsClient,
	ProvideAuctionClient,
	ProvideSources,
	ProvideImageLookup,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		signalSet,

		// Metrics
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Sinks
		ProvideHistoryStore,
		ProvideEventPublisher,
		ProvideSnapshotStore,
		ProvideHub,

		// Use cases
		ProvideRegistry,

		// HTTP
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHealthChecks,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeFetcher wires a sink-free registry for one-shot CLI fetches.
func InitializeFetcher(cfg *config.Config) (*usecase.Registry, func(), error) {
	wire.Build(
		signalSet,
		ProvideFetchRegistry,
	)
	return nil, nil, nil
}
