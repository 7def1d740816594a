//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"ReValue/internal/domain/repository"
	internalrepo "ReValue/internal/repository"
	"ReValue/pkg/config"
	"ReValue/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Model
		ProvideArtifactStore,
		wire.Bind(new(repository.ArtifactStore), new(*internalrepo.FileArtifactStore)),
		ProvidePredictionService,
		ProvideFallback,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Sinks
		ProvideValuationLog,
		ProvideValuationPublisher,

		// Use cases
		ProvideValuator,

		// Transport
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		ProvideApp,
	)
	return nil, nil, nil
}
