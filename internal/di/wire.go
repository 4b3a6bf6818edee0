//go:build wireinject
// +build wireinject

package di

import (
	"AgriPulse/pkg/config"
	"AgriPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Data sources and stores
		ProvideTransSource,
		ProvideDatasetStore,
		ProvideBackend,

		// Pipeline services
		ProvideForecaster,
		ProvideScorer,

		// Use cases
		ProvideRecordProcessor,
		ProvideQuoteUseCase,
		ProvideLibraryUseCase,
		ProvideDatasetBuilder,

		// HTTP surface
		ProvideResponseCache,
		ProvideStreamHub,
		ProvideMarketHandler,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
