//go:build wireinject
// +build wireinject

package di

import (
	"StockScope/pkg/config"
	"StockScope/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Pipeline stages
		ProvideMarketData,
		ProvideIndicatorEngine,
		ProvideInsightSource,
		ProvideAssembler,

		// Report delivery
		ProvideReportSink,
		ProvideRecorder,

		// Use case and transport
		ProvidePipeline,
		ProvideHandler,

		ProvideApp,
	)
	return &server.App{}, nil
}
