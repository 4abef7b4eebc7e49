//go:build wireinject
// +build wireinject

package di

import (
	"EarnPilot/pkg/config"
	"EarnPilot/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideBinanceClient,
		ProvideReportPublisher,
		ProvideKafkaConsumer,

		// Exchange boundary
		ProvideMarketData,
		ProvideStream,

		// Analytics
		ProvideAdvisorConfig,
		ProvidePredictor,
		ProvideYieldAnalyzer,
		ProvideGridAnalyzer,

		// Stores
		ProvideAuditStore,
		ProvidePerformanceStore,

		// Use cases
		ProvideEngine,
		ProvideAdvisorService,

		// Delivery
		ProvideNotifier,
		ProvideMessageHandlers,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
