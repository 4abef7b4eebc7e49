package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "EarnPilot/internal/domain/repository"
	"EarnPilot/internal/service/binance"
	pkgch "EarnPilot/pkg/clickhouse"
	"EarnPilot/pkg/config"
	xhttp "EarnPilot/pkg/http"
	pkgkafka "EarnPilot/pkg/kafka"
	applogger "EarnPilot/pkg/logger"
)

// App encapsulates the entire application lifecycle: the HTTP surface, the
// market data stream, the report consumer and the infrastructure clients.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	stream      *binance.Stream
	consumer    *pkgkafka.Consumer
	handlers    []pkgkafka.MessageHandler
	publisher   domrepo.ReportPublisher
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	stream *binance.Stream,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	publisher domrepo.ReportPublisher,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		stream:      stream,
		consumer:    consumer,
		handlers:    handlers,
		publisher:   publisher,
		chClient:    chClient,
		httpHandler: httpHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.stream != nil {
		go a.stream.Run(ctx)
		a.log.Info("market stream started", applogger.Strings("symbols", a.cfg.Binance.WatchSymbols))
	}

	if a.consumer != nil && len(a.handlers) > 0 {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
		}
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.Int("handlers", len(a.handlers)))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("report publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
