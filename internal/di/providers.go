package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"EarnPilot/internal/domain/models"
	"EarnPilot/internal/domain/repository"
	domsvc "EarnPilot/internal/domain/service"
	"EarnPilot/internal/handler/api"
	"EarnPilot/internal/handler/events"
	internalrepo "EarnPilot/internal/repository"
	"EarnPilot/internal/service/binance"
	"EarnPilot/internal/service/telegram"
	"EarnPilot/internal/services/analytics"
	"EarnPilot/internal/usecase"
	pkgcache "EarnPilot/pkg/cache"
	pkgch "EarnPilot/pkg/clickhouse"
	"EarnPilot/pkg/config"
	xhttp "EarnPilot/pkg/http"
	pkgkafka "EarnPilot/pkg/kafka"
	applogger "EarnPilot/pkg/logger"
	"EarnPilot/pkg/metrics"
	"EarnPilot/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append(internalrepo.AuditSchema(), internalrepo.PerformanceSchema()...)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideCache creates the kline/product cache: layered over Redis when
// enabled, otherwise in-memory only.
func ProvideCache(cfg *config.Config, log *applogger.Logger) pkgcache.Service {
	if cfg.Redis.Enabled {
		host, port := splitHostPort(cfg.Redis.Addr)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
			pkgcache.WithRedisPrefix("earnpilot"),
		)
		if err == nil {
			return pkgcache.NewLayeredCache(rc)
		}
		log.Warn("redis unavailable, using memory cache", applogger.Error(err))
	}
	return pkgcache.NewMemoryCache()
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideAdvisorConfig maps the YAML section to the engine's config.
func ProvideAdvisorConfig(cfg *config.Config) models.AdvisorConfig {
	out := models.AdvisorConfig{
		StablecoinWhitelist: cfg.Advisor.StablecoinWhitelist,
		BaseCurrency:        cfg.Advisor.BaseCurrency,
		APRSwitchThreshold:  cfg.Advisor.APRSwitchThreshold,
		MaxDualPercent:      cfg.Advisor.MaxDualPercent,
		DefaultDurationDays: cfg.Advisor.DefaultDurationDays,
		VolatilityGuard24h:  cfg.Advisor.VolatilityGuard24h,
	}
	if out.DefaultDurationDays <= 0 {
		out.DefaultDurationDays = 7
	}
	if out.VolatilityGuard24h <= 0 {
		out.VolatilityGuard24h = 5
	}
	return out
}

// ProvideBinanceClient creates the REST client.
func ProvideBinanceClient(cfg *config.Config, log *applogger.Logger) *binance.Client {
	return binance.NewClient(binance.Config{
		BaseURL:           cfg.Binance.BaseURL,
		WSBaseURL:         cfg.Binance.WSBaseURL,
		APIKey:            cfg.Binance.APIKey,
		SecretKey:         cfg.Binance.SecretKey,
		RecvWindowMS:      cfg.Binance.RecvWindowMS,
		RequestsPerSecond: cfg.Binance.RequestsPerSecond,
		Burst:             cfg.Binance.Burst,
		Timeout:           cfg.Binance.Timeout,
	}, log)
}

// ProvideMarketData creates the exchange read boundary.
func ProvideMarketData(client *binance.Client, cache pkgcache.Service, log *applogger.Logger) repository.MarketData {
	return binance.NewMarketService(client, cache, log)
}

// ProvideStream creates the live ticker stream.
func ProvideStream(cfg *config.Config, m repository.Metrics, log *applogger.Logger) *binance.Stream {
	return binance.NewStream(binance.Config{WSBaseURL: cfg.Binance.WSBaseURL}, cfg.Binance.WatchSymbols, m, log)
}

// ProvidePredictor creates the trend predictor.
func ProvidePredictor(market repository.MarketData) domsvc.TrendPredictor {
	return analytics.NewMarketPredictor(market)
}

// ProvideYieldAnalyzer creates the real-yield analyzer.
func ProvideYieldAnalyzer(pred domsvc.TrendPredictor, acfg models.AdvisorConfig) domsvc.YieldAnalyzer {
	return analytics.NewSmartYieldAnalyzer(pred, acfg.BaseCurrency)
}

// ProvideGridAnalyzer creates the grid suitability analyzer.
func ProvideGridAnalyzer(pred domsvc.TrendPredictor, acfg models.AdvisorConfig) domsvc.GridAnalyzer {
	return analytics.NewGridBotAnalyzer(pred, acfg.BaseCurrency)
}

// ProvideEngine creates the decision engine.
func ProvideEngine(pred domsvc.TrendPredictor, yield domsvc.YieldAnalyzer, grid domsvc.GridAnalyzer, log *applogger.Logger) *usecase.Engine {
	return usecase.NewEngine(pred, yield, grid, log)
}

// ProvideAuditStore creates the ClickHouse audit archive.
func ProvideAuditStore(ch *pkgch.Client, log *applogger.Logger) repository.AuditStore {
	store := internalrepo.NewCHAuditStore(ch)
	store.SetLogger(log)
	return store
}

// ProvidePerformanceStore creates the ClickHouse snapshot store.
func ProvidePerformanceStore(ch *pkgch.Client, log *applogger.Logger) repository.PerformanceStore {
	store := internalrepo.NewCHPerformanceStore(ch)
	store.SetLogger(log)
	return store
}

// ProvideReportPublisher creates the Kafka report publisher, or a no-op when
// Kafka is disabled.
func ProvideReportPublisher(cfg *config.Config) (repository.ReportPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopReportPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaReportPublisher(producer), nil
}

// ProvideKafkaConsumer creates the report consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideNotifier creates the Telegram channel; unconfigured tokens yield a
// silent no-op notifier.
func ProvideNotifier(cfg *config.Config, log *applogger.Logger) domsvc.Notifier {
	return telegram.New(telegram.Config{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
	}, log)
}

// ProvideMessageHandlers lists the consumer-side handlers.
func ProvideMessageHandlers(notifier domsvc.Notifier, log *applogger.Logger) []pkgkafka.MessageHandler {
	return []pkgkafka.MessageHandler{events.NewReportHandler(notifier, log)}
}

// ProvideAdvisorService creates the orchestrator.
func ProvideAdvisorService(
	acfg models.AdvisorConfig,
	market repository.MarketData,
	engine *usecase.Engine,
	audits repository.AuditStore,
	perf repository.PerformanceStore,
	pub repository.ReportPublisher,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.AdvisorService {
	return usecase.NewAdvisorService(acfg, market, engine, audits, perf, pub, m, log)
}

// ProvideHTTPHandler creates the Echo route registrar.
func ProvideHTTPHandler(log *applogger.Logger, advisor *usecase.AdvisorService, stream *binance.Stream, cfg *config.Config) xhttp.Handler {
	return api.NewAdvisorEchoHandler(log, advisor, stream, cfg.Cron.Secret)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	stream *binance.Stream,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	pub repository.ReportPublisher,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	// aggregate error logs onto the broker when one is available
	if p, ok := pub.(applogger.Publisher); ok {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "advisor.logs",
			Publisher:      p,
		})
	}
	return server.New(cfg, log, stream, consumer, handlers, pub, chClient, httpHandler)
}
