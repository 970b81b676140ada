package di

import (
	"fmt"

	"StockScope/internal/domain/repository"
	"StockScope/internal/domain/service"
	"StockScope/internal/handler/api"
	"StockScope/internal/indicator"
	"StockScope/internal/insight"
	"StockScope/internal/marketdata"
	"StockScope/internal/report"
	internalrepo "StockScope/internal/repository"
	"StockScope/internal/usecase"
	"StockScope/pkg/cache"
	pkgch "StockScope/pkg/clickhouse"
	"StockScope/pkg/config"
	xhttp "StockScope/pkg/http"
	pkgkafka "StockScope/pkg/kafka"
	applogger "StockScope/pkg/logger"
	"StockScope/pkg/metrics"
	"StockScope/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache builds the series cache: in-process by default, layered over
// Redis when configured.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	memOpts := []cache.MemoryOption{cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxEntries)}
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(memOpts...), nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc, memOpts...), nil
}

// ProvideMarketData creates the caching market data client.
func ProvideMarketData(cfg *config.Config, cacheSvc cache.Service, m repository.Metrics, logger *applogger.Logger) service.MarketData {
	httpClient := xhttp.NewClient(xhttp.WithTimeout(cfg.MarketData.RequestTimeout))
	provider := marketdata.NewProvider(httpClient,
		cfg.MarketData.BaseURL,
		cfg.MarketData.APIKey,
		cfg.MarketData.Interval,
		cfg.MarketData.Range,
	)
	return marketdata.NewClient(provider, cacheSvc, m, logger, marketdata.Config{
		Interval:       cfg.MarketData.Interval,
		IntradayTTL:    cfg.MarketData.IntradayTTL,
		HistoricalTTL:  cfg.MarketData.HistoricalTTL,
		CacheRetention: cfg.MarketData.CacheRetention,
		RequestTimeout: cfg.MarketData.RequestTimeout,
		MaxRetries:     cfg.MarketData.MaxRetries,
		BackoffBase:    cfg.MarketData.BackoffBase,
		BackoffMax:     cfg.MarketData.BackoffMax,
	})
}

// ProvideIndicatorEngine creates the indicator engine.
func ProvideIndicatorEngine() *indicator.Engine {
	return indicator.NewEngine()
}

// ProvideInsightSource creates the narrative synthesizer.
func ProvideInsightSource(cfg *config.Config, m repository.Metrics, logger *applogger.Logger) service.InsightSource {
	httpClient := xhttp.NewClient(xhttp.WithTimeout(cfg.Insight.Timeout))
	return insight.NewSynthesizer(httpClient, m, logger, insight.Config{
		BaseURL:           cfg.Insight.BaseURL,
		APIKey:            cfg.Insight.APIKey,
		Model:             cfg.Insight.Model,
		MaxTokens:         cfg.Insight.MaxTokens,
		Temperature:       cfg.Insight.Temperature,
		Timeout:           cfg.Insight.Timeout,
		MaxNarrativeChars: cfg.Insight.MaxNarrativeChars,
	})
}

// ProvideAssembler creates the report assembler.
func ProvideAssembler(cfg *config.Config) *report.Assembler {
	return report.NewAssembler(cfg.Pipeline.ReportMaxBytes)
}

// ProvideReportSink builds the delivery backend selected by config.
func ProvideReportSink(cfg *config.Config) (repository.ReportSink, error) {
	switch cfg.Recorder.Backend {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Recorder.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Recorder.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Recorder.Kafka.RequiredAcks),
			pkgkafka.WithTimeouts(cfg.Recorder.Kafka.WriteTimeout, cfg.Recorder.Kafka.WriteTimeout),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return internalrepo.NewKafkaReportSink(producer, cfg.Recorder.Kafka.Topic), nil

	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.Recorder.ClickHouse.Host),
			pkgch.WithPort(cfg.Recorder.ClickHouse.Port),
			pkgch.WithDatabase(cfg.Recorder.ClickHouse.Database),
			pkgch.WithCredentials(cfg.Recorder.ClickHouse.User, cfg.Recorder.ClickHouse.Password),
			pkgch.WithTimeouts(cfg.Recorder.ClickHouse.DialTimeout, cfg.Recorder.ClickHouse.ReadTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		return internalrepo.NewCHReportStore(client)

	default:
		return internalrepo.NopSink{}, nil
	}
}

// ProvideRecorder creates the async report recorder.
func ProvideRecorder(sink repository.ReportSink, logger *applogger.Logger, cfg *config.Config) *usecase.ReportRecorder {
	return usecase.NewReportRecorder(sink, logger, cfg.Recorder.DeliveryTimeout)
}

// ProvidePipeline creates the analysis pipeline.
func ProvidePipeline(
	market service.MarketData,
	engine *indicator.Engine,
	source service.InsightSource,
	assembler *report.Assembler,
	recorder *usecase.ReportRecorder,
	m repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.AnalysisPipeline {
	return usecase.NewAnalysisPipeline(market, engine, source, assembler, recorder, m, logger, cfg.Pipeline.GlobalTimeout)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(logger *applogger.Logger, pipeline *usecase.AnalysisPipeline) xhttp.Handler {
	return api.NewAnalyzeHandler(logger, pipeline)
}

// ProvideApp creates the application server. The recorder is the report
// delivery closer so shutdown drains in-flight deliveries before the sink
// goes away.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	recorder *usecase.ReportRecorder,
	cacheSvc cache.Service,
) *server.App {
	return server.New(cfg, logger, handler, recorder, cacheSvc)
}
