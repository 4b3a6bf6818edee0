package di

import (
	"context"
	"fmt"
	"time"

	drepo "AgriPulse/internal/domain/repository"
	domsvc "AgriPulse/internal/domain/service"
	"AgriPulse/internal/handler/api"
	internalrepo "AgriPulse/internal/repository"
	icache "AgriPulse/internal/service/cache"
	"AgriPulse/internal/service/opendata"
	"AgriPulse/internal/services/pricing"
	"AgriPulse/internal/usecase"
	pkgcache "AgriPulse/pkg/cache"
	pkgch "AgriPulse/pkg/clickhouse"
	"AgriPulse/pkg/config"
	xhttp "AgriPulse/pkg/http"
	pkgkafka "AgriPulse/pkg/kafka"
	"AgriPulse/pkg/logger"
	"AgriPulse/pkg/metrics"
	"AgriPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideTransSource creates the MOA open-data client.
func ProvideTransSource(cfg *config.Config, log *logger.Logger) drepo.TransSource {
	opts := []opendata.Option{
		opendata.WithProxies(cfg.OpenData.Proxies),
		opendata.WithPageSize(cfg.OpenData.PageSize),
		opendata.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.OpenData.Timeout))),
	}
	if cfg.OpenData.BaseURL != "" {
		opts = append(opts, opendata.WithBaseURL(cfg.OpenData.BaseURL))
	}
	return opendata.New(log, opts...)
}

// ProvideForecaster creates the trend forecaster.
func ProvideForecaster(cfg *config.Config) domsvc.Forecaster {
	return pricing.NewTrendForecaster(cfg.Forecast.Horizon, cfg.Forecast.MAWindow)
}

// ProvideScorer creates the confidence scorer.
func ProvideScorer(cfg *config.Config) domsvc.ConfidenceScorer {
	return pricing.NewScorer(cfg.Forecast.ScoreWindow)
}

// ProvideDatasetStore creates the on-disk dataset store.
func ProvideDatasetStore(cfg *config.Config) (drepo.DatasetStore, error) {
	return internalrepo.NewFSDatasetStore(cfg.Dataset.Dir)
}

// Backend bundles the optional ingest infrastructure. All fields are nil
// when the backend type is "file": the dataset store is the only sink.
type Backend struct {
	CHClient  *pkgch.Client
	Publisher drepo.Publisher
	Store     drepo.RecordStore
	Consumer  *pkgkafka.Consumer
	Handler   pkgkafka.MessageHandler
}

// ProvideBackend constructs the ingest backend selected in config.
func ProvideBackend(cfg *config.Config, m drepo.Metrics) (*Backend, error) {
	b := &Backend{}

	switch cfg.Backend.Type {
	case "", "file":
		return b, nil

	case "clickhouse":
		ch, err := provideClickHouse(cfg)
		if err != nil {
			return nil, err
		}
		b.CHClient = ch
		b.Store = internalrepo.NewClickHouseRecordStore(ch.DB(), cfg.ClickHouse.Database+".farm_trans_raw")
		return b, nil

	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
			pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		b.Publisher = internalrepo.NewKafkaRecordPublisher(producer, cfg.Kafka.Topic)

		// the consuming side is optional; it lands records in ClickHouse
		if cfg.Kafka.Consumer.GroupID != "" {
			ch, err := provideClickHouse(cfg)
			if err != nil {
				return nil, err
			}
			b.CHClient = ch
			b.Store = internalrepo.NewClickHouseRecordStore(ch.DB(), cfg.ClickHouse.Database+".farm_trans_raw")

			consumer, err := pkgkafka.NewConsumer(
				pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
				pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
				pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
				pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
				pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
				pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
			)
			if err != nil {
				return nil, fmt.Errorf("kafka consumer: %w", err)
			}
			b.Consumer = consumer
			b.Handler = usecase.NewKafkaRecordsHandler(cfg.Kafka.Topic, b.Store, m)
		}
		return b, nil

	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend.Type)
	}
}

func provideClickHouse(cfg *config.Config) (*pkgch.Client, error) {
	ch, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store := internalrepo.NewClickHouseRecordStore(ch.DB(), cfg.ClickHouse.Database+".farm_trans_raw")
	if err := store.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return ch, nil
}

// ProvideRecordProcessor creates the ingest router, nil for the file backend.
func ProvideRecordProcessor(b *Backend, m drepo.Metrics, cfg *config.Config) *usecase.RecordProcessor {
	if b.Publisher == nil && b.Store == nil {
		return nil
	}
	return usecase.NewRecordProcessor(b.Publisher, b.Store, m, cfg.Backend.Type, cfg.Backend.BatchSize)
}

// ProvideQuoteUseCase creates the live-lookup use case. With an ingesting
// backend the record store serves daily history ahead of the live source.
func ProvideQuoteUseCase(
	source drepo.TransSource,
	b *Backend,
	forecaster domsvc.Forecaster,
	scorer domsvc.ConfidenceScorer,
	m drepo.Metrics,
	cfg *config.Config,
) *usecase.QuoteUseCase {
	return usecase.NewQuoteUseCase(source, b.Store, forecaster, scorer, m, cfg.OpenData.WindowDays)
}

// ProvideLibraryUseCase creates the prebuilt dataset use case.
func ProvideLibraryUseCase(
	store drepo.DatasetStore,
	forecaster domsvc.Forecaster,
	scorer domsvc.ConfidenceScorer,
	m drepo.Metrics,
) *usecase.LibraryUseCase {
	return usecase.NewLibraryUseCase(store, forecaster, scorer, m)
}

// ProvideStreamHub creates the dashboard refresh stream.
func ProvideStreamHub(log *logger.Logger) *api.StreamHub {
	return api.NewStreamHub(log)
}

// ProvideResponseCache picks the response cache per config: layered
// memory+redis when redis is enabled, memory-only otherwise.
func ProvideResponseCache(cfg *config.Config, log *logger.Logger) icache.BytesCache {
	if cfg.Cache.Redis.Enabled {
		redisCache, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
			pkgcache.WithRedisCredentials(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
			pkgcache.WithRedisPrefix("agripulse:api"),
		)
		if err != nil {
			log.Warn("redis unavailable, falling back to memory cache", logger.Error(err))
		} else {
			return icache.NewServiceBytes(pkgcache.NewLayeredCache(redisCache))
		}
	}
	return icache.NewTTLCache(4096)
}

// ProvideMarketHandler creates the dashboard API handler.
func ProvideMarketHandler(
	quote *usecase.QuoteUseCase,
	library *usecase.LibraryUseCase,
	responseCache icache.BytesCache,
	b *Backend,
	log *logger.Logger,
	cfg *config.Config,
) *api.MarketHandler {
	h := api.NewMarketHandler(quote, library, log, cfg.Cache.QuoteTTL, cfg.Cache.DetailTTL)
	h.SetCache(responseCache)
	if b.Store != nil {
		h.SetHealthCheck(b.Store.Health)
	}
	return h
}

// ProvideHTTPHandler combines all route registrars.
func ProvideHTTPHandler(market *api.MarketHandler, hub *api.StreamHub) xhttp.Handler {
	return xhttp.Handlers{market, hub}
}

// ProvideDatasetBuilder creates the scheduled dataset builder.
func ProvideDatasetBuilder(
	source drepo.TransSource,
	store drepo.DatasetStore,
	forecaster domsvc.Forecaster,
	scorer domsvc.ConfidenceScorer,
	processor *usecase.RecordProcessor,
	hub *api.StreamHub,
	m drepo.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.DatasetBuilder {
	return usecase.NewDatasetBuilder(
		source, store, forecaster, scorer,
		processor, hub, m, log,
		cfg.Dataset.Pairs, cfg.OpenData.WindowDays,
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	hub *api.StreamHub,
	builder *usecase.DatasetBuilder,
	b *Backend,
) *server.App {
	return server.New(cfg, log, handler, hub, builder, b.Consumer, b.Handler, b.CHClient, b.Publisher)
}
