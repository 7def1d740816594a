package di

import (
	"context"
	"fmt"
	"time"

	"ReValue/internal/domain/repository"
	domsvc "ReValue/internal/domain/service"
	"ReValue/internal/handler/api"
	internalrepo "ReValue/internal/repository"
	"ReValue/internal/service/ratelimit"
	"ReValue/internal/services/heuristic"
	"ReValue/internal/usecase"
	"ReValue/pkg/cache"
	pkgch "ReValue/pkg/clickhouse"
	"ReValue/pkg/config"
	xhttp "ReValue/pkg/http"
	pkgkafka "ReValue/pkg/kafka"
	applogger "ReValue/pkg/logger"
	"ReValue/pkg/metrics"
	"ReValue/pkg/server"
)

const serviceName = "revalue"

func noop() {}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: serviceName,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideArtifactStore builds the artifact store and loads it. A failed load
// is not fatal: the service starts and answers "unavailable".
func ProvideArtifactStore(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *internalrepo.FileArtifactStore {
	opts := []internalrepo.StoreOption{
		internalrepo.WithFileNames(cfg.Model.ModelFile, cfg.Model.FeaturesFile, cfg.Model.MetricsFile),
	}
	if cfg.Model.RemoteURL != "" {
		opts = append(opts, internalrepo.WithRemoteModel(cfg.Model.RemoteURL, cfg.Model.RemoteTimeout, cfg.Model.RemoteAttempts))
	}
	store := internalrepo.NewFileArtifactStore(cfg.Model.Dir, l.With(applogger.String("component", "artifact_store")), opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store.Load(ctx)
	m.SetModelReady(store.Ready())
	return store
}

// ProvidePredictionService creates the core prediction use case.
func ProvidePredictionService(store repository.ArtifactStore, m repository.Metrics, l *applogger.Logger) *usecase.PredictionService {
	return usecase.NewPredictionService(store, m, l)
}

// ProvideFallback returns the depreciation estimator when enabled.
func ProvideFallback(cfg *config.Config) domsvc.Estimator {
	if !cfg.Model.Fallback {
		return nil
	}
	return heuristic.NewDepreciation()
}

// ProvideCache creates the valuation cache, or nil when disabled. An
// unreachable Redis degrades to the in-memory cache.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Cache.Enabled {
		return nil, noop, nil
	}
	memory := func() *cache.MemoryCache {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.Memory.MaxSize),
			cache.WithMemoryCleanup(cfg.Cache.Memory.CleanupInterval),
			cache.WithMemoryTTL(cfg.Cache.TTL),
		)
	}
	if cfg.Cache.Backend == "memory" {
		mc := memory()
		return mc, closer(l, "memory cache", mc.Close), nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
		cache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
		cache.WithRedisPool(cfg.Cache.Redis.PoolSize, 2, 0),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		l.Warn("redis unavailable, using in-memory cache",
			applogger.String("host", cfg.Cache.Redis.Host),
			applogger.Error(err),
		)
		mc := memory()
		return mc, closer(l, "memory cache", mc.Close), nil
	}
	if cfg.Cache.Backend == "redis" {
		return rc, closer(l, "redis cache", rc.Close), nil
	}
	lc := cache.NewLayeredCache(rc, cache.WithLayeredMemory(cfg.Cache.Memory.MaxSize, time.Minute))
	return lc, closer(l, "layered cache", lc.Close), nil
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, noop, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, 0),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, closer(l, "clickhouse", client.Close), nil
}

// ProvideValuationLog creates the ClickHouse audit log, or nil without a client.
func ProvideValuationLog(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.ValuationLog, error) {
	if ch == nil {
		return nil, nil
	}
	vl := internalrepo.NewCHValuationLog(ch, cfg.ClickHouse.Table, l)
	if cfg.ClickHouse.InitSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		stmts := append([]string{"CREATE DATABASE IF NOT EXISTS " + ch.Database()}, vl.SchemaStatements(cfg.ClickHouse.TTLDays)...)
		if err := ch.InitSchema(ctx, stmts); err != nil {
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return vl, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, noop, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, closer(l, "kafka producer", producer.Close), nil
}

// ProvideValuationPublisher publishes valuation events, or nil without a producer.
func ProvideValuationPublisher(p *pkgkafka.Producer, cfg *config.Config) repository.ValuationPublisher {
	if p == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(p, cfg.Kafka.ValuationsTopic, cfg.Kafka.ResultsTopic)
}

// ProvideValuator wires the optional cache, audit log, publisher and fallback
// around the prediction service.
func ProvideValuator(
	cfg *config.Config,
	predictor *usecase.PredictionService,
	m repository.Metrics,
	l *applogger.Logger,
	c cache.Service,
	vlog repository.ValuationLog,
	pub repository.ValuationPublisher,
	fallback domsvc.Estimator,
) *usecase.Valuator {
	return usecase.NewValuator(predictor, m, l,
		usecase.WithCache(c, cfg.Cache.TTL),
		usecase.WithValuationLog(vlog),
		usecase.WithPublisher(pub),
		usecase.WithFallback(fallback),
	)
}

// ProvideRateLimiter creates the per-client limiter for prediction requests
// and drops buckets idle for more than ten minutes.
func ProvideRateLimiter(cfg *config.Config) (*ratelimit.Limiter, func()) {
	limiter := ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec)
	if !limiter.Enabled() {
		return limiter, noop
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.Sweep(10 * time.Minute)
			case <-done:
				return
			}
		}
	}()
	return limiter, func() { close(done) }
}

// ProvideHTTPHandler creates the valuation HTTP handler.
func ProvideHTTPHandler(l *applogger.Logger, v *usecase.Valuator, limiter *ratelimit.Limiter, vlog repository.ValuationLog) *api.ValuationEchoHandler {
	h := api.NewValuationEchoHandler(l, v, limiter)
	if vlog != nil {
		h.WithChecker("clickhouse", vlog)
	}
	return h
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.ValuationEchoHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORSOrigins),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithLogger(l.With(applogger.String("component", "http"))),
	)
}

// ProvideKafkaConsumer creates the valuation request consumer, or nil when
// Kafka or the consumer is disabled.
func ProvideKafkaConsumer(
	cfg *config.Config,
	l *applogger.Logger,
	v *usecase.Valuator,
	pub repository.ValuationPublisher,
	m repository.Metrics,
) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	cl := l.With(applogger.String("component", "kafka_consumer"))
	consumer, err := pkgkafka.NewConsumer(cl,
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
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook{}, pkgkafka.LoggingHook{Logger: cl}))
	consumer.RegisterHandler(usecase.NewValuationRequestHandler(cfg.Kafka.RequestsTopic, v, pub, m, l))
	return consumer, nil
}

// ProvideApp assembles the application and attaches the Kafka error-log
// collector when configured.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	store *internalrepo.FileArtifactStore,
) *server.App {
	if producer != nil && cfg.Log.CollectTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			Topic:     cfg.Log.CollectTopic,
			Publisher: producer,
		})
	}
	app := server.New(l, httpServer, store.Ready)
	if consumer != nil {
		app.SetConsumer(consumer)
	}
	return app
}

func closer(l *applogger.Logger, name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			l.Warn("close failed", applogger.String("resource", name), applogger.Error(err))
		}
	}
}
