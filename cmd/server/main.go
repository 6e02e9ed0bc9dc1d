package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	addresscache "cadastro/internal/address/cache"
	addresshandler "cadastro/internal/address/handler"
	"cadastro/internal/address/lookup"
	addressmetrics "cadastro/internal/address/metrics"
	addressservice "cadastro/internal/address/service"
	"cadastro/internal/audit"
	auditkafka "cadastro/internal/audit/store/kafka"
	auditmemory "cadastro/internal/audit/store/memory"
	documenthandler "cadastro/internal/document/handler"
	jwttoken "cadastro/internal/jwt_token"
	personhandler "cadastro/internal/person/handler"
	personservice "cadastro/internal/person/service"
	personstore "cadastro/internal/person/store"
	"cadastro/internal/platform/config"
	"cadastro/internal/platform/httpserver"
	"cadastro/internal/platform/kafka"
	"cadastro/internal/platform/logger"
	"cadastro/internal/platform/metrics"
	"cadastro/internal/platform/postgres"
	"cadastro/internal/platform/redis"
	httptransport "cadastro/internal/transport/http"
	"cadastro/pkg/platform/circuit"
)

const auditBufferSize = 1024

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("cadastro stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)
	healthChecks := map[string]httptransport.HealthCheck{}

	persons, closeStore, err := buildPersonStore(ctx, cfg.Database, log, healthChecks)
	if err != nil {
		return err
	}
	defer closeStore()

	cache, closeCache, err := buildAddressCache(ctx, cfg.Redis, log, healthChecks)
	if err != nil {
		return err
	}
	defer closeCache()

	auditStore, closeAudit, err := buildAuditStore(ctx, cfg.Kafka, log, healthChecks)
	if err != nil {
		return err
	}
	defer closeAudit()

	postal := lookup.New(cfg.PostalLookup.BaseURL,
		lookup.WithTimeout(cfg.PostalLookup.Timeout),
		lookup.WithRetries(cfg.PostalLookup.Retries, cfg.PostalLookup.RetryBackoff),
		lookup.WithBreaker(circuit.New("postal-lookup")),
		lookup.WithLogger(log),
	)

	addresses, err := addressservice.New(postal, cache,
		addressservice.WithTTL(cfg.PostalLookup.CacheTTL),
		addressservice.WithLogger(log),
		addressservice.WithMetrics(addressmetrics.New(reg)),
	)
	if err != nil {
		return err
	}

	publisher := audit.NewPublisher(auditStore, audit.WithAsyncBuffer(auditBufferSize))
	worker := audit.NewWorker(auditStore, publisher.Inbox(), log)

	people := personservice.New(persons, addresses,
		personservice.WithLogger(log),
		personservice.WithAuditPublisher(publisher),
		personservice.WithMetrics(appMetrics),
	)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Metrics:        appMetrics,
		RequestTimeout: cfg.RequestTimeout,
		TokenValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		Persons:        personhandler.New(people, log),
		Addresses:      addresshandler.New(addresses, log),
		Documents:      documenthandler.New(),
		HealthChecks:   healthChecks,
		AdvisoryChecks: map[string]httptransport.HealthCheck{"postal_lookup": postal.Health},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting cadastro", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	// The worker stops when publisher.Close closes its inbox, after in-flight
	// requests have finished emitting.
	workerCtx := context.WithoutCancel(ctx)
	g.Go(func() error {
		return worker.Run(workerCtx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		publisher.Close()
		return err
	})
	return g.Wait()
}

func buildPersonStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger, checks map[string]httptransport.HealthCheck) (personservice.Store, func(), error) {
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		log.Warn("DATABASE_URL not set, using in-memory person store")
		return personstore.NewInMemory(), func() {}, nil
	}
	if err := postgres.Migrate(ctx, db, personstore.Schema); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	checks["postgres"] = db.PingContext
	return personstore.NewPostgres(db), closeDB(db, log), nil
}

func closeDB(db *sql.DB, log *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("failed to close postgres", "error", err)
		}
	}
}

func buildAddressCache(ctx context.Context, cfg config.RedisConfig, log *slog.Logger, checks map[string]httptransport.HealthCheck) (addressservice.Cache, func(), error) {
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Warn("REDIS_URL not set, using in-memory address cache")
		return addresscache.NewInMemoryCache(), func() {}, nil
	}
	checks["redis"] = client.Health
	return addresscache.NewRedisCache(client.Client), func() { _ = client.Close() }, nil
}

func buildAuditStore(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger, checks map[string]httptransport.HealthCheck) (audit.Store, func(), error) {
	client, err := kafka.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Warn("KAFKA_BROKERS not set, using in-memory audit store")
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}
	if err := client.EnsureTopic(ctx, cfg.AuditTopic, 3, 1); err != nil {
		client.Close()
		return nil, nil, err
	}
	checks["kafka"] = client.Health
	return auditkafka.New(client, cfg.AuditTopic), client.Close, nil
}
