// Command indexer consumes the bucket's object-created notifications from
// Kafka and records a summary of every new route snapshot in Postgres.
package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"

	"routewatch/internal/catalog"
	"routewatch/internal/config"
	"routewatch/internal/env"
	"routewatch/internal/indexer"
	"routewatch/internal/keys"
	"routewatch/internal/metrics"
	"routewatch/internal/service"
	"routewatch/internal/storage"
	"routewatch/pkg/graceful"
	"routewatch/pkg/kafkaclient"
	"routewatch/pkg/log"
)

func main() {
	bootstrap, _ := log.New(nil)
	log.SetDefault(bootstrap)

	env.LoadEnv()
	settings, err := config.Load()
	if err != nil {
		log.Fatal("Configuration error", err)
	}

	opts := settings.LogOptions()
	opts.Name = "indexer"
	opts.AddFlags(pflag.CommandLine)
	pflag.StringVar(&settings.HTTPAddr, "metrics-addr", settings.HTTPAddr, "Address serving /metrics and /healthz.")
	pflag.Parse()

	logger, err := log.New(opts)
	if err != nil {
		log.Fatal("Invalid log options", err)
	}
	log.SetDefault(logger)
	defer logger.Sync()

	if err := settings.RequireIndexer(); err != nil {
		log.Fatal("Configuration error", err)
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, settings.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to create database pool", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal("Failed to connect to database", err)
	}
	repo := catalog.NewRepo(pool)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatal("Failed to prepare catalog table", err)
	}

	s3Service, err := storage.NewS3Service(settings.StorageOptions())
	if err != nil {
		log.Fatal("Failed to create storage client", err)
	}

	logger.Info("Connecting to Kafka",
		"broker", settings.Kafka.Broker,
		"topic", settings.Kafka.Topic,
		"group_id", settings.Kafka.GroupID,
	)
	consumer, err := kafkaclient.NewConsumer(kafkaclient.Config{
		Brokers: []string{settings.Kafka.Broker},
		Topic:   settings.Kafka.Topic,
		GroupID: settings.Kafka.GroupID,
	}, logger.WithName("kafka"))
	if err != nil {
		log.Fatal("Failed to create Kafka consumer", err)
	}

	srv := &http.Server{
		Addr:              settings.HTTPAddr,
		Handler:           opsRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Metrics listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, "Metrics server error")
		}
	}()

	consumer.StartConsuming(ctx)
	iterator := service.NewIterator(consumer, indexer.Loader(s3Service), service.JSONKeys(keys.Prefix), logger.WithName("iterator"))
	pipeline := indexer.NewPipeline().WithLogger(logger.WithName("pipeline"))

	indexer.Run(ctx, iterator.Objects(ctx), pipeline, repo, logger)

	consumer.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("Indexer stopped")
}

func opsRouter() http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	})
	return r
}
