// Command visualizer serves the route snapshot dashboard.
package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"

	"routewatch/internal/catalog"
	"routewatch/internal/config"
	"routewatch/internal/dashboard"
	"routewatch/internal/env"
	"routewatch/internal/storage"
	"routewatch/pkg/graceful"
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
	opts.Name = "visualizer"
	opts.AddFlags(pflag.CommandLine)
	pflag.StringVar(&settings.HTTPAddr, "addr", settings.HTTPAddr, "Address the dashboard listens on.")
	pflag.Parse()

	logger, err := log.New(opts)
	if err != nil {
		log.Fatal("Invalid log options", err)
	}
	log.SetDefault(logger)
	defer logger.Sync()

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	s3Service, err := storage.NewS3Service(settings.StorageOptions())
	if err != nil {
		log.Fatal("Failed to create storage client", err)
	}

	dashOpts := []dashboard.Option{dashboard.WithLogger(logger.WithName("http"))}
	if settings.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, settings.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to create database pool", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error(err, "Catalog database unreachable, catalog API disabled")
		} else {
			dashOpts = append(dashOpts, dashboard.WithCatalog(catalog.NewRepo(pool)))
			logger.Info("Catalog API enabled")
		}
	}

	server := dashboard.NewServer(s3Service, settings.Storage.Bucket, settings.Storage.Prefix, dashOpts...)
	srv := &http.Server{
		Addr:         settings.HTTPAddr,
		Handler:      server.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Dashboard listening", "addr", srv.Addr, "bucket", settings.Storage.Bucket)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down dashboard")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "Shutdown error")
	}
	logger.Info("Dashboard stopped")
}
