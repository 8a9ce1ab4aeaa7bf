// Command ingestor fetches every configured route from the routing API once
// and stores each response as a timestamped snapshot in the bucket.
package main

import (
	"context"
	"time"

	"github.com/spf13/pflag"

	"routewatch/internal/config"
	"routewatch/internal/env"
	"routewatch/internal/ingest"
	"routewatch/internal/storage"
	"routewatch/pkg/graceful"
	"routewatch/pkg/log"
	"routewatch/pkg/routing"
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
	opts.Name = "ingestor"
	opts.AddFlags(pflag.CommandLine)
	pflag.StringVar(&settings.RoutesFile, "routes-file", settings.RoutesFile, "YAML or JSON file with the routes to fetch.")
	pflag.Parse()

	logger, err := log.New(opts)
	if err != nil {
		log.Fatal("Invalid log options", err)
	}
	log.SetDefault(logger)
	defer logger.Sync()

	if err := settings.RequireIngest(); err != nil {
		log.Fatal("Configuration error", err)
	}
	routes, err := settings.Routes()
	if err != nil {
		log.Fatal("Failed to load routes", err)
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	s3Service, err := storage.NewS3Service(settings.StorageOptions())
	if err != nil {
		log.Fatal("Failed to create storage client", err)
	}
	if _, err := s3Service.CreateBucket(ctx, settings.Storage.Bucket); err != nil {
		log.Fatal("Failed to prepare bucket", err, "bucket", settings.Storage.Bucket)
	}

	client := routing.NewClient(settings.Routing.BaseURL, settings.Routing.APIKey, settings.Routing.Timeout)
	ingestor := ingest.New(client, s3Service, settings.Storage.Bucket, ingest.WithLogger(logger))

	start := time.Now()
	logger.Info("Starting route ingestion", "routes", len(routes), "bucket", settings.Storage.Bucket)
	res := ingestor.Run(ctx, routes)
	logger.Info("Finished route ingestion",
		"stored", res.Stored,
		"attempted", res.Attempted,
		"failed_routes", res.Failed,
		"took", time.Since(start),
	)
}
