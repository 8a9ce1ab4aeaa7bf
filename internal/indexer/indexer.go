package indexer

import (
	"context"

	"routewatch/internal/catalog"
	"routewatch/internal/enrich"
	"routewatch/internal/metrics"
	"routewatch/internal/service"
	"routewatch/pkg/log"
)

// JSONReader loads a stored object as a decoded JSON document.
type JSONReader interface {
	GetJSON(ctx context.Context, bucketName, key string) (map[string]any, error)
}

// Recorder writes catalog rows.
type Recorder interface {
	Upsert(ctx context.Context, s catalog.Snapshot) (catalog.Snapshot, error)
}

// Loader adapts a JSONReader to the iterator's loader signature.
func Loader(store JSONReader) service.LoaderFunc[*Item] {
	return func(ctx context.Context, bucket, key string) (*Item, error) {
		doc, err := store.GetJSON(ctx, bucket, key)
		metrics.SnapshotLoads.WithLabelValues(metrics.Status(err)).Inc()
		if err != nil {
			return nil, err
		}
		return &Item{Bucket: bucket, Key: key, Doc: doc}, nil
	}
}

// Sink records processed items. Items whose key could not be parsed are
// dropped; other step failures are logged and the item is still recorded
// with whatever the pipeline produced.
func Sink(rec Recorder, logger log.Logger) enrich.Sink[Item] {
	return func(ctx context.Context, it *Item, err error) {
		if err != nil {
			logger.Warn("Snapshot enriched with errors", "key", it.Key, "error", err.Error())
		}
		if it.Route == "" {
			logger.Warn("Skipping object that is not a route snapshot", "key", it.Key)
			return
		}

		metrics.ShapesResolved.WithLabelValues(string(it.Geometry.Shape)).Inc()
		row, err := rec.Upsert(ctx, it.Snapshot())
		metrics.SnapshotsIndexed.WithLabelValues(metrics.Status(err)).Inc()
		if err != nil {
			logger.Error(err, "Failed to index snapshot", "key", it.Key)
			return
		}
		logger.Info("Snapshot indexed",
			"key", row.Key,
			"route", row.Route,
			"shape", row.Shape,
			"points", row.Points,
			"path_meters", row.PathMeters,
		)
	}
}

// Run feeds the fetched objects through pipeline into rec until objects is
// closed or ctx is done.
func Run(ctx context.Context, objects <-chan *service.FetchedObject[*Item], pipeline *enrich.Pipeline[Item], rec Recorder, logger log.Logger) {
	items := make(chan *Item)
	go func() {
		defer close(items)
		for obj := range objects {
			select {
			case items <- obj.Data:
			case <-ctx.Done():
				return
			}
		}
	}()

	pipeline.Process(ctx, items, Sink(rec, logger))
}
