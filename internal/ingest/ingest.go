// Package ingest fetches the configured routes from the routing API and stores
// each response as a timestamped snapshot object.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"routewatch/internal/keys"
	"routewatch/internal/models"
	"routewatch/pkg/log"
)

// ContentType is set on every stored snapshot.
const ContentType = "application/json"

// RouteFetcher returns the raw routing API response for one route.
type RouteFetcher interface {
	CalculateRoute(ctx context.Context, r models.RouteDescriptor) (json.RawMessage, error)
}

// ObjectWriter stores one object, replacing any object at the same key.
type ObjectWriter interface {
	PutObject(ctx context.Context, bucketName, key string, body []byte, contentType string) error
}

// Result summarizes one Run. Stored never exceeds Attempted.
type Result struct {
	Attempted int
	Fetched   int
	Stored    int

	// Failed lists the routes whose fetch or upload failed, in run order.
	Failed []string
}

// Ingestor walks the route list once per Run, strictly one route at a time.
type Ingestor struct {
	fetcher RouteFetcher
	writer  ObjectWriter
	bucket  string
	now     func() time.Time
	logger  log.Logger
}

// Option customizes an Ingestor.
type Option func(*Ingestor)

// WithClock replaces time.Now as the source of snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(in *Ingestor) { in.now = now }
}

// WithLogger sets the logger. The default is the process-wide logger.
func WithLogger(l log.Logger) Option {
	return func(in *Ingestor) { in.logger = l }
}

// New returns an Ingestor writing snapshots into bucket.
func New(fetcher RouteFetcher, writer ObjectWriter, bucket string, opts ...Option) *Ingestor {
	in := &Ingestor{
		fetcher: fetcher,
		writer:  writer,
		bucket:  bucket,
		now:     time.Now,
		logger:  log.Std(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run fetches and stores every route in order. A failing route is logged and
// skipped; the batch only stops early when ctx is done.
func (in *Ingestor) Run(ctx context.Context, routes []models.RouteDescriptor) Result {
	var res Result
	for _, r := range routes {
		if ctx.Err() != nil {
			in.logger.Warn("Ingestion interrupted", "remaining", len(routes)-res.Attempted)
			break
		}
		res.Attempted++
		in.logger.Info("Fetching route", "route", r.Name)

		body, err := in.fetcher.CalculateRoute(ctx, r)
		if err != nil {
			in.logger.Error(err, "Failed to fetch route data", "route", r.Name)
			in.logger.Warn("No route data to upload", "route", r.Name)
			res.Failed = append(res.Failed, r.Name)
			continue
		}
		res.Fetched++

		key, err := in.store(ctx, r, body)
		if err != nil {
			in.logger.Error(err, "Failed to upload route data", "route", r.Name)
			res.Failed = append(res.Failed, r.Name)
			continue
		}
		res.Stored++
		in.logger.Info("Route data uploaded", "route", r.Name, "location", fmt.Sprintf("s3://%s/%s", in.bucket, key))
	}

	in.logger.Info("Ingestion finished",
		"attempted", res.Attempted,
		"stored", res.Stored,
		"failed", len(res.Failed),
	)
	return res
}

func (in *Ingestor) store(ctx context.Context, r models.RouteDescriptor, body []byte) (string, error) {
	pretty, err := Indent(body)
	if err != nil {
		return "", err
	}
	key := keys.Snapshot(r.Name, in.now())
	if err := in.writer.PutObject(ctx, in.bucket, key, pretty, ContentType); err != nil {
		return "", err
	}
	return key, nil
}

// Indent re-indents a JSON document with four spaces, keeping key order and
// number literals exactly as received.
func Indent(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "    "); err != nil {
		return nil, fmt.Errorf("failed to format route data: %w", err)
	}
	return buf.Bytes(), nil
}
