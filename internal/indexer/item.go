// Package indexer turns newly stored route snapshots into catalog rows. Each
// snapshot runs through a two-stage enrich pipeline: the geometry and the key
// are read first, then the path length and the provider's traffic summary.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"routewatch/internal/catalog"
	"routewatch/internal/enrich"
	"routewatch/internal/keys"
	"routewatch/pkg/geo"
	"routewatch/pkg/geometry"
	"routewatch/pkg/routing"
)

// Item carries one snapshot through the pipeline. Steps of the same stage
// write disjoint fields.
type Item struct {
	Bucket string
	Key    string
	Doc    map[string]any

	// Stage 1.
	Geometry   geometry.Geometry
	Route      string
	CapturedAt time.Time

	// Stage 2.
	PathMeters float64
	Summary    Summary
}

// Summary is the traffic summary of the provider's first route. Fields are
// nil when the response does not carry them.
type Summary struct {
	LengthMeters        *int64
	TravelTimeSeconds   *int64
	TrafficDelaySeconds *int64
}

// NewPipeline returns the indexing pipeline.
func NewPipeline() *enrich.Pipeline[Item] {
	return enrich.NewPipeline(
		enrich.NewStage(ResolveGeometry, ParseKey),
		enrich.NewStage(Measure, Summarize),
	)
}

// ResolveGeometry resolves the coordinate path of the document.
func ResolveGeometry(_ context.Context, it *Item) error {
	it.Geometry = geometry.Resolve(it.Doc)
	if it.Geometry.Warning != "" {
		return fmt.Errorf("%s: %s", it.Key, it.Geometry.Warning)
	}
	return nil
}

// ParseKey reads the route name and capture time from the object key.
func ParseKey(_ context.Context, it *Item) error {
	route, at, err := keys.Parse(it.Key)
	if err != nil {
		return err
	}
	it.Route, it.CapturedAt = route, at
	return nil
}

// Measure computes the haversine length of the resolved path.
func Measure(_ context.Context, it *Item) error {
	it.PathMeters = geo.PathLength(it.Geometry.Points)
	return nil
}

// Summarize copies routes[0].summary of a provider response. Documents of
// other shapes have no summary, which is not an error.
func Summarize(_ context.Context, it *Item) error {
	routes, ok := it.Doc["routes"].([]any)
	if !ok || len(routes) == 0 {
		return nil
	}
	raw, err := json.Marshal(map[string]any{"routes": routes[:1]})
	if err != nil {
		return fmt.Errorf("%s: %w", it.Key, err)
	}
	var resp routing.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("%s: summary: %w", it.Key, err)
	}

	s := resp.Routes[0].Summary
	it.Summary = Summary{
		LengthMeters:        s.LengthInMeters,
		TravelTimeSeconds:   s.TravelTimeInSeconds,
		TrafficDelaySeconds: s.TrafficDelayInSeconds,
	}
	return nil
}

// Snapshot converts a processed item into its catalog row.
func (it *Item) Snapshot() catalog.Snapshot {
	return catalog.Snapshot{
		Key:                 it.Key,
		Route:               it.Route,
		CapturedAt:          it.CapturedAt,
		Shape:               string(it.Geometry.Shape),
		Points:              len(it.Geometry.Points),
		PathMeters:          it.PathMeters,
		LengthMeters:        it.Summary.LengthMeters,
		TravelTimeSeconds:   it.Summary.TravelTimeSeconds,
		TrafficDelaySeconds: it.Summary.TrafficDelaySeconds,
	}
}
