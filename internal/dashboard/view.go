package dashboard

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"routewatch/internal/metrics"
	"routewatch/internal/storage"
	"routewatch/models"
	"routewatch/pkg/geometry"
	"routewatch/pkg/mapview"
)

// SampleSize is the number of leading points shown next to the map.
const SampleSize = 5

const (
	noFilesNotice = "No JSON files found in storage."
	noMapNotice   = "No map generated (no coordinates found)."
)

// listing is the result of one pass over the bucket. Failures leave Keys
// empty and add a warning.
type listing struct {
	Keys     []string
	Warnings []string
}

func (s *Server) list(ctx context.Context) listing {
	timer := prometheus.NewTimer(metrics.ListingDuration)
	defer timer.ObserveDuration()

	keys, err := s.objects.ListObjects(ctx, s.bucket, s.prefix)
	if err != nil {
		s.logger.Error(err, "Failed to list objects", "bucket", s.bucket, "prefix", s.prefix)
		return listing{Keys: []string{}, Warnings: []string{fmt.Sprintf("Error listing objects: %v", err)}}
	}
	return listing{Keys: keys}
}

// view is everything shown for one selected object.
type view struct {
	Key      string
	Raw      string
	Geometry geometry.Geometry
	Map      *mapview.Map
	Warnings []string
	Notices  []string

	// ReadErr is the storage error when the object could not be read.
	ReadErr error
}

// Count is the number of resolved points.
func (v view) Count() int {
	return len(v.Geometry.Points)
}

// Sample is the first SampleSize points.
func (v view) Sample() models.Coordinates {
	return v.Geometry.Points.Head(SampleSize)
}

// load fetches key, resolves its geometry and assembles the map. Every failure
// turns into a warning on the returned view.
func (s *Server) load(ctx context.Context, key string) view {
	v := view{Key: key, Geometry: geometry.Geometry{Shape: geometry.ShapeNone}}

	body, err := s.objects.GetObject(ctx, s.bucket, key)
	metrics.SnapshotLoads.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		s.logger.Error(err, "Failed to read object", "key", key)
		v.Warnings = append(v.Warnings, fmt.Sprintf("Error reading %s: %v", key, err))
		v.ReadErr = err
		return v
	}
	v.Raw = string(body)

	doc, err := storage.DecodeJSON(body)
	if err != nil {
		v.Warnings = append(v.Warnings, fmt.Sprintf("Error parsing %s: %v", key, err))
		return v
	}

	v.Geometry = geometry.Resolve(doc)
	metrics.ShapesResolved.WithLabelValues(string(v.Geometry.Shape)).Inc()
	if v.Geometry.Warning != "" {
		v.Warnings = append(v.Warnings, v.Geometry.Warning)
	}

	if v.Geometry.Empty() {
		v.Notices = append(v.Notices, noMapNotice)
		return v
	}
	v.Map, _ = mapview.Build(v.Geometry.Points, mapview.TitleFromKey(key))
	return v
}

// selectKey picks the requested key when it is part of the listing, and the
// first listed key otherwise.
func selectKey(keys []string, requested string) (string, string) {
	requested = strings.TrimSpace(requested)
	switch {
	case len(keys) == 0:
		return "", ""
	case requested == "":
		return keys[0], ""
	case slices.Contains(keys, requested):
		return requested, ""
	default:
		return keys[0], fmt.Sprintf("Unknown file %q, showing %s instead.", requested, keys[0])
	}
}
