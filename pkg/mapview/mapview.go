// Package mapview assembles the map shown for a stored route: a base layer
// centered on the path, the path itself and start/end markers.
package mapview

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"routewatch/models"
	"routewatch/pkg/geo"
)

// DefaultZoom shows a route of a few hundred kilometers without panning.
const DefaultZoom = 6

// Path styling of the route overlay.
const (
	PathColor   = "blue"
	PathWeight  = 4
	PathOpacity = 0.8
)

// Marker is a labeled point on the map.
type Marker struct {
	Label    string            `json:"label"`
	Color    string            `json:"color"`
	Position models.Coordinate `json:"position"`
}

// Polyline is a connected path drawn through Points in order.
type Polyline struct {
	Points  models.Coordinates `json:"points"`
	Color   string             `json:"color"`
	Weight  int                `json:"weight"`
	Opacity float64            `json:"opacity"`
}

// Map is a rendering-independent description of a route map.
type Map struct {
	Title   string            `json:"title"`
	Center  models.Coordinate `json:"center"`
	Zoom    int               `json:"zoom"`
	Path    Polyline          `json:"path"`
	Markers []Marker          `json:"markers"`

	// Bounds holds the south-west and north-east corners of Path.
	Bounds [2]models.Coordinate `json:"bounds"`
}

// Build assembles a map for path. It reports false, and returns no map, for
// an empty path. A single-point path gets two coinciding markers.
func Build(coords models.Coordinates, title string) (*Map, bool) {
	center, ok := geo.Centroid(coords)
	if !ok {
		return nil, false
	}
	sw, ne, _ := geo.Bounds(coords)
	return &Map{
		Title:  title,
		Center: center,
		Zoom:   DefaultZoom,
		Path: Polyline{
			Points:  coords,
			Color:   PathColor,
			Weight:  PathWeight,
			Opacity: PathOpacity,
		},
		Markers: []Marker{
			{Label: "Start", Color: "green", Position: coords[0]},
			{Label: "End", Color: "red", Position: coords[len(coords)-1]},
		},
		Bounds: [2]models.Coordinate{sw, ne},
	}, true
}

// TitleFromKey derives a display name from an object key:
// "routes/a/static_route_2025-01-02_03-04-05.json" becomes
// "Static Route 2025-01-02 03-04-05".
func TitleFromKey(key string) string {
	name := strings.TrimSuffix(path.Base(key), ".json")
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
