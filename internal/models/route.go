package models

import (
	"fmt"
	"strings"
	"unicode"
)

// RouteDescriptor names an origin-destination pair queried on every run.
// Name becomes the storage sub-path of the route's snapshots.
type RouteDescriptor struct {
	Name     string  `json:"name" mapstructure:"name"`
	StartLat float64 `json:"start_lat" mapstructure:"start_lat"`
	StartLon float64 `json:"start_lon" mapstructure:"start_lon"`
	EndLat   float64 `json:"end_lat" mapstructure:"end_lat"`
	EndLon   float64 `json:"end_lon" mapstructure:"end_lon"`
}

func (r RouteDescriptor) String() string {
	return fmt.Sprintf("%s (%v,%v -> %v,%v)", r.Name, r.StartLat, r.StartLon, r.EndLat, r.EndLon)
}

// Validate reports descriptors that cannot be turned into a routing request
// or a snapshot key. The name is used verbatim as a key segment, so it may not
// contain slashes or whitespace.
func (r RouteDescriptor) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("route name is empty")
	}
	if strings.Contains(r.Name, "/") || strings.ContainsFunc(r.Name, unicode.IsSpace) {
		return fmt.Errorf("route name %q must not contain slashes or whitespace", r.Name)
	}
	for _, lat := range []float64{r.StartLat, r.EndLat} {
		if lat < -90 || lat > 90 {
			return fmt.Errorf("route %q: latitude %v out of range", r.Name, lat)
		}
	}
	for _, lon := range []float64{r.StartLon, r.EndLon} {
		if lon < -180 || lon > 180 {
			return fmt.Errorf("route %q: longitude %v out of range", r.Name, lon)
		}
	}
	return nil
}

// DefaultRoutes is the built-in route set, used when no routes file is configured.
func DefaultRoutes() []RouteDescriptor {
	return []RouteDescriptor{
		{Name: "dehradun_to_chandigarh", StartLat: 30.3165, StartLon: 78.0322, EndLat: 30.7333, EndLon: 76.7794},
		{Name: "kolkata_to_tinsukia", StartLat: 22.5726, StartLon: 88.3639, EndLat: 27.4924, EndLon: 95.3468},
		{Name: "delhi_to_dehradun", StartLat: 28.7041, StartLon: 77.1025, EndLat: 30.3165, EndLon: 78.0322},
		{Name: "mumbai_to_goa", StartLat: 19.0760, StartLon: 72.8777, EndLat: 15.2993, EndLon: 74.1240},
		{Name: "bangalore_to_chennai", StartLat: 12.9716, StartLon: 77.5946, EndLat: 13.0827, EndLon: 80.2707},
		{Name: "jaipur_to_kota", StartLat: 26.9124, StartLon: 75.7873, EndLat: 25.2138, EndLon: 75.8648},
	}
}
