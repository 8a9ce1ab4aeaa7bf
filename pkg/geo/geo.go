// Package geo holds small spherical-geometry helpers over coordinate paths.
package geo

import (
	"math"

	"routewatch/models"
)

// EarthRadiusMeters is the mean Earth radius used by Haversine.
const EarthRadiusMeters = 6371008.8

// Centroid returns the arithmetic mean of the latitudes and longitudes of path.
// It reports false for an empty path.
func Centroid(path models.Coordinates) (models.Coordinate, bool) {
	if len(path) == 0 {
		return models.Coordinate{}, false
	}
	var lat, lon float64
	for _, p := range path {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(path))
	return models.Coordinate{Lat: lat / n, Lon: lon / n}, true
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b models.Coordinate) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// PathLength sums the great-circle distance of consecutive points.
func PathLength(path models.Coordinates) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += Haversine(path[i-1], path[i])
	}
	return total
}

// Bounds returns the south-west and north-east corners of path.
func Bounds(path models.Coordinates) (sw, ne models.Coordinate, ok bool) {
	if len(path) == 0 {
		return sw, ne, false
	}
	sw, ne = path[0], path[0]
	for _, p := range path[1:] {
		sw.Lat = math.Min(sw.Lat, p.Lat)
		sw.Lon = math.Min(sw.Lon, p.Lon)
		ne.Lat = math.Max(ne.Lat, p.Lat)
		ne.Lon = math.Max(ne.Lon, p.Lon)
	}
	return sw, ne, true
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
