package geo

import (
	"math"
	"testing"

	"routewatch/models"
)

func TestCentroid(t *testing.T) {
	cases := []struct {
		name   string
		input  models.Coordinates
		want   models.Coordinate
		wantOK bool
	}{
		{"two points", models.Coordinates{{Lat: 10, Lon: 20}, {Lat: 20, Lon: 30}}, models.Coordinate{Lat: 15, Lon: 25}, true},
		{"single point", models.Coordinates{{Lat: 1.5, Lon: -2}}, models.Coordinate{Lat: 1.5, Lon: -2}, true},
		{"duplicates weigh in", models.Coordinates{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0}, {Lat: 3, Lon: 3}}, models.Coordinate{Lat: 1, Lon: 1}, true},
		{"empty", nil, models.Coordinate{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Centroid(tc.input)
			if ok != tc.wantOK || got != tc.want {
				t.Fatalf("Centroid(%v) = %v, %v; want %v, %v", tc.input, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestHaversine(t *testing.T) {
	cases := []struct {
		name     string
		a, b     models.Coordinate
		expected float64
		within   float64
	}{
		{"same point", models.Coordinate{Lat: 12.97, Lon: 77.59}, models.Coordinate{Lat: 12.97, Lon: 77.59}, 0, 1e-9},
		{"one degree of latitude", models.Coordinate{Lat: 0, Lon: 0}, models.Coordinate{Lat: 1, Lon: 0}, 111195, 5},
		{"bangalore to chennai", models.Coordinate{Lat: 12.9716, Lon: 77.5946}, models.Coordinate{Lat: 13.0827, Lon: 80.2707}, 290000, 5000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Haversine(tc.a, tc.b); math.Abs(got-tc.expected) > tc.within {
				t.Fatalf("Haversine = %f; want %f ± %f", got, tc.expected, tc.within)
			}
		})
	}
}

func TestPathLength(t *testing.T) {
	path := models.Coordinates{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}, {Lat: 1, Lon: 0}, {Lat: 2, Lon: 0}}
	if got := PathLength(path); math.Abs(got-2*111195) > 10 {
		t.Fatalf("PathLength = %f", got)
	}
	if got := PathLength(path[:1]); got != 0 {
		t.Fatalf("PathLength of one point = %f; want 0", got)
	}
}

func TestBounds(t *testing.T) {
	sw, ne, ok := Bounds(models.Coordinates{{Lat: 5, Lon: -3}, {Lat: -1, Lon: 8}, {Lat: 2, Lon: 0}})
	if !ok {
		t.Fatal("expected bounds")
	}
	if sw != (models.Coordinate{Lat: -1, Lon: -3}) || ne != (models.Coordinate{Lat: 5, Lon: 8}) {
		t.Fatalf("Bounds = %v, %v", sw, ne)
	}
	if _, _, ok := Bounds(nil); ok {
		t.Fatal("expected no bounds for empty path")
	}
}
