package models

import "encoding/json"

// Coordinate is a single point of a path in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Coordinates is an ordered path. Order is significant and duplicates are kept.
type Coordinates []Coordinate

// Pairs returns the path as [lat, lon] pairs, the layout map libraries expect.
func (c Coordinates) Pairs() [][]float64 {
	out := make([][]float64, len(c))
	for i, p := range c {
		out[i] = []float64{p.Lat, p.Lon}
	}
	return out
}

// Head returns at most n leading points.
func (c Coordinates) Head(n int) Coordinates {
	if len(c) <= n {
		return c
	}
	return c[:n]
}

// MarshalJSON encodes a coordinate as a [lat, lon] pair.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lon})
}
