package geometry

import (
	"github.com/twpayne/go-polyline"

	"routewatch/models"
)

// Decode decodes a Google encoded polyline with precision 5.
// An empty string decodes to an empty path.
func Decode(encoded string) (models.Coordinates, error) {
	if encoded == "" {
		return models.Coordinates{}, nil
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	out := make(models.Coordinates, len(coords))
	for i, c := range coords {
		out[i] = models.Coordinate{Lat: c[0], Lon: c[1]}
	}
	return out, nil
}

// Encode encodes path as a Google polyline with precision 5.
func Encode(path models.Coordinates) string {
	return string(polyline.EncodeCoords(path.Pairs()))
}
