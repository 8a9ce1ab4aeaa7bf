package geometry

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"routewatch/models"
)

// CoercePairs converts a decoded JSON list of [lat, lon] pairs into
// Coordinates. Members may be numbers, json.Number or numeric strings.
func CoercePairs(v any) (models.Coordinates, error) {
	switch pairs := v.(type) {
	case nil:
		return nil, nil
	case models.Coordinates:
		return pairs, nil
	case [][]float64:
		out := make(models.Coordinates, 0, len(pairs))
		for i, p := range pairs {
			if len(p) != 2 {
				return nil, fmt.Errorf("pair %d has %d values", i, len(p))
			}
			out = append(out, models.Coordinate{Lat: p[0], Lon: p[1]})
		}
		return out, nil
	case []any:
		out := make(models.Coordinates, 0, len(pairs))
		for i, p := range pairs {
			pair, ok := p.([]any)
			if !ok {
				return nil, fmt.Errorf("pair %d is %T, not a list", i, p)
			}
			if len(pair) != 2 {
				return nil, fmt.Errorf("pair %d has %d values", i, len(pair))
			}
			c, err := coercePair(pair[0], pair[1])
			if err != nil {
				return nil, fmt.Errorf("pair %d: %w", i, err)
			}
			out = append(out, c)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of pairs, got %T", v)
	}
}

func coercePair(lat, lon any) (models.Coordinate, error) {
	la, err := ToFloat(lat)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("latitude: %w", err)
	}
	lo, err := ToFloat(lon)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("longitude: %w", err)
	}
	return models.Coordinate{Lat: la, Lon: lo}, nil
}

// ToFloat converts a decoded JSON scalar to a finite float64. NaN and
// infinities, which strconv accepts in strings, are rejected.
func ToFloat(v any) (float64, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not a finite number", v)
	}
	return f, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
