// Package geometry extracts a coordinate path from a stored route response.
//
// Responses carry no type tag. Resolve tries each known document shape in a
// fixed order and the first shape whose key is present wins:
//
//  1. "route":    a list of [lat, lon] pairs, returned as stored
//  2. "geometry": a Google encoded polyline, precision 5
//  3. "routes":   a provider response, routes[0].legs[0].points[*]
//
// A document matching none of them yields an empty Geometry with ShapeNone.
// Resolve never panics; extraction failures degrade to an empty path and a
// human-readable Warning.
package geometry

import (
	"fmt"

	"routewatch/models"
)

// Shape identifies which extraction rule produced a Geometry.
type Shape string

const (
	ShapeNone     Shape = "none"
	ShapeRoute    Shape = "route"
	ShapeEncoded  Shape = "geometry"
	ShapeProvider Shape = "routes"
)

// Geometry is the result of resolving a document.
type Geometry struct {
	Shape Shape `json:"shape"`

	// Raw is the "route" value exactly as stored. Only set for ShapeRoute.
	Raw any `json:"raw,omitempty"`

	// Points is the path coerced to floating point.
	Points models.Coordinates `json:"points"`

	// Warning describes why a matched shape produced no usable path.
	Warning string `json:"warning,omitempty"`
}

// Empty reports whether there is nothing to draw.
func (g Geometry) Empty() bool {
	return len(g.Points) == 0
}

// decoder attempts one shape. ok is false when the document does not have
// the shape at all, so the next decoder in the chain is tried.
type decoder func(doc map[string]any) (g Geometry, ok bool)

var chain = []decoder{
	decodeRoute,
	decodeEncoded,
	decodeProvider,
}

// Resolve returns the geometry of doc using the first matching shape.
func Resolve(doc map[string]any) Geometry {
	for _, d := range chain {
		if g, ok := attempt(d, doc); ok {
			return g
		}
	}
	return Geometry{Shape: ShapeNone}
}

func attempt(d decoder, doc map[string]any) (g Geometry, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			g = Geometry{Shape: ShapeNone, Warning: fmt.Sprintf("Error extracting coordinates: %v", r)}
			ok = true
		}
	}()
	return d(doc)
}

func decodeRoute(doc map[string]any) (Geometry, bool) {
	raw, found := doc["route"]
	if !found {
		return Geometry{}, false
	}
	g := Geometry{Shape: ShapeRoute, Raw: raw}
	points, err := CoercePairs(raw)
	if err != nil {
		g.Warning = fmt.Sprintf("Error reading route coordinates: %v", err)
		return g, true
	}
	g.Points = points
	return g, true
}

func decodeEncoded(doc map[string]any) (Geometry, bool) {
	raw, found := doc["geometry"]
	if !found {
		return Geometry{}, false
	}
	g := Geometry{Shape: ShapeEncoded}
	encoded, isString := raw.(string)
	if !isString {
		g.Warning = fmt.Sprintf("Error decoding polyline: expected a string, got %T", raw)
		return g, true
	}
	points, err := Decode(encoded)
	if err != nil {
		g.Warning = fmt.Sprintf("Error decoding polyline: %v", err)
		return g, true
	}
	g.Points = points
	return g, true
}

func decodeProvider(doc map[string]any) (Geometry, bool) {
	routes, isList := doc["routes"].([]any)
	if !isList || len(routes) == 0 {
		return Geometry{}, false
	}
	g := Geometry{Shape: ShapeProvider}

	first, isMap := routes[0].(map[string]any)
	if !isMap {
		g.Warning = fmt.Sprintf("Error reading provider route: expected an object, got %T", routes[0])
		return g, true
	}

	legs := []any{map[string]any{}}
	if v, found := first["legs"]; found {
		if legs, isList = v.([]any); !isList {
			g.Warning = fmt.Sprintf("Error reading provider route: legs is %T", v)
			return g, true
		}
	}
	if len(legs) == 0 {
		return g, true
	}
	leg, isMap := legs[0].(map[string]any)
	if !isMap {
		g.Warning = fmt.Sprintf("Error reading provider route: leg is %T", legs[0])
		return g, true
	}

	var points []any
	if v, found := leg["points"]; found {
		if points, isList = v.([]any); !isList {
			g.Warning = fmt.Sprintf("Error reading provider route: points is %T", v)
			return g, true
		}
	}

	out := make(models.Coordinates, 0, len(points))
	for i, p := range points {
		point, isMap := p.(map[string]any)
		if !isMap {
			continue
		}
		lat, found := point["latitude"]
		if !found {
			continue
		}
		c, err := coercePair(lat, point["longitude"])
		if err != nil {
			g.Warning = fmt.Sprintf("Error reading provider point %d: %v", i, err)
			return g, true
		}
		out = append(out, c)
	}
	g.Points = out
	return g, true
}
