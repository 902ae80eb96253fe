// Package geo provides polygon validation and overlap predicates for
// parcel boundaries. Everything here is pure: no I/O, no shared state.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeometryError reports an invalid or unusable ring.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string { return "invalid geometry: " + e.Reason }

func geomErrf(format string, args ...any) *GeometryError {
	return &GeometryError{Reason: fmt.Sprintf(format, args...)}
}

// ValidateRing returns the ring in closed form. An open ring (first and
// last point differ) is closed by appending a copy of the first point,
// mirroring what the drawing tools produce. The closed ring must have at
// least 4 points and finite coordinates.
func ValidateRing(coords orb.Ring) (orb.Ring, error) {
	if len(coords) == 0 {
		return nil, geomErrf("empty ring")
	}
	for i, p := range coords {
		if !finite(p[0]) || !finite(p[1]) {
			return nil, geomErrf("non-finite coordinate at index %d", i)
		}
	}
	ring := make(orb.Ring, len(coords), len(coords)+1)
	copy(ring, coords)
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil, geomErrf("ring has %d points after closing, need at least 4", len(ring))
	}
	return ring, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// ParsePolygon decodes a GeoJSON Polygon with a single ring and returns
// the validated, closed ring.
func ParsePolygon(raw []byte) (orb.Ring, error) {
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, geomErrf("unparsable geojson: %v", err)
	}
	poly, ok := g.Geometry().(orb.Polygon)
	if !ok {
		return nil, geomErrf("geometry type must be Polygon, got %s", g.Type)
	}
	if len(poly) != 1 {
		return nil, geomErrf("polygon must have exactly one ring, got %d", len(poly))
	}
	return ValidateRing(poly[0])
}

// MarshalPolygon serializes a closed ring back into GeoJSON Polygon form.
func MarshalPolygon(ring orb.Ring) ([]byte, error) {
	return geojson.NewGeometry(orb.Polygon{ring}).MarshalJSON()
}
