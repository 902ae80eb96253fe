package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestValidateRingAutoClosesOpenRing(t *testing.T) {
	open := orb.Ring{{0, 0}, {1, 0}, {1, 1}}
	ring, err := ValidateRing(open)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(ring) != 4 {
		t.Fatalf("expected 4 points after closing, got %d", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Fatalf("ring is not closed: %v", ring)
	}
}

func TestValidateRingKeepsClosedRing(t *testing.T) {
	closed := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	ring, err := ValidateRing(closed)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(ring) != len(closed) {
		t.Fatalf("closed ring was modified: %d points, want %d", len(ring), len(closed))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Fatalf("ring is not closed: %v", ring)
	}
}

func TestValidateRingDoesNotMutateInput(t *testing.T) {
	open := orb.Ring{{0, 0}, {1, 0}, {1, 1}}
	if _, err := ValidateRing(open); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(open) != 3 {
		t.Fatalf("input ring was mutated: %v", open)
	}
}

func TestValidateRingRejectsTooFewPoints(t *testing.T) {
	for _, coords := range []orb.Ring{
		{},
		{{0, 0}},
		{{0, 0}, {1, 1}},
		{{0, 0}, {1, 1}, {0, 0}}, // closes to 3 points only
	} {
		_, err := ValidateRing(coords)
		var gerr *GeometryError
		if !errors.As(err, &gerr) {
			t.Fatalf("expected GeometryError for %v, got %v", coords, err)
		}
	}
}

func TestValidateRingRejectsNonFiniteCoordinates(t *testing.T) {
	for _, coords := range []orb.Ring{
		{{0, 0}, {math.NaN(), 0}, {1, 1}, {0, 0}},
		{{0, 0}, {1, 0}, {math.Inf(1), 1}, {0, 0}},
		{{0, 0}, {1, 0}, {1, math.Inf(-1)}, {0, 0}},
	} {
		_, err := ValidateRing(coords)
		var gerr *GeometryError
		if !errors.As(err, &gerr) {
			t.Fatalf("expected GeometryError for %v, got %v", coords, err)
		}
	}
}

func TestParsePolygon(t *testing.T) {
	ring, err := ParsePolygon([]byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1]]]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ring) != 5 || ring[0] != ring[4] {
		t.Fatalf("expected closed 5-point ring, got %v", ring)
	}
}

func TestParsePolygonRejections(t *testing.T) {
	cases := map[string]string{
		"bad json":      `{not json`,
		"point":         `{"type":"Point","coordinates":[0,0]}`,
		"multi polygon": `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]]]}`,
		"two rings":     `{"type":"Polygon","coordinates":[[[0,0],[9,0],[9,9],[0,9],[0,0]],[[1,1],[2,1],[2,2],[1,1]]]}`,
		"too short":     `{"type":"Polygon","coordinates":[[[0,0],[1,1]]]}`,
	}
	for name, raw := range cases {
		_, err := ParsePolygon([]byte(raw))
		var gerr *GeometryError
		if !errors.As(err, &gerr) {
			t.Fatalf("%s: expected GeometryError, got %v", name, err)
		}
	}
}

func TestMarshalPolygonRoundTrip(t *testing.T) {
	ring, err := ValidateRing(orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	raw, err := MarshalPolygon(ring)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := ParsePolygon(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(back) != len(ring) {
		t.Fatalf("round trip changed ring: %v vs %v", back, ring)
	}
	for i := range ring {
		if back[i] != ring[i] {
			t.Fatalf("round trip changed point %d: %v vs %v", i, back[i], ring[i])
		}
	}
}
