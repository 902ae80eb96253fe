package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Overlaps reports whether two closed rings share any area or boundary
// point. Crossing edges, touching edges, shared vertices and full
// containment all count as overlap. The registry prefers a false
// positive over admitting an intersecting parcel.
func Overlaps(a, b orb.Ring) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	for i := 0; i < len(a)-1; i++ {
		for j := 0; j < len(b)-1; j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	// No edge contact: one ring may still sit entirely inside the other.
	return planar.RingContains(a, b[0]) || planar.RingContains(b, a[0])
}

// segmentsIntersect reports whether segments pq and rs share at least
// one point, including endpoint touches and collinear overlap.
func segmentsIntersect(p, q, r, s orb.Point) bool {
	d1 := cross(r, s, p)
	d2 := cross(r, s, q)
	d3 := cross(p, q, r)
	d4 := cross(p, q, s)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(r, s, p):
		return true
	case d2 == 0 && onSegment(r, s, q):
		return true
	case d3 == 0 && onSegment(p, q, r):
		return true
	case d4 == 0 && onSegment(p, q, s):
		return true
	}
	return false
}

// cross is the cross product of (b-a) x (c-a); zero means collinear.
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment assumes c is collinear with ab and checks that it lies
// within the segment's bounding box.
func onSegment(a, b, c orb.Point) bool {
	return min(a[0], b[0]) <= c[0] && c[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= c[1] && c[1] <= max(a[1], b[1])
}
