package geom

import "math"

// ---------------------------------------------------------------------------
// Distances
// ---------------------------------------------------------------------------

// DistancePointPoint returns the Euclidean distance between a and b.
func DistancePointPoint(a, b Vec) float64 {
	return a.Sub(b).Length()
}

// DistancePointLine returns the distance of p from the infinite line l.
func DistancePointLine(p Vec, l Line) float64 {
	return DistancePointPoint(p, l.ClosestPoint(p))
}

// DistanceLineLine returns the distance between the two infinite lines.
// For parallel lines this degenerates to a point-line distance.
func DistanceLineLine(a, b Line) float64 {
	da := a.Direction()
	db := b.Direction()
	n := da.Cross(db)
	if n.Length() < Epsilon {
		return DistancePointLine(a.Start, b)
	}
	return math.Abs(b.Start.Sub(a.Start).Dot(n.Normalize()))
}

// ---------------------------------------------------------------------------
// Intersections
// ---------------------------------------------------------------------------

// LinePlane intersects the infinite line with the plane. It returns the
// intersection point, the line parameter at the intersection and false when
// the line is parallel to the plane.
func LinePlane(l Line, p Plane) (Vec, float64, bool) {
	v := l.Vector()
	denom := p.Normal.Dot(v)
	if math.Abs(denom) < Epsilon {
		return Vec{}, 0, false
	}
	t := -p.Normal.Dot(l.Start.Sub(p.Origin)) / denom
	return l.PointAt(t), t, true
}

// PlanePlane intersects two planes. The returned line has unit length and
// lies on both planes; ok is false when the planes are parallel.
func PlanePlane(a, b Plane) (Line, bool) {
	dir := a.Normal.Cross(b.Normal)
	if dir.Length() < Epsilon {
		return Line{}, false
	}
	dir = dir.Normalize()
	// Solve for a point on both planes by walking from a's origin within a
	// towards b along the direction perpendicular to the intersection line.
	inPlane := a.Normal.Cross(dir)
	denom := b.Normal.Dot(inPlane)
	if math.Abs(denom) < Epsilon {
		return Line{}, false
	}
	t := b.Normal.Dot(b.Origin.Sub(a.Origin)) / denom
	start := a.Origin.Add(inPlane.MulScalar(t))
	return Line{Start: start, End: start.Add(dir)}, true
}

// PlanePlanePlane intersects three planes in a single point. ok is false
// when any pair is parallel or the three normals are linearly dependent.
func PlanePlanePlane(a, b, c Plane) (Vec, bool) {
	// Cramer's rule on the system n_i . x = n_i . o_i.
	det := a.Normal.Dot(b.Normal.Cross(c.Normal))
	if math.Abs(det) < Epsilon {
		return Vec{}, false
	}
	da := a.Normal.Dot(a.Origin)
	db := b.Normal.Dot(b.Origin)
	dc := c.Normal.Dot(c.Origin)
	p := b.Normal.Cross(c.Normal).MulScalar(da).
		Add(c.Normal.Cross(a.Normal).MulScalar(db)).
		Add(a.Normal.Cross(b.Normal).MulScalar(dc))
	return p.MulScalar(1 / det), true
}

// LineLine returns the closest points between the two infinite lines along
// with the corresponding parameters. ok is false when the lines are
// parallel. For intersecting lines both points coincide.
func LineLine(a, b Line) (pa, pb Vec, ta, tb float64, ok bool) {
	va := a.Vector()
	vb := b.Vector()
	n := va.Cross(vb)
	if n.Length() < Epsilon {
		return Vec{}, Vec{}, 0, 0, false
	}
	// The closest point on each line is where it crosses the plane that
	// contains the other line and the common normal.
	ta, ok = LinePlaneParameter(a, Plane{Origin: b.Start, Normal: vb.Cross(n).Normalize()})
	if !ok {
		return Vec{}, Vec{}, 0, 0, false
	}
	tb, ok = LinePlaneParameter(b, Plane{Origin: a.Start, Normal: va.Cross(n).Normalize()})
	if !ok {
		return Vec{}, Vec{}, 0, 0, false
	}
	return a.PointAt(ta), b.PointAt(tb), ta, tb, true
}

// LinePlaneParameter returns only the line parameter of the line-plane
// intersection. ok is false when the line is parallel to the plane.
func LinePlaneParameter(l Line, p Plane) (float64, bool) {
	v := l.Vector()
	denom := p.Normal.Dot(v)
	if math.Abs(denom) < Epsilon {
		return 0, false
	}
	return -p.Normal.Dot(l.Start.Sub(p.Origin)) / denom, true
}
