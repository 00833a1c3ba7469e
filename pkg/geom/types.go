// Package geom provides the geometric primitives used by the joint
// engine: lines, planes and frames built on the sdfx vector type, plus
// the intersection and distance queries the joint computations rely on.
//
// All angles are in radians unless a function name says otherwise.
package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vec is the 3D vector type shared with the sdfx kernel.
type Vec = v3.Vec

// Epsilon is the default linear tolerance for degenerate-case checks.
const Epsilon = 1e-9

// XAxis, YAxis and ZAxis are the world basis vectors.
var (
	XAxis = Vec{X: 1}
	YAxis = Vec{Y: 1}
	ZAxis = Vec{Z: 1}
)

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180.0 / math.Pi }

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180.0 }

// ---------------------------------------------------------------------------
// Line
// ---------------------------------------------------------------------------

// Line is a segment between two points. Several queries treat it as the
// infinite line through Start and End; those are documented as such.
type Line struct {
	Start Vec `json:"start"`
	End   Vec `json:"end"`
}

// Vector returns End - Start.
func (l Line) Vector() Vec { return l.End.Sub(l.Start) }

// Direction returns the unit vector from Start to End.
func (l Line) Direction() Vec { return l.Vector().Normalize() }

// Length returns the segment length.
func (l Line) Length() float64 { return l.Vector().Length() }

// PointAt returns Start + t*(End-Start). t is not clamped.
func (l Line) PointAt(t float64) Vec {
	return l.Start.Add(l.Vector().MulScalar(t))
}

// Midpoint returns the segment midpoint.
func (l Line) Midpoint() Vec { return l.PointAt(0.5) }

// ClosestParameter returns the parameter of the orthogonal projection of p
// onto the infinite line. 0 maps to Start, 1 to End.
func (l Line) ClosestParameter(p Vec) float64 {
	v := l.Vector()
	d := v.Dot(v)
	if d < Epsilon {
		return 0
	}
	return p.Sub(l.Start).Dot(v) / d
}

// ClosestPoint returns the orthogonal projection of p onto the infinite line.
func (l Line) ClosestPoint(p Vec) Vec {
	return l.PointAt(l.ClosestParameter(p))
}

// Flipped returns the line with Start and End swapped.
func (l Line) Flipped() Line { return Line{Start: l.End, End: l.Start} }

// ---------------------------------------------------------------------------
// Plane
// ---------------------------------------------------------------------------

// Plane is an oriented plane given by a point on it and a unit normal.
type Plane struct {
	Origin Vec `json:"origin"`
	Normal Vec `json:"normal"`
}

// NewPlane returns a plane with the normal normalized.
func NewPlane(origin, normal Vec) Plane {
	return Plane{Origin: origin, Normal: normal.Normalize()}
}

// Flipped returns the plane with its normal reversed.
func (p Plane) Flipped() Plane {
	return Plane{Origin: p.Origin, Normal: p.Normal.Neg()}
}

// SignedDistance returns the signed distance of pt from the plane,
// positive on the normal side.
func (p Plane) SignedDistance(pt Vec) float64 {
	return pt.Sub(p.Origin).Dot(p.Normal)
}

// ProjectPoint returns the orthogonal projection of pt onto the plane.
func (p Plane) ProjectPoint(pt Vec) Vec {
	return pt.Sub(p.Normal.MulScalar(p.SignedDistance(pt)))
}

// ---------------------------------------------------------------------------
// Frame
// ---------------------------------------------------------------------------

// Frame is a right-handed coordinate frame. XAxis and YAxis are expected to
// be orthonormal; ZAxis is derived as their cross product.
type Frame struct {
	Origin Vec `json:"origin"`
	XAxis  Vec `json:"xaxis"`
	YAxis  Vec `json:"yaxis"`
}

// NewFrame builds a frame from an origin and two (orthogonalized) axes.
func NewFrame(origin, xaxis, yaxis Vec) Frame {
	x := xaxis.Normalize()
	// Remove any component of yaxis along x so the basis stays orthonormal.
	y := yaxis.Sub(x.MulScalar(yaxis.Dot(x))).Normalize()
	return Frame{Origin: origin, XAxis: x, YAxis: y}
}

// FrameFromPlane builds a frame whose ZAxis equals the plane normal. The
// in-plane axes are chosen deterministically from the world axis least
// aligned with the normal.
func FrameFromPlane(p Plane) Frame {
	n := p.Normal.Normalize()
	ref := ZAxis
	if math.Abs(n.Dot(ref)) > 0.9 {
		ref = XAxis
	}
	x := ref.Cross(n).Normalize()
	y := n.Cross(x)
	return Frame{Origin: p.Origin, XAxis: x, YAxis: y}
}

// ZAxis returns XAxis x YAxis.
func (f Frame) ZAxis() Vec { return f.XAxis.Cross(f.YAxis) }

// Normal is an alias for ZAxis.
func (f Frame) Normal() Vec { return f.ZAxis() }

// Plane returns the plane through the frame origin with the frame normal.
func (f Frame) Plane() Plane {
	return Plane{Origin: f.Origin, Normal: f.ZAxis()}
}

// FlippedNormal returns the frame with its YAxis negated, which reverses
// the derived ZAxis while keeping the XAxis.
func (f Frame) FlippedNormal() Frame {
	return Frame{Origin: f.Origin, XAxis: f.XAxis, YAxis: f.YAxis.Neg()}
}

// Translated returns the frame moved by d.
func (f Frame) Translated(d Vec) Frame {
	return Frame{Origin: f.Origin.Add(d), XAxis: f.XAxis, YAxis: f.YAxis}
}

// ToLocal maps a world point into frame coordinates.
func (f Frame) ToLocal(p Vec) Vec {
	d := p.Sub(f.Origin)
	return Vec{X: d.Dot(f.XAxis), Y: d.Dot(f.YAxis), Z: d.Dot(f.ZAxis())}
}

// ToWorld maps a point in frame coordinates back to world coordinates.
func (f Frame) ToWorld(p Vec) Vec {
	return f.Origin.
		Add(f.XAxis.MulScalar(p.X)).
		Add(f.YAxis.MulScalar(p.Y)).
		Add(f.ZAxis().MulScalar(p.Z))
}

// ---------------------------------------------------------------------------
// Angles and rotation
// ---------------------------------------------------------------------------

// Angle returns the unsigned angle between a and b in [0, pi].
func Angle(a, b Vec) float64 {
	la := a.Length()
	lb := b.Length()
	if la < Epsilon || lb < Epsilon {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c)
}

// SignedAngle returns the angle from a to b in (-pi, pi], measured about
// the given normal (right-hand rule).
func SignedAngle(a, b, normal Vec) float64 {
	ang := Angle(a, b)
	if a.Cross(b).Dot(normal) < 0 {
		return -ang
	}
	return ang
}

// RotateAbout rotates v about the (unit) axis by the given angle using the
// Rodrigues formula.
func RotateAbout(v, axis Vec, angle float64) Vec {
	k := axis.Normalize()
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return v.MulScalar(cos).
		Add(k.Cross(v).MulScalar(sin)).
		Add(k.MulScalar(k.Dot(v) * (1 - cos)))
}

// RotatePointAbout rotates point p about the axis through center.
func RotatePointAbout(p, axis, center Vec, angle float64) Vec {
	return center.Add(RotateAbout(p.Sub(center), axis, angle))
}
