// Package model defines the timber data model: beams with their blank
// stock envelopes, the machining features attached to them, and the
// assembly that owns beams and hands out stable keys.
package model

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/chazu/joinery/pkg/geom"
)

// Default tolerances for beam construction.
const (
	tolLinear = 1e-6 // [units]
	tolAngle  = 1e-1 // [radians]
)

// End identifies one of a beam's two centerline endpoints.
type End int

const (
	EndStart End = iota
	EndEnd
)

func (e End) String() string {
	if e == EndEnd {
		return "end"
	}
	return "start"
}

// FaceCount is the number of oriented faces of a beam: four lateral, two ends.
const FaceCount = 6

// Beam is a straight prismatic timber member with a rectangular
// cross-section.
//
// The beam frame places the origin at the centerline start, the X axis
// along the centerline, the Y axis across the width and the Z axis across
// the height. The blank is an oversized stock envelope around the same
// frame; it only ever grows via per-joint extension requests.
type Beam struct {
	Key    int        `json:"key"`
	Frame  geom.Frame `json:"frame"`
	Width  float64    `json:"width"`  // cross-section along Y
	Height float64    `json:"height"` // cross-section along Z
	Length float64    `json:"length"`

	// Intersections holds normalized centerline parameters (0..1) of
	// crossings with other beams, recorded by the topology solver.
	Intersections []float64 `json:"intersections,omitempty"`

	extensions map[int]Extension // joint key -> blank extension
	features   []attachedFeature
}

// Extension is a blank extension request: extra stock length at each end.
type Extension struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewBeam creates a beam from an explicit frame and dimensions.
func NewBeam(frame geom.Frame, length, width, height float64) (*Beam, error) {
	if length <= 0 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("beam dimensions must be positive, got %g x %g x %g", length, width, height)
	}
	return &Beam{
		Frame:      frame,
		Width:      width,
		Height:     height,
		Length:     length,
		extensions: make(map[int]Extension),
	}, nil
}

// BeamFromEndpoints creates a beam from the two centerline endpoints. The
// cross-section height direction follows zHint; when zHint is the zero
// vector the world Z axis is used, falling back to world X for
// near-vertical centerlines.
func BeamFromEndpoints(start, end geom.Vec, zHint geom.Vec, width, height float64) (*Beam, error) {
	x := end.Sub(start)
	if x.Length() < tolLinear {
		return nil, fmt.Errorf("beam endpoints coincide")
	}
	z := zHint
	if z.Length() < tolLinear {
		z = defaultZVector(x)
	}
	y := x.Cross(z).Neg()
	if y.Length() < tolLinear {
		return nil, fmt.Errorf("z hint is parallel to the centerline")
	}
	frame := geom.NewFrame(start, x, y.Normalize())
	return NewBeam(frame, x.Length(), width, height)
}

// defaultZVector picks the height direction for a beam whose z vector was
// not given: world Z, or world X when the centerline is near-vertical.
func defaultZVector(centerline geom.Vec) geom.Vec {
	z := geom.ZAxis
	if geom.Angle(z, centerline) < tolAngle || math.Pi-geom.Angle(z, centerline) < tolAngle {
		z = geom.XAxis
	}
	return z
}

// Centerline returns the beam centerline as a segment.
func (b *Beam) Centerline() geom.Line {
	return geom.Line{
		Start: b.Frame.Origin,
		End:   b.Frame.Origin.Add(b.Frame.XAxis.MulScalar(b.Length)),
	}
}

// Midpoint returns the centerline midpoint.
func (b *Beam) Midpoint() geom.Vec {
	return b.Frame.Origin.Add(b.Frame.XAxis.MulScalar(b.Length * 0.5))
}

// EndpointClosestToPoint reports which centerline endpoint is nearer to p,
// and that endpoint.
func (b *Beam) EndpointClosestToPoint(p geom.Vec) (End, geom.Vec) {
	cl := b.Centerline()
	ds := geom.DistancePointPoint(cl.Start, p)
	de := geom.DistancePointPoint(cl.End, p)
	if de < ds {
		return EndEnd, cl.End
	}
	return EndStart, cl.Start
}

// SideFrame returns one of the six oriented faces of the beam. Faces are
// numbered relative to the beam frame, normals pointing outward:
//
//	0: +Y   1: -Z   2: -Y   3: +Z   4: -X (start end)   5: +X (far end)
//
// The lateral face frames originate at the face center over the centerline
// start; their planes are what matters to callers.
func (b *Beam) SideFrame(i int) (geom.Frame, error) {
	o := b.Frame.Origin
	x := b.Frame.XAxis
	y := b.Frame.YAxis
	z := b.Frame.ZAxis()
	switch i {
	case 0:
		return geom.Frame{Origin: o.Add(y.MulScalar(b.Width * 0.5)), XAxis: x, YAxis: z.Neg()}, nil
	case 1:
		return geom.Frame{Origin: o.Add(z.MulScalar(-b.Height * 0.5)), XAxis: x, YAxis: y.Neg()}, nil
	case 2:
		return geom.Frame{Origin: o.Add(y.MulScalar(-b.Width * 0.5)), XAxis: x, YAxis: z}, nil
	case 3:
		return geom.Frame{Origin: o.Add(z.MulScalar(b.Height * 0.5)), XAxis: x, YAxis: y}, nil
	case 4:
		return geom.Frame{Origin: o, XAxis: y.Neg(), YAxis: z}, nil
	case 5:
		return geom.Frame{Origin: o.Add(x.MulScalar(b.Length)), XAxis: y, YAxis: z}, nil
	}
	return geom.Frame{}, fmt.Errorf("face index %d out of range [0,5]", i)
}

// Faces returns all six oriented face frames.
func (b *Beam) Faces() []geom.Frame {
	faces := make([]geom.Frame, FaceCount)
	for i := range faces {
		faces[i], _ = b.SideFrame(i)
	}
	return faces
}

// LateralFaces returns the four lateral face frames (indices 0..3).
func (b *Beam) LateralFaces() []geom.Frame {
	return b.Faces()[:4]
}

// IsEndFace reports whether the face index addresses one of the two ends.
func IsEndFace(i int) bool { return i == 4 || i == 5 }

// RefSideFrame returns the machining reference frame for a lateral face:
// the face frame relocated so its origin sits at the blank corner, with
// local X running along the blank and local Y spanning the face. Parameter
// records report 2D start coordinates in this frame.
func (b *Beam) RefSideFrame(i int) (geom.Frame, error) {
	if i < 0 || i > 3 {
		return geom.Frame{}, fmt.Errorf("reference frames exist for lateral faces only, got %d", i)
	}
	f, _ := b.SideFrame(i)
	across := b.Height // span of the face along its local Y
	out := b.Width     // distance from centerline to the face plane
	if i%2 != 0 {
		across = b.Width
		out = b.Height
	}
	o := b.BlankFrame().Origin
	o = o.Add(f.YAxis.MulScalar(-across * 0.5))
	o = o.Add(f.ZAxis().MulScalar(out * 0.5))
	return geom.Frame{Origin: o, XAxis: f.XAxis, YAxis: f.YAxis}, nil
}

// ---------------------------------------------------------------------------
// Blank envelope
// ---------------------------------------------------------------------------

// AddBlankExtension records a blank extension request for the given joint
// key. Repeated calls from the same joint replace its previous request but
// never shrink it, so recomputation is idempotent.
func (b *Beam) AddBlankExtension(start, end float64, jointKey int) {
	if b.extensions == nil {
		b.extensions = make(map[int]Extension)
	}
	prev := b.extensions[jointKey]
	b.extensions[jointKey] = Extension{
		Start: math.Max(prev.Start, start),
		End:   math.Max(prev.End, end),
	}
}

// ResetBlankExtension explicitly drops the extension recorded by a joint.
func (b *Beam) ResetBlankExtension(jointKey int) {
	delete(b.extensions, jointKey)
}

// BlankExtension returns the effective blank extension: the maximum
// requested amount at each end over all joints.
func (b *Beam) BlankExtension() Extension {
	var ext Extension
	for _, e := range b.extensions {
		ext.Start = math.Max(ext.Start, e.Start)
		ext.End = math.Max(ext.End, e.End)
	}
	return ext
}

// BlankFrame returns the frame of the blank envelope: the beam frame with
// its origin moved back along the centerline by the start extension.
func (b *Beam) BlankFrame() geom.Frame {
	ext := b.BlankExtension()
	return b.Frame.Translated(b.Frame.XAxis.MulScalar(-ext.Start))
}

// BlankLength returns the blank stock length.
func (b *Beam) BlankLength() float64 {
	ext := b.BlankExtension()
	return b.Length + ext.Start + ext.End
}

// longEdges returns the four blank edges parallel to the centerline.
func (b *Beam) longEdges() []geom.Line {
	cl := b.Centerline()
	y := b.Frame.YAxis
	z := b.Frame.ZAxis()
	edges := make([]geom.Line, 0, 4)
	for _, sy := range []float64{-0.5, 0.5} {
		for _, sz := range []float64{-0.5, 0.5} {
			d := y.MulScalar(sy * b.Width).Add(z.MulScalar(sz * b.Height))
			edges = append(edges, geom.Line{Start: cl.Start.Add(d), End: cl.End.Add(d)})
		}
	}
	return edges
}

// ExtensionToPlane computes how far the beam must be extended at each end
// so that every long edge of the blank reaches the given cutting plane.
// The plane must not be parallel to the centerline.
func (b *Beam) ExtensionToPlane(pl geom.Plane) (start, end float64, err error) {
	cl := b.Centerline()
	_, tc, ok := geom.LinePlane(cl, pl)
	if !ok {
		return 0, 0, fmt.Errorf("cutting plane is parallel to the beam centerline")
	}
	tmin := math.Inf(1)
	tmax := math.Inf(-1)
	for _, e := range b.longEdges() {
		t, ok := geom.LinePlaneParameter(e, pl)
		if !ok {
			return 0, 0, fmt.Errorf("cutting plane is parallel to a blank edge")
		}
		tmin = math.Min(tmin, t)
		tmax = math.Max(tmax, t)
	}
	if tc < 0.5 {
		start = math.Max(0, -tmin*b.Length)
	} else {
		end = math.Max(0, (tmax-1)*b.Length)
	}
	return start, end, nil
}

// AABB returns the axis-aligned bounding box of the blank, inflated on all
// sides by the given amount.
func (b *Beam) AABB(inflate float64) (min, max geom.Vec) {
	ph := b.BlankPolyhedron()
	min = ph.Vertices[0]
	max = ph.Vertices[0]
	for _, v := range ph.Vertices[1:] {
		min = min.Min(v)
		max = max.Max(v)
	}
	d := geom.Vec{X: inflate, Y: inflate, Z: inflate}
	return min.Sub(d), max.Add(d)
}

// BlankPolyhedron returns the blank envelope as a closed hexahedron with
// outward-facing quads.
func (b *Beam) BlankPolyhedron() Polyhedron {
	f := b.BlankFrame()
	center := f.Origin.Add(f.XAxis.MulScalar(b.BlankLength() * 0.5))
	box := geom.NewFrame(center, f.XAxis, f.YAxis)
	return PolyhedronFromBox(box, b.BlankLength(), b.Width, b.Height)
}

// AddIntersection records a normalized centerline intersection parameter.
func (b *Beam) AddIntersection(t float64) {
	b.Intersections = append(b.Intersections, t)
}

// ---------------------------------------------------------------------------
// Features
// ---------------------------------------------------------------------------

type attachedFeature struct {
	jointKey int
	feature  Feature
}

// AddFeature attaches a machining feature on behalf of a joint. Features
// are keyed by the requesting joint so the joint can later replace only
// its own contributions.
func (b *Beam) AddFeature(jointKey int, f Feature) {
	b.features = append(b.features, attachedFeature{jointKey: jointKey, feature: f})
}

// RemoveFeatures detaches every feature previously added by the joint.
// Features attached by other joints are left untouched.
func (b *Beam) RemoveFeatures(jointKey int) {
	kept := b.features[:0]
	for _, af := range b.features {
		if af.jointKey != jointKey {
			kept = append(kept, af)
		}
	}
	b.features = kept
}

// Features returns all attached features in attachment order.
func (b *Beam) Features() []Feature {
	out := make([]Feature, len(b.features))
	for i, af := range b.features {
		out[i] = af.feature
	}
	return out
}

// FeaturesOf returns the features attached by the given joint.
func (b *Beam) FeaturesOf(jointKey int) []Feature {
	var out []Feature
	for _, af := range b.features {
		if af.jointKey == jointKey {
			out = append(out, af.feature)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

type beamExtensionJSON struct {
	JointKey int     `json:"joint_key"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
}

type beamJSON struct {
	Key           int                 `json:"key"`
	Frame         geom.Frame          `json:"frame"`
	Width         float64             `json:"width"`
	Height        float64             `json:"height"`
	Length        float64             `json:"length"`
	Intersections []float64           `json:"intersections,omitempty"`
	Extensions    []beamExtensionJSON `json:"extensions,omitempty"`
}

// MarshalJSON serializes the beam including per-joint blank extensions.
// Features are not serialized; they are recomputed by their joints after a
// load via RestoreReferences + AddFeatures.
func (b *Beam) MarshalJSON() ([]byte, error) {
	bj := beamJSON{
		Key:           b.Key,
		Frame:         b.Frame,
		Width:         b.Width,
		Height:        b.Height,
		Length:        b.Length,
		Intersections: b.Intersections,
	}
	for key, e := range b.extensions {
		bj.Extensions = append(bj.Extensions, beamExtensionJSON{JointKey: key, Start: e.Start, End: e.End})
	}
	return json.Marshal(bj)
}

// UnmarshalJSON restores a beam serialized by MarshalJSON.
func (b *Beam) UnmarshalJSON(data []byte) error {
	var bj beamJSON
	if err := json.Unmarshal(data, &bj); err != nil {
		return err
	}
	b.Key = bj.Key
	b.Frame = bj.Frame
	b.Width = bj.Width
	b.Height = bj.Height
	b.Length = bj.Length
	b.Intersections = bj.Intersections
	b.extensions = make(map[int]Extension, len(bj.Extensions))
	for _, e := range bj.Extensions {
		b.extensions[e.JointKey] = Extension{Start: e.Start, End: e.End}
	}
	b.features = nil
	return nil
}
