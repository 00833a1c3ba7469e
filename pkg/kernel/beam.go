package kernel

import (
	"fmt"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/model"
)

// BlankSolid returns the beam's blank stock envelope as a kernel solid.
func BlankSolid(k Kernel, b *model.Beam) Solid {
	f := b.BlankFrame()
	center := geom.Frame{
		Origin: f.Origin.Add(f.XAxis.MulScalar(b.BlankLength() * 0.5)),
		XAxis:  f.XAxis,
		YAxis:  f.YAxis,
	}
	return k.Box(center, b.BlankLength(), b.Width, b.Height)
}

// ConvexVolume builds a solid for a convex polyhedron by cutting a box
// around its vertices with every face plane. Non-convex input silently
// yields the convex intersection of its face half-spaces.
func ConvexVolume(k Kernel, ph model.Polyhedron) (Solid, error) {
	if len(ph.Vertices) == 0 || len(ph.Faces) == 0 {
		return nil, fmt.Errorf("empty polyhedron")
	}
	min := ph.Vertices[0]
	max := ph.Vertices[0]
	for _, v := range ph.Vertices[1:] {
		min = min.Min(v)
		max = max.Max(v)
	}
	span := max.Sub(min)
	pad := 1.0 + span.Length()*0.01
	center := min.Add(span.MulScalar(0.5))
	box := k.Box(
		geom.Frame{Origin: center, XAxis: geom.XAxis, YAxis: geom.YAxis},
		span.X+2*pad, span.Y+2*pad, span.Z+2*pad,
	)

	s := box
	for i := range ph.Faces {
		p, err := ph.FacePlane(i)
		if err != nil {
			return nil, err
		}
		// Face normals point outward; keep the inside.
		s = k.Cut(s, p.Flipped())
	}
	return s, nil
}

// ApplyFeatures machines the beam's blank with every attached feature
// and returns the finished solid.
func ApplyFeatures(k Kernel, b *model.Beam) (Solid, error) {
	s := BlankSolid(k, b)
	for _, f := range b.Features() {
		var err error
		s, err = applyFeature(k, s, f)
		if err != nil {
			return nil, fmt.Errorf("beam %d: %w", b.Key, err)
		}
	}
	return s, nil
}

func applyFeature(k Kernel, s Solid, f model.Feature) (Solid, error) {
	switch ft := f.(type) {
	case model.CutFeature:
		// The feature normal points into the removal side.
		return k.Cut(s, ft.Plane.Flipped()), nil
	case model.MillVolume:
		vol, err := ConvexVolume(k, ft.Volume)
		if err != nil {
			return nil, fmt.Errorf("mill volume: %w", err)
		}
		return k.Difference(s, vol), nil
	case model.SolidSubtraction:
		vol, err := ConvexVolume(k, ft.Volume)
		if err != nil {
			return nil, fmt.Errorf("subtraction volume: %w", err)
		}
		return k.Difference(s, vol), nil
	case model.DrillFeature:
		if ft.Line.Length() < geom.Epsilon {
			return nil, fmt.Errorf("drill axis is degenerate")
		}
		return k.Difference(s, k.Cylinder(ft.Line, ft.Diameter/2)), nil
	default:
		return nil, fmt.Errorf("unknown feature type %T", f)
	}
}
