package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/kernel"
)

const tol = 1e-6

func boundsClose(t *testing.T, s kernel.Solid, wantMin, wantMax geom.Vec) {
	t.Helper()
	min, max := s.BoundingBox()
	if min.Sub(wantMin).Length() > tol || max.Sub(wantMax).Length() > tol {
		t.Errorf("bounds = %v..%v, want %v..%v", min, max, wantMin, wantMax)
	}
}

// inside evaluates the signed distance field: negative is inside.
func inside(s kernel.Solid, p geom.Vec) bool {
	return unwrap(s).Evaluate(p) < 0
}

func TestBoxAxisAligned(t *testing.T) {
	k := New()
	f := geom.Frame{XAxis: geom.XAxis, YAxis: geom.YAxis}
	box := k.Box(f, 100, 50, 25)
	boundsClose(t, box,
		geom.Vec{X: -50, Y: -25, Z: -12.5},
		geom.Vec{X: 50, Y: 25, Z: 12.5})
}

func TestBoxRotatedFrame(t *testing.T) {
	k := New()
	// Frame X along world Y: the long extent follows the frame.
	f := geom.Frame{
		Origin: geom.Vec{X: 10, Y: 20, Z: 30},
		XAxis:  geom.Vec{Y: 1},
		YAxis:  geom.Vec{X: -1},
	}
	box := k.Box(f, 100, 10, 10)
	boundsClose(t, box,
		geom.Vec{X: 5, Y: -30, Z: 25},
		geom.Vec{X: 15, Y: 70, Z: 35})
}

func TestBoxAntiParallelFrame(t *testing.T) {
	k := New()
	// Frame X opposite world X exercises the degenerate rotation axis.
	f := geom.Frame{
		XAxis: geom.Vec{X: -1},
		YAxis: geom.Vec{Y: -1},
	}
	box := k.Box(f, 100, 50, 25)
	boundsClose(t, box,
		geom.Vec{X: -50, Y: -25, Z: -12.5},
		geom.Vec{X: 50, Y: 25, Z: 12.5})
}

func TestBoxVerticalFrame(t *testing.T) {
	k := New()
	// Beam frames of posts have their X axis along world Z.
	f := geom.Frame{
		XAxis: geom.Vec{Z: 1},
		YAxis: geom.Vec{Y: -1},
	}
	box := k.Box(f, 1000, 100, 80)
	boundsClose(t, box,
		geom.Vec{X: -40, Y: -50, Z: -500},
		geom.Vec{X: 40, Y: 50, Z: 500})
}

func TestCylinderSpansAxis(t *testing.T) {
	k := New()
	cyl := k.Cylinder(geom.Line{Start: geom.Vec{Z: -50}, End: geom.Vec{Z: 50}}, 10)
	boundsClose(t, cyl,
		geom.Vec{X: -10, Y: -10, Z: -50},
		geom.Vec{X: 10, Y: 10, Z: 50})

	// An axis along X carries the cylinder with it.
	horizontal := k.Cylinder(geom.Line{Start: geom.Vec{}, End: geom.Vec{X: 100}}, 10)
	boundsClose(t, horizontal,
		geom.Vec{X: 0, Y: -10, Z: -10},
		geom.Vec{X: 100, Y: 10, Z: 10})
}

func TestCutKeepsNormalSide(t *testing.T) {
	k := New()
	f := geom.Frame{XAxis: geom.XAxis, YAxis: geom.YAxis}
	box := k.Box(f, 100, 100, 100)

	cut := k.Cut(box, geom.NewPlane(geom.Vec{}, geom.Vec{X: -1}))
	if !inside(cut, geom.Vec{X: -25}) {
		t.Error("point on the normal side should survive the cut")
	}
	if inside(cut, geom.Vec{X: 25}) {
		t.Error("point behind the plane should be removed")
	}
}

func TestBooleans(t *testing.T) {
	k := New()
	f := geom.Frame{XAxis: geom.XAxis, YAxis: geom.YAxis}
	box := k.Box(f, 100, 100, 100)
	drill := k.Cylinder(geom.Line{Start: geom.Vec{Z: -100}, End: geom.Vec{Z: 100}}, 20)

	diff := k.Difference(box, drill)
	if inside(diff, geom.Vec{}) {
		t.Error("difference: the drilled core should be gone")
	}
	if !inside(diff, geom.Vec{X: 40, Y: 40}) {
		t.Error("difference: the corner material should remain")
	}

	union := k.Union(box, drill)
	if !inside(union, geom.Vec{Z: 80}) {
		t.Error("union: the cylinder overhang should be present")
	}

	inter := k.Intersection(box, drill)
	if !inside(inter, geom.Vec{}) {
		t.Error("intersection: the shared core should remain")
	}
	if inside(inter, geom.Vec{X: 40, Y: 40}) {
		t.Error("intersection: box-only material should be gone")
	}
}

func TestToMesh(t *testing.T) {
	k := New()
	f := geom.Frame{XAxis: geom.XAxis, YAxis: geom.YAxis}
	box := k.Box(f, 100, 50, 25)

	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d, want %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
	// Unwelded triangle soup: indices are sequential.
	for i, idx := range mesh.Indices {
		if idx != uint32(i) {
			t.Fatalf("index %d = %d, want sequential", i, idx)
		}
	}
	// Every vertex lies within the box bounds, with marching cubes slack.
	for i := 0; i < len(mesh.Vertices); i += 3 {
		x := float64(mesh.Vertices[i])
		y := float64(mesh.Vertices[i+1])
		z := float64(mesh.Vertices[i+2])
		if math.Abs(x) > 51 || math.Abs(y) > 26 || math.Abs(z) > 13.5 {
			t.Fatalf("vertex (%f,%f,%f) outside box bounds", x, y, z)
		}
	}
}
