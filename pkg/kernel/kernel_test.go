package kernel

import (
	"strings"
	"testing"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/model"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

// --- Stub kernel for pipeline tests ---

// stubSolid carries only a bounding box.
type stubSolid struct {
	min, max geom.Vec
}

func (s *stubSolid) BoundingBox() (min, max geom.Vec) { return s.min, s.max }

// stubKernel records the sequence of operations performed on it. Boolean
// results reuse the first operand's bounds.
type stubKernel struct {
	ops []string
}

func (k *stubKernel) Box(frame geom.Frame, dx, dy, dz float64) Solid {
	k.ops = append(k.ops, "box")
	min := frame.Origin
	max := frame.Origin
	for _, sx := range []float64{-0.5, 0.5} {
		for _, sy := range []float64{-0.5, 0.5} {
			for _, sz := range []float64{-0.5, 0.5} {
				c := frame.ToWorld(geom.Vec{X: sx * dx, Y: sy * dy, Z: sz * dz})
				min = min.Min(c)
				max = max.Max(c)
			}
		}
	}
	return &stubSolid{min: min, max: max}
}

func (k *stubKernel) Cylinder(axis geom.Line, radius float64) Solid {
	k.ops = append(k.ops, "cylinder")
	r := geom.Vec{X: radius, Y: radius, Z: radius}
	return &stubSolid{min: axis.Start.Min(axis.End).Sub(r), max: axis.Start.Max(axis.End).Add(r)}
}

func (k *stubKernel) Union(a, b Solid) Solid {
	k.ops = append(k.ops, "union")
	return a
}

func (k *stubKernel) Difference(a, b Solid) Solid {
	k.ops = append(k.ops, "difference")
	return a
}

func (k *stubKernel) Intersection(a, b Solid) Solid {
	k.ops = append(k.ops, "intersection")
	return a
}

func (k *stubKernel) Cut(s Solid, p geom.Plane) Solid {
	k.ops = append(k.ops, "cut")
	return s
}

func (k *stubKernel) ToMesh(s Solid) (*Mesh, error) {
	k.ops = append(k.ops, "mesh")
	return &Mesh{}, nil
}

var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func (k *stubKernel) count(op string) int {
	n := 0
	for _, o := range k.ops {
		if o == op {
			n++
		}
	}
	return n
}

// --- Pipeline tests ---

func testBeam(t *testing.T) *model.Beam {
	t.Helper()
	b, err := model.BeamFromEndpoints(geom.Vec{}, geom.Vec{X: 1000}, geom.Vec{}, 100, 80)
	if err != nil {
		t.Fatalf("BeamFromEndpoints: %v", err)
	}
	return b
}

func TestBlankSolidBounds(t *testing.T) {
	b := testBeam(t)
	b.AddBlankExtension(50, 20, 1)

	k := &stubKernel{}
	s := BlankSolid(k, b)
	min, max := s.BoundingBox()

	wantMin := geom.Vec{X: -50, Y: -50, Z: -40}
	wantMax := geom.Vec{X: 1020, Y: 50, Z: 40}
	if min.Sub(wantMin).Length() > 1e-9 || max.Sub(wantMax).Length() > 1e-9 {
		t.Errorf("blank bounds = %v..%v, want %v..%v", min, max, wantMin, wantMax)
	}
}

func TestConvexVolumeEmpty(t *testing.T) {
	k := &stubKernel{}
	if _, err := ConvexVolume(k, model.Polyhedron{}); err == nil {
		t.Fatal("expected error for empty polyhedron")
	}
}

func TestConvexVolumeCutsEveryFace(t *testing.T) {
	b := testBeam(t)
	ph := b.BlankPolyhedron()

	k := &stubKernel{}
	if _, err := ConvexVolume(k, ph); err != nil {
		t.Fatalf("ConvexVolume: %v", err)
	}
	if k.count("box") != 1 {
		t.Errorf("box ops = %d, want 1", k.count("box"))
	}
	if k.count("cut") != len(ph.Faces) {
		t.Errorf("cut ops = %d, want one per face (%d)", k.count("cut"), len(ph.Faces))
	}
}

func TestApplyFeatures(t *testing.T) {
	b := testBeam(t)
	b.AddFeature(1, model.CutFeature{Plane: geom.NewPlane(geom.Vec{X: 900}, geom.Vec{X: 1})})
	b.AddFeature(1, model.MillVolume{Volume: b.BlankPolyhedron()})
	b.AddFeature(2, model.SolidSubtraction{Volume: b.BlankPolyhedron()})
	b.AddFeature(2, model.DrillFeature{
		Line:     geom.Line{Start: geom.Vec{X: 500, Z: -100}, End: geom.Vec{X: 500, Z: 100}},
		Diameter: 12,
		Length:   200,
	})

	k := &stubKernel{}
	if _, err := ApplyFeatures(k, b); err != nil {
		t.Fatalf("ApplyFeatures: %v", err)
	}

	// One blank box plus one per convex volume.
	if k.count("box") != 3 {
		t.Errorf("box ops = %d, want 3", k.count("box"))
	}
	// Mill, subtraction and drill each subtract a solid.
	if k.count("difference") != 3 {
		t.Errorf("difference ops = %d, want 3", k.count("difference"))
	}
	if k.count("cylinder") != 1 {
		t.Errorf("cylinder ops = %d, want 1", k.count("cylinder"))
	}
	if k.ops[0] != "box" || k.ops[1] != "cut" {
		t.Errorf("ops start with %v, want blank box then planar cut", k.ops[:2])
	}
}

func TestApplyFeaturesNoFeatures(t *testing.T) {
	b := testBeam(t)
	k := &stubKernel{}
	if _, err := ApplyFeatures(k, b); err != nil {
		t.Fatalf("ApplyFeatures: %v", err)
	}
	if len(k.ops) != 1 || k.ops[0] != "box" {
		t.Errorf("ops = %v, want just the blank box", k.ops)
	}
}

func TestApplyFeaturesDegenerateDrill(t *testing.T) {
	b := testBeam(t)
	b.AddFeature(1, model.DrillFeature{Line: geom.Line{}, Diameter: 12})

	k := &stubKernel{}
	_, err := ApplyFeatures(k, b)
	if err == nil {
		t.Fatal("expected error for degenerate drill axis")
	}
	if !strings.Contains(err.Error(), "beam") {
		t.Errorf("error = %q, want beam context", err)
	}
}
