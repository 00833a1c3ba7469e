package joints

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/model"
)

// ridgeBeams builds two equal horizontal beams meeting end to end at a
// right angle, registered in an assembly for distinct keys.
func ridgeBeams(t *testing.T) (a, b *model.Beam) {
	t.Helper()
	asm := model.NewAssembly()
	a = mkBeam(t, geom.Vec{X: -2000}, geom.Vec{}, 100, 100)
	b = mkBeam(t, geom.Vec{Y: 2000}, geom.Vec{}, 100, 100)
	asm.AddBeam(a)
	asm.AddBeam(b)
	return a, b
}

func TestFrenchRidgeLapRequiresLTopology(t *testing.T) {
	a, b := ridgeBeams(t)
	var je *JoinError
	_, err := NewFrenchRidgeLapJoint(1, TopoT, a, b, 0)
	if !errors.As(err, &je) {
		t.Fatalf("expected *JoinError, got %v", err)
	}
}

func TestFrenchRidgeLap(t *testing.T) {
	a, b := ridgeBeams(t)
	solver := NewConnectionSolver()
	topo, m, c := solver.FindTopology(a, b, 0)
	if topo != TopoL {
		t.Fatalf("topology = %s, want TOPO_L", topo)
	}
	j, err := NewFrenchRidgeLapJoint(1, topo, m, c, 0)
	if err != nil {
		t.Fatalf("NewFrenchRidgeLapJoint: %v", err)
	}
	if err := j.AddExtensions(); err != nil {
		t.Fatalf("AddExtensions: %v", err)
	}
	if err := j.AddFeatures(); err != nil {
		t.Fatalf("AddFeatures: %v", err)
	}

	// Both blanks reach the opposite beam's far face: half a section past
	// the corner.
	if ext := a.BlankExtension(); math.Abs(ext.End-50) > angleEps {
		t.Errorf("a end extension = %f, want 50", ext.End)
	}
	if ext := b.BlankExtension(); math.Abs(ext.End-50) > angleEps {
		t.Errorf("b end extension = %f, want 50", ext.End)
	}

	// One ridge trim each, removing the overhang past the far face.
	aFeats := a.FeaturesOf(j.Key())
	if len(aFeats) != 1 {
		t.Fatalf("a features = %d, want 1", len(aFeats))
	}
	aCut := aFeats[0].(model.CutFeature)
	if math.Abs(aCut.Plane.Origin.X-50) > angleEps || aCut.Plane.Normal.X <= 0 {
		t.Errorf("a cut plane = %+v, want x=50 facing +X", aCut.Plane)
	}
	bFeats := b.FeaturesOf(j.Key())
	if len(bFeats) != 1 {
		t.Fatalf("b features = %d, want 1", len(bFeats))
	}
	bCut := bFeats[0].(model.CutFeature)
	if math.Abs(bCut.Plane.Origin.Y-(-50)) > angleEps || bCut.Plane.Normal.Y >= 0 {
		t.Errorf("b cut plane = %+v, want y=-50 facing -Y", bCut.Plane)
	}

	// Lap reference faces per beam, from the corner normal.
	if got := j.ReferenceFaceIndices[a.Key]; got != 1 {
		t.Errorf("top reference face = %d, want 1", got)
	}
	if got := j.ReferenceFaceIndices[b.Key]; got != 3 {
		t.Errorf("bottom reference face = %d, want 3", got)
	}
}

func TestFrenchRidgeLapFlipsTopBeam(t *testing.T) {
	a, b := ridgeBeams(t)
	// Passed in the wrong order: the beam more parallel to world X must
	// end up on top.
	j, err := NewFrenchRidgeLapJoint(1, TopoL, b, a, 0)
	if err != nil {
		t.Fatalf("NewFrenchRidgeLapJoint: %v", err)
	}
	if err := j.AddExtensions(); err != nil {
		t.Fatalf("AddExtensions: %v", err)
	}
	if err := j.AddFeatures(); err != nil {
		t.Fatalf("AddFeatures: %v", err)
	}

	if j.Top != a || j.Bottom != b {
		t.Error("beam along X should take the top role")
	}
	if j.TopKey != a.Key || j.BottomKey != b.Key {
		t.Error("keys must follow the role swap")
	}
}

func TestFrenchRidgeLapUnequalSections(t *testing.T) {
	a := mkBeam(t, geom.Vec{X: -2000}, geom.Vec{}, 100, 100)
	b := mkBeam(t, geom.Vec{Y: 2000}, geom.Vec{}, 120, 100)

	j, err := NewFrenchRidgeLapJoint(1, TopoL, a, b, 0)
	if err != nil {
		t.Fatalf("NewFrenchRidgeLapJoint: %v", err)
	}
	err = j.CheckGeometry()
	var je *JoinError
	if !errors.As(err, &je) {
		t.Fatalf("expected *JoinError, got %v", err)
	}
	if !strings.Contains(je.Msg, "not of same size") {
		t.Errorf("error = %q, want size mismatch", je.Msg)
	}
}

func TestFrenchRidgeLapMisaligned(t *testing.T) {
	a := mkBeam(t, geom.Vec{X: -2000}, geom.Vec{}, 100, 100)
	// Tilted section: no lateral face aligns with the corner normal.
	b, err := model.BeamFromEndpoints(geom.Vec{Y: 2000}, geom.Vec{}, geom.Vec{X: 1, Z: 1}, 100, 100)
	if err != nil {
		t.Fatalf("BeamFromEndpoints: %v", err)
	}

	j, err := NewFrenchRidgeLapJoint(1, TopoL, a, b, 0)
	if err != nil {
		t.Fatalf("NewFrenchRidgeLapJoint: %v", err)
	}
	var je *JoinError
	if err := j.CheckGeometry(); !errors.As(err, &je) {
		t.Fatalf("expected *JoinError for misaligned sections, got %v", err)
	}
}
