package joints

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/model"
)

// cornerBeams builds two equal beams meeting end to end at a right angle.
func cornerBeams(t *testing.T) (a, b *model.Beam) {
	t.Helper()
	a = mkBeam(t, geom.Vec{}, geom.Vec{X: 1000}, 120, 120)
	b = mkBeam(t, geom.Vec{X: 1000}, geom.Vec{X: 1000, Y: 1000}, 120, 120)
	return a, b
}

func TestLButtRequiresLTopology(t *testing.T) {
	a, b := cornerBeams(t)
	var je *JoinError
	_, err := NewLButtJoint(1, TopoT, a, b, DefaultLButtOptions())
	if !errors.As(err, &je) {
		t.Fatalf("expected *JoinError, got %v", err)
	}
}

func TestLButtTrimsBothBeams(t *testing.T) {
	a, b := cornerBeams(t)
	j, err := NewLButtJoint(1, TopoL, a, b, DefaultLButtOptions())
	if err != nil {
		t.Fatalf("NewLButtJoint: %v", err)
	}
	if err := j.AddExtensions(); err != nil {
		t.Fatalf("AddExtensions: %v", err)
	}
	if err := j.AddFeatures(); err != nil {
		t.Fatalf("AddFeatures: %v", err)
	}

	// The main beam is trimmed at the near face of the cross beam.
	mainFeats := a.FeaturesOf(j.Key())
	if len(mainFeats) != 1 {
		t.Fatalf("main features = %d, want 1", len(mainFeats))
	}
	mainCut := mainFeats[0].(model.CutFeature)
	if math.Abs(mainCut.Plane.Origin.X-940) > angleEps {
		t.Errorf("main cut at x=%f, want 940", mainCut.Plane.Origin.X)
	}
	if mainCut.Plane.Normal.X <= 0 {
		t.Errorf("main cut normal = %v, want +X into the overhang", mainCut.Plane.Normal)
	}

	// The cross beam is extended past the corner to the main beam's far
	// face and trimmed there.
	crossFeats := b.FeaturesOf(j.Key())
	if len(crossFeats) != 1 {
		t.Fatalf("cross features = %d, want 1", len(crossFeats))
	}
	crossCut := crossFeats[0].(model.CutFeature)
	if math.Abs(crossCut.Plane.Origin.Y-(-60)) > angleEps {
		t.Errorf("cross cut at y=%f, want -60", crossCut.Plane.Origin.Y)
	}
	ext := b.BlankExtension()
	if math.Abs(ext.Start-(60+trimExtensionSafety)) > angleEps {
		t.Errorf("cross start extension = %f, want %f", ext.Start, 60+trimExtensionSafety)
	}
}

func TestLButtNoExtendCross(t *testing.T) {
	a, b := cornerBeams(t)
	j, err := NewLButtJoint(1, TopoL, a, b, LButtOptions{ExtendCross: false})
	if err != nil {
		t.Fatalf("NewLButtJoint: %v", err)
	}
	if err := j.AddExtensions(); err != nil {
		t.Fatalf("AddExtensions: %v", err)
	}
	if err := j.AddFeatures(); err != nil {
		t.Fatalf("AddFeatures: %v", err)
	}

	if len(b.FeaturesOf(j.Key())) != 0 {
		t.Error("cross beam should not be trimmed")
	}
	if ext := b.BlankExtension(); ext.Start != 0 || ext.End != 0 {
		t.Errorf("cross extension = %+v, want none", ext)
	}
	if len(a.FeaturesOf(j.Key())) != 1 {
		t.Error("main beam trim still expected")
	}
}

func TestLButtSmallBeamButts(t *testing.T) {
	small := mkBeam(t, geom.Vec{}, geom.Vec{X: 1000}, 100, 100)
	big := mkBeam(t, geom.Vec{X: 1000}, geom.Vec{X: 1000, Y: 1000}, 200, 200)

	// Passed as main, the bigger beam gets swapped to the cross role.
	j, err := NewLButtJoint(1, TopoL, big, small, LButtOptions{SmallBeamButts: true, ExtendCross: true})
	if err != nil {
		t.Fatalf("NewLButtJoint: %v", err)
	}
	if j.Main != small || j.Cross != big {
		t.Error("smaller section should take the main role")
	}

	// Without the option the given order stands.
	j2, err := NewLButtJoint(2, TopoL, big, small, DefaultLButtOptions())
	if err != nil {
		t.Fatalf("NewLButtJoint: %v", err)
	}
	if j2.Main != big || j2.Cross != small {
		t.Error("roles must follow the argument order")
	}
}

func TestLButtRejectsEndFace(t *testing.T) {
	// Nearly collinear beams: the face of the cross beam facing the main
	// beam is its end face, which cannot receive a butt.
	a := mkBeam(t, geom.Vec{}, geom.Vec{X: 1000}, 120, 120)
	b := mkBeam(t, geom.Vec{X: 1000}, geom.Vec{X: 2000, Y: 100}, 120, 120)

	solver := NewConnectionSolver()
	topo, m, c := solver.FindTopology(a, b, 0)
	if topo != TopoL {
		t.Fatalf("topology = %s, want TOPO_L", topo)
	}
	j, err := NewLButtJoint(1, topo, m, c, DefaultLButtOptions())
	if err != nil {
		t.Fatalf("NewLButtJoint: %v", err)
	}

	err = j.AddExtensions()
	var je *JoinError
	if !errors.As(err, &je) {
		t.Fatalf("expected *JoinError, got %v", err)
	}
	if !strings.Contains(je.Msg, "end faces") {
		t.Errorf("error = %q, want end face rejection", je.Msg)
	}
}
