package fabrication

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/joints"
	"github.com/chazu/joinery/pkg/model"
)

func mkBeam(t *testing.T, asm *model.Assembly, start, end geom.Vec, width, height float64) *model.Beam {
	t.Helper()
	b, err := model.BeamFromEndpoints(start, end, geom.Vec{}, width, height)
	if err != nil {
		t.Fatalf("BeamFromEndpoints: %v", err)
	}
	asm.AddBeam(b)
	return b
}

// buildJoint runs the full joint lifecycle so the parameter records the
// factories read are populated.
func buildJoint(t *testing.T, j joints.Joint) {
	t.Helper()
	if err := j.AddExtensions(); err != nil {
		t.Fatalf("AddExtensions: %v", err)
	}
	if err := j.AddFeatures(); err != nil {
		t.Fatalf("AddFeatures: %v", err)
	}
}

func tButtFixture(t *testing.T, opts joints.ButtOptions) *joints.TButtJoint {
	t.Helper()
	asm := model.NewAssembly()
	plate := mkBeam(t, asm, geom.Vec{X: -1000, Z: 2400}, geom.Vec{X: 1000, Z: 2400}, 120, 120)
	post := mkBeam(t, asm, geom.Vec{}, geom.Vec{Z: 2400}, 120, 120)
	j, err := joints.NewTButtJoint(1, joints.TopoT, post, plate, opts)
	if err != nil {
		t.Fatalf("NewTButtJoint: %v", err)
	}
	buildJoint(t, j)
	return j
}

func TestTButtRecords(t *testing.T) {
	j := tButtFixture(t, joints.ButtOptions{MillDepth: 10, DrillDiameter: 12})

	recs, err := NewExporter().Records(j)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want cut + pocket + drilling", len(recs))
	}

	cut, pocket, drill := recs[0], recs[1], recs[2]
	if cut.Operation != OpCut || cut.BeamKey != j.Main.Key {
		t.Errorf("record 0 = %s on beam %d, want cut on main", cut.Operation, cut.BeamKey)
	}
	if pocket.Operation != OpPocket || pocket.BeamKey != j.Cross.Key {
		t.Errorf("record 1 = %s on beam %d, want pocket on cross", pocket.Operation, pocket.BeamKey)
	}
	if drill.Operation != OpDrilling || drill.BeamKey != j.Cross.Key {
		t.Errorf("record 2 = %s on beam %d, want drilling on cross", drill.Operation, drill.BeamKey)
	}
	for i, r := range recs {
		if r.JointKind != "t_butt" || r.JointKey != 1 {
			t.Errorf("record %d identity = %s/%d, want t_butt/1", i, r.JointKind, r.JointKey)
		}
	}

	pp := pocket.Params.(joints.PocketParams)
	if pp.StartX != 940 || pp.Depth != 10 || pp.Width != 120 {
		t.Errorf("pocket params = %+v", pp)
	}
	dp := drill.Params.(joints.DrillParams)
	if dp.Inclination != 90 || dp.Diameter != 12 {
		t.Errorf("drill params = %+v", dp)
	}
}

func TestTButtStepJointRecords(t *testing.T) {
	asm := model.NewAssembly()
	chord := mkBeam(t, asm, geom.Vec{}, geom.Vec{X: 2000}, 120, 120)
	strut := mkBeam(t, asm, geom.Vec{X: 1000, Y: 800}, geom.Vec{X: 1000}, 120, 120)
	j, err := joints.NewTButtJoint(1, joints.TopoT, strut, chord, joints.ButtOptions{StepJoint: true})
	if err != nil {
		t.Fatalf("NewTButtJoint: %v", err)
	}
	buildJoint(t, j)

	recs, err := NewExporter().Records(j)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want double_cut + step_lap", len(recs))
	}
	if recs[0].Operation != OpDoubleCut || recs[0].BeamKey != j.Main.Key {
		t.Errorf("record 0 = %s on beam %d, want double_cut on main", recs[0].Operation, recs[0].BeamKey)
	}
	if recs[1].Operation != OpStepLap || recs[1].BeamKey != j.Cross.Key {
		t.Errorf("record 1 = %s on beam %d, want step_lap on cross", recs[1].Operation, recs[1].BeamKey)
	}
	sl := recs[1].Params.(joints.StepLapParams)
	if sl.Depth != joints.StepWedgeDepth {
		t.Errorf("step lap depth = %f, want %f", sl.Depth, joints.StepWedgeDepth)
	}
}

func TestLButtRecords(t *testing.T) {
	asm := model.NewAssembly()
	a := mkBeam(t, asm, geom.Vec{}, geom.Vec{X: 1000}, 120, 120)
	b := mkBeam(t, asm, geom.Vec{X: 1000}, geom.Vec{X: 1000, Y: 1000}, 120, 120)
	j, err := joints.NewLButtJoint(1, joints.TopoL, a, b, joints.DefaultLButtOptions())
	if err != nil {
		t.Fatalf("NewLButtJoint: %v", err)
	}
	buildJoint(t, j)

	recs, err := NewExporter().Records(j)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want a trim per beam", len(recs))
	}
	if recs[0].BeamKey != a.Key || recs[1].BeamKey != b.Key {
		t.Error("main trim must precede the cross trim")
	}
	for i, r := range recs {
		if r.Operation != OpCut {
			t.Errorf("record %d operation = %s, want cut", i, r.Operation)
		}
	}
	cp := recs[0].Params.(CutParams)
	if cp.Origin.X != 940 {
		t.Errorf("main cut origin = %v, want x=940", cp.Origin)
	}
}

func TestLButtRecordsNoExtendCross(t *testing.T) {
	asm := model.NewAssembly()
	a := mkBeam(t, asm, geom.Vec{}, geom.Vec{X: 1000}, 120, 120)
	b := mkBeam(t, asm, geom.Vec{X: 1000}, geom.Vec{X: 1000, Y: 1000}, 120, 120)
	j, err := joints.NewLButtJoint(1, joints.TopoL, a, b, joints.LButtOptions{})
	if err != nil {
		t.Fatalf("NewLButtJoint: %v", err)
	}
	buildJoint(t, j)

	recs, err := NewExporter().Records(j)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 1 || recs[0].BeamKey != a.Key {
		t.Errorf("records = %d, want only the main trim", len(recs))
	}
}

func TestFrenchRidgeLapRecords(t *testing.T) {
	asm := model.NewAssembly()
	a := mkBeam(t, asm, geom.Vec{X: -2000}, geom.Vec{}, 100, 100)
	b := mkBeam(t, asm, geom.Vec{Y: 2000}, geom.Vec{}, 100, 100)
	j, err := joints.NewFrenchRidgeLapJoint(1, joints.TopoL, a, b, 12.3456)
	if err != nil {
		t.Fatalf("NewFrenchRidgeLapJoint: %v", err)
	}
	buildJoint(t, j)

	recs, err := NewExporter().Records(j)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want one ridge lap per beam", len(recs))
	}
	top := recs[0].Params.(RidgeLapParams)
	bottom := recs[1].Params.(RidgeLapParams)
	if top.ReferencePlaneID != 1 || bottom.ReferencePlaneID != 3 {
		t.Errorf("reference faces = %d/%d, want 1/3", top.ReferencePlaneID, bottom.ReferencePlaneID)
	}
	// Exported values carry three decimals.
	if top.DrillDiameter != 12.346 {
		t.Errorf("drill diameter = %v, want rounded to 12.346", top.DrillDiameter)
	}
}

func TestExportAllConcatsInOrder(t *testing.T) {
	asm := model.NewAssembly()
	a := mkBeam(t, asm, geom.Vec{}, geom.Vec{X: 1000}, 120, 120)
	b := mkBeam(t, asm, geom.Vec{X: 1000}, geom.Vec{X: 1000, Y: 1000}, 120, 120)
	miter, err := joints.NewLMiterJoint(7, joints.TopoL, a, b, 0)
	if err != nil {
		t.Fatalf("NewLMiterJoint: %v", err)
	}
	buildJoint(t, miter)
	tb := tButtFixture(t, joints.ButtOptions{})

	recs, err := NewExporter().ExportAll([]joints.Joint{miter, tb})
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 2 miter cuts + 1 butt trim", len(recs))
	}
	if recs[0].JointKey != 7 || recs[1].JointKey != 7 || recs[2].JointKey != 1 {
		t.Error("records must keep joint order")
	}
}

func TestUnknownJointKind(t *testing.T) {
	asm := model.NewAssembly()
	a := mkBeam(t, asm, geom.Vec{}, geom.Vec{X: 1000}, 120, 120)
	b := mkBeam(t, asm, geom.Vec{X: 1000}, geom.Vec{X: 1000, Y: 1000}, 120, 120)
	j, err := joints.NewLMiterJoint(1, joints.TopoL, a, b, 0)
	if err != nil {
		t.Fatalf("NewLMiterJoint: %v", err)
	}
	buildJoint(t, j)

	e := NewExporter()
	e.factories = map[string]Factory{}
	if _, err := e.Records(j); err == nil || !strings.Contains(err.Error(), "l_miter") {
		t.Fatalf("expected unknown-kind error naming the kind, got %v", err)
	}
}

func TestRound3(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.23456, 1.235},
		{-1.23456, -1.235},
		{940, 940},
		{0.0004, 0},
	}
	for _, tt := range tests {
		if got := round3(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("round3(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
