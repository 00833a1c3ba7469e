package joints

import (
	"math"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/model"
)

// FrenchRidgeLapJoint joins two equal-section beams at their ends with a
// french ridge lap: each beam keeps half its section at the ridge, machined
// from a reference lap face selected per beam. The beam more parallel to
// the world X axis becomes the top beam.
type FrenchRidgeLapJoint struct {
	JointKey int

	Top       *model.Beam
	Bottom    *model.Beam
	TopKey    int
	BottomKey int

	DrillDiameter float64

	Tol Tolerances

	// ReferenceFaceIndices maps each beam key to its lap reference face,
	// filled by AddFeatures.
	ReferenceFaceIndices map[int]int
}

// NewFrenchRidgeLapJoint creates a french ridge lap for a beam pair the
// solver classified as topo. Construction fails when topo is not TOPO_L.
func NewFrenchRidgeLapJoint(key int, topo Topology, top, bottom *model.Beam, drillDiameter float64) (*FrenchRidgeLapJoint, error) {
	if top == nil || bottom == nil {
		return nil, &JoinError{Msg: "french_ridge_lap: both beams must be set"}
	}
	if topo != TopoL {
		return nil, &JoinError{Beams: []*model.Beam{top, bottom},
			Msg: "french_ridge_lap supports only " + TopoL.String() + " topology, got " + topo.String()}
	}
	return &FrenchRidgeLapJoint{
		JointKey:             key,
		Top:                  top,
		Bottom:               bottom,
		TopKey:               top.Key,
		BottomKey:            bottom.Key,
		DrillDiameter:        drillDiameter,
		Tol:                  DefaultTolerances(),
		ReferenceFaceIndices: make(map[int]int),
	}, nil
}

func (j *FrenchRidgeLapJoint) Kind() string         { return "french_ridge_lap" }
func (j *FrenchRidgeLapJoint) Key() int             { return j.JointKey }
func (j *FrenchRidgeLapJoint) Topology() Topology   { return TopoL }
func (j *FrenchRidgeLapJoint) Beams() []*model.Beam { return []*model.Beam{j.Top, j.Bottom} }

// RestoreReferences re-binds both beams from stored keys.
func (j *FrenchRidgeLapJoint) RestoreReferences(a *model.Assembly) error {
	j.Top = a.FindByKey(j.TopKey)
	j.Bottom = a.FindByKey(j.BottomKey)
	if j.Top == nil || j.Bottom == nil {
		return joinErrorf(j, "beam key not found in assembly")
	}
	return nil
}

// flipLap ensures the top beam is the one more parallel to the world X
// axis, swapping roles when needed.
func (j *FrenchRidgeLapJoint) flipLap() {
	topDot := math.Abs(j.Top.Centerline().Direction().Dot(geom.XAxis))
	bottomDot := math.Abs(j.Bottom.Centerline().Direction().Dot(geom.XAxis))
	if topDot < bottomDot {
		j.Top, j.Bottom = j.Bottom, j.Top
		j.TopKey, j.BottomKey = j.BottomKey, j.TopKey
	}
}

// cuttingPlaneTop is the bottom beam's far face with the normal flipped
// into the top beam's overhang.
func (j *FrenchRidgeLapJoint) cuttingPlaneTop() geom.Frame {
	_, f := faceMostTowardsBeam(j.Top, j.Bottom, true)
	return f.FlippedNormal()
}

// cuttingPlaneBottom is the top beam's far face.
func (j *FrenchRidgeLapJoint) cuttingPlaneBottom() geom.Frame {
	_, f := faceMostTowardsBeam(j.Bottom, j.Top, true)
	return f
}

// AddExtensions extends both blanks to the opposite beam's far face so
// the lap halves overlap fully.
func (j *FrenchRidgeLapJoint) AddExtensions() error {
	if j.Top == nil || j.Bottom == nil {
		return joinErrorf(j, "beams not set")
	}
	startTop, endTop, err := j.Top.ExtensionToPlane(j.cuttingPlaneTop().Plane())
	if err != nil {
		return joinErrorf(j, "%v", err)
	}
	j.Top.AddBlankExtension(startTop, endTop, j.JointKey)

	startBottom, endBottom, err := j.Bottom.ExtensionToPlane(j.cuttingPlaneBottom().Plane())
	if err != nil {
		return joinErrorf(j, "%v", err)
	}
	j.Bottom.AddBlankExtension(startBottom, endBottom, j.JointKey)
	return nil
}

// AddFeatures validates the alignment, selects the lap reference faces
// and replaces the ridge trims on both beams.
func (j *FrenchRidgeLapJoint) AddFeatures() error {
	if err := j.CheckGeometry(); err != nil {
		return err
	}
	j.Top.RemoveFeatures(j.JointKey)
	j.Bottom.RemoveFeatures(j.JointKey)
	// Removal side is past the opposite beam's far face on both beams.
	j.Top.AddFeature(j.JointKey, model.CutFeature{Plane: j.cuttingPlaneTop().Plane().Flipped()})
	j.Bottom.AddFeature(j.JointKey, model.CutFeature{Plane: j.cuttingPlaneBottom().Plane()})
	return nil
}

// CheckGeometry verifies that the beams have equal cross-sections and
// that the corner normal aligns with a lateral face of each beam, filling
// ReferenceFaceIndices. A misaligned pair cannot form a french ridge lap.
func (j *FrenchRidgeLapJoint) CheckGeometry() error {
	if j.Top == nil || j.Bottom == nil {
		return joinErrorf(j, "beams not set")
	}
	if j.Top.Width != j.Bottom.Width || j.Top.Height != j.Bottom.Height {
		return joinErrorf(j, "beams are not of same size")
	}

	j.flipLap()
	normal := j.Top.Frame.XAxis.Cross(j.Bottom.Frame.XAxis)

	topIndex, ok := j.alignedFace(normal, j.Top, false)
	if !ok {
		return joinErrorf(j, "top beam not aligned with corner normal, no french ridge lap possible")
	}
	bottomIndex, ok := j.alignedFace(normal, j.Bottom, true)
	if !ok {
		return joinErrorf(j, "bottom beam not aligned with corner normal, no french ridge lap possible")
	}
	j.ReferenceFaceIndices = map[int]int{
		j.Top.Key:    topIndex,
		j.Bottom.Key: bottomIndex,
	}
	return nil
}

// alignedFace matches the corner normal against the beam's four lateral
// face normals: parallel for the top beam, anti-parallel for the bottom.
// Face numbering: 0:+Y 1:-Z 2:-Y 3:+Z.
func (j *FrenchRidgeLapJoint) alignedFace(normal geom.Vec, b *model.Beam, antiParallel bool) (int, bool) {
	y := b.Frame.YAxis
	z := b.Frame.ZAxis()
	candidates := []struct {
		dir   geom.Vec
		index int
	}{
		{y, 0},
		{z, 3},
		{y.Neg(), 2},
		{z.Neg(), 1},
	}
	for _, c := range candidates {
		ang := geom.Angle(normal, c.dir)
		if antiParallel {
			ang = math.Pi - ang
		}
		if ang < j.Tol.FaceAlignAngular {
			return c.index, true
		}
	}
	return 0, false
}

var _ Joint = (*FrenchRidgeLapJoint)(nil)
