package joints

import (
	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/model"
)

// LMiterJoint joins two beams at their ends with a shared plane at the
// bisector angle between the centerlines. The two beams are symmetric;
// there is no main/cross role.
type LMiterJoint struct {
	JointKey int

	BeamA    *model.Beam
	BeamB    *model.Beam
	BeamAKey int
	BeamBKey int

	// Cutoff, when positive, caps the blank extension of each beam so a
	// very acute miter does not grow an arbitrarily long beak.
	Cutoff float64
}

// NewLMiterJoint creates an L-miter joint for a beam pair the solver
// classified as topo. Construction fails when topo is not TOPO_L.
func NewLMiterJoint(key int, topo Topology, beamA, beamB *model.Beam, cutoff float64) (*LMiterJoint, error) {
	if beamA == nil || beamB == nil {
		return nil, &JoinError{Msg: "l_miter: both beams must be set"}
	}
	if topo != TopoL {
		return nil, &JoinError{Beams: []*model.Beam{beamA, beamB},
			Msg: "l_miter supports only " + TopoL.String() + " topology, got " + topo.String()}
	}
	return &LMiterJoint{
		JointKey: key,
		BeamA:    beamA,
		BeamB:    beamB,
		BeamAKey: beamA.Key,
		BeamBKey: beamB.Key,
		Cutoff:   cutoff,
	}, nil
}

func (j *LMiterJoint) Kind() string         { return "l_miter" }
func (j *LMiterJoint) Key() int             { return j.JointKey }
func (j *LMiterJoint) Topology() Topology   { return TopoL }
func (j *LMiterJoint) Beams() []*model.Beam { return []*model.Beam{j.BeamA, j.BeamB} }

// RestoreReferences re-binds both beams from stored keys.
func (j *LMiterJoint) RestoreReferences(a *model.Assembly) error {
	j.BeamA = a.FindByKey(j.BeamAKey)
	j.BeamB = a.FindByKey(j.BeamBKey)
	if j.BeamA == nil || j.BeamB == nil {
		return joinErrorf(j, "beam key not found in assembly")
	}
	return nil
}

// CuttingPlanes returns one trimming plane per beam. Both lie through the
// averaged centerline intersection point with opposite normals, built
// from the bisector of the two outward axis directions.
func (j *LMiterJoint) CuttingPlanes() (geom.Plane, geom.Plane, error) {
	pa, pb, _, _, ok := geom.LineLine(j.BeamA.Centerline(), j.BeamB.Centerline())
	if !ok {
		return geom.Plane{}, geom.Plane{}, joinErrorf(j, "centerlines are parallel, no miter plane exists")
	}
	corner := pa.Add(pb).MulScalar(0.5)

	// Orient both axes outward from the shared corner.
	vA := j.BeamA.Frame.XAxis
	if end, _ := j.BeamA.EndpointClosestToPoint(pa); end == model.EndEnd {
		vA = vA.Neg()
	}
	vB := j.BeamB.Frame.XAxis
	if end, _ := j.BeamB.EndpointClosestToPoint(pb); end == model.EndEnd {
		vB = vB.Neg()
	}

	bisector := vA.Add(vB)
	if bisector.Length() < geom.Epsilon {
		return geom.Plane{}, geom.Plane{}, joinErrorf(j, "beams are collinear, no miter plane exists")
	}
	bisector = bisector.Normalize()

	perp := bisector.Cross(vA)
	normal := bisector.Cross(perp)

	planeA := geom.NewPlane(corner, normal)
	planeB := geom.NewPlane(corner, normal.Neg())
	return planeA, planeB, nil
}

// AddExtensions extends both blanks to the miter plane, capped by Cutoff
// when set.
func (j *LMiterJoint) AddExtensions() error {
	if j.BeamA == nil || j.BeamB == nil {
		return joinErrorf(j, "beams not set")
	}
	planeA, planeB, err := j.CuttingPlanes()
	if err != nil {
		return err
	}
	for _, bp := range []struct {
		beam  *model.Beam
		plane geom.Plane
	}{{j.BeamA, planeA}, {j.BeamB, planeB}} {
		start, end, err := bp.beam.ExtensionToPlane(bp.plane)
		if err != nil {
			return joinErrorf(j, "%v", err)
		}
		if j.Cutoff > 0 {
			start = minf(start, j.Cutoff)
			end = minf(end, j.Cutoff)
		}
		bp.beam.AddBlankExtension(start+trimExtensionSafety, end+trimExtensionSafety, j.JointKey)
	}
	return nil
}

// AddFeatures replaces the miter trim on both beams.
func (j *LMiterJoint) AddFeatures() error {
	if j.BeamA == nil || j.BeamB == nil {
		return joinErrorf(j, "beams not set")
	}
	j.BeamA.RemoveFeatures(j.JointKey)
	j.BeamB.RemoveFeatures(j.JointKey)

	planeA, planeB, err := j.CuttingPlanes()
	if err != nil {
		return err
	}
	j.BeamA.AddFeature(j.JointKey, model.CutFeature{Plane: planeA})
	j.BeamB.AddFeature(j.JointKey, model.CutFeature{Plane: planeB})
	return nil
}

var _ Joint = (*LMiterJoint)(nil)
