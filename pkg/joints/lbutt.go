package joints

import (
	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/model"
)

// LButtOptions configures an L-butt joint.
type LButtOptions struct {
	// SmallBeamButts swaps the roles so the beam with the smaller
	// cross-section is the one that gets trimmed.
	SmallBeamButts bool
	// ExtendCross extends the cross beam to the far face of the main
	// beam and trims it there. Defaults to true via NewLButtJoint.
	ExtendCross bool
}

// DefaultLButtOptions returns the standard L-butt configuration.
func DefaultLButtOptions() LButtOptions {
	return LButtOptions{ExtendCross: true}
}

// LButtJoint joins two beams at their ends, trimming the main beam
// against the cross beam and optionally extending the cross beam to the
// main beam's far face.
type LButtJoint struct {
	JointKey int

	Main     *model.Beam
	Cross    *model.Beam
	MainKey  int
	CrossKey int

	ExtendCross bool
}

// NewLButtJoint creates an L-butt joint for a beam pair the solver
// classified as topo. Construction fails when topo is not TOPO_L.
func NewLButtJoint(key int, topo Topology, main, cross *model.Beam, opts LButtOptions) (*LButtJoint, error) {
	if main == nil || cross == nil {
		return nil, &JoinError{Msg: "l_butt: main and cross beams must be set"}
	}
	if topo != TopoL {
		return nil, &JoinError{Beams: []*model.Beam{main, cross},
			Msg: "l_butt supports only " + TopoL.String() + " topology, got " + topo.String()}
	}
	if opts.SmallBeamButts && main.Width*main.Height > cross.Width*cross.Height {
		main, cross = cross, main
	}
	return &LButtJoint{
		JointKey:    key,
		Main:        main,
		Cross:       cross,
		MainKey:     main.Key,
		CrossKey:    cross.Key,
		ExtendCross: opts.ExtendCross,
	}, nil
}

func (j *LButtJoint) Kind() string         { return "l_butt" }
func (j *LButtJoint) Key() int             { return j.JointKey }
func (j *LButtJoint) Topology() Topology   { return TopoL }
func (j *LButtJoint) Beams() []*model.Beam { return []*model.Beam{j.Main, j.Cross} }

// RestoreReferences re-binds the main and cross beams from stored keys.
func (j *LButtJoint) RestoreReferences(a *model.Assembly) error {
	j.Main = a.FindByKey(j.MainKey)
	j.Cross = a.FindByKey(j.CrossKey)
	if j.Main == nil || j.Cross == nil {
		return joinErrorf(j, "main or cross beam key not found in assembly")
	}
	return nil
}

// mainCuttingPlane trims the main beam at the cross beam face best facing
// it, with the normal flipped into the material to remove. End faces are
// considered and rejected: butting against a beam end is not a joint.
func (j *LButtJoint) mainCuttingPlane() (geom.Frame, error) {
	angles := beamSideIncidence(j.Main, j.Cross, false)
	idx := sortedFaceIndices(angles)[0]
	if model.IsEndFace(idx) {
		return geom.Frame{}, joinErrorf(j, "can't join to end faces")
	}
	f, err := j.Cross.SideFrame(idx)
	if err != nil {
		return geom.Frame{}, err
	}
	return f.FlippedNormal(), nil
}

// crossCuttingPlane trims the extended cross beam at the main beam face
// on the far side.
func (j *LButtJoint) crossCuttingPlane() geom.Frame {
	_, f := faceMostTowardsBeam(j.Cross, j.Main, true)
	return f
}

// AddExtensions extends the main beam to its cutting plane, and the cross
// beam to the main beam's far face when ExtendCross is set.
func (j *LButtJoint) AddExtensions() error {
	if j.Main == nil || j.Cross == nil {
		return joinErrorf(j, "beams not set")
	}
	mainPlane, err := j.mainCuttingPlane()
	if err != nil {
		return err
	}
	startMain, endMain, err := j.Main.ExtensionToPlane(mainPlane.Plane())
	if err != nil {
		return joinErrorf(j, "%v", err)
	}
	j.Main.AddBlankExtension(startMain+trimExtensionSafety, endMain+trimExtensionSafety, j.JointKey)

	if j.ExtendCross {
		startCross, endCross, err := j.Cross.ExtensionToPlane(j.crossCuttingPlane().Plane())
		if err != nil {
			return joinErrorf(j, "%v", err)
		}
		j.Cross.AddBlankExtension(startCross+trimExtensionSafety, endCross+trimExtensionSafety, j.JointKey)
	}
	return nil
}

// AddFeatures replaces the trim features on both beams.
func (j *LButtJoint) AddFeatures() error {
	if j.Main == nil || j.Cross == nil {
		return joinErrorf(j, "beams not set")
	}
	j.Main.RemoveFeatures(j.JointKey)
	j.Cross.RemoveFeatures(j.JointKey)

	mainPlane, err := j.mainCuttingPlane()
	if err != nil {
		return err
	}
	if j.ExtendCross {
		j.Cross.AddFeature(j.JointKey, model.CutFeature{Plane: j.crossCuttingPlane().Plane()})
	}
	j.Main.AddFeature(j.JointKey, model.CutFeature{Plane: mainPlane.Plane()})
	return nil
}

var _ Joint = (*LButtJoint)(nil)
