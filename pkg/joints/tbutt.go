package joints

import (
	"github.com/chazu/joinery/pkg/model"
)

// ButtOptions configures a T-butt or L-style butt joint.
type ButtOptions struct {
	// MillDepth, when positive, sinks a pocket of that depth into the
	// cross beam to receive the main beam.
	MillDepth float64
	// DrillDiameter, when positive, adds a fastener drilling along the
	// main beam axis through the cross beam.
	DrillDiameter float64
	// Birdsmouth notches the main beam end over the cross beam instead
	// of a plain trim, where the geometry allows it.
	Birdsmouth bool
	// StepJoint cuts an oblique two-plane splice instead of a trim,
	// where the geometry allows it. Takes precedence over Birdsmouth.
	StepJoint bool
}

// TButtJoint joins the end of the main beam along the length of the cross
// beam, trimming the main beam.
type TButtJoint struct {
	ButtJoint
}

// NewTButtJoint creates a T-butt joint for a beam pair the solver
// classified as topo. Construction fails when topo is not TOPO_T.
func NewTButtJoint(key int, topo Topology, main, cross *model.Beam, opts ButtOptions) (*TButtJoint, error) {
	if main == nil || cross == nil {
		return nil, &JoinError{Msg: "t_butt: main and cross beams must be set"}
	}
	if topo != TopoT {
		return nil, &JoinError{Beams: []*model.Beam{main, cross},
			Msg: "t_butt supports only " + TopoT.String() + " topology, got " + topo.String()}
	}
	j := &TButtJoint{ButtJoint: newButtJoint(key, main, cross, opts.MillDepth, opts.DrillDiameter, opts.Birdsmouth, opts.StepJoint)}
	return j, nil
}

func (j *TButtJoint) Kind() string        { return "t_butt" }
func (j *TButtJoint) Key() int            { return j.JointKey }
func (j *TButtJoint) Topology() Topology  { return TopoT }
func (j *TButtJoint) Beams() []*model.Beam { return []*model.Beam{j.Main, j.Cross} }

// RestoreReferences re-binds the main and cross beams from stored keys.
func (j *TButtJoint) RestoreReferences(a *model.Assembly) error {
	return j.restoreBeams(a)
}

// AddExtensions validates the birdsmouth/step flags against the geometry
// and extends the main beam blank to reach its cutting plane.
func (j *TButtJoint) AddExtensions() error {
	if j.Main == nil || j.Cross == nil {
		return joinErrorf(j, "beams not set")
	}
	j.checkJointBooleans()

	var start, end float64
	if j.Birdsmouth {
		// The notch spans two cross faces; extend far enough for the
		// nearer of the second-best face and the far face.
		angles := beamSideIncidence(j.Main, j.Cross, true)
		faceIndex := sortedFaceIndices(angles)[1]
		extPlane := j.Cross.Faces()[faceIndex].Plane()
		s1, e1, err := j.Main.ExtensionToPlane(extPlane)
		if err != nil {
			return joinErrorf(j, "%v", err)
		}
		_, backFrame := faceMostTowardsBeam(j.Main, j.Cross, true)
		s2, e2, err := j.Main.ExtensionToPlane(backFrame.Plane())
		if err != nil {
			return joinErrorf(j, "%v", err)
		}
		start, end = minf(s1, s2), minf(e1, e2)
	} else {
		_, extFrame := faceMostOrthoToBeam(j.Main, j.Cross, true)
		var err error
		start, end, err = j.Main.ExtensionToPlane(extFrame.Plane())
		if err != nil {
			return joinErrorf(j, "%v", err)
		}
	}
	j.Main.AddBlankExtension(start+buttExtensionSafety, end+buttExtensionSafety, j.JointKey)
	return nil
}

// AddFeatures recomputes the joint geometry and replaces the features
// this joint previously attached to the main and cross beams.
func (j *TButtJoint) AddFeatures() error {
	if j.Main == nil || j.Cross == nil {
		return joinErrorf(j, "beams not set")
	}
	j.Main.RemoveFeatures(j.JointKey)
	j.Cross.RemoveFeatures(j.JointKey)

	cutFrame, _, _, err := j.nextCuttingPlane()
	if err != nil {
		return err
	}

	if j.StepJoint {
		if err := j.calcParamsStepJoint(); err != nil {
			return err
		}
		for _, vol := range j.stepMainVolumes {
			j.Main.AddFeature(j.JointKey, model.SolidSubtraction{Volume: vol})
		}
		j.Cross.AddFeature(j.JointKey, model.SolidSubtraction{Volume: *j.stepCrossVolume})
		return j.maybeDrill()
	}

	if j.Birdsmouth {
		ok, err := j.calcParamsBirdsmouth()
		if err != nil {
			return err
		}
		if ok {
			j.MillDepth = 0
			j.Main.AddFeature(j.JointKey, model.SolidSubtraction{Volume: *j.birdsmouthVolume})
		} else {
			j.Birdsmouth = false
			j.Main.AddFeature(j.JointKey, model.CutFeature{Plane: cutFrame.Plane()})
		}
	} else {
		j.Main.AddFeature(j.JointKey, model.CutFeature{Plane: cutFrame.Plane()})
	}

	if j.MillDepth > 0 {
		pocket, err := j.subtractionVolume()
		if err != nil {
			return err
		}
		j.Cross.AddFeature(j.JointKey, model.MillVolume{Volume: pocket})
	}
	return j.maybeDrill()
}

func (j *TButtJoint) maybeDrill() error {
	if j.DrillDiameter <= 0 {
		return nil
	}
	axis, length, err := j.calcParamsDrilling()
	if err != nil {
		return err
	}
	j.Cross.AddFeature(j.JointKey, model.DrillFeature{Line: axis, Diameter: j.DrillDiameter, Length: length})
	return nil
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

var _ Joint = (*TButtJoint)(nil)
