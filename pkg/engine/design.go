package engine

import (
	"github.com/chazu/joinery/pkg/joints"
	"github.com/chazu/joinery/pkg/model"
)

// Design is the output of evaluating a source file: the beams of the
// model plus the joint rules declared between them. Rules reference
// beams by key; the topology solver resolves roles when the rules are
// applied.
type Design struct {
	Assembly *model.Assembly
	Rules    []JointRule

	names map[string]int // beam name -> key
}

// NewDesign creates an empty design.
func NewDesign() *Design {
	return &Design{
		Assembly: model.NewAssembly(),
		names:    make(map[string]int),
	}
}

// BeamByName returns the key of a named beam and whether it exists.
func (d *Design) BeamByName(name string) (int, bool) {
	key, ok := d.names[name]
	return key, ok
}

// JointRule declares one joint between two beams. The beam order matters
// for role-assigned kinds: BeamA is the intended main (or top) beam.
type JointRule struct {
	Kind  string `json:"kind"`
	BeamA int    `json:"beam_a"`
	BeamB int    `json:"beam_b"`

	// Butt options
	MillDepth      float64 `json:"mill_depth,omitempty"`
	DrillDiameter  float64 `json:"drill_diameter,omitempty"`
	Birdsmouth     bool    `json:"birdsmouth,omitempty"`
	StepJoint      bool    `json:"step_joint,omitempty"`
	SmallBeamButts bool    `json:"small_beam_butts,omitempty"`
	ExtendCross    bool    `json:"extend_cross,omitempty"`

	// Miter options
	Cutoff float64 `json:"cutoff,omitempty"`
}

// BuildJoints resolves every rule of the design into a joint instance:
// classify the pair's topology, construct the matching joint kind, and
// run its extension and feature passes. Rules are processed in
// declaration order; the first failure aborts with its JoinError.
func (d *Design) BuildJoints(solver *joints.ConnectionSolver) ([]joints.Joint, error) {
	built := make([]joints.Joint, 0, len(d.Rules))
	for i, r := range d.Rules {
		beamA := d.Assembly.FindByKey(r.BeamA)
		beamB := d.Assembly.FindByKey(r.BeamB)
		if beamA == nil || beamB == nil {
			return nil, &joints.JoinError{Msg: "joint rule references an unknown beam key"}
		}
		topo, main, cross := solver.FindTopology(beamA, beamB, 0)

		var j joints.Joint
		var err error
		switch r.Kind {
		case "t_butt":
			j, err = joints.NewTButtJoint(i, topo, main, cross, joints.ButtOptions{
				MillDepth:     r.MillDepth,
				DrillDiameter: r.DrillDiameter,
				Birdsmouth:    r.Birdsmouth,
				StepJoint:     r.StepJoint,
			})
		case "l_butt":
			j, err = joints.NewLButtJoint(i, topo, beamA, beamB, joints.LButtOptions{
				SmallBeamButts: r.SmallBeamButts,
				ExtendCross:    r.ExtendCross,
			})
		case "l_miter":
			j, err = joints.NewLMiterJoint(i, topo, beamA, beamB, r.Cutoff)
		case "french_ridge_lap":
			j, err = joints.NewFrenchRidgeLapJoint(i, topo, beamA, beamB, r.DrillDiameter)
		default:
			return nil, &joints.JoinError{Msg: "unknown joint kind " + r.Kind}
		}
		if err != nil {
			return nil, err
		}
		if err := j.AddExtensions(); err != nil {
			return nil, err
		}
		if err := j.AddFeatures(); err != nil {
			return nil, err
		}
		built = append(built, j)
	}
	return built, nil
}
