package joints

// Tolerances collects the fixed numeric thresholds used by the topology
// solver and the joint geometry engine. The defaults reproduce the
// behavior the machining downstream expects; change them only with a
// matching change on the consumer side.
type Tolerances struct {
	// Linear is the general positional tolerance in design units.
	Linear float64 `toml:"linear"`
	// Angular is the centerline classification tolerance in radians.
	Angular float64 `toml:"angular"`
	// BirdsmouthDot disqualifies a birdsmouth when the dot product of the
	// two beam frame normals is within this band of 0 (perpendicular) or
	// 1 (parallel).
	BirdsmouthDot float64 `toml:"birdsmouth_dot"`
	// StepJointDot requires the centerline cross product to align with
	// the cross beam normal within this band of 1 for a step joint.
	StepJointDot float64 `toml:"step_joint_dot"`
	// ApexDistance is the maximum distance from the main centerline at
	// which a plane-intersection point still counts as a birdsmouth apex.
	ApexDistance float64 `toml:"apex_distance"`
	// RightAngleBand is the half-width, in degrees, of the strut
	// inclination band treated as a square (90 degree) meeting.
	RightAngleBand float64 `toml:"right_angle_band"`
	// VerticalDrillDeg is the inclination, in degrees, below which
	// drilling switches to the vertical-fallback branch.
	VerticalDrillDeg float64 `toml:"vertical_drill_deg"`
	// DrillEdgeClearance is the lateral clearance from the blank edge for
	// vertical-fallback drill entry points.
	DrillEdgeClearance float64 `toml:"drill_edge_clearance"`
	// FaceAlignAngular is the tight angular tolerance, in radians, for
	// matching a lateral face to the corner normal of a ridge lap.
	FaceAlignAngular float64 `toml:"face_align_angular"`
}

// Machining constants shared by all joint kinds. The downstream tooling
// assumes these exact values.
const (
	// MinPocketLength is the smallest pocket a mill can cut.
	MinPocketLength = 61.5
	// StepWedgeDepth is the extrusion depth of the step-joint wedge.
	StepWedgeDepth = 60.0
	// buttExtensionSafety is the extra blank length beyond the computed
	// cutting plane for butt joints.
	buttExtensionSafety = 10.0
	// trimExtensionSafety is the extra blank length for plain trims.
	trimExtensionSafety = 0.01
	// oversizeFactor inflates subtraction solids so boolean cuts do not
	// leave slivers at coincident faces.
	oversizeFactor = 10.0
)

// DefaultTolerances returns the standard tolerance set.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Linear:             1e-6,
		Angular:            1e-3,
		BirdsmouthDot:      0.01,
		StepJointDot:       0.001,
		ApexDistance:       40.0,
		RightAngleBand:     0.1,
		VerticalDrillDeg:   45.0,
		DrillEdgeClearance: 20.0,
		FaceAlignAngular:   0.001,
	}
}
