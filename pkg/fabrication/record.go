// Package fabrication turns computed joints into named machining
// parameter records for a downstream instruction writer. It owns the
// numeric precision of the exported values; the joint engine reports raw
// floats.
package fabrication

import (
	"math"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/joints"
)

// Operation names of the exported records.
const (
	OpCut       = "cut"
	OpDoubleCut = "double_cut"
	OpPocket    = "pocket"
	OpDrilling  = "drilling"
	OpStepLap   = "step_lap"
	OpRidgeLap  = "ridge_lap"
)

// Record is one machining instruction for one beam, produced by one
// joint. Params is a typed parameter struct serialized by field name.
type Record struct {
	JointKey  int    `json:"joint_key"`
	JointKind string `json:"joint_kind"`
	BeamKey   int    `json:"beam_key"`
	Operation string `json:"operation"`
	Params    any    `json:"params"`
}

// CutParams parameterizes a plain planar trim by its cutting plane.
type CutParams struct {
	Origin geom.Vec `json:"Origin"`
	Normal geom.Vec `json:"Normal"`
}

// RidgeLapParams reports the lap reference face and fastener size of a
// french ridge lap.
type RidgeLapParams struct {
	ReferencePlaneID int     `json:"ReferencePlaneID"`
	DrillDiameter    float64 `json:"DrillDiameter"`
}

// round3 rounds to the three decimal places the instruction format
// carries.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func roundVec(v geom.Vec) geom.Vec {
	return geom.Vec{X: round3(v.X), Y: round3(v.Y), Z: round3(v.Z)}
}

func roundDoubleCut(p joints.DoubleCutParams) joints.DoubleCutParams {
	p.StartX = round3(p.StartX)
	p.StartY = round3(p.StartY)
	p.Angle1 = round3(p.Angle1)
	p.Inclination1 = round3(p.Inclination1)
	p.Angle2 = round3(p.Angle2)
	p.Inclination2 = round3(p.Inclination2)
	return p
}

func roundPocket(p joints.PocketParams) joints.PocketParams {
	p.StartX = round3(p.StartX)
	p.Depth = round3(p.Depth)
	p.Width = round3(p.Width)
	p.Length = round3(p.Length)
	p.Angle = round3(p.Angle)
	return p
}

func roundDrill(p joints.DrillParams) joints.DrillParams {
	p.StartX = round3(p.StartX)
	p.StartY = round3(p.StartY)
	p.Angle = round3(p.Angle)
	p.Inclination = round3(p.Inclination)
	p.Diameter = round3(p.Diameter)
	p.Depth = round3(p.Depth)
	return p
}

func roundStepLap(p joints.StepLapParams) joints.StepLapParams {
	p.StartX = round3(p.StartX)
	p.StartY = round3(p.StartY)
	p.Angle = round3(p.Angle)
	p.Depth = round3(p.Depth)
	p.LeadAngle = round3(p.LeadAngle)
	return p
}
