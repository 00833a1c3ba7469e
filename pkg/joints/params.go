package joints

// Machining parameter records computed by the joint engine. Field names
// and units follow the fabrication instruction conventions: distances in
// design units, angles in degrees, reference plane IDs using the beam
// face numbering.

// OrientationStart and OrientationEnd say which beam end an operation is
// anchored to in its parameter record.
const (
	OrientationStart = "start"
	OrientationEnd   = "end"
)

// DoubleCutParams describes a birdsmouth: two half-space cuts meeting in
// a shared edge at the beam end.
type DoubleCutParams struct {
	Orientation      string  `json:"Orientation"`
	StartX           float64 `json:"StartX"`
	StartY           float64 `json:"StartY"`
	Angle1           float64 `json:"Angle1"`
	Inclination1     float64 `json:"Inclination1"`
	Angle2           float64 `json:"Angle2"`
	Inclination2     float64 `json:"Inclination2"`
	ReferencePlaneID int     `json:"ReferencePlaneID"`
}

// PocketParams describes the rectangular mill pocket cut into the cross
// beam of a butt joint.
type PocketParams struct {
	StartX           float64 `json:"StartX"`
	Depth            float64 `json:"Depth"`
	Width            float64 `json:"Width"`
	Length           float64 `json:"Length"`
	Angle            float64 `json:"Angle"`
	ReferencePlaneID int     `json:"ReferencePlaneID"`
}

// DrillParams describes a through or depth-limited drilling, positioned
// on a reference side of the cross beam.
type DrillParams struct {
	ReferencePlaneID int     `json:"ReferencePlaneID"`
	StartX           float64 `json:"StartX"`
	StartY           float64 `json:"StartY"`
	Angle            float64 `json:"Angle"`
	Inclination      float64 `json:"Inclination"`
	Diameter         float64 `json:"Diameter"`
	DepthLimited     bool    `json:"DepthLimited"`
	Depth            float64 `json:"Depth"`
}

// StepLapParams describes the step joint seat cut into the cross beam
// and the matching heel on the main beam.
type StepLapParams struct {
	Orientation       string  `json:"Orientation"`
	StartX            float64 `json:"StartX"`
	StartY            float64 `json:"StartY"`
	Angle             float64 `json:"Angle"`
	Depth             float64 `json:"Depth"`
	LeadAngleParallel bool    `json:"LeadAngleParallel"`
	LeadAngle         float64 `json:"LeadAngle"`
	ReferencePlaneID  int     `json:"ReferencePlaneID"`
}
