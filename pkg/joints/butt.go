package joints

import (
	"math"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/model"
)

// ButtJoint is the shared geometry engine for butt style joints: one main
// beam trimmed against a cross beam, optionally with a mill pocket, a
// birdsmouth notch, a step joint or a fastener drilling. T-butt and
// L-butt embed it; it is not a Joint on its own.
type ButtJoint struct {
	JointKey int

	Main     *model.Beam
	Cross    *model.Beam
	MainKey  int
	CrossKey int

	MillDepth     float64
	DrillDiameter float64
	Birdsmouth    bool
	StepJoint     bool

	Tol Tolerances

	// RefSideIndexCross is the cross beam face the main beam butts
	// against, cached by the cutting plane selection.
	RefSideIndexCross int
	// MainFaceIndex is the main beam reference face of the birdsmouth.
	MainFaceIndex int

	// Parameter records, nil until the corresponding geometry ran.
	PocketCross    *PocketParams
	BirdsmouthMain *DoubleCutParams
	DrillCross     *DrillParams
	StepMain       *DoubleCutParams
	StepCross      *StepLapParams

	birdsmouthVolume *model.Polyhedron
	stepMainVolumes  []model.Polyhedron
	stepCrossVolume  *model.Polyhedron
}

func newButtJoint(key int, main, cross *model.Beam, millDepth, drillDiameter float64, birdsmouth, stepJoint bool) ButtJoint {
	return ButtJoint{
		JointKey:      key,
		Main:          main,
		Cross:         cross,
		MainKey:       main.Key,
		CrossKey:      cross.Key,
		MillDepth:     millDepth,
		DrillDiameter: drillDiameter,
		Birdsmouth:    birdsmouth,
		StepJoint:     stepJoint,
		Tol:           DefaultTolerances(),
	}
}

// mainEnd reports which end of the main beam sits at the joint.
func (j *ButtJoint) mainEnd() model.End { return beamEndAtJoint(j.Main, j.Cross) }

// crossEnd reports which end of the cross beam sits at the joint.
func (j *ButtJoint) crossEnd() model.End { return beamEndAtJoint(j.Cross, j.Main) }

// restoreBeams re-binds the main and cross beams from their stored keys.
func (j *ButtJoint) restoreBeams(a *model.Assembly) error {
	j.Main = a.FindByKey(j.MainKey)
	j.Cross = a.FindByKey(j.CrossKey)
	if j.Main == nil || j.Cross == nil {
		return &JoinError{Msg: "main or cross beam key not found in assembly"}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Cutting planes and face selections
// ---------------------------------------------------------------------------

// mainCuttingPlane returns the plane that trims the main beam: the cross
// beam face best facing the main beam, normal flipped into the material
// to remove and offset inward by the mill depth. The unmodified mating
// face frame is returned alongside.
func (j *ButtJoint) mainCuttingPlane() (cutFrame, matingFrame geom.Frame) {
	idx, cfr := faceMostOrthoToBeam(j.Main, j.Cross, true)
	j.RefSideIndexCross = idx
	matingFrame = cfr
	cut := cfr.FlippedNormal()
	cut.Origin = cut.Origin.Add(cut.ZAxis().MulScalar(j.MillDepth))
	return cut, matingFrame
}

// nextCuttingPlane picks between the two cross beam faces best facing the
// main beam the one the main centerline actually enters through, and
// returns the offset cutting frame, the unmodified mating frame and the
// two adjacent cross side faces.
func (j *ButtJoint) nextCuttingPlane() (cutFrame, matingFrame geom.Frame, sideFrames [2]geom.Frame, err error) {
	angles := beamSideIncidence(j.Main, j.Cross, true)
	sorted := sortedFaceIndices(angles)
	crossFaces := j.Cross.Faces()

	found := false
	for _, idx := range sorted[:2] {
		face := crossFaces[idx]
		pt, _, ok := geom.LinePlane(j.Main.Centerline(), face.Plane())
		if !ok {
			continue
		}
		dist := geom.DistancePointLine(pt, j.Cross.Centerline())
		if dist <= j.Cross.Width/2*math.Sqrt2 {
			matingFrame = face
			j.RefSideIndexCross = idx
			cut := face.FlippedNormal()
			cut.Origin = face.Origin.Sub(face.ZAxis().MulScalar(j.MillDepth))
			cutFrame = cut
			sideFrames = [2]geom.Frame{crossFaces[(idx+1)%4], crossFaces[(idx+3)%4]}
			found = true
		}
	}
	if !found {
		return geom.Frame{}, geom.Frame{}, sideFrames,
			&JoinError{Beams: []*model.Beam{j.Main, j.Cross}, Msg: "main centerline does not enter the cross beam through a candidate face"}
	}
	return cutFrame, matingFrame, sideFrames, nil
}

// sideSurfacesMain returns the two main beam lateral faces most parallel
// to the plane spanned by the two centerlines.
func (j *ButtJoint) sideSurfacesMain() [2]geom.Frame {
	crossVect := j.Main.Centerline().Direction().Cross(j.Cross.Centerline().Direction())
	faces := j.Main.LateralFaces()
	idx := []int{0, 1, 2, 3}
	dots := make([]float64, 4)
	for i, f := range faces {
		dots[i] = math.Abs(crossVect.Dot(f.Normal()))
	}
	for a := 0; a < 4; a++ {
		for b := a + 1; b < 4; b++ {
			if dots[idx[b]] < dots[idx[a]] {
				idx[a], idx[b] = idx[b], idx[a]
			}
		}
	}
	return [2]geom.Frame{faces[idx[0]], faces[idx[1]]}
}

// frontBackSurfacesMain returns the main beam faces most and least facing
// the cross beam.
func (j *ButtJoint) frontBackSurfacesMain() (front, back geom.Frame) {
	angles := beamSideIncidence(j.Cross, j.Main, true)
	sorted := sortedFaceIndices(angles)
	faces := j.Main.Faces()
	return faces[sorted[0]], faces[sorted[3]]
}

// ---------------------------------------------------------------------------
// Pocket subtraction volume
// ---------------------------------------------------------------------------

// subtractionVolume computes the hexahedral mill pocket removed from the
// cross beam where the main beam butts into it, filling PocketCross.
func (j *ButtJoint) subtractionVolume() (model.Polyhedron, error) {
	frontFrame, backFrame := j.frontBackSurfacesMain()
	topFrame, bottomFrame, sideFrames, err := j.nextCuttingPlane()
	if err != nil {
		return model.Polyhedron{}, err
	}
	sidesMain := j.sideSurfacesMain()

	params := &PocketParams{}
	blankOrigin := j.Cross.BlankFrame().Origin
	crossDir := j.Cross.Centerline().Direction()

	var vertices []geom.Vec
	for i, side := range sideFrames {
		sidePlane := side.Plane()
		var points []geom.Vec
		var dots []float64
		for _, depthFrame := range []geom.Frame{bottomFrame, topFrame} {
			for _, fb := range []geom.Frame{frontFrame, backFrame} {
				pt, ok := geom.PlanePlanePlane(sidePlane, depthFrame.Plane(), fb.Plane())
				if !ok {
					return model.Polyhedron{}, joinErrPlanes(j)
				}
				points = append(points, pt)
				dots = append(dots, pt.Sub(blankOrigin).Dot(crossDir))
			}
		}
		// Sort the four corners by their projection along the cross blank.
		for a := 0; a < len(points); a++ {
			for b := a + 1; b < len(points); b++ {
				if dots[b] < dots[a] {
					dots[a], dots[b] = dots[b], dots[a]
					points[a], points[b] = points[b], points[a]
				}
			}
		}
		minPt, maxPt := points[0], points[len(points)-1]
		if i == 1 {
			params.StartX = math.Abs(dots[0])
		}

		topLine, ok := geom.PlanePlane(sidePlane, topFrame.Plane())
		if !ok {
			return model.Polyhedron{}, joinErrPlanes(j)
		}
		bottomLine, ok := geom.PlanePlane(sidePlane, bottomFrame.Plane())
		if !ok {
			return model.Polyhedron{}, joinErrPlanes(j)
		}
		topMin := topLine.ClosestPoint(minPt)
		topMax := topLine.ClosestPoint(maxPt)
		bottomMin := bottomLine.ClosestPoint(minPt)
		bottomMax := bottomLine.ClosestPoint(maxPt)
		vertices = append(vertices, topMin, topMax, bottomMax, bottomMin)
	}

	frontLine, ok := geom.PlanePlane(frontFrame.Plane(), topFrame.Plane())
	if !ok {
		return model.Polyhedron{}, joinErrPlanes(j)
	}
	var sideLines [2]geom.Line
	for i, s := range sidesMain {
		l, ok := geom.PlanePlane(s.Plane(), topFrame.Plane())
		if !ok {
			return model.Polyhedron{}, joinErrPlanes(j)
		}
		sideLines[i] = l
	}

	// Oblique entry lengthens the pocket so the main beam clears its edge.
	pocketAngle := geom.SignedAngle(j.Main.Centerline().Direction(), topFrame.ZAxis(), topFrame.YAxis)
	pocketExtension := math.Abs(math.Tan(pocketAngle) * j.MillDepth)
	length := geom.DistanceLineLine(sideLines[0], sideLines[1]) + pocketExtension
	if length < MinPocketLength {
		length = MinPocketLength
	}

	params.Depth = j.MillDepth
	if j.RefSideIndexCross%2 == 0 {
		params.Width = j.Cross.Height
	} else {
		params.Width = j.Cross.Width
	}
	params.Length = length
	if topFrame.YAxis.Dot(frontLine.Direction()) < 0 {
		frontLine = frontLine.Flipped()
	}
	params.Angle = math.Abs(geom.Degrees(
		geom.SignedAngle(topFrame.XAxis, frontLine.Direction(), topFrame.ZAxis())))
	params.ReferencePlaneID = j.RefSideIndexCross
	j.PocketCross = params

	// Winding check: the first quad's diagonals tell whether the vertex
	// order seen from the first side frame is counter-clockwise.
	center := vertices[0].Add(vertices[1]).Add(vertices[2]).Add(vertices[3]).MulScalar(0.25)
	angle := geom.SignedAngle(vertices[0].Sub(center), vertices[1].Sub(center), sideFrames[0].ZAxis())
	var faces [][]int
	if angle > 0 {
		faces = [][]int{
			{0, 1, 2, 3}, {1, 0, 4, 5}, {2, 1, 5, 6}, {3, 2, 6, 7}, {0, 3, 7, 4}, {7, 6, 5, 4},
		}
	} else {
		faces = [][]int{
			{3, 2, 1, 0}, {5, 4, 0, 1}, {6, 5, 1, 2}, {7, 6, 2, 3}, {4, 7, 3, 0}, {4, 5, 6, 7},
		}
	}
	return model.Polyhedron{Vertices: vertices, Faces: faces}, nil
}

func joinErrPlanes(j *ButtJoint) *JoinError {
	return &JoinError{Beams: []*model.Beam{j.Main, j.Cross}, Msg: "degenerate plane intersection in pocket construction"}
}

// ---------------------------------------------------------------------------
// Validity coercion
// ---------------------------------------------------------------------------

// checkJointBooleans validates the step joint and birdsmouth flags against
// the actual beam geometry, disabling whichever does not apply. A step
// joint wins over a birdsmouth and forces the mill depth to zero.
func (j *ButtJoint) checkJointBooleans() (stepJoint, birdsmouth bool) {
	if j.StepJoint {
		cp := j.Main.Centerline().Direction().Cross(j.Cross.Centerline().Direction()).Normalize()
		dot := math.Abs(cp.Dot(j.Cross.Frame.ZAxis()))
		if dot > 1-j.Tol.StepJointDot {
			j.StepJoint = true
			j.Birdsmouth = false
			j.MillDepth = 0
		} else {
			j.StepJoint = false
		}
		return j.StepJoint, j.Birdsmouth
	}
	j.StepJoint = false
	if j.Birdsmouth {
		dot := math.Abs(j.Main.Frame.ZAxis().Dot(j.Cross.Frame.ZAxis()))
		// A birdsmouth needs the beams neither perpendicular nor parallel.
		if dot < j.Tol.BirdsmouthDot || dot > 1-j.Tol.BirdsmouthDot {
			j.Birdsmouth = false
		}
	}
	return j.StepJoint, j.Birdsmouth
}

// ---------------------------------------------------------------------------
// Birdsmouth
// ---------------------------------------------------------------------------

// calcParamsBirdsmouth computes the double cut notching the main beam end
// over the cross beam. It reports false when no apex close enough to the
// main centerline exists, in which case the caller falls back to the
// plain cutting plane.
func (j *ButtJoint) calcParamsBirdsmouth() (bool, error) {
	angles := beamSideIncidence(j.Main, j.Cross, true)
	faceKeys := sortedFaceIndices(angles)

	_, ogFrame := j.mainCuttingPlane()
	frame2 := j.Cross.Faces()[faceKeys[1]]

	plane1 := geom.Plane{Origin: ogFrame.Origin, Normal: ogFrame.ZAxis().Neg()}
	plane2 := frame2.Plane()
	ridge, ok := geom.PlanePlane(plane2, plane1)
	if !ok {
		return false, joinErrorfButt(j, "cross beam faces for birdsmouth are parallel")
	}
	ridgeVec := ridge.Vector()

	mainFaces := j.Main.LateralFaces()
	apexAngles := make(map[int]float64)
	for i, face := range mainFaces {
		pt, ok := geom.PlanePlanePlane(plane1, plane2, face.Plane())
		if !ok {
			continue
		}
		if geom.DistancePointLine(pt, j.Main.Centerline()) < j.Tol.ApexDistance {
			apexAngles[i] = geom.Angle(face.Normal(), ridgeVec)
		}
	}
	if len(apexAngles) == 0 {
		return false, nil
	}
	j.MainFaceIndex = sortedFaceIndices(apexAngles)[0]
	refFrame, err := j.Main.RefSideFrame(j.MainFaceIndex)
	if err != nil {
		return false, err
	}

	startPoint, ok := geom.PlanePlanePlane(plane1, plane2, refFrame.Plane())
	if !ok {
		return false, joinErrorfButt(j, "birdsmouth planes do not meet in a point")
	}
	local := refFrame.ToLocal(startPoint)
	startX, startY := local.X, local.Y

	vol := j.Cross.BlankPolyhedron().ScaledAbout(oversizeFactor, startPoint)
	j.birdsmouthVolume = &vol

	iv1Line, ok1 := geom.PlanePlane(plane1, refFrame.Plane())
	iv2Line, ok2 := geom.PlanePlane(plane2, refFrame.Plane())
	if !ok1 || !ok2 {
		return false, joinErrorfButt(j, "birdsmouth cut plane is parallel to the reference face")
	}
	iv1 := iv1Line.Vector()
	iv2 := iv2Line.Vector()

	referenceVector := refFrame.XAxis
	if j.mainEnd() == model.EndEnd {
		referenceVector = referenceVector.Neg()
	}
	if iv1.Dot(refFrame.YAxis) < 0 {
		iv1 = iv1.Neg()
	}
	if iv2.Dot(refFrame.YAxis) < 0 {
		iv2 = iv2.Neg()
	}

	angle1 := geom.Degrees(geom.Angle(iv1, referenceVector))
	angle2 := geom.Degrees(geom.Angle(iv2, referenceVector))
	inclination1 := geom.Degrees(geom.Angle(refFrame.ZAxis(), plane1.Normal))
	inclination2 := geom.Degrees(geom.Angle(refFrame.ZAxis(), plane2.Normal))

	if angle1 > angle2 {
		angle1, angle2 = angle2, angle1
		inclination1, inclination2 = inclination2, 180-inclination1
	}

	j.BirdsmouthMain = &DoubleCutParams{
		Orientation:      j.mainEnd().String(),
		StartX:           startX,
		StartY:           startY,
		Angle1:           angle1,
		Inclination1:     inclination1,
		Angle2:           angle2,
		Inclination2:     inclination2,
		ReferencePlaneID: j.MainFaceIndex,
	}
	return true, nil
}

func joinErrorfButt(j *ButtJoint, msg string) *JoinError {
	return &JoinError{Beams: []*model.Beam{j.Main, j.Cross}, Msg: msg}
}

// ---------------------------------------------------------------------------
// Drilling
// ---------------------------------------------------------------------------

// calcParamsDrilling computes the fastener drilling through the cross
// beam along the main beam axis, filling DrillCross. It returns the drill
// axis and its effective pass-through length for the solid consumer.
func (j *ButtJoint) calcParamsDrilling() (geom.Line, float64, error) {
	_, cuttingFrame := j.mainCuttingPlane()
	refPlane := cuttingFrame.Plane()

	crossFaces := j.Cross.LateralFaces()
	faceAngles := make(map[int]float64, 4)
	for i, face := range crossFaces {
		faceAngles[i] = geom.Angle(face.Normal(), cuttingFrame.Normal())
	}
	crossFaceIndex := sortedFaceIndices(faceAngles)[0]
	refFrame, err := j.Cross.RefSideFrame(crossFaceIndex)
	if err != nil {
		return geom.Line{}, 0, err
	}

	startPoint, _, ok := geom.LinePlane(j.Main.Centerline(), refPlane)
	if !ok {
		return geom.Line{}, 0, joinErrorfButt(j, "main centerline is parallel to the drilling reference plane")
	}
	local := refFrame.ToLocal(startPoint)
	startX, startY := local.X, local.Y

	cl := j.Main.Centerline()
	linePoint := cl.Start
	if cl.ClosestParameter(startPoint) > 0.5 {
		linePoint = cl.End
	}
	projected := refPlane.ProjectPoint(linePoint)

	centerVec := linePoint.Sub(startPoint)
	projVec := projected.Sub(startPoint)
	angle := 180 - geom.Degrees(geom.SignedAngle(refFrame.XAxis, projVec, refFrame.ZAxis()))
	inclination := geom.Degrees(geom.Angle(projVec, centerVec))

	var reportedInclination float64
	if inclination < j.Tol.VerticalDrillDeg {
		// Near-vertical drill: enter through the reference face next to
		// the main beam instead of along the shallow axis.
		mainDir := cl.Direction()
		if j.mainEnd() == model.EndEnd {
			mainDir = mainDir.Neg()
		}
		displacement := j.Cross.Width/2 - j.Tol.DrillEdgeClearance
		if sin := math.Sin(geom.Radians(inclination)); sin > geom.Epsilon {
			displacement = j.Cross.Width/2/sin - j.Tol.DrillEdgeClearance
		}
		if j.Cross.Centerline().Direction().Dot(mainDir) > 0 {
			displacement = -displacement
		}
		reportedInclination = 90.0
		startX -= displacement
		startPoint = startPoint.Add(cuttingFrame.XAxis.Neg().MulScalar(displacement))
		linePoint = startPoint.Add(cuttingFrame.Normal().MulScalar(100))
	} else {
		reportedInclination = inclination
	}

	j.DrillCross = &DrillParams{
		ReferencePlaneID: crossFaceIndex,
		StartX:           startX,
		StartY:           startY,
		Angle:            angle,
		Inclination:      reportedInclination,
		Diameter:         j.DrillDiameter,
		DepthLimited:     false,
		Depth:            0,
	}

	// Axis for the solid consumer, extended backwards by one span so the
	// drill clears the entry face, with a pass-through length covering
	// the full oblique crossing.
	axis := geom.Line{Start: startPoint, End: linePoint}
	axis.Start = axis.Start.Sub(axis.Vector())
	normalAngle := 180 - geom.Degrees(geom.Angle(refFrame.ZAxis(), cl.Direction()))
	length := math.Abs(j.Cross.Width / math.Cos(geom.Radians(normalAngle)))
	return axis, length * 3, nil
}

// ---------------------------------------------------------------------------
// Step joint
// ---------------------------------------------------------------------------

// calcParamsStepJoint computes the two splice cuts on the main beam and
// the matching seat lap on the cross beam, filling StepMain and
// StepCross, and builds the subtraction volumes for both beams.
func (j *ButtJoint) calcParamsStepJoint() error {
	angles := beamSideIncidence(j.Cross, j.Main, true)
	faceKeys := sortedFaceIndices(angles)

	centerlineVec := j.Main.Centerline().Direction()
	if j.mainEnd() == model.EndStart {
		centerlineVec = centerlineVec.Neg()
	}

	strutInclinationDeg := geom.Degrees(geom.Angle(j.Cross.Centerline().Direction(), centerlineVec))

	_, _, interParam, _, ok := geom.LineLine(j.Cross.Centerline(), j.Main.Centerline())
	if !ok {
		return joinErrorfButt(j, "centerlines are parallel, no step joint possible")
	}

	mainFaces := j.Main.LateralFaces()
	facingNormal := mainFaces[faceKeys[0]].Normal()
	signedAngles := make(map[int]float64, 4)
	for i, face := range mainFaces {
		signedAngles[i] = geom.SignedAngle(face.Normal(), facingNormal, centerlineVec)
	}
	facesOrdered := sortedFaceIndices(signedAngles)

	band := j.Tol.RightAngleBand
	square := strutInclinationDeg >= 90-band && strutInclinationDeg <= 90+band
	refFaceID := facesOrdered[0]
	if !square && ((interParam > 0.5 && strutInclinationDeg < 90-band) || (interParam < 0.5 && strutInclinationDeg > 90+band)) {
		refFaceID = facesOrdered[2]
	}
	refFace, err := j.Main.RefSideFrame(refFaceID)
	if err != nil {
		return err
	}

	// Reflect the inclination into (0, 90] and derive the splice angles.
	strutInclination := strutInclinationDeg
	var angle1 float64
	if strutInclinationDeg < 90-band {
		angle1 = (180 - strutInclinationDeg) / 2
	} else if strutInclinationDeg > 90+band {
		angle1 = strutInclinationDeg / 2
		strutInclination = 180 - strutInclinationDeg
	}

	buriedDepth := math.Sin(geom.Radians(90-strutInclination)) * j.Main.Width / 2
	blankVertDepth := j.Cross.Width/2 - buriedDepth
	blankEdgeDepth := math.Abs(blankVertDepth) / math.Sin(geom.Radians(strutInclination))
	startx := blankEdgeDepth / 2
	starty := j.Main.Width / 4

	outsideLength := j.Main.Width / math.Tan(geom.Radians(strutInclination))
	xMainCuttingFace := outsideLength + blankEdgeDepth

	vecAngle2 := geom.Vec{X: xMainCuttingFace - startx, Y: -(j.Cross.Width - starty)}
	vecXAxis := geom.Vec{X: -startx}
	angle2 := geom.Degrees(geom.Angle(vecXAxis, vecAngle2))

	var startX, startY, paramAngle1, paramAngle2, angle90 float64
	if square {
		startx90 := j.Main.Width / 4
		starty90 := j.Main.Width / 2
		angle90 = geom.Degrees(math.Atan(startx90 / starty90))
		startY = starty90
		paramAngle1 = 90 + angle90
		paramAngle2 = 90 - angle90
		if j.mainEnd() == model.EndStart {
			startX = startx90
		} else {
			startX = j.Main.BlankLength() - startx90
		}
	} else {
		if j.mainEnd() == model.EndStart {
			startX = startx
			startY = starty
			paramAngle1 = 180 - angle1
			paramAngle2 = 180 - angle2
		} else {
			startX = j.Main.BlankLength() - startx
			startY = j.Main.Width - starty
			paramAngle1 = angle2
			paramAngle2 = angle1
		}
	}

	j.StepMain = &DoubleCutParams{
		Orientation:      j.mainEnd().String(),
		StartX:           startX,
		StartY:           startY,
		Angle1:           paramAngle1,
		Inclination1:     90.0,
		Angle2:           paramAngle2,
		Inclination2:     90.0,
		ReferencePlaneID: refFaceID,
	}

	// Seat lap on the cross beam: pick the cross face most parallel to
	// the main reference face and express the same start point there.
	crossFaces := j.Cross.LateralFaces()
	refNormal := refFace.ZAxis()
	crossDots := make(map[int]float64, 4)
	for i, face := range crossFaces {
		crossDots[i] = face.Normal().Dot(refNormal)
	}
	maxID, minID := argMax(crossDots), argMin(crossDots)
	crossFaceID := maxID
	crossFace, err := j.Cross.RefSideFrame(crossFaceID)
	if err != nil {
		return err
	}

	worldXYPoint := refFace.ToWorld(geom.Vec{X: startX, Y: startY})
	crossLocal := crossFace.ToLocal(worldXYPoint)
	startXCross, startYCross := crossLocal.X, crossLocal.Y

	flipCrossFace := func() error {
		crossFaceID = minID
		crossFace, err = j.Cross.RefSideFrame(crossFaceID)
		if err != nil {
			return err
		}
		startYCross = j.Cross.Width - startYCross
		return nil
	}

	var orientation string
	var angleCross, leadAngle float64
	switch {
	case !square && ((interParam > 0.5 && strutInclinationDeg < 90-band) || (interParam < 0.5 && strutInclinationDeg > 90+band)):
		orientation = j.crossEnd().String()
		if j.crossEnd() == model.EndStart {
			if err := flipCrossFace(); err != nil {
				return err
			}
		}
		if j.mainEnd() == model.EndStart {
			angleCross = 180 - paramAngle1
		} else {
			angleCross = paramAngle2
		}
		leadAngle = 180 - (paramAngle1 - paramAngle2)
	case square:
		orientation = j.crossEnd().String()
		angleCross = angle90
		leadAngle = 180 - angle90*2
		if j.crossEnd() == model.EndEnd {
			if err := flipCrossFace(); err != nil {
				return err
			}
		}
	default:
		if j.crossEnd() == model.EndStart {
			orientation = OrientationEnd
			if j.mainEnd() == model.EndStart {
				angleCross = 180 - paramAngle1
			} else {
				angleCross = paramAngle2
			}
			leadAngle = 180 - (paramAngle1 - paramAngle2)
		} else {
			if err := flipCrossFace(); err != nil {
				return err
			}
			orientation = OrientationStart
			if j.mainEnd() == model.EndStart {
				angleCross = 180 - paramAngle1
				leadAngle = 180 - (paramAngle1 - paramAngle2)
			} else {
				angleCross = paramAngle2
				leadAngle = (180 - paramAngle1) + paramAngle2
			}
		}
	}

	j.StepCross = &StepLapParams{
		Orientation:       orientation,
		StartX:            startXCross,
		StartY:            startYCross,
		Angle:             angleCross,
		Depth:             StepWedgeDepth,
		LeadAngleParallel: false,
		LeadAngle:         leadAngle,
		ReferencePlaneID:  crossFaceID,
	}

	// Subtraction volumes: two rotated blanks notch the main beam, a
	// wedge prism seats into the cross beam.
	_, mainMostTowards := faceMostTowardsBeam(j.Cross, j.Main, true)
	_, crossMostOrtho := faceMostOrthoToBeam(j.Main, j.Cross, true)
	_, mainMostOrtho := faceMostOrthoToBeam(j.Cross, j.Main, true)

	interPt, ok1 := geom.PlanePlanePlane(mainMostTowards.Plane(), crossMostOrtho.Plane(), refFace.Plane())
	interPt2, ok2 := geom.PlanePlanePlane(mainMostOrtho.Plane(), crossMostOrtho.Plane(), refFace.Plane())
	if !ok1 || !ok2 {
		return joinErrorfButt(j, "step joint corner planes do not intersect")
	}

	blank := j.Cross.BlankPolyhedron()
	axis := refFace.ZAxis()
	var vol0, vol1 model.Polyhedron
	switch {
	case !square && ((interParam > 0.5 && strutInclinationDeg < 90) || (interParam < 0.5 && strutInclinationDeg > 90)):
		vol0 = blank.RotatedAbout(axis, interPt2, geom.Radians(180+angleCross+leadAngle))
		vol1 = blank.RotatedAbout(axis, interPt, geom.Radians(angleCross))
	case square:
		vol0 = blank.RotatedAbout(axis, interPt2, geom.Radians(angle90))
		vol1 = blank.RotatedAbout(axis, interPt, geom.Radians(-angle90))
	default:
		vol0 = blank.RotatedAbout(axis, interPt2, geom.Radians(angleCross))
		vol1 = blank.RotatedAbout(axis, interPt, geom.Radians(180+angleCross+leadAngle))
	}
	j.stepMainVolumes = []model.Polyhedron{vol0, vol1}

	apex := []geom.Vec{worldXYPoint, interPt, interPt2}
	verts := append([]geom.Vec{}, apex...)
	for _, pt := range apex {
		verts = append(verts, pt.Sub(axis.MulScalar(StepWedgeDepth)))
	}
	var wedgeFaces [][]int
	if !square && ((interParam > 0.5 && strutInclinationDeg < 90) || (interParam < 0.5 && strutInclinationDeg > 90)) {
		wedgeFaces = [][]int{{0, 1, 2}, {3, 5, 4}, {0, 3, 4, 1}, {1, 4, 5, 2}, {0, 2, 5, 3}}
	} else {
		wedgeFaces = [][]int{{0, 2, 1}, {3, 4, 5}, {0, 1, 4, 3}, {1, 2, 5, 4}, {0, 3, 5, 2}}
	}
	wedge := model.Polyhedron{Vertices: verts, Faces: wedgeFaces}
	j.stepCrossVolume = &wedge
	return nil
}

func argMax(m map[int]float64) int {
	best := -1
	for i, v := range m {
		if best == -1 || v > m[best] || (v == m[best] && i < best) {
			best = i
		}
	}
	return best
}

func argMin(m map[int]float64) int {
	best := -1
	for i, v := range m {
		if best == -1 || v < m[best] || (v == m[best] && i < best) {
			best = i
		}
	}
	return best
}
