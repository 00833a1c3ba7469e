// Package joints classifies how pairs of beams meet in space and computes
// the machining features (cuts, pockets, notches, drillings) that join
// them, together with the named parameter records a fabrication
// serializer consumes.
package joints

import (
	"sort"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/model"
)

// Joint is the shared lifecycle implemented by every joint kind.
//
// AddExtensions and AddFeatures may be called repeatedly after geometry
// edits; each call is self-consistent (a joint replaces only its own
// previous contributions) so recomputation is idempotent and independent
// of other joints on the same beams.
type Joint interface {
	// Kind is the stable joint-kind name used by exporters.
	Kind() string
	// Key identifies this joint; features and blank extensions it adds
	// to beams are keyed by it.
	Key() int
	// Topology is the beam-pair topology this joint kind supports.
	Topology() Topology
	// Beams returns the two joined beams.
	Beams() []*model.Beam
	// AddExtensions grows the blank envelopes of the joined beams far
	// enough to contain the computed cuts, plus a safety margin.
	AddExtensions() error
	// AddFeatures recomputes the joint geometry and replaces the features
	// this joint previously attached.
	AddFeatures() error
	// RestoreReferences re-binds beam references from stored keys after a
	// serialization round-trip.
	RestoreReferences(a *model.Assembly) error
}

// ---------------------------------------------------------------------------
// Shared face ranking
// ---------------------------------------------------------------------------

// directionAwayFrom returns beamA's centerline direction oriented so it
// points away from beamB: when beamA's end lies at the joint, the vector
// runs from the joint towards beamA's free end.
func directionAwayFrom(beamA, beamB *model.Beam) geom.Vec {
	cl := beamA.Centerline()
	other := beamB.Centerline()
	ds := geom.DistancePointLine(cl.Start, other)
	de := geom.DistancePointLine(cl.End, other)
	dir := cl.Direction()
	if de > ds {
		return dir
	}
	return dir.Neg()
}

// beamSideIncidence maps face indices of beamB to the angle between the
// face outward normal and beamA's centerline direction oriented away from
// beamB. With ignoreEnds only the four lateral faces are ranked.
func beamSideIncidence(beamA, beamB *model.Beam, ignoreEnds bool) map[int]float64 {
	ref := directionAwayFrom(beamA, beamB)
	n := model.FaceCount
	if ignoreEnds {
		n = 4
	}
	faces := beamB.Faces()
	angles := make(map[int]float64, n)
	for i := 0; i < n; i++ {
		angles[i] = geom.Angle(faces[i].Normal(), ref)
	}
	return angles
}

// sortedFaceIndices returns the keys of an incidence map ordered by
// ascending angle, ties broken by face index (stable, deterministic).
func sortedFaceIndices(angles map[int]float64) []int {
	idx := make([]int, 0, len(angles))
	for i := range angles {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if angles[ia] != angles[ib] {
			return angles[ia] < angles[ib]
		}
		return ia < ib
	})
	return idx
}

// faceMostOrthoToBeam returns the face of beamB best facing beamA: the
// lateral face whose normal is most aligned with beamA's oriented
// centerline direction.
func faceMostOrthoToBeam(beamA, beamB *model.Beam, ignoreEnds bool) (int, geom.Frame) {
	angles := beamSideIncidence(beamA, beamB, ignoreEnds)
	i := sortedFaceIndices(angles)[0]
	f, _ := beamB.SideFrame(i)
	return i, f
}

// faceMostTowardsBeam returns the face of beamB on the far side from
// beamA: the lateral face whose normal points most away from beamA.
func faceMostTowardsBeam(beamA, beamB *model.Beam, ignoreEnds bool) (int, geom.Frame) {
	angles := beamSideIncidence(beamA, beamB, ignoreEnds)
	idx := sortedFaceIndices(angles)
	i := idx[len(idx)-1]
	f, _ := beamB.SideFrame(i)
	return i, f
}

// beamEndAtJoint reports which end of b sits at the joint with other.
func beamEndAtJoint(b, other *model.Beam) model.End {
	cl := b.Centerline()
	ocl := other.Centerline()
	if geom.DistancePointLine(cl.End, ocl) < geom.DistancePointLine(cl.Start, ocl) {
		return model.EndEnd
	}
	return model.EndStart
}
