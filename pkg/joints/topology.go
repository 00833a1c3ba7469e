package joints

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/model"
)

// Topology classifies how two beam centerlines relate in space.
type Topology int

const (
	TopoUnknown Topology = iota
	TopoI                // end-to-end, collinear
	TopoL                // end-to-end, angled
	TopoT                // end-to-side
	TopoX                // side-to-side crossing
)

func (t Topology) String() string {
	switch t {
	case TopoI:
		return "TOPO_I"
	case TopoL:
		return "TOPO_L"
	case TopoT:
		return "TOPO_T"
	case TopoX:
		return "TOPO_X"
	default:
		return "TOPO_UNKNOWN"
	}
}

// ConnectionSolver detects beam intersections and classifies joint
// topologies. All comparisons use the fixed tolerances in Tol; output is
// deterministic for identical input.
type ConnectionSolver struct {
	Tol Tolerances
}

// NewConnectionSolver returns a solver with the default tolerances.
func NewConnectionSolver() *ConnectionSolver {
	return &ConnectionSolver{Tol: DefaultTolerances()}
}

// ---------------------------------------------------------------------------
// Broad phase
// ---------------------------------------------------------------------------

// beamSpatial adapts a beam's inflated AABB to the R-tree index.
type beamSpatial struct {
	beam *model.Beam
	rect rtreego.Rect
}

func (s *beamSpatial) Bounds() rtreego.Rect { return s.rect }

func beamRect(b *model.Beam, inflate float64) (rtreego.Rect, error) {
	min, max := b.AABB(inflate)
	lengths := []float64{max.X - min.X, max.Y - min.Y, max.Z - min.Z}
	// Degenerate extents (axis-aligned beams) need a nonzero thickness.
	for i := range lengths {
		if lengths[i] <= 0 {
			lengths[i] = 1e-9
		}
	}
	return rtreego.NewRect(rtreego.Point{min.X, min.Y, min.Z}, lengths)
}

// FindCandidatePairs returns unordered pairs of beams whose bounding
// volumes, inflated by inflateBy, overlap. With useIndex an R-tree
// accelerates the search; otherwise all pairs are returned.
func (s *ConnectionSolver) FindCandidatePairs(beams []*model.Beam, inflateBy float64, useIndex bool) [][2]*model.Beam {
	var pairs [][2]*model.Beam
	if !useIndex {
		for i := 0; i < len(beams); i++ {
			for j := i + 1; j < len(beams); j++ {
				pairs = append(pairs, [2]*model.Beam{beams[i], beams[j]})
			}
		}
		return pairs
	}

	tree := rtreego.NewTree(3, 8, 32)
	entries := make([]*beamSpatial, 0, len(beams))
	for _, b := range beams {
		rect, err := beamRect(b, inflateBy)
		if err != nil {
			continue
		}
		e := &beamSpatial{beam: b, rect: rect}
		entries = append(entries, e)
		tree.Insert(e)
	}

	order := make(map[int]int, len(beams))
	for i, b := range beams {
		order[b.Key] = i
	}
	seen := make(map[[2]int]bool)
	for _, e := range entries {
		for _, hit := range tree.SearchIntersect(e.rect) {
			other := hit.(*beamSpatial).beam
			if other == e.beam {
				continue
			}
			a, b := e.beam, other
			if order[a.Key] > order[b.Key] {
				a, b = b, a
			}
			k := [2]int{a.Key, b.Key}
			if seen[k] {
				continue
			}
			seen[k] = true
			pairs = append(pairs, [2]*model.Beam{a, b})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if order[pairs[i][0].Key] != order[pairs[j][0].Key] {
			return order[pairs[i][0].Key] < order[pairs[j][0].Key]
		}
		return order[pairs[i][1].Key] < order[pairs[j][1].Key]
	})
	return pairs
}

// ---------------------------------------------------------------------------
// Topology classification
// ---------------------------------------------------------------------------

// FindTopology classifies the spatial relationship of two beams. For
// role-sensitive topologies (T) the returned beams are ordered main
// first, cross second; otherwise they keep the input order. A
// maxDistance <= 0 means "touching only", gated by the linear tolerance.
func (s *ConnectionSolver) FindTopology(beamA, beamB *model.Beam, maxDistance float64) (Topology, *model.Beam, *model.Beam) {
	tol := s.Tol.Linear
	angTol := s.Tol.Angular

	la := beamA.Centerline()
	lb := beamB.Centerline()
	va := la.Vector()
	vb := lb.Vector()

	ang := geom.Angle(va, vb)
	parallel := ang < angTol || ang > math.Pi-angTol

	if parallel {
		pa := la.Start
		pb := lb.ClosestPoint(la.Start)
		if s.exceedsMaxDistance(pa, pb, maxDistance) {
			return TopoUnknown, nil, nil
		}

		// Exactly one end-to-end match is required, otherwise the beams
		// are ambiguous or disjoint.
		endsA := [2]geom.Vec{la.Start, la.End}
		endsB := [2]geom.Vec{lb.Start, lb.End}
		var matchA, matchB = -1, -1
		matches := 0
		for ia := 0; ia < 2; ia++ {
			for ib := 0; ib < 2; ib++ {
				if !s.exceedsMaxDistance(endsA[ia], endsB[ib], maxDistance) {
					matches++
					matchA, matchB = ia, ib
				}
			}
		}
		if matches != 1 {
			return TopoUnknown, nil, nil
		}

		// Outgoing vectors from the shared point: same direction means
		// the beams overlap.
		outA := endsA[1-matchA].Sub(endsA[matchA])
		outB := endsB[1-matchB].Sub(endsB[matchB])
		if geom.Angle(outA, outB) < angTol {
			return TopoUnknown, nil, nil
		}
		return TopoI, beamA, beamB
	}

	// Skew case: each centerline crosses the plane through the other line
	// with the shared cross-product normal reference.
	vn := va.Cross(vb)
	vna := va.Cross(vn)
	vnb := vb.Cross(vn)

	ta, ok := geom.LinePlaneParameter(la, geom.NewPlane(lb.Start, vnb))
	if !ok {
		return TopoUnknown, nil, nil
	}
	tb, ok := geom.LinePlaneParameter(lb, geom.NewPlane(la.Start, vna))
	if !ok {
		return TopoUnknown, nil, nil
	}

	// Clamp only for the distance gate, not for the reported parameters.
	pa := la.PointAt(math.Max(0, math.Min(1, ta)))
	pb := lb.PointAt(math.Max(0, math.Min(1, tb)))
	if s.exceedsMaxDistance(pa, pb, maxDistance) {
		return TopoUnknown, nil, nil
	}

	gate := math.Max(maxDistance, 0) + tol
	nearA := isNearEnd(ta, la.Length(), gate)
	nearB := isNearEnd(tb, lb.Length(), gate)

	switch {
	case nearA && nearB:
		return TopoL, beamA, beamB
	case nearA:
		// A's end touches along B: A is main, B is cross.
		return TopoT, beamA, beamB
	case nearB:
		return TopoT, beamB, beamA
	default:
		return TopoX, beamA, beamB
	}
}

// FindIntersectionParameters records, for every pair of beams whose
// centerlines intersect within the linear tolerance, the normalized
// parameter along each centerline. Parameters are clamped to [0,1] for
// downstream marking consumers.
func (s *ConnectionSolver) FindIntersectionParameters(beams []*model.Beam) {
	for i := 0; i < len(beams); i++ {
		for j := i + 1; j < len(beams); j++ {
			la := beams[i].Centerline()
			lb := beams[j].Centerline()
			pa, pb, ta, tb, ok := geom.LineLine(la, lb)
			if !ok {
				continue
			}
			if geom.DistancePointPoint(pa, pb) > s.Tol.Linear {
				continue
			}
			beams[i].AddIntersection(clamp01(ta))
			beams[j].AddIntersection(clamp01(tb))
		}
	}
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}

// exceedsMaxDistance gates a point pair against maxDistance, or against
// the linear tolerance when no max distance is set.
func (s *ConnectionSolver) exceedsMaxDistance(pa, pb geom.Vec, maxDistance float64) bool {
	d := geom.DistancePointPoint(pa, pb)
	if maxDistance > 0 {
		return d > maxDistance
	}
	return d > s.Tol.Linear
}

// isNearEnd reports whether parameter t lies within gate of either end of
// a line of the given length.
func isNearEnd(t, length, gate float64) bool {
	return math.Abs(t)*length < gate || math.Abs(1.0-t)*length < gate
}
