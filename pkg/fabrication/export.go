package fabrication

import (
	"fmt"

	"github.com/chazu/joinery/pkg/joints"
	"github.com/chazu/joinery/pkg/model"
)

// Factory converts one computed joint into its machining records. The
// joint's AddFeatures must have run; factories read the cached parameter
// records, they never recompute geometry.
type Factory func(j joints.Joint) ([]Record, error)

// Exporter maps joint kinds to record factories. Construct one per
// export run; there is no process-wide registry.
type Exporter struct {
	factories map[string]Factory
}

// NewExporter returns an exporter covering the built-in joint kinds.
func NewExporter() *Exporter {
	e := &Exporter{factories: make(map[string]Factory)}
	e.Register("t_butt", tButtRecords)
	e.Register("l_butt", lButtRecords)
	e.Register("l_miter", lMiterRecords)
	e.Register("french_ridge_lap", frenchRidgeLapRecords)
	return e
}

// Register adds or replaces the factory for a joint kind.
func (e *Exporter) Register(kind string, f Factory) {
	e.factories[kind] = f
}

// Records exports the machining records of a single joint.
func (e *Exporter) Records(j joints.Joint) ([]Record, error) {
	f, ok := e.factories[j.Kind()]
	if !ok {
		return nil, fmt.Errorf("no record factory for joint kind %q", j.Kind())
	}
	return f(j)
}

// ExportAll exports the records of every joint in order, skipping none.
func (e *Exporter) ExportAll(js []joints.Joint) ([]Record, error) {
	var out []Record
	for _, j := range js {
		recs, err := e.Records(j)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func record(j joints.Joint, beam *model.Beam, op string, params any) Record {
	return Record{
		JointKey:  j.Key(),
		JointKind: j.Kind(),
		BeamKey:   beam.Key,
		Operation: op,
		Params:    params,
	}
}

func tButtRecords(j joints.Joint) ([]Record, error) {
	tb, ok := j.(*joints.TButtJoint)
	if !ok {
		return nil, fmt.Errorf("t_butt factory got %T", j)
	}
	var out []Record
	switch {
	case tb.StepMain != nil:
		out = append(out, record(j, tb.Main, OpDoubleCut, roundDoubleCut(*tb.StepMain)))
		if tb.StepCross != nil {
			out = append(out, record(j, tb.Cross, OpStepLap, roundStepLap(*tb.StepCross)))
		}
	case tb.BirdsmouthMain != nil:
		out = append(out, record(j, tb.Main, OpDoubleCut, roundDoubleCut(*tb.BirdsmouthMain)))
	default:
		out = append(out, cutRecords(j, tb.Main)...)
	}
	if tb.PocketCross != nil {
		out = append(out, record(j, tb.Cross, OpPocket, roundPocket(*tb.PocketCross)))
	}
	if tb.DrillCross != nil {
		out = append(out, record(j, tb.Cross, OpDrilling, roundDrill(*tb.DrillCross)))
	}
	return out, nil
}

func lButtRecords(j joints.Joint) ([]Record, error) {
	lb, ok := j.(*joints.LButtJoint)
	if !ok {
		return nil, fmt.Errorf("l_butt factory got %T", j)
	}
	var out []Record
	out = append(out, cutRecords(j, lb.Main)...)
	if lb.ExtendCross {
		out = append(out, cutRecords(j, lb.Cross)...)
	}
	return out, nil
}

func lMiterRecords(j joints.Joint) ([]Record, error) {
	lm, ok := j.(*joints.LMiterJoint)
	if !ok {
		return nil, fmt.Errorf("l_miter factory got %T", j)
	}
	var out []Record
	out = append(out, cutRecords(j, lm.BeamA)...)
	out = append(out, cutRecords(j, lm.BeamB)...)
	return out, nil
}

func frenchRidgeLapRecords(j joints.Joint) ([]Record, error) {
	fr, ok := j.(*joints.FrenchRidgeLapJoint)
	if !ok {
		return nil, fmt.Errorf("french_ridge_lap factory got %T", j)
	}
	var out []Record
	for _, b := range []*model.Beam{fr.Top, fr.Bottom} {
		out = append(out, record(j, b, OpRidgeLap, RidgeLapParams{
			ReferencePlaneID: fr.ReferenceFaceIndices[b.Key],
			DrillDiameter:    round3(fr.DrillDiameter),
		}))
	}
	return out, nil
}

// cutRecords exports the planar trims a joint attached to one beam.
func cutRecords(j joints.Joint, b *model.Beam) []Record {
	var out []Record
	for _, f := range b.FeaturesOf(j.Key()) {
		cut, ok := f.(model.CutFeature)
		if !ok {
			continue
		}
		out = append(out, record(j, b, OpCut, CutParams{
			Origin: roundVec(cut.Plane.Origin),
			Normal: roundVec(cut.Plane.Normal),
		}))
	}
	return out
}
