package model

import "github.com/chazu/joinery/pkg/geom"

// Feature is a typed geometric modification request attached to a beam.
// Features are applied by an external solid-modeling consumer; the joint
// engine only computes them.
type Feature interface {
	feature() // marker method restricting implementations to this package
}

// CutFeature trims a beam with a plane. The plane normal points into the
// material to remove.
type CutFeature struct {
	Plane geom.Plane `json:"plane"`
}

func (CutFeature) feature() {}

// MillVolume subtracts a milled pocket volume from a beam.
type MillVolume struct {
	Volume Polyhedron `json:"volume"`
}

func (MillVolume) feature() {}

// SolidSubtraction subtracts an arbitrary closed solid from a beam, used
// for birdsmouth notches and step-joint splice volumes.
type SolidSubtraction struct {
	Volume Polyhedron `json:"volume"`
}

func (SolidSubtraction) feature() {}

// DrillFeature bores a cylindrical hole along the given axis line. Length
// is the effective drill travel; the line carries the visualization span.
type DrillFeature struct {
	Line     geom.Line `json:"line"`
	Diameter float64   `json:"diameter"`
	Length   float64   `json:"length"`
}

func (DrillFeature) feature() {}
