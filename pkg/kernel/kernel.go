// Package kernel defines the abstract solid geometry kernel interface
// and the feature application pipeline that turns a beam's blank and its
// attached machining features into a finished solid. Implementations
// (sdfx) provide the boolean operations behind this interface, so
// backends can be swapped without changing the rest of the system.
package kernel

import (
	"github.com/chazu/joinery/pkg/geom"
)

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max geom.Vec)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Box creates a box centered at the frame origin with the given
	// extents along the frame axes.
	Box(frame geom.Frame, dx, dy, dz float64) Solid
	// Cylinder creates a cylinder spanning the axis segment.
	Cylinder(axis geom.Line, radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Cut trims a solid with a plane, keeping the material on the side
	// the plane normal points to.
	Cut(s Solid, p geom.Plane) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
