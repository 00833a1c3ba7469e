// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max geom.Vec) {
	bb := s.s.BoundingBox()
	return bb.Min, bb.Max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// frameTransform builds the world transform that carries an axis-aligned
// solid at the origin into the given frame: rotate world X onto the frame
// X axis, twist about it to line up Y, then translate to the origin.
func frameTransform(f geom.Frame) sdf.M44 {
	axis1 := geom.XAxis.Cross(f.XAxis)
	var angle1 float64
	if axis1.Length() < geom.Epsilon {
		// Parallel or anti-parallel; any perpendicular axis works.
		axis1 = geom.ZAxis
		if geom.XAxis.Dot(f.XAxis) < 0 {
			angle1 = math.Pi
		}
	} else {
		angle1 = geom.Angle(geom.XAxis, f.XAxis)
		axis1 = axis1.Normalize()
	}
	y1 := geom.RotateAbout(geom.YAxis, axis1, angle1)
	angle2 := geom.SignedAngle(y1, f.YAxis, f.XAxis)

	m := sdf.Translate3d(f.Origin)
	m = m.Mul(sdf.Rotate3d(f.XAxis, angle2))
	m = m.Mul(sdf.Rotate3d(axis1, angle1))
	return m
}

// Box creates a box centered at the frame origin with the given extents
// along the frame axes.
func (k *SdfxKernel) Box(f geom.Frame, dx, dy, dz float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: dx, Y: dy, Z: dz}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	return wrap(sdf.Transform3D(s, frameTransform(f)))
}

// Cylinder creates a cylinder spanning the axis segment. sdf.Cylinder3D
// is centered at the origin along Z, so the solid is carried into a
// frame whose normal is the axis direction.
func (k *SdfxKernel) Cylinder(axis geom.Line, radius float64) kernel.Solid {
	s, err := sdf.Cylinder3D(axis.Length(), radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	f := geom.FrameFromPlane(geom.NewPlane(axis.Midpoint(), axis.Direction()))
	return wrap(sdf.Transform3D(s, frameTransform(f)))
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Cut trims a solid with a plane, keeping the side the normal points to.
func (k *SdfxKernel) Cut(s kernel.Solid, p geom.Plane) kernel.Solid {
	return wrap(sdf.Cut3D(unwrap(s), p.Origin, p.Normal))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(defaultMeshCells)
	triangles := render.ToTriangles(sdf3, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
