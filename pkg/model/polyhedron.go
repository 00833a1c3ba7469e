package model

import (
	"fmt"

	"github.com/chazu/joinery/pkg/geom"
)

// Polyhedron is a closed solid given by vertices and planar faces. Faces
// are vertex index loops wound counter-clockwise when seen from outside,
// so face normals point outward.
type Polyhedron struct {
	Vertices []geom.Vec `json:"vertices"`
	Faces    [][]int    `json:"faces"`
}

// PolyhedronFromBox builds a hexahedron centered at the frame origin with
// the given extents along the frame axes.
func PolyhedronFromBox(f geom.Frame, dx, dy, dz float64) Polyhedron {
	hx, hy, hz := dx*0.5, dy*0.5, dz*0.5
	corner := func(sx, sy, sz float64) geom.Vec {
		return f.ToWorld(geom.Vec{X: sx * hx, Y: sy * hy, Z: sz * hz})
	}
	verts := []geom.Vec{
		corner(-1, -1, -1), corner(1, -1, -1), corner(1, 1, -1), corner(-1, 1, -1),
		corner(-1, -1, 1), corner(1, -1, 1), corner(1, 1, 1), corner(-1, 1, 1),
	}
	faces := [][]int{
		{0, 3, 2, 1}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4},
		{1, 2, 6, 5},
		{2, 3, 7, 6},
		{3, 0, 4, 7},
	}
	return Polyhedron{Vertices: verts, Faces: faces}
}

// FacePlane returns the plane of face i, normal following the winding.
func (p Polyhedron) FacePlane(i int) (geom.Plane, error) {
	if i < 0 || i >= len(p.Faces) {
		return geom.Plane{}, fmt.Errorf("face index %d out of range", i)
	}
	face := p.Faces[i]
	if len(face) < 3 {
		return geom.Plane{}, fmt.Errorf("face %d has fewer than 3 vertices", i)
	}
	a := p.Vertices[face[0]]
	b := p.Vertices[face[1]]
	c := p.Vertices[face[2]]
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Length() < geom.Epsilon {
		return geom.Plane{}, fmt.Errorf("face %d is degenerate", i)
	}
	return geom.NewPlane(a, n), nil
}

// Centroid returns the average of all vertices.
func (p Polyhedron) Centroid() geom.Vec {
	var c geom.Vec
	for _, v := range p.Vertices {
		c = c.Add(v)
	}
	return c.MulScalar(1 / float64(len(p.Vertices)))
}

// Translated returns a copy moved by d.
func (p Polyhedron) Translated(d geom.Vec) Polyhedron {
	out := p.clone()
	for i, v := range out.Vertices {
		out.Vertices[i] = v.Add(d)
	}
	return out
}

// ScaledAbout returns a copy uniformly scaled about the given center.
func (p Polyhedron) ScaledAbout(factor float64, center geom.Vec) Polyhedron {
	out := p.clone()
	for i, v := range out.Vertices {
		out.Vertices[i] = center.Add(v.Sub(center).MulScalar(factor))
	}
	return out
}

// RotatedAbout returns a copy rotated about the axis through center.
func (p Polyhedron) RotatedAbout(axis, center geom.Vec, angle float64) Polyhedron {
	out := p.clone()
	for i, v := range out.Vertices {
		out.Vertices[i] = geom.RotatePointAbout(v, axis, center, angle)
	}
	return out
}

func (p Polyhedron) clone() Polyhedron {
	verts := make([]geom.Vec, len(p.Vertices))
	copy(verts, p.Vertices)
	faces := make([][]int, len(p.Faces))
	for i, f := range p.Faces {
		faces[i] = append([]int(nil), f...)
	}
	return Polyhedron{Vertices: verts, Faces: faces}
}
