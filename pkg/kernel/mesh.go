package kernel

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is a local-space triangle mesh.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
// A mesh without indices is read as consecutive vertex triples.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // part the mesh was built for
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	if len(m.Indices) == 0 {
		return m.VertexCount() / 3
	}
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return m == nil || m.TriangleCount() == 0
}

// Position returns vertex i widened to float64.
func (m *Mesh) Position(i int) v3.Vec {
	return v3.Vec{
		X: float64(m.Vertices[3*i]),
		Y: float64(m.Vertices[3*i+1]),
		Z: float64(m.Vertices[3*i+2]),
	}
}

// Triangle returns the corners of triangle i. The second result is false
// when an index points outside the vertex array.
func (m *Mesh) Triangle(i int) ([3]v3.Vec, bool) {
	var tri [3]v3.Vec
	n := m.VertexCount()
	for j := 0; j < 3; j++ {
		vi := 3*i + j
		if len(m.Indices) > 0 {
			vi = int(m.Indices[3*i+j])
		}
		if vi >= n {
			return tri, false
		}
		tri[j] = m.Position(vi)
	}
	return tri, true
}

// Bounds returns the axis-aligned bounding box of all vertices.
// An empty mesh has a zero box.
func (m *Mesh) Bounds() sdf.Box3 {
	n := m.VertexCount()
	if n == 0 {
		return sdf.Box3{}
	}
	first := m.Position(0)
	bb := sdf.Box3{Min: first, Max: first}
	for i := 1; i < n; i++ {
		p := m.Position(i)
		bb.Min = bb.Min.Min(p)
		bb.Max = bb.Max.Max(p)
	}
	return bb
}

// boxFaces lists each box face as four unit-cube corners in
// counter-clockwise order seen from outside, plus the outward normal.
var boxFaces = [6]struct {
	corners [4]v3.Vec
	normal  v3.Vec
}{
	{[4]v3.Vec{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 1}, {X: 0, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 0}}, v3.Vec{X: -1}},
	{[4]v3.Vec{{X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 0, Z: 1}}, v3.Vec{X: 1}},
	{[4]v3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1}}, v3.Vec{Y: -1}},
	{[4]v3.Vec{{X: 0, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 0}}, v3.Vec{Y: 1}},
	{[4]v3.Vec{{X: 0, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 1, Y: 0, Z: 0}}, v3.Vec{Z: -1}},
	{[4]v3.Vec{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1}}, v3.Vec{Z: 1}},
}

// BoxMesh returns an exact flat-shaded box of the given size with its
// minimum corner at the origin, matching the placement convention of the
// kernel's Box. Each face is two triangles over four unshared vertices.
func BoxMesh(size v3.Vec) *Mesh {
	m := &Mesh{
		Vertices: make([]float32, 0, 6*4*3),
		Normals:  make([]float32, 0, 6*4*3),
		Indices:  make([]uint32, 0, 6*6),
	}
	for _, f := range boxFaces {
		base := uint32(m.VertexCount())
		for _, c := range f.corners {
			m.Vertices = append(m.Vertices,
				float32(c.X*size.X), float32(c.Y*size.Y), float32(c.Z*size.Z))
			m.Normals = append(m.Normals,
				float32(f.normal.X), float32(f.normal.Y), float32(f.normal.Z))
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// QuadMesh returns a single open rectangle in the XY plane spanning
// [0,w]x[0,h] at z=0, facing +Z. All four of its edges are boundaries.
func QuadMesh(w, h float64) *Mesh {
	fw, fh := float32(w), float32(h)
	return &Mesh{
		Vertices: []float32{0, 0, 0, fw, 0, 0, fw, fh, 0, 0, fh, 0},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
}
