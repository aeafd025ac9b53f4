// Package mesh holds the polygon mesh types and the topology operators on
// them: subdivision, dual, inset/extrude, relax, weld, repair, decimate, and
// quad-dominant remesh. The working representation keeps faces as vertex
// index rings; a flat float32 RenderMesh is produced for display.
package mesh

import (
	"fmt"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
	"github.com/petersancho/armature/pkg/nurbs"
)

// Mesh is an indexed polygon mesh. Faces hold counter-clockwise vertex index
// rings of length 3 or more; UVs is optional and parallel to Vertices when
// present.
type Mesh struct {
	Vertices []vec3.T
	Faces    [][]int
	UVs      []nurbs.UV
}

// New validates faces against the vertex count and builds a mesh. Faces with
// fewer than three vertices or out-of-range indices are rejected.
func New(vertices []vec3.T, faces [][]int) (*Mesh, error) {
	for fi, f := range faces {
		if len(f) < 3 {
			return nil, fmt.Errorf("mesh: face %d has %d vertices, need at least 3", fi, len(f))
		}
		for _, vi := range f {
			if vi < 0 || vi >= len(vertices) {
				return nil, fmt.Errorf("mesh: face %d references vertex %d of %d", fi, vi, len(vertices))
			}
		}
	}
	return &Mesh{Vertices: vertices, Faces: faces}, nil
}

// Clone deep-copies the mesh.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices: make([]vec3.T, len(m.Vertices)),
		Faces:    make([][]int, len(m.Faces)),
	}
	copy(c.Vertices, m.Vertices)
	for i, f := range m.Faces {
		c.Faces[i] = append([]int(nil), f...)
	}
	if m.UVs != nil {
		c.UVs = append([]nurbs.UV(nil), m.UVs...)
	}
	return c
}

// FaceCentroid returns the average of a face's vertices.
func (m *Mesh) FaceCentroid(fi int) vec3.T {
	var c vec3.T
	f := m.Faces[fi]
	for _, vi := range f {
		c.Add(&m.Vertices[vi])
	}
	c.Scale(1 / float64(len(f)))
	return c
}

// FaceNormal returns the unit Newell normal of a face; zero for degenerate
// faces.
func (m *Mesh) FaceNormal(fi int) vec3.T {
	f := m.Faces[fi]
	pts := make([]vec3.T, len(f))
	for i, vi := range f {
		pts[i] = m.Vertices[vi]
	}
	n := geom.NewellNormal(pts)
	if n.Length() < geom.Epsilon {
		return vec3.T{}
	}
	n.Normalize()
	return n
}

// FaceArea returns the area of a face via the Newell normal magnitude.
func (m *Mesh) FaceArea(fi int) float64 {
	f := m.Faces[fi]
	pts := make([]vec3.T, len(f))
	for i, vi := range f {
		pts[i] = m.Vertices[vi]
	}
	n := geom.NewellNormal(pts)
	return n.Length() / 2
}

// Triangulated returns a triangle-only copy: triangles pass through, quads
// split along the shorter diagonal, larger faces fan from their centroid.
func (m *Mesh) Triangulated() *Mesh {
	out := &Mesh{Vertices: append([]vec3.T(nil), m.Vertices...)}
	if m.UVs != nil {
		out.UVs = append([]nurbs.UV(nil), m.UVs...)
	}
	for fi, f := range m.Faces {
		switch len(f) {
		case 3:
			out.Faces = append(out.Faces, append([]int(nil), f...))
		case 4:
			d02 := vec3.SquareDistance(&m.Vertices[f[0]], &m.Vertices[f[2]])
			d13 := vec3.SquareDistance(&m.Vertices[f[1]], &m.Vertices[f[3]])
			if d02 <= d13 {
				out.Faces = append(out.Faces, []int{f[0], f[1], f[2]}, []int{f[0], f[2], f[3]})
			} else {
				out.Faces = append(out.Faces, []int{f[0], f[1], f[3]}, []int{f[1], f[2], f[3]})
			}
		default:
			c := m.FaceCentroid(fi)
			ci := len(out.Vertices)
			out.Vertices = append(out.Vertices, c)
			if out.UVs != nil {
				var uv nurbs.UV
				for _, vi := range f {
					uv[0] += m.UVs[vi][0]
					uv[1] += m.UVs[vi][1]
				}
				uv[0] /= float64(len(f))
				uv[1] /= float64(len(f))
				out.UVs = append(out.UVs, uv)
			}
			for i := range f {
				out.Faces = append(out.Faces, []int{ci, f[i], f[(i+1)%len(f)]})
			}
		}
	}
	return out
}

// VertexNormals returns area-weighted per-vertex normals.
func (m *Mesh) VertexNormals() []vec3.T {
	normals := make([]vec3.T, len(m.Vertices))
	for fi, f := range m.Faces {
		n := m.FaceNormal(fi)
		w := m.FaceArea(fi)
		n.Scale(w)
		for _, vi := range f {
			normals[vi].Add(&n)
		}
	}
	for i := range normals {
		if normals[i].Length() > geom.Epsilon {
			normals[i].Normalize()
		}
	}
	return normals
}
