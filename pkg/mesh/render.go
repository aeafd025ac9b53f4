package mesh

import (
	"fmt"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/nurbs"
)

// RenderMesh is a triangle mesh suitable for rendering.
// All arrays are flat: positions has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, uvs has 2 floats per vertex,
// indices has 3 uint32s per triangle.
type RenderMesh struct {
	Positions []float32  `json:"positions"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals   []float32  `json:"normals"`   // [nx0,ny0,nz0, ...]
	UVs       []float32  `json:"uvs"`       // [u0,v0, u1,v1, ...]
	Indices   []uint32   `json:"indices"`   // [i0,i1,i2, ...] triangles
	Color     [3]float32 `json:"color"`
	PartName  string     `json:"partName"` // which design graph part this came from
}

// VertexCount returns the number of vertices.
func (r *RenderMesh) VertexCount() int {
	return len(r.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (r *RenderMesh) TriangleCount() int {
	return len(r.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (r *RenderMesh) IsEmpty() bool {
	return len(r.Positions) == 0
}

// ToRenderMesh triangulates the mesh and flattens it to float32 arrays.
// Vertex order and triangle winding are preserved, so index i in the render
// mesh corresponds to vertex i of the triangulated mesh.
func (m *Mesh) ToRenderMesh() *RenderMesh {
	tri := m.Triangulated()
	normals := tri.VertexNormals()

	r := &RenderMesh{
		Positions: make([]float32, 0, len(tri.Vertices)*3),
		Normals:   make([]float32, 0, len(tri.Vertices)*3),
		Indices:   make([]uint32, 0, len(tri.Faces)*3),
	}
	for i, v := range tri.Vertices {
		r.Positions = append(r.Positions, float32(v[0]), float32(v[1]), float32(v[2]))
		n := normals[i]
		r.Normals = append(r.Normals, float32(n[0]), float32(n[1]), float32(n[2]))
	}
	if tri.UVs != nil {
		r.UVs = make([]float32, 0, len(tri.UVs)*2)
		for _, uv := range tri.UVs {
			r.UVs = append(r.UVs, float32(uv[0]), float32(uv[1]))
		}
	}
	for _, f := range tri.Faces {
		r.Indices = append(r.Indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}
	return r
}

// FromRenderMesh lifts a render mesh back to the indexed working
// representation. Indices must come in triples.
func FromRenderMesh(r *RenderMesh) (*Mesh, error) {
	if len(r.Positions)%3 != 0 {
		return nil, fmt.Errorf("mesh: render positions length %d not divisible by 3", len(r.Positions))
	}
	if len(r.Indices)%3 != 0 {
		return nil, fmt.Errorf("mesh: render indices length %d not divisible by 3", len(r.Indices))
	}

	m := &Mesh{
		Vertices: make([]vec3.T, len(r.Positions)/3),
		Faces:    make([][]int, 0, len(r.Indices)/3),
	}
	for i := range m.Vertices {
		m.Vertices[i] = vec3.T{
			float64(r.Positions[i*3]),
			float64(r.Positions[i*3+1]),
			float64(r.Positions[i*3+2]),
		}
	}
	if len(r.UVs) == len(m.Vertices)*2 {
		m.UVs = make([]nurbs.UV, len(m.Vertices))
		for i := range m.UVs {
			m.UVs[i] = nurbs.UV{float64(r.UVs[i*2]), float64(r.UVs[i*2+1])}
		}
	}
	for i := 0; i+2 < len(r.Indices); i += 3 {
		f := []int{int(r.Indices[i]), int(r.Indices[i+1]), int(r.Indices[i+2])}
		for _, vi := range f {
			if vi >= len(m.Vertices) {
				return nil, fmt.Errorf("mesh: render index %d out of range", vi)
			}
		}
		m.Faces = append(m.Faces, f)
	}
	return m, nil
}
