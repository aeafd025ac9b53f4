package mesh

import (
	"errors"
	"sort"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
)

// Dual builds the dual mesh: one vertex per face at its centroid, one face
// per interior vertex connecting the centroids of its incident faces, ordered
// by angle in the vertex tangent plane so the ring winds consistently.
func Dual(m *Mesh) (*Mesh, error) {
	if len(m.Faces) == 0 {
		return nil, errors.New("mesh: dual of an empty mesh")
	}
	topo := NewTopology(m)
	normals := m.VertexNormals()

	out := &Mesh{Vertices: make([]vec3.T, len(m.Faces))}
	for fi := range m.Faces {
		out.Vertices[fi] = m.FaceCentroid(fi)
	}

	for vi := range m.Vertices {
		if topo.IsBoundaryVertex(vi) {
			continue // boundary vertices have open fans, no dual face
		}
		incident := topo.VertexFaces(vi)
		if len(incident) < 3 {
			continue
		}

		// Order the incident face centroids by angle around the vertex
		// normal.
		n := normals[vi]
		if n.Length() < geom.Epsilon {
			continue
		}
		ref := vec3.Sub(&out.Vertices[incident[0]], &m.Vertices[vi])

		type entry struct {
			fi    int
			angle float64
		}
		entries := make([]entry, 0, len(incident))
		for _, fi := range incident {
			d := vec3.Sub(&out.Vertices[fi], &m.Vertices[vi])
			entries = append(entries, entry{fi, geom.PositiveAngle(&ref, &d, &n)})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].angle < entries[j].angle })

		face := make([]int, len(entries))
		for i, e := range entries {
			face[i] = e.fi
		}
		out.Faces = append(out.Faces, face)
	}

	if len(out.Faces) == 0 {
		return nil, errors.New("mesh: dual produced no faces")
	}
	return out, nil
}

// InsetFaces shrinks each listed face toward its centroid by the given
// fraction in (0, 1), connecting old and new rings with quads. An empty face
// list insets every face.
func InsetFaces(m *Mesh, faces []int, fraction float64) (*Mesh, error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, errors.New("mesh: inset fraction must be in (0, 1)")
	}
	selected := selectFaces(m, faces)

	out := m.Clone()
	out.Faces = out.Faces[:0]
	for fi, f := range m.Faces {
		if !selected[fi] {
			out.Faces = append(out.Faces, append([]int(nil), f...))
			continue
		}
		c := m.FaceCentroid(fi)
		inner := make([]int, len(f))
		for i, vi := range f {
			p := vec3.Interpolate(&m.Vertices[vi], &c, fraction)
			inner[i] = len(out.Vertices)
			out.Vertices = append(out.Vertices, p)
		}
		for i := range f {
			j := (i + 1) % len(f)
			out.Faces = append(out.Faces, []int{f[i], f[j], inner[j], inner[i]})
		}
		out.Faces = append(out.Faces, inner)
	}
	return out, nil
}

// ExtrudeFaces moves each listed face along its normal by distance,
// connecting old and new rings with wall quads. An empty face list extrudes
// every face. Negative distances extrude inward.
func ExtrudeFaces(m *Mesh, faces []int, distance float64) (*Mesh, error) {
	if geom.IsZero(distance) {
		return nil, errors.New("mesh: extrude distance must be non-zero")
	}
	selected := selectFaces(m, faces)

	out := m.Clone()
	out.Faces = out.Faces[:0]
	for fi, f := range m.Faces {
		if !selected[fi] {
			out.Faces = append(out.Faces, append([]int(nil), f...))
			continue
		}
		n := m.FaceNormal(fi)
		offset := n.Scaled(distance)

		top := make([]int, len(f))
		for i, vi := range f {
			p := vec3.Add(&m.Vertices[vi], &offset)
			top[i] = len(out.Vertices)
			out.Vertices = append(out.Vertices, p)
		}
		for i := range f {
			j := (i + 1) % len(f)
			out.Faces = append(out.Faces, []int{f[i], f[j], top[j], top[i]})
		}
		out.Faces = append(out.Faces, top)
	}
	return out, nil
}

// Relax moves every vertex toward the average of its neighbors by strength in
// [0, 1], iterations times. With preserveBoundary set, boundary vertices stay
// pinned so open meshes keep their silhouette. Strength zero returns the mesh
// unchanged.
func Relax(m *Mesh, strength float64, iterations int, preserveBoundary bool) *Mesh {
	if strength <= 0 || iterations < 1 {
		return m.Clone()
	}
	if strength > 1 {
		strength = 1
	}
	topo := NewTopology(m)

	out := m.Clone()
	for it := 0; it < iterations; it++ {
		next := make([]vec3.T, len(out.Vertices))
		for vi := range out.Vertices {
			nbrs := topo.VertexNeighbors(vi)
			if (preserveBoundary && topo.IsBoundaryVertex(vi)) || len(nbrs) == 0 {
				next[vi] = out.Vertices[vi]
				continue
			}
			var avg vec3.T
			for _, nb := range nbrs {
				avg.Add(&out.Vertices[nb])
			}
			avg.Scale(1 / float64(len(nbrs)))
			next[vi] = vec3.Interpolate(&out.Vertices[vi], &avg, strength)
		}
		out.Vertices = next
	}
	return out
}

// selectFaces returns the marked-face set; an empty list marks all faces.
func selectFaces(m *Mesh, faces []int) []bool {
	selected := make([]bool, len(m.Faces))
	if len(faces) == 0 {
		for i := range selected {
			selected[i] = true
		}
		return selected
	}
	for _, fi := range faces {
		if fi >= 0 && fi < len(m.Faces) {
			selected[fi] = true
		}
	}
	return selected
}
