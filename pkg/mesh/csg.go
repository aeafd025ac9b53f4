package mesh

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// Boolean operations on meshes are not implemented yet. Robust mesh CSG
// needs exact intersection predicates and face re-stitching; until that
// lands, Difference returns the base mesh untouched and Intersection returns
// a bounding-box overlap proxy. Callers that need true booleans should model
// with profile-level 2D booleans before extrusion instead.

// Difference returns base unchanged, ignoring the subtrahends. It exists so
// graph modifiers referencing a boolean difference keep producing geometry.
func Difference(base *Mesh, _ ...*Mesh) *Mesh {
	return base.Clone()
}

// Intersection approximates mesh intersection by clipping copies of the
// inputs to their common axis-aligned bounding box: faces with any vertex
// outside the shared box are dropped. The result is a proxy, not a true
// intersection.
func Intersection(meshes ...*Mesh) *Mesh {
	if len(meshes) == 0 {
		return &Mesh{}
	}
	min, max := bounds(meshes[0])
	for _, m := range meshes[1:] {
		lo, hi := bounds(m)
		for i := 0; i < 3; i++ {
			min[i] = math.Max(min[i], lo[i])
			max[i] = math.Min(max[i], hi[i])
		}
	}

	out := &Mesh{}
	for _, m := range meshes {
		remap := make(map[int]int)
		for _, f := range m.Faces {
			inside := true
			for _, vi := range f {
				if !inBox(&m.Vertices[vi], &min, &max) {
					inside = false
					break
				}
			}
			if !inside {
				continue
			}
			nf := make([]int, len(f))
			for i, vi := range f {
				ni, ok := remap[vi]
				if !ok {
					ni = len(out.Vertices)
					out.Vertices = append(out.Vertices, m.Vertices[vi])
					remap[vi] = ni
				}
				nf[i] = ni
			}
			out.Faces = append(out.Faces, nf)
		}
	}
	return out
}

func bounds(m *Mesh) (min, max vec3.T) {
	if len(m.Vertices) == 0 {
		return
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			min[i] = math.Min(min[i], v[i])
			max[i] = math.Max(max[i], v[i])
		}
	}
	return
}

func inBox(v, min, max *vec3.T) bool {
	for i := 0; i < 3; i++ {
		if v[i] < min[i] || v[i] > max[i] {
			return false
		}
	}
	return true
}
