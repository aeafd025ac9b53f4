package mesh

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
	"github.com/petersancho/armature/pkg/triangulate"
)

// cellKey is a quantized spatial hash cell.
type cellKey struct {
	x, y, z int64
}

func quantize(v *vec3.T, inv float64) cellKey {
	return cellKey{
		int64(math.Floor(v[0] * inv)),
		int64(math.Floor(v[1] * inv)),
		int64(math.Floor(v[2] * inv)),
	}
}

// Weld merges vertices closer than tolerance and drops faces that collapse
// below three distinct vertices. A non-positive tolerance returns an
// unchanged copy. Candidate pairs come from a quantized spatial hash, with
// the 26 surrounding cells checked so near-cell-border pairs are not missed.
func Weld(m *Mesh, tolerance float64) *Mesh {
	if tolerance <= 0 {
		return m.Clone()
	}
	inv := 1 / tolerance

	cells := make(map[cellKey][]int)
	remap := make([]int, len(m.Vertices))
	var kept []vec3.T

	for vi := range m.Vertices {
		v := &m.Vertices[vi]
		key := quantize(v, inv)

		target := -1
	search:
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					nk := cellKey{key.x + dx, key.y + dy, key.z + dz}
					for _, ki := range cells[nk] {
						if vec3.Distance(&kept[ki], v) <= tolerance {
							target = ki
							break search
						}
					}
				}
			}
		}
		if target == -1 {
			target = len(kept)
			kept = append(kept, *v)
			cells[key] = append(cells[key], target)
		}
		remap[vi] = target
	}

	out := &Mesh{Vertices: kept}
	for _, f := range m.Faces {
		nf := remapFace(f, remap)
		if nf != nil {
			out.Faces = append(out.Faces, nf)
		}
	}
	return out
}

// remapFace rewrites a face through the vertex remap and drops it when fewer
// than three distinct vertices remain.
func remapFace(f []int, remap []int) []int {
	nf := make([]int, 0, len(f))
	for _, vi := range f {
		nv := remap[vi]
		if len(nf) > 0 && nf[len(nf)-1] == nv {
			continue
		}
		nf = append(nf, nv)
	}
	for len(nf) > 1 && nf[0] == nf[len(nf)-1] {
		nf = nf[:len(nf)-1]
	}
	if len(nf) < 3 {
		return nil
	}
	seen := make(map[int]bool, len(nf))
	for _, vi := range nf {
		if seen[vi] {
			return nil
		}
		seen[vi] = true
	}
	return nf
}

// Repair welds the mesh and caps every closed boundary loop with
// triangulated patches. Loops whose triangulation fails are left open rather
// than failing the whole repair.
func Repair(m *Mesh, tolerance float64) *Mesh {
	out := Weld(m, tolerance)
	topo := NewTopology(out)

	for _, loop := range topo.BoundaryLoops() {
		if len(loop) < 3 {
			continue
		}
		pts := make([]vec3.T, len(loop))
		for i, vi := range loop {
			pts[i] = out.Vertices[vi]
		}
		tris, err := triangulate.TriangulateLoop(pts, nil)
		if err != nil {
			continue
		}
		for i := 0; i+2 < len(tris); i += 3 {
			out.Faces = append(out.Faces, []int{
				loop[tris[i]], loop[tris[i+1]], loop[tris[i+2]],
			})
		}
	}
	return out
}

// Decimate clusters vertices on a grid of the given cell size, snapping each
// cluster to its centroid, and drops collapsed faces. Cell size at or below
// zero returns an unchanged copy.
func Decimate(m *Mesh, cellSize float64) *Mesh {
	if cellSize <= 0 {
		return m.Clone()
	}
	inv := 1 / cellSize

	clusters := make(map[cellKey]int)
	remap := make([]int, len(m.Vertices))
	var sums []vec3.T
	var counts []int

	for vi := range m.Vertices {
		key := quantize(&m.Vertices[vi], inv)
		ci, ok := clusters[key]
		if !ok {
			ci = len(sums)
			clusters[key] = ci
			sums = append(sums, vec3.T{})
			counts = append(counts, 0)
		}
		sums[ci].Add(&m.Vertices[vi])
		counts[ci]++
		remap[vi] = ci
	}

	out := &Mesh{Vertices: make([]vec3.T, len(sums))}
	for i := range sums {
		sums[i].Scale(1 / float64(counts[i]))
		out.Vertices[i] = sums[i]
	}
	for _, f := range m.Faces {
		nf := remapFace(f, remap)
		if nf != nil {
			out.Faces = append(out.Faces, nf)
		}
	}
	return out
}

// RemeshQuadDominant greedily merges pairs of triangles into quads, best
// candidates first. A pair qualifies when the shared-edge dihedral angle is
// under maxDihedral (radians) and the resulting quad is convex. Non-triangle
// faces pass through untouched.
func RemeshQuadDominant(m *Mesh, maxDihedral float64) *Mesh {
	if maxDihedral <= 0 {
		maxDihedral = 0.35
	}
	topo := NewTopology(m)
	minCos := math.Cos(maxDihedral)

	type candidate struct {
		f0, f1 int
		a, b   int // shared edge
		cos    float64
	}
	var cands []candidate
	for key, faces := range topo.edgeFaces {
		if len(faces) != 2 {
			continue
		}
		f0, f1 := faces[0], faces[1]
		if len(m.Faces[f0]) != 3 || len(m.Faces[f1]) != 3 {
			continue
		}
		n0 := m.FaceNormal(f0)
		n1 := m.FaceNormal(f1)
		cos := vec3.Dot(&n0, &n1)
		if cos < minCos {
			continue
		}
		cands = append(cands, candidate{f0, f1, key.a, key.b, cos})
	}
	// Flattest pairs first.
	for i := 1; i < len(cands); i++ {
		for j := i; j > 0 && cands[j].cos > cands[j-1].cos; j-- {
			cands[j], cands[j-1] = cands[j-1], cands[j]
		}
	}

	used := make([]bool, len(m.Faces))
	out := &Mesh{Vertices: append([]vec3.T(nil), m.Vertices...)}
	for _, c := range cands {
		if used[c.f0] || used[c.f1] {
			continue
		}
		quad := mergeTriangles(m, c.f0, c.f1, c.a, c.b)
		if quad == nil || !quadConvex(m, quad) {
			continue
		}
		used[c.f0] = true
		used[c.f1] = true
		out.Faces = append(out.Faces, quad)
	}
	for fi, f := range m.Faces {
		if !used[fi] {
			out.Faces = append(out.Faces, append([]int(nil), f...))
		}
	}
	return out
}

// mergeTriangles stitches two triangles sharing edge (a, b) into one quad,
// keeping f0's winding.
func mergeTriangles(m *Mesh, f0, f1, a, b int) []int {
	t0 := m.Faces[f0]
	opp1 := -1
	for _, vi := range m.Faces[f1] {
		if vi != a && vi != b {
			opp1 = vi
			break
		}
	}
	if opp1 == -1 {
		return nil
	}
	// Insert f1's opposite vertex into t0's ring between the shared pair.
	for i := 0; i < 3; i++ {
		u, v := t0[i], t0[(i+1)%3]
		if (u == a && v == b) || (u == b && v == a) {
			return []int{t0[i], opp1, t0[(i+1)%3], t0[(i+2)%3]}
		}
	}
	return nil
}

// quadConvex checks planar convexity of a quad by consistent cross-product
// orientation against its Newell normal.
func quadConvex(m *Mesh, quad []int) bool {
	pts := make([]vec3.T, 4)
	for i, vi := range quad {
		pts[i] = m.Vertices[vi]
	}
	n := geom.NewellNormal(pts)
	if n.Length() < geom.Epsilon {
		return false
	}
	for i := 0; i < 4; i++ {
		e1 := vec3.Sub(&pts[(i+1)%4], &pts[i])
		e2 := vec3.Sub(&pts[(i+2)%4], &pts[(i+1)%4])
		c := vec3.Cross(&e1, &e2)
		if vec3.Dot(&c, &n) < 0 {
			return false
		}
	}
	return true
}
