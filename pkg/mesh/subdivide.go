package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// SubdivideScheme selects the refinement rule.
type SubdivideScheme int

const (
	// SchemeLinear splits faces without moving any vertex.
	SchemeLinear SubdivideScheme = iota
	// SchemeCatmullClark produces a quad mesh with the Catmull-Clark
	// smoothing rules.
	SchemeCatmullClark
	// SchemeLoop splits triangles 1-to-4 with the Loop smoothing rules.
	// The input must be all triangles.
	SchemeLoop
)

// SubdivideOptions controls a subdivision pass.
type SubdivideOptions struct {
	Scheme SubdivideScheme
	// Levels is the number of refinement passes; values below 1 are
	// treated as 1.
	Levels int
	// PreserveBoundary pins boundary vertices instead of applying the
	// boundary smoothing masks.
	PreserveBoundary bool
}

// Subdivide refines the mesh by the selected scheme.
func Subdivide(m *Mesh, opts SubdivideOptions) (*Mesh, error) {
	levels := opts.Levels
	if levels < 1 {
		levels = 1
	}
	out := m
	for i := 0; i < levels; i++ {
		var err error
		switch opts.Scheme {
		case SchemeLinear:
			out = subdivideFaceSplit(out, false, opts.PreserveBoundary)
		case SchemeCatmullClark:
			out = subdivideFaceSplit(out, true, opts.PreserveBoundary)
		case SchemeLoop:
			out, err = subdivideLoop(out, opts.PreserveBoundary)
		default:
			err = fmt.Errorf("mesh: unknown subdivision scheme %d", opts.Scheme)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// subdivideFaceSplit implements the shared face-split structure of linear and
// Catmull-Clark subdivision: each n-gon becomes n quads around a face point.
// With smooth set, vertex positions follow the Catmull-Clark masks.
func subdivideFaceSplit(m *Mesh, smooth, preserveBoundary bool) *Mesh {
	topo := NewTopology(m)
	nv := len(m.Vertices)

	// Face points.
	facePoints := make([]vec3.T, len(m.Faces))
	for fi := range m.Faces {
		facePoints[fi] = m.FaceCentroid(fi)
	}

	// Edge points.
	edgePoints := make(map[edgeKey]vec3.T, topo.EdgeCount())
	for key, faces := range topo.edgeFaces {
		mid := vec3.Interpolate(&m.Vertices[key.a], &m.Vertices[key.b], 0.5)
		if smooth && len(faces) == 2 {
			// Interior edge point: average of edge midpoint and the two
			// adjacent face points.
			sum := vec3.Add(&m.Vertices[key.a], &m.Vertices[key.b])
			sum.Add(&facePoints[faces[0]])
			sum.Add(&facePoints[faces[1]])
			sum.Scale(0.25)
			mid = sum
		}
		edgePoints[key] = mid
	}

	// Vertex points.
	vertexPoints := make([]vec3.T, nv)
	for vi := 0; vi < nv; vi++ {
		v := m.Vertices[vi]
		if !smooth {
			vertexPoints[vi] = v
			continue
		}
		if topo.IsBoundaryVertex(vi) {
			if preserveBoundary {
				vertexPoints[vi] = v
				continue
			}
			// Crease mask: 3/4 the vertex plus 1/8 each boundary neighbor.
			bn := topo.BoundaryNeighbors(vi)
			if len(bn) != 2 {
				vertexPoints[vi] = v
				continue
			}
			p := v.Scaled(0.75)
			n1 := m.Vertices[bn[0]].Scaled(0.125)
			n2 := m.Vertices[bn[1]].Scaled(0.125)
			p.Add(&n1)
			p.Add(&n2)
			vertexPoints[vi] = p
			continue
		}

		// Interior mask: (F + 2E + (n-3)V) / n.
		incident := topo.VertexFaces(vi)
		n := float64(len(incident))
		if n < 3 {
			vertexPoints[vi] = v
			continue
		}
		var favg vec3.T
		for _, fi := range incident {
			favg.Add(&facePoints[fi])
		}
		favg.Scale(1 / n)

		var eavg vec3.T
		nbrs := topo.VertexNeighbors(vi)
		for _, nb := range nbrs {
			mid := vec3.Interpolate(&v, &m.Vertices[nb], 0.5)
			eavg.Add(&mid)
		}
		eavg.Scale(1 / float64(len(nbrs)))

		p := favg
		e2 := eavg.Scaled(2)
		p.Add(&e2)
		vs := v.Scaled(n - 3)
		p.Add(&vs)
		p.Scale(1 / n)
		vertexPoints[vi] = p
	}

	// Assemble: original vertices, then face points, then edge points.
	out := &Mesh{Vertices: make([]vec3.T, 0, nv+len(m.Faces)+topo.EdgeCount())}
	out.Vertices = append(out.Vertices, vertexPoints...)

	faceIdx := make([]int, len(m.Faces))
	for fi := range m.Faces {
		faceIdx[fi] = len(out.Vertices)
		out.Vertices = append(out.Vertices, facePoints[fi])
	}
	edgeIdx := make(map[edgeKey]int, len(edgePoints))
	for key, p := range edgePoints {
		edgeIdx[key] = len(out.Vertices)
		out.Vertices = append(out.Vertices, p)
	}

	for fi, f := range m.Faces {
		n := len(f)
		for i := 0; i < n; i++ {
			prev := f[(i-1+n)%n]
			cur := f[i]
			next := f[(i+1)%n]
			out.Faces = append(out.Faces, []int{
				cur,
				edgeIdx[makeEdgeKey(cur, next)],
				faceIdx[fi],
				edgeIdx[makeEdgeKey(prev, cur)],
			})
		}
	}
	return out
}

// subdivideLoop implements Loop subdivision on a triangle mesh.
func subdivideLoop(m *Mesh, preserveBoundary bool) (*Mesh, error) {
	for fi, f := range m.Faces {
		if len(f) != 3 {
			return nil, fmt.Errorf("mesh: loop subdivision requires triangles, face %d has %d vertices", fi, len(f))
		}
	}
	topo := NewTopology(m)
	nv := len(m.Vertices)

	// Odd (edge) vertices.
	edgePoints := make(map[edgeKey]vec3.T, topo.EdgeCount())
	for key, faces := range topo.edgeFaces {
		if len(faces) == 2 {
			// 3/8 the edge ends, 1/8 the opposite vertices.
			a := m.Vertices[key.a].Scaled(0.375)
			b := m.Vertices[key.b].Scaled(0.375)
			a.Add(&b)
			for _, fi := range faces {
				for _, vi := range m.Faces[fi] {
					if vi != key.a && vi != key.b {
						opp := m.Vertices[vi].Scaled(0.125)
						a.Add(&opp)
					}
				}
			}
			edgePoints[key] = a
		} else {
			edgePoints[key] = vec3.Interpolate(&m.Vertices[key.a], &m.Vertices[key.b], 0.5)
		}
	}

	// Even (original) vertices.
	vertexPoints := make([]vec3.T, nv)
	for vi := 0; vi < nv; vi++ {
		v := m.Vertices[vi]
		if topo.IsBoundaryVertex(vi) {
			if preserveBoundary {
				vertexPoints[vi] = v
				continue
			}
			bn := topo.BoundaryNeighbors(vi)
			if len(bn) != 2 {
				vertexPoints[vi] = v
				continue
			}
			p := v.Scaled(0.75)
			n1 := m.Vertices[bn[0]].Scaled(0.125)
			n2 := m.Vertices[bn[1]].Scaled(0.125)
			p.Add(&n1)
			p.Add(&n2)
			vertexPoints[vi] = p
			continue
		}

		nbrs := topo.VertexNeighbors(vi)
		n := len(nbrs)
		if n < 3 {
			vertexPoints[vi] = v
			continue
		}
		beta := 3.0 / (8 * float64(n))
		if n == 3 {
			beta = 3.0 / 16
		}
		p := v.Scaled(1 - float64(n)*beta)
		for _, nb := range nbrs {
			nc := m.Vertices[nb].Scaled(beta)
			p.Add(&nc)
		}
		vertexPoints[vi] = p
	}

	out := &Mesh{Vertices: append([]vec3.T(nil), vertexPoints...)}
	edgeIdx := make(map[edgeKey]int, len(edgePoints))
	for key, p := range edgePoints {
		edgeIdx[key] = len(out.Vertices)
		out.Vertices = append(out.Vertices, p)
	}

	for _, f := range m.Faces {
		e01 := edgeIdx[makeEdgeKey(f[0], f[1])]
		e12 := edgeIdx[makeEdgeKey(f[1], f[2])]
		e20 := edgeIdx[makeEdgeKey(f[2], f[0])]
		out.Faces = append(out.Faces,
			[]int{f[0], e01, e20},
			[]int{f[1], e12, e01},
			[]int{f[2], e20, e12},
			[]int{e01, e12, e20},
		)
	}
	return out, nil
}

// AdaptiveOptions controls selective refinement.
type AdaptiveOptions struct {
	// MaxEdgeLength flags edges longer than this. Zero disables the
	// criterion.
	MaxEdgeLength float64
	// MaxDihedral flags edges whose incident faces meet at a dihedral angle
	// (radians) above this. Zero disables the criterion.
	MaxDihedral float64
	// Faces flags every edge of the listed face indices.
	Faces []int
}

// SubdivideAdaptive inserts midpoints on the flagged edges only and re-fans
// each triangle over whichever of its edges were split. Original vertex
// positions are never moved, and no face points are added, so the result
// stays conforming with any unrefined neighborhood. The mesh must be all
// triangles.
func SubdivideAdaptive(m *Mesh, opts AdaptiveOptions) (*Mesh, error) {
	if opts.MaxEdgeLength == 0 && opts.MaxDihedral == 0 && len(opts.Faces) == 0 {
		return nil, errors.New("mesh: adaptive subdivision needs at least one criterion")
	}
	for fi, f := range m.Faces {
		if len(f) != 3 {
			return nil, fmt.Errorf("mesh: adaptive subdivision requires triangles, face %d has %d vertices", fi, len(f))
		}
	}
	topo := NewTopology(m)

	flagged := make(map[edgeKey]bool)
	for _, fi := range opts.Faces {
		if fi < 0 || fi >= len(m.Faces) {
			continue
		}
		f := m.Faces[fi]
		for i := range f {
			flagged[makeEdgeKey(f[i], f[(i+1)%len(f)])] = true
		}
	}
	for key, faces := range topo.edgeFaces {
		if flagged[key] {
			continue
		}
		if opts.MaxEdgeLength > 0 &&
			vec3.Distance(&m.Vertices[key.a], &m.Vertices[key.b]) > opts.MaxEdgeLength {
			flagged[key] = true
			continue
		}
		if opts.MaxDihedral > 0 && len(faces) == 2 {
			n0 := m.FaceNormal(faces[0])
			n1 := m.FaceNormal(faces[1])
			if vec3.Dot(&n0, &n1) < math.Cos(opts.MaxDihedral) {
				flagged[key] = true
			}
		}
	}

	out := &Mesh{Vertices: append([]vec3.T(nil), m.Vertices...)}
	edgeMid := make(map[edgeKey]int, len(flagged))
	for key := range flagged {
		p := vec3.Interpolate(&m.Vertices[key.a], &m.Vertices[key.b], 0.5)
		edgeMid[key] = len(out.Vertices)
		out.Vertices = append(out.Vertices, p)
	}

	for _, f := range m.Faces {
		// Walk the triangle boundary, inserting the midpoint of each split
		// edge, then fan from the first midpoint. One split edge yields 2
		// triangles, two yield 3, all three yield 4.
		ring := make([]int, 0, 6)
		first := -1
		for i := 0; i < 3; i++ {
			cur := f[i]
			next := f[(i+1)%3]
			ring = append(ring, cur)
			if idx, ok := edgeMid[makeEdgeKey(cur, next)]; ok {
				if first < 0 {
					first = len(ring)
				}
				ring = append(ring, idx)
			}
		}
		if first < 0 {
			out.Faces = append(out.Faces, append([]int(nil), f...))
			continue
		}
		n := len(ring)
		for i := 1; i < n-1; i++ {
			out.Faces = append(out.Faces, []int{
				ring[first], ring[(first+i)%n], ring[(first+i+1)%n],
			})
		}
	}
	return out, nil
}
