package mesh

import "sort"

// edgeKey identifies an undirected edge by its sorted vertex pair.
type edgeKey struct {
	a, b int
}

func makeEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// Topology is the connectivity of a mesh in CSR form: per-vertex face and
// neighbor lists live in shared flat arrays addressed by offset slices, and
// edges map to the one or two faces sharing them. It is derived once per
// operator invocation and never mutated.
type Topology struct {
	vertexFaceOff []int
	vertexFaces   []int
	vertexNbrOff  []int
	vertexNbrs    []int

	edgeFaces map[edgeKey][]int

	boundaryVertex []bool
}

// NewTopology derives the connectivity of m.
func NewTopology(m *Mesh) *Topology {
	nv := len(m.Vertices)
	t := &Topology{
		vertexFaceOff:  make([]int, nv+1),
		vertexNbrOff:   make([]int, nv+1),
		edgeFaces:      make(map[edgeKey][]int),
		boundaryVertex: make([]bool, nv),
	}

	// Counting pass for the CSR offsets.
	faceCount := make([]int, nv)
	for _, f := range m.Faces {
		for _, vi := range f {
			faceCount[vi]++
		}
	}
	for i := 0; i < nv; i++ {
		t.vertexFaceOff[i+1] = t.vertexFaceOff[i] + faceCount[i]
	}
	t.vertexFaces = make([]int, t.vertexFaceOff[nv])

	cursor := make([]int, nv)
	copy(cursor, t.vertexFaceOff[:nv])
	for fi, f := range m.Faces {
		for _, vi := range f {
			t.vertexFaces[cursor[vi]] = fi
			cursor[vi]++
		}
		for i, vi := range f {
			vj := f[(i+1)%len(f)]
			key := makeEdgeKey(vi, vj)
			t.edgeFaces[key] = append(t.edgeFaces[key], fi)
		}
	}

	// Neighbor lists from the edge map, deduplicated by sort.
	nbrSets := make([][]int, nv)
	for key := range t.edgeFaces {
		nbrSets[key.a] = append(nbrSets[key.a], key.b)
		nbrSets[key.b] = append(nbrSets[key.b], key.a)
	}
	for i := 0; i < nv; i++ {
		sort.Ints(nbrSets[i])
		t.vertexNbrOff[i+1] = t.vertexNbrOff[i] + len(nbrSets[i])
	}
	t.vertexNbrs = make([]int, t.vertexNbrOff[nv])
	for i, nbrs := range nbrSets {
		copy(t.vertexNbrs[t.vertexNbrOff[i]:], nbrs)
	}

	// A vertex is on the boundary when any incident edge has one face.
	for key, faces := range t.edgeFaces {
		if len(faces) == 1 {
			t.boundaryVertex[key.a] = true
			t.boundaryVertex[key.b] = true
		}
	}
	return t
}

// VertexFaces returns the faces incident to vertex vi. The slice aliases
// internal storage and must not be modified.
func (t *Topology) VertexFaces(vi int) []int {
	return t.vertexFaces[t.vertexFaceOff[vi]:t.vertexFaceOff[vi+1]]
}

// VertexNeighbors returns the vertices sharing an edge with vi. The slice
// aliases internal storage and must not be modified.
func (t *Topology) VertexNeighbors(vi int) []int {
	return t.vertexNbrs[t.vertexNbrOff[vi]:t.vertexNbrOff[vi+1]]
}

// EdgeFaces returns the faces sharing the edge (a, b); nil when no such edge
// exists.
func (t *Topology) EdgeFaces(a, b int) []int {
	return t.edgeFaces[makeEdgeKey(a, b)]
}

// IsBoundaryVertex reports whether vi lies on an open boundary.
func (t *Topology) IsBoundaryVertex(vi int) bool {
	return t.boundaryVertex[vi]
}

// IsBoundaryEdge reports whether edge (a, b) has exactly one incident face.
func (t *Topology) IsBoundaryEdge(a, b int) bool {
	return len(t.edgeFaces[makeEdgeKey(a, b)]) == 1
}

// EdgeCount returns the number of distinct undirected edges.
func (t *Topology) EdgeCount() int {
	return len(t.edgeFaces)
}

// BoundaryNeighbors returns the neighbors of vi connected by boundary edges.
func (t *Topology) BoundaryNeighbors(vi int) []int {
	var out []int
	for _, nb := range t.VertexNeighbors(vi) {
		if t.IsBoundaryEdge(vi, nb) {
			out = append(out, nb)
		}
	}
	return out
}

// BoundaryLoops walks the open boundary edges into closed vertex loops.
// Non-manifold junctions terminate a loop early rather than recursing.
func (t *Topology) BoundaryLoops() [][]int {
	visited := make(map[edgeKey]bool)
	var loops [][]int

	for key, faces := range t.edgeFaces {
		if len(faces) != 1 || visited[key] {
			continue
		}

		loop := []int{key.a, key.b}
		visited[key] = true
		cur, prev := key.b, key.a
		for {
			next := -1
			for _, nb := range t.BoundaryNeighbors(cur) {
				if nb == prev {
					continue
				}
				if !visited[makeEdgeKey(cur, nb)] {
					next = nb
					break
				}
			}
			if next == -1 {
				break
			}
			visited[makeEdgeKey(cur, next)] = true
			if next == loop[0] {
				break // closed
			}
			loop = append(loop, next)
			prev, cur = cur, next
		}
		loops = append(loops, loop)
	}
	return loops
}
