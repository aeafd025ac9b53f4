// Package triangulate turns planar polygons with holes into triangles by ear
// clipping. Vertices live in a flat arena and link to each other by integer
// index, and polygons beyond a size threshold get a Morton-order spatial
// index so ear tests stay local.
package triangulate

import (
	"errors"
	"math"
	"sort"
)

// ErrDegeneratePolygon is returned when the outline has fewer than three
// usable vertices or zero area.
var ErrDegeneratePolygon = errors.New("triangulate: degenerate polygon")

// zOrderThreshold is the vertex count above which the Morton-code index is
// built. Below it a linear ear scan is cheaper than hashing.
const zOrderThreshold = 80

// nilIdx marks an empty link in the vertex arena.
const nilIdx = -1

// vertex is one node of the doubly linked polygon rings. prev/next walk the
// ring; prevZ/nextZ walk vertices in Morton order.
type vertex struct {
	x, y    float64
	i       int // index into the caller's contour numbering
	prev    int
	next    int
	z       uint32
	prevZ   int
	nextZ   int
	steiner bool
}

// arena is the flat vertex store. All ring links are indices into nodes.
type arena struct {
	nodes []vertex
}

func (a *arena) insert(i int, x, y float64, last int) int {
	idx := len(a.nodes)
	a.nodes = append(a.nodes, vertex{x: x, y: y, i: i, prev: nilIdx, next: nilIdx, prevZ: nilIdx, nextZ: nilIdx})
	if last == nilIdx {
		a.nodes[idx].prev = idx
		a.nodes[idx].next = idx
	} else {
		n := a.nodes[last].next
		a.nodes[idx].next = n
		a.nodes[idx].prev = last
		a.nodes[n].prev = idx
		a.nodes[last].next = idx
	}
	return idx
}

// remove unlinks p from both the ring and the Morton list.
func (a *arena) remove(p int) {
	a.nodes[a.nodes[p].next].prev = a.nodes[p].prev
	a.nodes[a.nodes[p].prev].next = a.nodes[p].next
	if a.nodes[p].prevZ != nilIdx {
		a.nodes[a.nodes[p].prevZ].nextZ = a.nodes[p].nextZ
	}
	if a.nodes[p].nextZ != nilIdx {
		a.nodes[a.nodes[p].nextZ].prevZ = a.nodes[p].prevZ
	}
}

// Triangulate triangulates a polygon given as 2D coordinate pairs
// [x0 y0 x1 y1 ...]. holeIndices lists the vertex index where each hole
// contour starts; the outline runs up to the first hole. The result is a
// flat triangle index list referring to the input vertex numbering.
func Triangulate(coords []float64, holeIndices []int) ([]int, error) {
	if len(coords) < 6 || len(coords)%2 != 0 {
		return nil, ErrDegeneratePolygon
	}

	outerLen := len(coords)
	if len(holeIndices) > 0 {
		outerLen = holeIndices[0] * 2
	}

	a := &arena{nodes: make([]vertex, 0, len(coords)/2+len(holeIndices)*2)}
	outer := buildRing(a, coords, 0, outerLen, true)
	if outer == nilIdx || a.nodes[outer].next == a.nodes[outer].prev {
		return nil, ErrDegeneratePolygon
	}

	if len(holeIndices) > 0 {
		outer = eliminateHoles(a, coords, holeIndices, outer)
	}

	// Morton index bounds.
	var minX, minY, invSize float64
	if len(coords)/2 > zOrderThreshold {
		minX, minY = coords[0], coords[1]
		maxX, maxY := minX, minY
		for i := 2; i < outerLen; i += 2 {
			minX = math.Min(minX, coords[i])
			minY = math.Min(minY, coords[i+1])
			maxX = math.Max(maxX, coords[i])
			maxY = math.Max(maxY, coords[i+1])
		}
		size := math.Max(maxX-minX, maxY-minY)
		if size != 0 {
			invSize = 32767 / size
		}
	}

	tris := make([]int, 0, (len(coords)/2)*3)
	tris = earcutLinked(a, outer, tris, minX, minY, invSize, 0)
	if len(tris) == 0 {
		return nil, ErrDegeneratePolygon
	}
	return tris, nil
}

// buildRing links a contour into a ring with the requested winding and drops
// immediately repeated points.
func buildRing(a *arena, coords []float64, start, end int, clockwise bool) int {
	last := nilIdx
	if clockwise == (signedArea(coords, start, end) > 0) {
		for i := start; i < end; i += 2 {
			last = a.insert(i/2, coords[i], coords[i+1], last)
		}
	} else {
		for i := end - 2; i >= start; i -= 2 {
			last = a.insert(i/2, coords[i], coords[i+1], last)
		}
	}
	if last != nilIdx && equalVertex(a, last, a.nodes[last].next) {
		a.remove(last)
		last = a.nodes[last].next
	}
	return filterPoints(a, last, nilIdx)
}

// filterPoints removes collinear and duplicate vertices from the ring.
func filterPoints(a *arena, start, end int) int {
	if start == nilIdx {
		return start
	}
	if end == nilIdx {
		end = start
	}

	p := start
	for {
		again := false
		if !a.nodes[p].steiner && (equalVertex(a, p, a.nodes[p].next) ||
			area(a, a.nodes[p].prev, p, a.nodes[p].next) == 0) {
			a.remove(p)
			p = a.nodes[p].prev
			end = p
			if p == a.nodes[p].next {
				break
			}
			again = true
		}
		if !again {
			p = a.nodes[p].next
			if p == end {
				break
			}
		}
	}
	return end
}

// earcutLinked clips ears until the ring collapses. pass escalates recovery:
// 1 re-filters the ring, 2 attempts splitting the polygon in two.
func earcutLinked(a *arena, ear int, tris []int, minX, minY, invSize float64, pass int) []int {
	if ear == nilIdx {
		return tris
	}
	if pass == 0 && invSize > 0 {
		indexCurve(a, ear, minX, minY, invSize)
	}

	stop := ear
	for a.nodes[ear].prev != a.nodes[ear].next {
		prev := a.nodes[ear].prev
		next := a.nodes[ear].next

		var ok bool
		if invSize > 0 {
			ok = isEarHashed(a, ear, minX, minY, invSize)
		} else {
			ok = isEar(a, ear)
		}
		if ok {
			tris = append(tris, a.nodes[prev].i, a.nodes[ear].i, a.nodes[next].i)
			a.remove(ear)
			ear = a.nodes[next].next
			stop = ear
			continue
		}

		ear = next
		if ear == stop {
			switch pass {
			case 0:
				ear = filterPoints(a, ear, nilIdx)
				tris = earcutLinked(a, ear, tris, minX, minY, invSize, 1)
			case 1:
				ear = cureLocalIntersections(a, filterPoints(a, ear, nilIdx), &tris)
				tris = earcutLinked(a, ear, tris, minX, minY, invSize, 2)
			case 2:
				tris = splitEarcut(a, ear, tris, minX, minY, invSize)
			}
			return tris
		}
	}
	return tris
}

// isEar reports whether the triangle (prev, ear, next) is convex and contains
// no other ring vertex.
func isEar(a *arena, ear int) bool {
	p, n := a.nodes[ear].prev, a.nodes[ear].next
	if area(a, p, ear, n) >= 0 {
		return false // reflex or degenerate
	}

	ax, ay := a.nodes[p].x, a.nodes[p].y
	bx, by := a.nodes[ear].x, a.nodes[ear].y
	cx, cy := a.nodes[n].x, a.nodes[n].y

	q := a.nodes[n].next
	for q != p {
		if pointInTriangle(ax, ay, bx, by, cx, cy, a.nodes[q].x, a.nodes[q].y) &&
			area(a, a.nodes[q].prev, q, a.nodes[q].next) >= 0 {
			return false
		}
		q = a.nodes[q].next
	}
	return true
}

// isEarHashed is isEar restricted to vertices near the ear's bounding box,
// found by walking outward along the Morton-order list in both directions.
func isEarHashed(a *arena, ear int, minX, minY, invSize float64) bool {
	p, n := a.nodes[ear].prev, a.nodes[ear].next
	if area(a, p, ear, n) >= 0 {
		return false
	}

	ax, ay := a.nodes[p].x, a.nodes[p].y
	bx, by := a.nodes[ear].x, a.nodes[ear].y
	cx, cy := a.nodes[n].x, a.nodes[n].y

	tMinX := math.Min(ax, math.Min(bx, cx))
	tMinY := math.Min(ay, math.Min(by, cy))
	tMaxX := math.Max(ax, math.Max(bx, cx))
	tMaxY := math.Max(ay, math.Max(by, cy))

	minZ := zOrder(tMinX, tMinY, minX, minY, invSize)
	maxZ := zOrder(tMaxX, tMaxY, minX, minY, invSize)

	pz := a.nodes[ear].prevZ
	nz := a.nodes[ear].nextZ
	for pz != nilIdx && a.nodes[pz].z >= minZ && nz != nilIdx && a.nodes[nz].z <= maxZ {
		if hashedBlocks(a, pz, p, ear, n, ax, ay, bx, by, cx, cy) {
			return false
		}
		pz = a.nodes[pz].prevZ
		if hashedBlocks(a, nz, p, ear, n, ax, ay, bx, by, cx, cy) {
			return false
		}
		nz = a.nodes[nz].nextZ
	}
	for pz != nilIdx && a.nodes[pz].z >= minZ {
		if hashedBlocks(a, pz, p, ear, n, ax, ay, bx, by, cx, cy) {
			return false
		}
		pz = a.nodes[pz].prevZ
	}
	for nz != nilIdx && a.nodes[nz].z <= maxZ {
		if hashedBlocks(a, nz, p, ear, n, ax, ay, bx, by, cx, cy) {
			return false
		}
		nz = a.nodes[nz].nextZ
	}
	return true
}

func hashedBlocks(a *arena, q, p, ear, n int, ax, ay, bx, by, cx, cy float64) bool {
	return q != p && q != ear && q != n &&
		pointInTriangle(ax, ay, bx, by, cx, cy, a.nodes[q].x, a.nodes[q].y) &&
		area(a, a.nodes[q].prev, q, a.nodes[q].next) >= 0
}

// cureLocalIntersections clips pairs of intersecting adjacent edges, emitting
// the triangle each cure cuts off.
func cureLocalIntersections(a *arena, start int, tris *[]int) int {
	p := start
	for {
		prev := a.nodes[p].prev
		next := a.nodes[a.nodes[p].next].next
		if !equalVertex(a, prev, next) &&
			intersects(a, prev, p, a.nodes[p].next, next) &&
			locallyInside(a, prev, next) && locallyInside(a, next, prev) {
			*tris = append(*tris, a.nodes[prev].i, a.nodes[p].i, a.nodes[next].i)
			a.remove(p)
			a.remove(a.nodes[p].next)
			p = next
			start = next
		}
		p = a.nodes[p].next
		if p == start {
			break
		}
	}
	return filterPoints(a, p, nilIdx)
}

// splitEarcut finds a valid diagonal, splits the ring in two, and clips both
// halves independently.
func splitEarcut(a *arena, start int, tris []int, minX, minY, invSize float64) []int {
	p := start
	for {
		q := a.nodes[a.nodes[p].next].next
		for q != a.nodes[p].prev {
			if a.nodes[p].i != a.nodes[q].i && validDiagonal(a, p, q) {
				c := splitRing(a, p, q)
				p = filterPoints(a, p, a.nodes[p].next)
				c = filterPoints(a, c, a.nodes[c].next)
				tris = earcutLinked(a, p, tris, minX, minY, invSize, 0)
				return earcutLinked(a, c, tris, minX, minY, invSize, 0)
			}
			q = a.nodes[q].next
		}
		p = a.nodes[p].next
		if p == start {
			break
		}
	}
	// No diagonal found: fall back to a fan so the caller still gets
	// triangles for a malformed outline.
	return fanFallback(a, start, tris)
}

func fanFallback(a *arena, start int, tris []int) []int {
	p := a.nodes[start].next
	for p != start && a.nodes[p].next != start {
		tris = append(tris, a.nodes[start].i, a.nodes[p].i, a.nodes[a.nodes[p].next].i)
		p = a.nodes[p].next
	}
	return tris
}

// splitRing connects p and q with a bridge edge pair, turning one ring into
// two. It returns a vertex on the new ring.
func splitRing(a *arena, p, q int) int {
	p2 := len(a.nodes)
	a.nodes = append(a.nodes, vertex{x: a.nodes[p].x, y: a.nodes[p].y, i: a.nodes[p].i, prevZ: nilIdx, nextZ: nilIdx})
	q2 := len(a.nodes)
	a.nodes = append(a.nodes, vertex{x: a.nodes[q].x, y: a.nodes[q].y, i: a.nodes[q].i, prevZ: nilIdx, nextZ: nilIdx})

	pn := a.nodes[p].next
	qp := a.nodes[q].prev

	a.nodes[p].next = q
	a.nodes[q].prev = p

	a.nodes[p2].next = pn
	a.nodes[pn].prev = p2

	a.nodes[q2].next = p2
	a.nodes[p2].prev = q2

	a.nodes[qp].next = q2
	a.nodes[q2].prev = qp

	return q2
}

// eliminateHoles bridges every hole into the outer ring, leftmost hole first.
func eliminateHoles(a *arena, coords []float64, holeIndices []int, outer int) int {
	var queue []int
	for i, hi := range holeIndices {
		start := hi * 2
		end := len(coords)
		if i+1 < len(holeIndices) {
			end = holeIndices[i+1] * 2
		}
		ring := buildRing(a, coords, start, end, false)
		if ring == nilIdx {
			continue
		}
		if ring == a.nodes[ring].next {
			a.nodes[ring].steiner = true
		}
		queue = append(queue, leftmost(a, ring))
	}
	sort.Slice(queue, func(i, j int) bool {
		if a.nodes[queue[i]].x != a.nodes[queue[j]].x {
			return a.nodes[queue[i]].x < a.nodes[queue[j]].x
		}
		return a.nodes[queue[i]].y < a.nodes[queue[j]].y
	})

	for _, hole := range queue {
		outer = eliminateHole(a, hole, outer)
	}
	return outer
}

func eliminateHole(a *arena, hole, outer int) int {
	bridge := findHoleBridge(a, hole, outer)
	if bridge == nilIdx {
		return outer
	}
	bridgeReverse := splitRing(a, bridge, hole)
	filterPoints(a, bridgeReverse, a.nodes[bridgeReverse].next)
	return filterPoints(a, bridge, a.nodes[bridge].next)
}

// findHoleBridge locates an outer-ring vertex visible from the hole's
// leftmost vertex (David Eberly's horizontal ray construction).
func findHoleBridge(a *arena, hole, outer int) int {
	p := outer
	hx, hy := a.nodes[hole].x, a.nodes[hole].y
	qx := math.Inf(-1)
	m := nilIdx

	// Find the edge the leftward ray from the hole vertex hits first.
	for {
		py, ny := a.nodes[p].y, a.nodes[a.nodes[p].next].y
		if hy <= py && hy >= ny && ny != py {
			x := a.nodes[p].x + (hy-py)*(a.nodes[a.nodes[p].next].x-a.nodes[p].x)/(ny-py)
			if x <= hx && x > qx {
				qx = x
				if a.nodes[p].x < a.nodes[a.nodes[p].next].x {
					m = p
				} else {
					m = a.nodes[p].next
				}
				if x == hx {
					return m // ray hits the vertex itself
				}
			}
		}
		p = a.nodes[p].next
		if p == outer {
			break
		}
	}
	if m == nilIdx {
		return nilIdx
	}

	// The hit point may be occluded; pick the reflex vertex inside the
	// triangle (hole point, hit point) closest to the ray by tangent angle.
	stop := m
	mx, my := a.nodes[m].x, a.nodes[m].y
	tanMin := math.Inf(1)

	p = m
	for {
		px, py := a.nodes[p].x, a.nodes[p].y
		if hx >= px && px >= mx && hx != px &&
			pointInTriangle(tern(hy < my, hx, qx), hy, mx, my, tern(hy < my, qx, hx), hy, px, py) {
			tan := math.Abs(hy-py) / (hx - px)
			if locallyInside(a, p, hole) &&
				(tan < tanMin || (tan == tanMin && (px > a.nodes[m].x ||
					(px == a.nodes[m].x && sectorContainsSector(a, m, p))))) {
				m = p
				tanMin = tan
			}
		}
		p = a.nodes[p].next
		if p == stop {
			break
		}
	}
	return m
}

func tern(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// sectorContainsSector reports whether the angular sector at m fully contains
// the sector at p (used to break bridge ties).
func sectorContainsSector(a *arena, m, p int) bool {
	return area(a, a.nodes[m].prev, m, a.nodes[p].prev) < 0 &&
		area(a, a.nodes[p].next, m, a.nodes[m].next) < 0
}

// indexCurve assigns Morton codes and sorts the z-list.
func indexCurve(a *arena, start int, minX, minY, invSize float64) {
	p := start
	for {
		if a.nodes[p].z == 0 {
			a.nodes[p].z = zOrder(a.nodes[p].x, a.nodes[p].y, minX, minY, invSize)
		}
		a.nodes[p].prevZ = a.nodes[p].prev
		a.nodes[p].nextZ = a.nodes[p].next
		p = a.nodes[p].next
		if p == start {
			break
		}
	}
	a.nodes[a.nodes[p].prevZ].nextZ = nilIdx
	a.nodes[p].prevZ = nilIdx
	sortLinked(a, p)
}

// sortLinked merge-sorts the Morton list in place (Simon Tatham's algorithm).
func sortLinked(a *arena, list int) {
	inSize := 1
	for {
		p := list
		list = nilIdx
		tail := nilIdx
		numMerges := 0

		for p != nilIdx {
			numMerges++
			q := p
			pSize := 0
			for i := 0; i < inSize; i++ {
				pSize++
				q = a.nodes[q].nextZ
				if q == nilIdx {
					break
				}
			}
			qSize := inSize

			for pSize > 0 || (qSize > 0 && q != nilIdx) {
				var e int
				if pSize != 0 && (qSize == 0 || q == nilIdx || a.nodes[p].z <= a.nodes[q].z) {
					e = p
					p = a.nodes[p].nextZ
					pSize--
				} else {
					e = q
					q = a.nodes[q].nextZ
					qSize--
				}
				if tail != nilIdx {
					a.nodes[tail].nextZ = e
				} else {
					list = e
				}
				a.nodes[e].prevZ = tail
				tail = e
			}
			p = q
		}
		a.nodes[tail].nextZ = nilIdx

		if numMerges <= 1 {
			return
		}
		inSize *= 2
	}
}

// zOrder interleaves the 15-bit grid coordinates of (x, y) into a Morton code.
func zOrder(x, y, minX, minY, invSize float64) uint32 {
	ix := uint32((x - minX) * invSize)
	iy := uint32((y - minY) * invSize)

	ix = (ix | (ix << 8)) & 0x00FF00FF
	ix = (ix | (ix << 4)) & 0x0F0F0F0F
	ix = (ix | (ix << 2)) & 0x33333333
	ix = (ix | (ix << 1)) & 0x55555555

	iy = (iy | (iy << 8)) & 0x00FF00FF
	iy = (iy | (iy << 4)) & 0x0F0F0F0F
	iy = (iy | (iy << 2)) & 0x33333333
	iy = (iy | (iy << 1)) & 0x55555555

	return ix | (iy << 1)
}

func leftmost(a *arena, start int) int {
	p := start
	best := start
	for {
		if a.nodes[p].x < a.nodes[best].x ||
			(a.nodes[p].x == a.nodes[best].x && a.nodes[p].y < a.nodes[best].y) {
			best = p
		}
		p = a.nodes[p].next
		if p == start {
			break
		}
	}
	return best
}

// validDiagonal reports whether p-q is a diagonal lying inside the polygon
// that crosses no edge.
func validDiagonal(a *arena, p, q int) bool {
	return a.nodes[a.nodes[p].next].i != a.nodes[q].i &&
		a.nodes[a.nodes[p].prev].i != a.nodes[q].i &&
		!intersectsPolygon(a, p, q) &&
		(locallyInside(a, p, q) && locallyInside(a, q, p) && middleInside(a, p, q) &&
			(area(a, a.nodes[p].prev, p, a.nodes[q].prev) != 0 || area(a, p, a.nodes[q].prev, q) != 0) ||
			equalVertex(a, p, q) && area(a, a.nodes[p].prev, p, a.nodes[p].next) > 0 &&
				area(a, a.nodes[q].prev, q, a.nodes[q].next) > 0)
}

func intersectsPolygon(a *arena, p, q int) bool {
	r := p
	for {
		rn := a.nodes[r].next
		if a.nodes[r].i != a.nodes[p].i && a.nodes[rn].i != a.nodes[p].i &&
			a.nodes[r].i != a.nodes[q].i && a.nodes[rn].i != a.nodes[q].i &&
			intersects(a, r, rn, p, q) {
			return true
		}
		r = rn
		if r == p {
			break
		}
	}
	return false
}

func locallyInside(a *arena, p, q int) bool {
	if area(a, a.nodes[p].prev, p, a.nodes[p].next) < 0 {
		return area(a, p, q, a.nodes[p].next) >= 0 && area(a, p, a.nodes[p].prev, q) >= 0
	}
	return area(a, p, q, a.nodes[p].prev) < 0 || area(a, p, a.nodes[p].next, q) < 0
}

func middleInside(a *arena, p, q int) bool {
	r := p
	inside := false
	px := (a.nodes[p].x + a.nodes[q].x) / 2
	py := (a.nodes[p].y + a.nodes[q].y) / 2
	for {
		rx, ry := a.nodes[r].x, a.nodes[r].y
		rn := a.nodes[r].next
		nx, ny := a.nodes[rn].x, a.nodes[rn].y
		if (ry > py) != (ny > py) && ny != ry &&
			px < (nx-rx)*(py-ry)/(ny-ry)+rx {
			inside = !inside
		}
		r = rn
		if r == p {
			break
		}
	}
	return inside
}

// intersects reports whether segments p1-q1 and p2-q2 intersect.
func intersects(a *arena, p1, q1, p2, q2 int) bool {
	o1 := sign(area(a, p1, q1, p2))
	o2 := sign(area(a, p1, q1, q2))
	o3 := sign(area(a, p2, q2, p1))
	o4 := sign(area(a, p2, q2, q1))

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && onSegment(a, p1, p2, q1) {
		return true
	}
	if o2 == 0 && onSegment(a, p1, q2, q1) {
		return true
	}
	if o3 == 0 && onSegment(a, p2, p1, q2) {
		return true
	}
	if o4 == 0 && onSegment(a, p2, q1, q2) {
		return true
	}
	return false
}

func onSegment(a *arena, p, q, r int) bool {
	return a.nodes[q].x <= math.Max(a.nodes[p].x, a.nodes[r].x) &&
		a.nodes[q].x >= math.Min(a.nodes[p].x, a.nodes[r].x) &&
		a.nodes[q].y <= math.Max(a.nodes[p].y, a.nodes[r].y) &&
		a.nodes[q].y >= math.Min(a.nodes[p].y, a.nodes[r].y)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// area is the doubled signed area of triangle (p, q, r); negative means
// counter-clockwise in the ring's screen convention.
func area(a *arena, p, q, r int) float64 {
	return (a.nodes[q].y-a.nodes[p].y)*(a.nodes[r].x-a.nodes[q].x) -
		(a.nodes[q].x-a.nodes[p].x)*(a.nodes[r].y-a.nodes[q].y)
}

func equalVertex(a *arena, p, q int) bool {
	return a.nodes[p].x == a.nodes[q].x && a.nodes[p].y == a.nodes[q].y
}

func pointInTriangle(ax, ay, bx, by, cx, cy, px, py float64) bool {
	return (cx-px)*(ay-py)-(ax-px)*(cy-py) >= 0 &&
		(ax-px)*(by-py)-(bx-px)*(ay-py) >= 0 &&
		(bx-px)*(cy-py)-(cx-px)*(by-py) >= 0
}

func signedArea(coords []float64, start, end int) float64 {
	var sum float64
	j := end - 2
	for i := start; i < end; i += 2 {
		sum += (coords[j] - coords[i]) * (coords[i+1] + coords[j+1])
		j = i
	}
	return sum
}
