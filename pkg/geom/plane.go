package geom

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// PlaneDefinition is an oriented plane with an orthonormal in-plane basis.
// Normal, XAxis, and YAxis are unit length and mutually perpendicular, so a
// 3D point projects to plane coordinates by two dot products.
type PlaneDefinition struct {
	Origin vec3.T `json:"origin"`
	Normal vec3.T `json:"normal"`
	XAxis  vec3.T `json:"xAxis"`
	YAxis  vec3.T `json:"yAxis"`
}

// Project returns the 2D coordinates of p in the plane's basis.
func (pl *PlaneDefinition) Project(p *vec3.T) (x, y float64) {
	d := vec3.Sub(p, &pl.Origin)
	return vec3.Dot(&d, &pl.XAxis), vec3.Dot(&d, &pl.YAxis)
}

// Unproject maps plane coordinates back to a 3D point.
func (pl *PlaneDefinition) Unproject(x, y float64) vec3.T {
	xc := pl.XAxis.Scaled(x)
	yc := pl.YAxis.Scaled(y)
	p := vec3.Add(&pl.Origin, &xc)
	return vec3.Add(&p, &yc)
}

// jacobiSweeps is the fixed rotation count for the cyclic Jacobi eigensolver.
// The covariance matrix is 3x3, so convergence is far faster than this; the
// fixed count keeps the solver loop-free of convergence bookkeeping.
const jacobiSweeps = 32

// BestFitPlane fits a plane through points by principal component analysis:
// the normal is the eigenvector of the covariance matrix's smallest
// eigenvalue. With fewer than 3 points, or when the eigen-result degenerates,
// it falls back to the Newell polygon normal (and finally to world-up).
func BestFitPlane(points []vec3.T) PlaneDefinition {
	var centroid vec3.T
	for i := range points {
		centroid.Add(&points[i])
	}
	if len(points) > 0 {
		centroid.Scale(1 / float64(len(points)))
	}

	var normal vec3.T
	if len(points) >= 3 {
		var cov [3][3]float64
		for i := range points {
			d := vec3.Sub(&points[i], &centroid)
			for r := 0; r < 3; r++ {
				for c := 0; c < 3; c++ {
					cov[r][c] += d[r] * d[c]
				}
			}
		}
		normal = smallestEigenvector(cov)
	}

	if normal.Length() < Epsilon {
		normal = NewellNormal(points)
	}
	if normal.Length() < Epsilon {
		normal = vec3.UnitY
	}
	normal.Normalize()

	// Pick a reference axis that is not close to parallel with the normal.
	ref := vec3.UnitY
	if math.Abs(normal[1]) >= 0.9 {
		ref = vec3.UnitX
	}
	xAxis := vec3.Cross(&ref, &normal)
	xAxis.Normalize()
	yAxis := vec3.Cross(&normal, &xAxis)
	yAxis.Normalize()

	return PlaneDefinition{Origin: centroid, Normal: normal, XAxis: xAxis, YAxis: yAxis}
}

// PlaneFromNormal builds a plane frame at origin with the given normal. A
// zero or near-zero normal falls back to +Z.
func PlaneFromNormal(origin, normal vec3.T) PlaneDefinition {
	if normal.Length() < Epsilon {
		normal = vec3.UnitZ
	}
	normal.Normalize()

	ref := vec3.UnitY
	if math.Abs(normal[1]) >= 0.9 {
		ref = vec3.UnitX
	}
	xAxis := vec3.Cross(&ref, &normal)
	xAxis.Normalize()
	yAxis := vec3.Cross(&normal, &xAxis)
	yAxis.Normalize()

	return PlaneDefinition{Origin: origin, Normal: normal, XAxis: xAxis, YAxis: yAxis}
}

// NewellNormal computes the Newell polygon normal of a closed point loop.
// The result is unnormalized; a zero vector means the loop is degenerate.
func NewellNormal(points []vec3.T) vec3.T {
	var n vec3.T
	for i := range points {
		cur := points[i]
		next := points[(i+1)%len(points)]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	return n
}

// smallestEigenvector runs a fixed number of cyclic Jacobi rotations on the
// symmetric matrix a, each pass zeroing the largest off-diagonal element, and
// returns the eigenvector of the smallest eigenvalue.
func smallestEigenvector(a [3][3]float64) vec3.T {
	// v accumulates the rotations and ends up holding eigenvectors in columns.
	v := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	for sweep := 0; sweep < jacobiSweeps; sweep++ {
		// Locate the largest off-diagonal element.
		p, q := 0, 1
		if math.Abs(a[0][2]) > math.Abs(a[p][q]) {
			p, q = 0, 2
		}
		if math.Abs(a[1][2]) > math.Abs(a[p][q]) {
			p, q = 1, 2
		}
		if math.Abs(a[p][q]) < 1e-12 {
			break
		}

		theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
		t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
		if theta < 0 {
			t = -t
		}
		c := 1 / math.Sqrt(t*t+1)
		s := t * c

		// Apply the rotation on both sides of a.
		app := a[p][p] - t*a[p][q]
		aqq := a[q][q] + t*a[p][q]
		for k := 0; k < 3; k++ {
			akp := a[k][p]
			akq := a[k][q]
			a[k][p] = c*akp - s*akq
			a[k][q] = s*akp + c*akq
		}
		for k := 0; k < 3; k++ {
			apk := a[p][k]
			aqk := a[q][k]
			a[p][k] = c*apk - s*aqk
			a[q][k] = s*apk + c*aqk
		}
		a[p][p] = app
		a[q][q] = aqq
		a[p][q] = 0
		a[q][p] = 0

		for k := 0; k < 3; k++ {
			vkp := v[k][p]
			vkq := v[k][q]
			v[k][p] = c*vkp - s*vkq
			v[k][q] = s*vkp + c*vkq
		}
	}

	min := 0
	if a[1][1] < a[min][min] {
		min = 1
	}
	if a[2][2] < a[min][min] {
		min = 2
	}
	return vec3.T{v[0][min], v[1][min], v[2][min]}
}
