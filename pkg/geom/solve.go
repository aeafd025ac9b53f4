package geom

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// Solve2x2 solves
//
//	| a b | |x|   |e|
//	| c d | |y| = |f|
//
// by Cramer's rule. ok is false when the determinant magnitude is below
// SingularTol; x and y are then zero.
func Solve2x2(a, b, c, d, e, f float64) (x, y float64, ok bool) {
	det := a*d - b*c
	if math.Abs(det) < SingularTol {
		return 0, 0, false
	}
	x = (e*d - b*f) / det
	y = (a*f - e*c) / det
	return x, y, true
}

// Solve3x3 solves the 3x3 system m * x = rhs by explicit cofactor expansion.
// m is row-major. ok is false when the determinant magnitude is below
// SingularTol; the solution is then zero.
func Solve3x3(m [3][3]float64, rhs [3]float64) (x [3]float64, ok bool) {
	c00 := m[1][1]*m[2][2] - m[1][2]*m[2][1]
	c01 := m[1][2]*m[2][0] - m[1][0]*m[2][2]
	c02 := m[1][0]*m[2][1] - m[1][1]*m[2][0]

	det := m[0][0]*c00 + m[0][1]*c01 + m[0][2]*c02
	if math.Abs(det) < SingularTol {
		return [3]float64{}, false
	}

	inv := 1 / det
	x[0] = (rhs[0]*c00 +
		m[0][1]*(m[1][2]*rhs[2]-rhs[1]*m[2][2]) +
		m[0][2]*(rhs[1]*m[2][1]-m[1][1]*rhs[2])) * inv
	x[1] = (m[0][0]*(rhs[1]*m[2][2]-m[1][2]*rhs[2]) +
		rhs[0]*c01 +
		m[0][2]*(m[1][0]*rhs[2]-rhs[1]*m[2][0])) * inv
	x[2] = (m[0][0]*(m[1][1]*rhs[2]-rhs[1]*m[2][1]) +
		m[0][1]*(rhs[1]*m[2][0]-m[1][0]*rhs[2]) +
		rhs[0]*c02) * inv
	return x, true
}

// RayRayParams returns the parameters of the mutually closest points on two
// rays p0 + t0*d0 and p1 + t1*d1, from the normal equations of the squared
// distance. ok is false for (near-)parallel rays.
func RayRayParams(p0, d0, p1, d1 *vec3.T) (t0, t1 float64, ok bool) {
	r := vec3.Sub(p1, p0)
	a := vec3.Dot(d0, d0)
	b := vec3.Dot(d0, d1)
	c := vec3.Dot(d1, d1)
	e := vec3.Dot(d0, &r)
	f := vec3.Dot(d1, &r)
	return Solve2x2(a, -b, b, -c, e, f)
}
