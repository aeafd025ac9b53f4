// Package geom provides the small vector, linear-system, and plane-fitting
// utilities shared by the geometry kernel packages. Points and directions are
// go3d float64 vectors throughout.
package geom

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// Epsilon is the general geometric tolerance: lengths and distances below it
// are treated as zero.
const Epsilon = 1e-6

// Tolerance is the tight tolerance used for weight sums and near-parallel
// checks inside evaluation loops.
const Tolerance = 1e-10

// SingularTol bounds determinants: a linear system whose determinant falls
// below it is reported singular instead of being solved.
const SingularTol = 1e-12

// IsZero reports whether x is within Epsilon of zero.
func IsZero(x float64) bool {
	return math.Abs(x) <= Epsilon
}

// Collinear reports whether three points form a straight line, using the
// doubled squared triangle area so no square roots are needed. tol is
// compared against |e1 x e2|^2.
func Collinear(p1, p2, p3 *vec3.T, tol float64) bool {
	e1 := vec3.Sub(p2, p1)
	e2 := vec3.Sub(p3, p1)
	area := vec3.Cross(&e1, &e2)
	return area.LengthSqr() < tol
}

// ClosestPointOnRay projects pt onto the ray through origin with direction
// dir. dir is assumed normalized.
func ClosestPointOnRay(pt, origin, dir *vec3.T) vec3.T {
	toPt := vec3.Sub(pt, origin)
	d := vec3.Dot(&toPt, dir)
	offset := dir.Scaled(d)
	return vec3.Add(origin, &offset)
}

// DistToRay returns the distance from pt to the ray through origin with
// normalized direction dir.
func DistToRay(pt, origin, dir *vec3.T) float64 {
	proj := ClosestPointOnRay(pt, origin, dir)
	return vec3.Distance(&proj, pt)
}

// PositiveAngle returns the angle from a to b in [0, 2pi), measured
// counter-clockwise around the given normal. Degenerate inputs return 0.
func PositiveAngle(a, b, normal *vec3.T) float64 {
	la, lb := a.Length(), b.Length()
	if la < Epsilon || lb < Epsilon {
		return 0
	}
	cos := vec3.Dot(a, b) / (la * lb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	angle := math.Acos(cos)
	cross := vec3.Cross(a, b)
	if vec3.Dot(&cross, normal) < 0 {
		angle = 2*math.Pi - angle
	}
	return angle
}

// Lerp interpolates between a and b by t.
func Lerp(a, b *vec3.T, t float64) vec3.T {
	return vec3.Interpolate(a, b, t)
}
