// Package intersect refines ray/geometry intersections. Rays against NURBS
// geometry use damped Newton iteration in parameter space; rays against
// triangle meshes use direct Moller-Trumbore tests for picking.
package intersect

import (
	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
)

// Ray is an origin and an unnormalized direction; parameters are measured in
// multiples of Dir.
type Ray struct {
	Origin vec3.T
	Dir    vec3.T
}

// At returns the point at parameter t.
func (r *Ray) At(t float64) vec3.T {
	d := r.Dir.Scaled(t)
	return vec3.Add(&r.Origin, &d)
}

// ClosestParam returns the ray parameter of the point closest to p. The
// parameter is clamped to zero so it stays on the ray, not the full line.
func (r *Ray) ClosestParam(p *vec3.T) float64 {
	d2 := r.Dir.LengthSqr()
	if d2 < geom.Tolerance {
		return 0
	}
	toP := vec3.Sub(p, &r.Origin)
	t := vec3.Dot(&toP, &r.Dir) / d2
	if t < 0 {
		return 0
	}
	return t
}

// DistTo returns the distance from p to the ray.
func (r *Ray) DistTo(p *vec3.T) float64 {
	at := r.At(r.ClosestParam(p))
	return vec3.Distance(&at, p)
}
