package intersect

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
	"github.com/petersancho/armature/pkg/nurbs"
)

// Newton iteration limits. The refiner is meant to polish a coarse hit from
// the tessellation, so a handful of quadratic steps is enough.
const (
	maxNewtonIters = 8
	residualTol    = 1e-9
	stepTol        = 1e-12
)

// SurfaceHit is the result of refining a ray/surface intersection.
type SurfaceHit struct {
	Point      vec3.T
	UV         nurbs.UV
	T          float64
	Converged  bool
	Iterations int
}

// CurveHit is the result of refining a ray/curve closest-approach search.
type CurveHit struct {
	Point      vec3.T
	U          float64
	T          float64
	Distance   float64
	Converged  bool
	Iterations int
}

// RaySurface refines an intersection between ray and surface starting from
// the parameter guess (uv0, t0). Each step solves the linearized system
//
//	[Su  Sv  -Dir] * [du dv dt]^T = ray(t) - S(u,v)
//
// with parameters clamped to the surface domain. Converged is false when the
// Jacobian degenerates or the residual never falls under tolerance.
func RaySurface(ray *Ray, s *nurbs.Surface, uv0 nurbs.UV, t0 float64) SurfaceHit {
	minU, maxU := s.DomainU()
	minV, maxV := s.DomainV()

	hit := SurfaceHit{UV: uv0, T: t0}
	for iter := 0; iter < maxNewtonIters; iter++ {
		hit.Iterations = iter + 1

		ders := s.Derivatives(hit.UV, 1)
		sp := ders[0][0]
		su := ders[1][0]
		sv := ders[0][1]
		rp := ray.At(hit.T)
		res := vec3.Sub(&rp, &sp)

		hit.Point = sp
		if res.Length() < residualTol {
			hit.Converged = true
			return hit
		}

		m := [3][3]float64{
			{su[0], sv[0], -ray.Dir[0]},
			{su[1], sv[1], -ray.Dir[1]},
			{su[2], sv[2], -ray.Dir[2]},
		}
		step, ok := geom.Solve3x3(m, [3]float64{res[0], res[1], res[2]})
		if !ok {
			return hit
		}

		hit.UV[0] = clamp(hit.UV[0]+step[0], minU, maxU)
		hit.UV[1] = clamp(hit.UV[1]+step[1], minV, maxV)
		hit.T += step[2]

		if math.Abs(step[0])+math.Abs(step[1])+math.Abs(step[2]) < stepTol {
			break
		}
	}

	p := s.Point(hit.UV)
	rp := ray.At(hit.T)
	hit.Point = p
	hit.Converged = vec3.Distance(&p, &rp) < residualTol
	return hit
}

// RayCurve refines the closest approach between ray and curve starting from
// the parameter guess (u0, t0): a 2x2 Newton step on the stationarity of the
// squared distance between curve point and ray point.
func RayCurve(ray *Ray, c *nurbs.Curve, u0, t0 float64) CurveHit {
	minU, maxU := c.Domain()
	hit := CurveHit{U: u0, T: t0}

	for iter := 0; iter < maxNewtonIters; iter++ {
		hit.Iterations = iter + 1

		ders := c.Derivatives(hit.U, 2)
		cp, c1, c2 := ders[0], ders[1], ders[2]
		rp := ray.At(hit.T)
		diff := vec3.Sub(&cp, &rp)

		// Gradient of the squared distance wrt (u, t).
		g0 := vec3.Dot(&diff, &c1)
		g1 := -vec3.Dot(&diff, &ray.Dir)

		if math.Abs(g0)+math.Abs(g1) < residualTol {
			hit.Converged = true
			break
		}

		// Hessian entries.
		h00 := vec3.Dot(&c1, &c1) + vec3.Dot(&diff, &c2)
		h01 := -vec3.Dot(&c1, &ray.Dir)
		h11 := vec3.Dot(&ray.Dir, &ray.Dir)

		du, dt, ok := geom.Solve2x2(h00, h01, h01, h11, -g0, -g1)
		if !ok {
			break
		}

		hit.U = clamp(hit.U+du, minU, maxU)
		hit.T += dt
		if hit.T < 0 {
			hit.T = 0
		}

		if math.Abs(du)+math.Abs(dt) < stepTol {
			hit.Converged = true
			break
		}
	}

	hit.Point = c.Point(hit.U)
	at := ray.At(hit.T)
	hit.Distance = vec3.Distance(&hit.Point, &at)
	return hit
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
