package tessellate

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
	"github.com/petersancho/armature/pkg/nurbs"
)

// maxBisectDepth caps recursive refinement so a pathological curve cannot
// recurse without bound.
const maxBisectDepth = 20

// Curve is a tessellated curve: sample points and the curve parameters they
// were evaluated at. Params is strictly increasing and spans the curve domain.
type Curve struct {
	Points []vec3.T
	Params []float64
}

// TessellateCurve adaptively samples a NURBS curve. It seeds the domain with
// MinSamples uniform points, then bisects every span whose midpoint detour
// exceeds the chord by more than CurvatureTolerance, whose chord exceeds
// MaxSegmentLength, whose endpoint curvature exceeds CurvatureTolerance, or
// whose end tangents turn by more than MaxAngle.
func TessellateCurve(c *nurbs.Curve, opts Options) *Curve {
	opts = opts.sanitized()
	min, max := c.Domain()

	type sample struct {
		u float64
		p vec3.T
	}
	out := make([]sample, 0, opts.MinSamples)

	// refine appends the span midpoint and recurses whenever the span fails
	// a sampling criterion; flat spans add nothing.
	var refine func(u0, u1 float64, p0, p1 vec3.T, depth int)
	refine = func(u0, u1 float64, p0, p1 vec3.T, depth int) {
		if depth >= maxBisectDepth || len(out) >= opts.MaxSamples {
			return
		}
		um := 0.5 * (u0 + u1)
		pm := c.Point(um)
		if !needsSplit(c, u0, um, u1, &p0, &pm, &p1, opts) {
			return
		}
		out = append(out, sample{um, pm})
		refine(u0, um, p0, pm, depth+1)
		refine(um, u1, pm, p1, depth+1)
	}

	step := (max - min) / float64(opts.MinSamples-1)
	prev := sample{min, c.Point(min)}
	out = append(out, prev)
	for i := 1; i < opts.MinSamples; i++ {
		u := min + float64(i)*step
		if i == opts.MinSamples-1 {
			u = max
		}
		cur := sample{u, c.Point(u)}
		refine(prev.u, cur.u, prev.p, cur.p, 0)
		out = append(out, cur)
		prev = cur
	}

	// Refinement appends midpoints out of order; restore parameter order
	// with a simple insertion pass (spans are nearly sorted already).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].u < out[j-1].u; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}

	tc := &Curve{
		Points: make([]vec3.T, 0, len(out)),
		Params: make([]float64, 0, len(out)),
	}
	for _, s := range out {
		// Drop duplicate parameters produced by touching spans.
		if n := len(tc.Params); n > 0 && s.u-tc.Params[n-1] <= geom.Tolerance {
			continue
		}
		tc.Points = append(tc.Points, s.p)
		tc.Params = append(tc.Params, s.u)
	}
	return tc
}

// needsSplit applies the refinement criteria to the span [u0, u1] with
// midpoint um.
func needsSplit(c *nurbs.Curve, u0, um, u1 float64, p0, pm, p1 *vec3.T, opts Options) bool {
	chord := vec3.Distance(p0, p1)
	if opts.MaxSegmentLength > 0 && chord > opts.MaxSegmentLength {
		return true
	}
	if chord < geom.Epsilon {
		return false
	}

	// Triangle-inequality excess of the midpoint over the chord. Unlike a
	// point-to-chord distance this stays positive through inflections, where
	// the midpoint can land back on the chord line.
	if vec3.Distance(pm, p0)+vec3.Distance(pm, p1)-chord > opts.CurvatureTolerance {
		return true
	}

	if c.Curvature(u0) > opts.CurvatureTolerance || c.Curvature(u1) > opts.CurvatureTolerance {
		return true
	}

	if opts.MaxAngle > 0 {
		t0 := c.Tangent(u0)
		t1 := c.Tangent(u1)
		l0, l1 := t0.Length(), t1.Length()
		if l0 > geom.Epsilon && l1 > geom.Epsilon {
			cos := vec3.Dot(&t0, &t1) / (l0 * l1)
			if cos < math.Cos(opts.MaxAngle) {
				return true
			}
		}
	}
	return false
}

// Length returns the total chord length of the tessellation.
func (tc *Curve) Length() float64 {
	var sum float64
	for i := 1; i < len(tc.Points); i++ {
		sum += vec3.Distance(&tc.Points[i-1], &tc.Points[i])
	}
	return sum
}
