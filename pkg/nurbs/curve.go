package nurbs

import (
	"errors"
	"math"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
)

// homoPoint is a control point in homogeneous coordinates: (w*p, w).
type homoPoint struct {
	vec vec3.T
	w   float64
}

func (h *homoPoint) add(o *homoPoint) {
	h.vec.Add(&o.vec)
	h.w += o.w
}

func (h homoPoint) scaled(s float64) homoPoint {
	return homoPoint{h.vec.Scaled(s), h.w * s}
}

// dehomogenized recovers the Cartesian point. A weight sum near zero marks a
// degenerate evaluation; the weighted sum is returned as-is rather than
// dividing by almost-zero.
func (h homoPoint) dehomogenized() vec3.T {
	if math.Abs(h.w) <= geom.Tolerance {
		return h.vec
	}
	return h.vec.Scaled(1 / h.w)
}

// Curve is an immutable NURBS curve. Control points are stored in
// homogeneous form; weights default to 1 when the constructor receives nil.
type Curve struct {
	degree        int
	controlPoints []homoPoint
	knots         KnotVector
}

// NewCurve validates and builds a curve. weights may be nil (uniform).
func NewCurve(degree int, controlPoints []vec3.T, weights []float64, knots []float64) (*Curve, error) {
	if degree < 1 {
		return nil, errors.New("nurbs: curve degree must be at least 1")
	}
	if len(controlPoints) < degree+1 {
		return nil, errors.New("nurbs: curve needs at least degree+1 control points")
	}
	if weights != nil && len(weights) != len(controlPoints) {
		return nil, errors.New("nurbs: weights length must match control points")
	}
	if err := KnotVector(knots).Validate(degree, len(controlPoints)); err != nil {
		return nil, err
	}

	cps := make([]homoPoint, len(controlPoints))
	for i, p := range controlPoints {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		cps[i] = homoPoint{p.Scaled(w), w}
	}
	return &Curve{degree: degree, controlPoints: cps, knots: KnotVector(knots).Clone()}, nil
}

// Degree returns the polynomial degree.
func (c *Curve) Degree() int { return c.degree }

// ControlPoints returns the Cartesian control points.
func (c *Curve) ControlPoints() []vec3.T {
	pts := make([]vec3.T, len(c.controlPoints))
	for i := range c.controlPoints {
		pts[i] = c.controlPoints[i].dehomogenized()
	}
	return pts
}

// Weights returns a copy of the control point weights.
func (c *Curve) Weights() []float64 {
	ws := make([]float64, len(c.controlPoints))
	for i := range c.controlPoints {
		ws[i] = c.controlPoints[i].w
	}
	return ws
}

// Knots returns a copy of the knot vector.
func (c *Curve) Knots() []float64 { return c.knots.Clone() }

// Domain returns the valid parameter range.
func (c *Curve) Domain() (min, max float64) { return c.knots.Domain(c.degree) }

// Point evaluates the curve at u: the homogeneous weighted sum of the
// degree+1 active control points, dehomogenized.
func (c *Curve) Point(u float64) vec3.T {
	span := c.knots.Span(c.degree, u)
	basis := basisFunctions(span, u, c.degree, c.knots)

	var pos homoPoint
	for j := 0; j <= c.degree; j++ {
		s := c.controlPoints[span-c.degree+j].scaled(basis[j])
		pos.add(&s)
	}
	return pos.dehomogenized()
}

// Derivatives evaluates the curve point and its derivatives up to the given
// order at u. Index 0 is the point. Rational derivatives come from the
// quotient rule applied to the homogeneous numerator and denominator:
//
//	A(k) = Sw(k) - sum_{i=1..k} C(k,i) * w(i) * A(k-i), divided by w(0).
func (c *Curve) Derivatives(u float64, order int) []vec3.T {
	span := c.knots.Span(c.degree, u)
	du := order
	if du > c.degree {
		du = c.degree
	}
	nders := derivativeBasisFunctions(span, u, c.degree, du, c.knots)

	// Homogeneous derivatives Sw(k), including the weight rows w(k).
	hders := make([]homoPoint, du+1)
	for k := 0; k <= du; k++ {
		for j := 0; j <= c.degree; j++ {
			s := c.controlPoints[span-c.degree+j].scaled(nders[k][j])
			hders[k].add(&s)
		}
	}

	w0 := hders[0].w
	if math.Abs(w0) <= geom.Tolerance {
		w0 = 1
	}

	ders := make([]vec3.T, 0, order+1)
	for k := 0; k <= du; k++ {
		v := hders[k].vec
		for i := 1; i <= k; i++ {
			s := ders[k-i].Scaled(binomial(k, i) * hders[i].w)
			v.Sub(&s)
		}
		v.Scale(1 / w0)
		ders = append(ders, v)
	}
	// Derivatives beyond the degree vanish.
	for k := du + 1; k <= order; k++ {
		ders = append(ders, vec3.T{})
	}
	return ders
}

// Tangent returns the first derivative at u.
func (c *Curve) Tangent(u float64) vec3.T {
	return c.Derivatives(u, 1)[1]
}

// Curvature returns |d1 x d2| / |d1|^3 at u, or 0 when the first derivative
// degenerates.
func (c *Curve) Curvature(u float64) float64 {
	ders := c.Derivatives(u, 2)
	d1, d2 := ders[1], ders[2]

	l1 := d1.Length()
	if l1 < geom.Epsilon {
		return 0
	}
	cross := vec3.Cross(&d1, &d2)
	return cross.Length() / (l1 * l1 * l1)
}

// Length approximates the arc length by dense chordal sampling. Used for
// characteristic-size estimates during tessellation, not for exact measure.
func (c *Curve) Length() float64 {
	const samples = 64
	min, max := c.Domain()
	step := (max - min) / samples

	var sum float64
	prev := c.Point(min)
	for i := 1; i <= samples; i++ {
		p := c.Point(min + float64(i)*step)
		sum += vec3.Distance(&prev, &p)
		prev = p
	}
	return sum
}

// Reverse returns the curve with its parameterization flipped.
func (c *Curve) Reverse() *Curve {
	n := len(c.controlPoints)
	cps := make([]homoPoint, n)
	for i := range cps {
		cps[i] = c.controlPoints[n-1-i]
	}

	knots := make(KnotVector, len(c.knots))
	knots[0] = c.knots[0]
	last := len(c.knots) - 1
	for i := 1; i < len(knots); i++ {
		knots[i] = knots[i-1] + (c.knots[last-i+1] - c.knots[last-i])
	}
	return &Curve{degree: c.degree, controlPoints: cps, knots: knots}
}
