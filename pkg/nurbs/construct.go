package nurbs

import (
	"errors"
	"math"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
)

// Polyline builds a degree-1 curve through the given points, with knots
// proportional to chord length.
func Polyline(pts []vec3.T) (*Curve, error) {
	if len(pts) < 2 {
		return nil, errors.New("nurbs: polyline needs at least 2 points")
	}

	knots := make([]float64, len(pts)+2)
	var lsum float64
	for i := 0; i < len(pts)-1; i++ {
		lsum += vec3.Distance(&pts[i], &pts[i+1])
		knots[i+2] = lsum
	}
	knots[len(knots)-1] = lsum
	if lsum > 0 {
		for i := range knots {
			knots[i] /= lsum
		}
	}
	return NewCurve(1, pts, nil, knots)
}

// Line builds the degree-1 curve between two points.
func Line(a, b *vec3.T) (*Curve, error) {
	return Polyline([]vec3.T{*a, *b})
}

// BezierCurve builds the Bezier curve of the control polygon: a single-span
// NURBS of degree len(pts)-1 over a clamped [0,0,...,1,1] knot vector.
func BezierCurve(pts []vec3.T) (*Curve, error) {
	if len(pts) < 2 {
		return nil, errors.New("nurbs: bezier needs at least 2 control points")
	}
	degree := len(pts) - 1
	knots := make([]float64, 2*(degree+1))
	for i := degree + 1; i < len(knots); i++ {
		knots[i] = 1
	}
	return NewCurve(degree, pts, nil, knots)
}

// Circle builds a full rational circle in the plane spanned by xaxis/yaxis.
func Circle(center, xaxis, yaxis *vec3.T, radius float64) (*Curve, error) {
	return Arc(center, xaxis, yaxis, radius, 0, 2*math.Pi)
}

// Arc builds a circular arc of the given radius between two angles measured
// from xaxis toward yaxis.
func Arc(center, xaxis, yaxis *vec3.T, radius, startAngle, endAngle float64) (*Curve, error) {
	xs := xaxis.Scaled(radius)
	ys := yaxis.Scaled(radius)
	return EllipseArc(center, &xs, &ys, startAngle, endAngle)
}

// EllipseArc builds a rational elliptical arc from scaled axes (Piegl &
// Tiller algorithm A7.1). The arc is split into up to four quadratic
// segments whose interior weights are cos(dtheta/2).
func EllipseArc(center, xaxis, yaxis *vec3.T, startAngle, endAngle float64) (*Curve, error) {
	xradius, yradius := xaxis.Length(), yaxis.Length()
	if xradius < geom.Epsilon || yradius < geom.Epsilon {
		return nil, errors.New("nurbs: arc axes must be non-degenerate")
	}
	xn := xaxis.Normalized()
	yn := yaxis.Normalized()

	if endAngle < startAngle {
		endAngle += 2 * math.Pi
	}
	theta := endAngle - startAngle

	var numArcs int
	switch {
	case theta <= math.Pi/2:
		numArcs = 1
	case theta <= math.Pi:
		numArcs = 2
	case theta <= 3*math.Pi/2:
		numArcs = 3
	default:
		numArcs = 4
	}

	dtheta := theta / float64(numArcs)
	wMid := math.Cos(dtheta / 2)

	controlPoints := make([]vec3.T, 2*numArcs+1)
	weights := make([]float64, 2*numArcs+1)
	knots := make([]float64, 2*numArcs+4)

	pointAt := func(angle float64) vec3.T {
		xc := xn.Scaled(xradius * math.Cos(angle))
		yc := yn.Scaled(yradius * math.Sin(angle))
		p := vec3.Add(center, &xc)
		return vec3.Add(&p, &yc)
	}
	tangentAt := func(angle float64) vec3.T {
		xc := xn.Scaled(xradius * math.Sin(angle))
		yc := yn.Scaled(yradius * math.Cos(angle))
		return vec3.Sub(&yc, &xc)
	}

	p0 := pointAt(startAngle)
	t0 := tangentAt(startAngle)
	controlPoints[0] = p0
	weights[0] = 1

	index := 0
	angle := startAngle
	for i := 1; i <= numArcs; i++ {
		angle += dtheta
		p2 := pointAt(angle)
		t2 := tangentAt(angle)

		controlPoints[index+2] = p2
		weights[index+2] = 1

		// The middle control point sits at the intersection of the two
		// endpoint tangents.
		t0n := t0.Normalized()
		t2n := t2.Normalized()
		u0, _, ok := geom.RayRayParams(&p0, &t0n, &p2, &t2n)
		if !ok {
			return nil, errors.New("nurbs: degenerate arc tangents")
		}
		mid := t0n.Scaled(u0)
		controlPoints[index+1] = vec3.Add(&p0, &mid)
		weights[index+1] = wMid

		index += 2
		if i < numArcs {
			p0 = p2
			t0 = t2
		}
	}

	// Clamped quadratic knot vector with doubled interior knots.
	j := 2*numArcs + 1
	for i := 0; i < 3; i++ {
		knots[i+j] = 1
	}
	for seg := 1; seg < numArcs; seg++ {
		t := float64(seg) / float64(numArcs)
		knots[2*seg+1] = t
		knots[2*seg+2] = t
	}

	return NewCurve(2, controlPoints, weights, knots)
}

// ExtrudedSurface sweeps the profile curve along axis for the given length.
// The result is quadratic along the extrusion so it shares the arc/revolve
// degree structure.
func ExtrudedSurface(axis *vec3.T, length float64, profile *Curve) (*Surface, error) {
	profPts := profile.ControlPoints()
	profWeights := profile.Weights()

	translation := axis.Scaled(length)
	half := translation.Scaled(0.5)

	controlPoints := make([][]vec3.T, 3)
	weights := make([][]float64, 3)
	for i := range controlPoints {
		controlPoints[i] = make([]vec3.T, len(profPts))
		weights[i] = make([]float64, len(profPts))
	}
	for j := range profPts {
		controlPoints[2][j] = profPts[j]
		controlPoints[1][j] = vec3.Add(&half, &profPts[j])
		controlPoints[0][j] = vec3.Add(&translation, &profPts[j])
		weights[0][j] = profWeights[j]
		weights[1][j] = profWeights[j]
		weights[2][j] = profWeights[j]
	}

	return NewSurface(2, profile.Degree(), controlPoints, weights,
		[]float64{0, 0, 0, 1, 1, 1}, profile.Knots())
}

// RevolvedSurface revolves the profile curve around the axis through center
// by theta radians (Piegl & Tiller algorithm A8.1).
func RevolvedSurface(profile *Curve, center, axis *vec3.T, theta float64) (*Surface, error) {
	profPts := profile.ControlPoints()
	profWeights := profile.Weights()

	if theta <= 0 || theta > 2*math.Pi {
		theta = 2 * math.Pi
	}
	var narcs int
	switch {
	case theta <= math.Pi/2:
		narcs = 1
	case theta <= math.Pi:
		narcs = 2
	case theta <= 3*math.Pi/2:
		narcs = 3
	default:
		narcs = 4
	}

	knotsU := make([]float64, 6+2*(narcs-1))
	for seg := 1; seg < narcs; seg++ {
		t := float64(seg) / float64(narcs)
		knotsU[2*seg+1] = t
		knotsU[2*seg+2] = t
	}
	for i := 0; i < 3; i++ {
		knotsU[3+2*(narcs-1)+i] = 1
	}

	dtheta := theta / float64(narcs)
	wm := math.Cos(dtheta / 2)

	sines := make([]float64, narcs+1)
	cosines := make([]float64, narcs+1)
	var angle float64
	for i := 1; i <= narcs; i++ {
		angle += dtheta
		cosines[i] = math.Cos(angle)
		sines[i] = math.Sin(angle)
	}

	rows := 2*narcs + 1
	controlPoints := make([][]vec3.T, rows)
	weights := make([][]float64, rows)
	for i := range controlPoints {
		controlPoints[i] = make([]vec3.T, len(profPts))
		weights[i] = make([]float64, len(profPts))
	}

	axisN := axis.Normalized()
	for j := range profPts {
		o := geom.ClosestPointOnRay(&profPts[j], center, &axisN)
		x := vec3.Sub(&profPts[j], &o)
		r := x.Length()
		y := vec3.Cross(&axisN, &x)
		if r > geom.Epsilon {
			x.Scale(1 / r)
			y.Scale(1 / r)
		}

		controlPoints[0][j] = profPts[j]
		weights[0][j] = profWeights[j]

		p0 := profPts[j]
		t0 := y
		index := 0
		for i := 1; i <= narcs; i++ {
			var p2 vec3.T
			if r <= geom.Epsilon {
				p2 = o
			} else {
				xc := x.Scaled(r * cosines[i])
				yc := y.Scaled(r * sines[i])
				offset := vec3.Add(&xc, &yc)
				p2 = vec3.Add(&o, &offset)
			}
			controlPoints[index+2][j] = p2
			weights[index+2][j] = profWeights[j]

			yc := y.Scaled(cosines[i])
			xc := x.Scaled(sines[i])
			t2 := vec3.Sub(&yc, &xc)

			if r <= geom.Epsilon {
				controlPoints[index+1][j] = o
			} else {
				t0n := t0.Normalized()
				t2n := t2.Normalized()
				u0, _, ok := geom.RayRayParams(&p0, &t0n, &p2, &t2n)
				if !ok {
					u0 = 0
				}
				mid := t0n.Scaled(u0)
				controlPoints[index+1][j] = vec3.Add(&p0, &mid)
			}
			weights[index+1][j] = wm * profWeights[j]

			index += 2
			if i < narcs {
				p0 = p2
				t0 = t2
			}
		}
	}

	return NewSurface(2, profile.Degree(), controlPoints, weights, knotsU, profile.Knots())
}

// CylindricalSurface builds a cylinder wall of the given height and radius.
// axis and xaxis must be normalized and perpendicular.
func CylindricalSurface(axis, xaxis, base *vec3.T, height, radius float64) (*Surface, error) {
	yaxis := vec3.Cross(axis, xaxis)
	circ, err := Circle(base, xaxis, &yaxis, radius)
	if err != nil {
		return nil, err
	}
	return ExtrudedSurface(axis, height, circ)
}

// ConicalSurface builds a cone from base to tip.
func ConicalSurface(axis, xaxis, base *vec3.T, height, radius float64) (*Surface, error) {
	hc := axis.Scaled(height)
	rc := xaxis.Scaled(radius)
	profPts := []vec3.T{vec3.Add(base, &hc), vec3.Add(base, &rc)}
	prof, err := NewCurve(1, profPts, nil, []float64{0, 0, 1, 1})
	if err != nil {
		return nil, err
	}
	return RevolvedSurface(prof, base, axis, 2*math.Pi)
}

// SphericalSurface builds a sphere by revolving a half-circle meridian.
func SphericalSurface(center, axis, xaxis *vec3.T, radius float64) (*Surface, error) {
	inv := axis.Inverted()
	meridian, err := Arc(center, &inv, xaxis, radius, 0, math.Pi)
	if err != nil {
		return nil, err
	}
	return RevolvedSurface(meridian, center, axis, 2*math.Pi)
}

// FourPointSurface builds a bilinear patch through four corner points,
// elevated to the given degree (3 when degree <= 0).
func FourPointSurface(p1, p2, p3, p4 *vec3.T, degree int) (*Surface, error) {
	if degree <= 0 {
		degree = 3
	}
	df := float64(degree)

	pts := make([][]vec3.T, degree+1)
	for i := range pts {
		row := make([]vec3.T, degree+1)
		fu := float64(i) / df
		p12 := vec3.Interpolate(p1, p2, fu)
		p43 := vec3.Interpolate(p4, p3, fu)
		for j := range row {
			row[j] = vec3.Interpolate(&p12, &p43, float64(j)/df)
		}
		pts[i] = row
	}

	knots := make([]float64, 2*(degree+1))
	for i := degree + 1; i < len(knots); i++ {
		knots[i] = 1
	}
	return NewSurface(degree, degree, pts, nil, knots, knots)
}
