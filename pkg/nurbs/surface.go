package nurbs

import (
	"errors"
	"math"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
)

// UV is a parameter pair on a surface.
type UV [2]float64

// Surface is an immutable NURBS surface. The control net is indexed [u][v];
// weights default to 1 when the constructor receives nil.
type Surface struct {
	degreeU, degreeV int
	controlPoints    [][]homoPoint
	knotsU, knotsV   KnotVector
}

// NewSurface validates and builds a surface. weights may be nil (uniform) or
// must match the control net dimensions.
func NewSurface(degreeU, degreeV int, controlPoints [][]vec3.T, weights [][]float64, knotsU, knotsV []float64) (*Surface, error) {
	if degreeU < 1 || degreeV < 1 {
		return nil, errors.New("nurbs: surface degrees must be at least 1")
	}
	if len(controlPoints) < degreeU+1 {
		return nil, errors.New("nurbs: surface needs at least degreeU+1 control point rows")
	}
	cols := len(controlPoints[0])
	if cols < degreeV+1 {
		return nil, errors.New("nurbs: surface needs at least degreeV+1 control point columns")
	}
	for _, row := range controlPoints {
		if len(row) != cols {
			return nil, errors.New("nurbs: control net rows must have equal length")
		}
	}
	if weights != nil && (len(weights) != len(controlPoints) || len(weights[0]) != cols) {
		return nil, errors.New("nurbs: weights grid must match control net")
	}
	if err := KnotVector(knotsU).Validate(degreeU, len(controlPoints)); err != nil {
		return nil, err
	}
	if err := KnotVector(knotsV).Validate(degreeV, cols); err != nil {
		return nil, err
	}

	cps := make([][]homoPoint, len(controlPoints))
	for i, row := range controlPoints {
		cps[i] = make([]homoPoint, cols)
		for j, p := range row {
			w := 1.0
			if weights != nil {
				w = weights[i][j]
			}
			cps[i][j] = homoPoint{p.Scaled(w), w}
		}
	}
	return &Surface{
		degreeU: degreeU, degreeV: degreeV,
		controlPoints: cps,
		knotsU:        KnotVector(knotsU).Clone(),
		knotsV:        KnotVector(knotsV).Clone(),
	}, nil
}

// DegreeU returns the degree along u.
func (s *Surface) DegreeU() int { return s.degreeU }

// DegreeV returns the degree along v.
func (s *Surface) DegreeV() int { return s.degreeV }

// KnotsU returns a copy of the u knot vector.
func (s *Surface) KnotsU() []float64 { return s.knotsU.Clone() }

// KnotsV returns a copy of the v knot vector.
func (s *Surface) KnotsV() []float64 { return s.knotsV.Clone() }

// DomainU returns the valid u range.
func (s *Surface) DomainU() (min, max float64) { return s.knotsU.Domain(s.degreeU) }

// DomainV returns the valid v range.
func (s *Surface) DomainV() (min, max float64) { return s.knotsV.Domain(s.degreeV) }

// ControlPoints returns the Cartesian control net.
func (s *Surface) ControlPoints() [][]vec3.T {
	pts := make([][]vec3.T, len(s.controlPoints))
	for i, row := range s.controlPoints {
		pts[i] = make([]vec3.T, len(row))
		for j := range row {
			pts[i][j] = row[j].dehomogenized()
		}
	}
	return pts
}

// Point evaluates the surface at (u, v).
func (s *Surface) Point(uv UV) vec3.T {
	spanU := s.knotsU.Span(s.degreeU, uv[0])
	spanV := s.knotsV.Span(s.degreeV, uv[1])
	basisU := basisFunctions(spanU, uv[0], s.degreeU, s.knotsU)
	basisV := basisFunctions(spanV, uv[1], s.degreeV, s.knotsV)

	var pos homoPoint
	for l := 0; l <= s.degreeV; l++ {
		var temp homoPoint
		vind := spanV - s.degreeV + l
		for k := 0; k <= s.degreeU; k++ {
			sc := s.controlPoints[spanU-s.degreeU+k][vind].scaled(basisU[k])
			temp.add(&sc)
		}
		sc := temp.scaled(basisV[l])
		pos.add(&sc)
	}
	return pos.dehomogenized()
}

// Derivatives evaluates the point and mixed partial derivatives up to the
// given order. Result[k][l] is the derivative taken k times along u and l
// times along v; [0][0] is the point (Piegl & Tiller algorithms A3.6/A4.4).
func (s *Surface) Derivatives(uv UV, order int) [][]vec3.T {
	du := order
	if du > s.degreeU {
		du = s.degreeU
	}
	dv := order
	if dv > s.degreeV {
		dv = s.degreeV
	}

	spanU := s.knotsU.Span(s.degreeU, uv[0])
	spanV := s.knotsV.Span(s.degreeV, uv[1])
	udersB := derivativeBasisFunctions(spanU, uv[0], s.degreeU, du, s.knotsU)
	vdersB := derivativeBasisFunctions(spanV, uv[1], s.degreeV, dv, s.knotsV)

	// Homogeneous derivatives Sw(k,l).
	hders := make([][]homoPoint, order+1)
	for i := range hders {
		hders[i] = make([]homoPoint, order+1)
	}
	temp := make([]homoPoint, s.degreeV+1)
	for k := 0; k <= du; k++ {
		for sCol := 0; sCol <= s.degreeV; sCol++ {
			temp[sCol] = homoPoint{}
			for r := 0; r <= s.degreeU; r++ {
				sc := s.controlPoints[spanU-s.degreeU+r][spanV-s.degreeV+sCol].scaled(udersB[k][r])
				temp[sCol].add(&sc)
			}
		}
		dd := order - k
		if dd > dv {
			dd = dv
		}
		for l := 0; l <= dd; l++ {
			for sCol := 0; sCol <= s.degreeV; sCol++ {
				sc := temp[sCol].scaled(vdersB[l][sCol])
				hders[k][l].add(&sc)
			}
		}
	}

	w0 := hders[0][0].w
	if math.Abs(w0) <= geom.Tolerance {
		w0 = 1
	}

	// Rational recovery via the two-index quotient rule.
	skl := make([][]vec3.T, order+1)
	for i := range skl {
		skl[i] = make([]vec3.T, order+1)
	}
	for k := 0; k <= order; k++ {
		for l := 0; l <= order-k; l++ {
			v := hders[k][l].vec

			for j := 1; j <= l; j++ {
				sc := skl[k][l-j].Scaled(binomial(l, j) * hders[0][j].w)
				v.Sub(&sc)
			}
			for i := 1; i <= k; i++ {
				sc := skl[k-i][l].Scaled(binomial(k, i) * hders[i][0].w)
				v.Sub(&sc)

				var v2 vec3.T
				for j := 1; j <= l; j++ {
					sc := skl[k-i][l-j].Scaled(binomial(l, j) * hders[i][j].w)
					v2.Add(&sc)
				}
				sc = v2.Scaled(binomial(k, i))
				v.Sub(&sc)
			}

			v.Scale(1 / w0)
			skl[k][l] = v
		}
	}
	return skl
}

// Normal returns the unnormalized surface normal du x dv at (u, v).
func (s *Surface) Normal(uv UV) vec3.T {
	ders := s.Derivatives(uv, 1)
	return vec3.Cross(&ders[1][0], &ders[0][1])
}

// Curvatures returns the mean and Gaussian curvature at (u, v), computed
// from the first (E, F, G) and second (L, M, N) fundamental forms. A
// degenerate normal or near-singular EG-F^2 yields zero curvatures instead
// of NaN.
func (s *Surface) Curvatures(uv UV) (mean, gaussian float64) {
	ders := s.Derivatives(uv, 2)
	du, dv := ders[1][0], ders[0][1]
	duu, dvv, duv := ders[2][0], ders[0][2], ders[1][1]

	n := vec3.Cross(&du, &dv)
	nl := n.Length()
	if nl < geom.Epsilon {
		return 0, 0
	}
	n.Scale(1 / nl)

	e := vec3.Dot(&du, &du)
	f := vec3.Dot(&du, &dv)
	g := vec3.Dot(&dv, &dv)
	l := vec3.Dot(&duu, &n)
	m := vec3.Dot(&duv, &n)
	nn := vec3.Dot(&dvv, &n)

	denom := e*g - f*f
	if math.Abs(denom) < geom.Tolerance {
		return 0, 0
	}
	mean = (e*nn - 2*f*m + g*l) / (2 * denom)
	gaussian = (l*nn - m*m) / denom
	return mean, gaussian
}

// MaxPrincipalCurvature returns the larger absolute principal curvature at
// (u, v), recovered from mean and Gaussian curvature. Used by the adaptive
// tessellator to size grid cells.
func (s *Surface) MaxPrincipalCurvature(uv UV) float64 {
	mean, gaussian := s.Curvatures(uv)
	disc := mean*mean - gaussian
	if disc < 0 {
		disc = 0
	}
	root := math.Sqrt(disc)
	k1 := math.Abs(mean + root)
	k2 := math.Abs(mean - root)
	if k2 > k1 {
		return k2
	}
	return k1
}

// Boundaries returns the four boundary isocurves: v=min, v=max, u=min, u=max.
func (s *Surface) Boundaries() []*Curve {
	minU, maxU := s.DomainU()
	minV, maxV := s.DomainV()
	return []*Curve{
		s.Isocurve(minV, true),
		s.Isocurve(maxV, true),
		s.Isocurve(minU, false),
		s.Isocurve(maxU, false),
	}
}

// Isocurve extracts the curve at a fixed parameter: fixed v when alongU is
// true (the curve runs along u), fixed u otherwise. The extraction samples
// the active control rows with the basis at the fixed parameter, which is
// exact for the surface's own degree.
func (s *Surface) Isocurve(fixed float64, alongU bool) *Curve {
	if alongU {
		spanV := s.knotsV.Span(s.degreeV, fixed)
		basisV := basisFunctions(spanV, fixed, s.degreeV, s.knotsV)

		cps := make([]homoPoint, len(s.controlPoints))
		for i := range s.controlPoints {
			var p homoPoint
			for l := 0; l <= s.degreeV; l++ {
				sc := s.controlPoints[i][spanV-s.degreeV+l].scaled(basisV[l])
				p.add(&sc)
			}
			cps[i] = p
		}
		return &Curve{degree: s.degreeU, controlPoints: cps, knots: s.knotsU.Clone()}
	}

	spanU := s.knotsU.Span(s.degreeU, fixed)
	basisU := basisFunctions(spanU, fixed, s.degreeU, s.knotsU)

	cps := make([]homoPoint, len(s.controlPoints[0]))
	for j := range cps {
		var p homoPoint
		for k := 0; k <= s.degreeU; k++ {
			sc := s.controlPoints[spanU-s.degreeU+k][j].scaled(basisU[k])
			p.add(&sc)
		}
		cps[j] = p
	}
	return &Curve{degree: s.degreeV, controlPoints: cps, knots: s.knotsV.Clone()}
}
