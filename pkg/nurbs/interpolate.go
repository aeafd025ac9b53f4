package nurbs

import (
	"errors"

	"github.com/ungerik/go3d/float64/vec3"
	"gonum.org/v1/gonum/mat"
)

// InterpolatedCurve builds the degree-d curve passing through all the given
// points (Piegl & Tiller algorithm A9.1): chord-length parameterization,
// knot averaging, and a dense linear solve of the basis collocation matrix.
func InterpolatedCurve(points []vec3.T, degree int) (*Curve, error) {
	if degree < 1 {
		return nil, errors.New("nurbs: interpolation degree must be at least 1")
	}
	n := len(points)
	if n < degree+1 {
		return nil, errors.New("nurbs: interpolation needs at least degree+1 points")
	}

	// Chord-length parameters in [0, 1].
	params := make([]float64, n)
	var total float64
	for i := 1; i < n; i++ {
		total += vec3.Distance(&points[i-1], &points[i])
		params[i] = total
	}
	if total <= 0 {
		return nil, errors.New("nurbs: interpolation points are coincident")
	}
	for i := range params {
		params[i] /= total
	}

	// Averaged knot vector (keeps the collocation matrix banded and
	// well-conditioned).
	knots := make(KnotVector, n+degree+1)
	for i := n; i < len(knots); i++ {
		knots[i] = 1
	}
	for j := 1; j < n-degree; j++ {
		var sum float64
		for i := j; i < j+degree; i++ {
			sum += params[i]
		}
		knots[j+degree] = sum / float64(degree)
	}

	// Collocation matrix: row i holds the basis functions at params[i].
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		span := knots.Span(degree, params[i])
		basis := basisFunctions(span, params[i], degree, knots)
		for j := 0; j <= degree; j++ {
			a.Set(i, span-degree+j, basis[j])
		}
	}

	rhs := mat.NewDense(n, 3, nil)
	for i, p := range points {
		rhs.Set(i, 0, p[0])
		rhs.Set(i, 1, p[1])
		rhs.Set(i, 2, p[2])
	}

	var sol mat.Dense
	if err := sol.Solve(a, rhs); err != nil {
		return nil, errors.New("nurbs: interpolation system is singular")
	}

	ctrl := make([]vec3.T, n)
	for i := range ctrl {
		ctrl[i] = vec3.T{sol.At(i, 0), sol.At(i, 1), sol.At(i, 2)}
	}
	return NewCurve(degree, ctrl, nil, knots)
}
