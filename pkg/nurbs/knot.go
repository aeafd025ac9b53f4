// Package nurbs implements non-uniform rational B-spline curves and surfaces:
// knot-span search, Cox-de-Boor basis functions and their derivatives, and
// rational point/derivative/curvature evaluation. The algorithms follow
// Piegl & Tiller, "The NURBS Book", 2nd edition.
package nurbs

import "errors"

// ErrInvalidKnotVector is returned when a knot vector has the wrong length
// for its degree and control net, or is not non-decreasing.
var ErrInvalidKnotVector = errors.New("nurbs: invalid knot vector")

// KnotVector is a non-decreasing sequence of parameter values.
type KnotVector []float64

// Clone returns an independent copy.
func (k KnotVector) Clone() KnotVector {
	return append(KnotVector(nil), k...)
}

// Validate checks the structural invariant len(knots) == numCtrl + degree + 1
// and monotonicity. Violations are contract errors, not recoverable states.
func (k KnotVector) Validate(degree, numCtrl int) error {
	if len(k) != numCtrl+degree+1 {
		return ErrInvalidKnotVector
	}
	for i := 1; i < len(k); i++ {
		if k[i] < k[i-1] {
			return ErrInvalidKnotVector
		}
	}
	return nil
}

// Domain returns the valid parameter range [knots[degree], knots[len-degree-1]].
func (k KnotVector) Domain(degree int) (min, max float64) {
	return k[degree], k[len(k)-degree-1]
}

// Span locates the knot span index for parameter u by binary search
// (Piegl & Tiller algorithm A2.1). Parameters at or beyond the domain ends
// clamp to the first and last non-empty spans, so evaluation at the exact
// domain maximum stays in range.
func (k KnotVector) Span(degree int, u float64) int {
	n := len(k) - degree - 2
	if u >= k[n+1] {
		return n
	}
	if u <= k[degree] {
		return degree
	}

	low, high := degree, n+1
	mid := (low + high) / 2
	for u < k[mid] || u >= k[mid+1] {
		if u < k[mid] {
			high = mid
		} else {
			low = mid
		}
		mid = (low + high) / 2
	}
	return mid
}
