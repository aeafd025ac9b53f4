package nurbs

// basisFunctions computes the degree+1 non-vanishing basis functions at u for
// the given knot span (Piegl & Tiller algorithm A2.2). The returned weights
// sum to 1.
func basisFunctions(span int, u float64, degree int, knots KnotVector) []float64 {
	basis := make([]float64, degree+1)
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)

	basis[0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u

		var saved float64
		for r := 0; r < j; r++ {
			temp := basis[r] / (right[r+1] + left[j-r])
			basis[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		basis[j] = saved
	}
	return basis
}

// derivativeBasisFunctions computes basis functions and their derivatives up
// to min(order, degree) at u for the given span (Piegl & Tiller algorithm
// A2.3). Row k of the result holds the kth derivative of each of the
// degree+1 active basis functions; row 0 is the basis values themselves.
func derivativeBasisFunctions(span int, u float64, degree, order int, knots KnotVector) [][]float64 {
	du := order
	if du > degree {
		du = degree
	}

	ndu := make([][]float64, degree+1)
	for i := range ndu {
		ndu[i] = make([]float64, degree+1)
	}
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)

	ndu[0][0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u

		var saved float64
		for r := 0; r < j; r++ {
			// Lower triangle stores the knot differences, upper the basis.
			ndu[j][r] = right[r+1] + left[j-r]
			temp := ndu[r][j-1] / ndu[j][r]
			ndu[r][j] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		ndu[j][j] = saved
	}

	ders := make([][]float64, du+1)
	for i := range ders {
		ders[i] = make([]float64, degree+1)
	}
	for j := 0; j <= degree; j++ {
		ders[0][j] = ndu[j][degree]
	}

	a := [2][]float64{make([]float64, degree+1), make([]float64, degree+1)}

	for r := 0; r <= degree; r++ {
		s1, s2 := 0, 1
		a[0][0] = 1

		for k := 1; k <= du; k++ {
			var d float64
			rk := r - k
			pk := degree - k

			if r >= k {
				a[s2][0] = a[s1][0] / ndu[pk+1][rk]
				d = a[s2][0] * ndu[rk][pk]
			}

			var j1, j2 int
			if rk >= -1 {
				j1 = 1
			} else {
				j1 = -rk
			}
			if r-1 <= pk {
				j2 = k - 1
			} else {
				j2 = degree - r
			}

			for j := j1; j <= j2; j++ {
				a[s2][j] = (a[s1][j] - a[s1][j-1]) / ndu[pk+1][rk+j]
				d += a[s2][j] * ndu[rk+j][pk]
			}

			if r <= pk {
				a[s2][k] = -a[s1][k-1] / ndu[pk+1][r]
				d += a[s2][k] * ndu[r][pk]
			}

			ders[k][r] = d
			s1, s2 = s2, s1
		}
	}

	// Multiply through by degree!/(degree-k)!.
	acc := float64(degree)
	for k := 1; k <= du; k++ {
		for j := 0; j <= degree; j++ {
			ders[k][j] *= acc
		}
		acc *= float64(degree - k)
	}

	return ders
}

// binomial returns the binomial coefficient C(n, k). The orders involved
// never exceed the spline degree, so direct computation beats memoizing
// behind a lock (the kernel must stay callable from any goroutine).
func binomial(n, k int) float64 {
	if k == 0 {
		return 1
	}
	if n == 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := 1.0
	for d := 1; d <= k; d++ {
		r *= float64(n) / float64(d)
		n--
	}
	return r
}
