// Package tessellate converts NURBS curves and surfaces into polylines and
// triangle meshes, and walks a design graph to tessellate every part in it.
// Sampling is adaptive: flat regions get few samples, curved regions get many.
package tessellate

// Options controls adaptive sampling density.
type Options struct {
	// MaxSegmentLength bounds the chord length of any emitted segment.
	// Zero disables the length criterion.
	MaxSegmentLength float64

	// MaxAngle bounds the turning angle (radians) between adjacent
	// segments. Zero disables the angle criterion.
	MaxAngle float64

	// MinSamples is the uniform seed count before refinement.
	MinSamples int

	// MaxSamples caps the total sample count after refinement.
	MaxSamples int

	// CurvatureTolerance is the allowed sagitta between the true curve or
	// surface and its linear approximation.
	CurvatureTolerance float64
}

// DefaultOptions returns the sampling density used by the graph walker when a
// node does not override it.
func DefaultOptions() Options {
	return Options{
		MaxSegmentLength:   0,
		MaxAngle:           0.35,
		MinSamples:         8,
		MaxSamples:         512,
		CurvatureTolerance: 1e-3,
	}
}

// sanitized clamps nonsensical option values to usable ones.
func (o Options) sanitized() Options {
	if o.MinSamples < 2 {
		o.MinSamples = 2
	}
	if o.MaxSamples < o.MinSamples {
		o.MaxSamples = o.MinSamples
	}
	if o.CurvatureTolerance <= 0 {
		o.CurvatureTolerance = 1e-3
	}
	return o
}
