package tessellate

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
	"github.com/petersancho/armature/pkg/nurbs"
)

// Surface is a tessellated surface grid flattened to triangle soup. Vertices,
// Normals, and UVs run in parallel; Faces indexes them in counter-clockwise
// winding with respect to the surface normal.
type Surface struct {
	Vertices []vec3.T
	Normals  []vec3.T
	UVs      []nurbs.UV
	Faces    [][3]int
}

// TessellateSurface samples a NURBS surface on a regular parameter grid whose
// resolution is chosen from boundary length and a curvature probe, then emits
// two triangles per grid cell.
func TessellateSurface(s *nurbs.Surface, opts Options) *Surface {
	opts = opts.sanitized()
	divsU, divsV := gridDivisions(s, opts)

	minU, maxU := s.DomainU()
	minV, maxV := s.DomainV()

	nu, nv := divsU+1, divsV+1
	ts := &Surface{
		Vertices: make([]vec3.T, 0, nu*nv),
		Normals:  make([]vec3.T, 0, nu*nv),
		UVs:      make([]nurbs.UV, 0, nu*nv),
		Faces:    make([][3]int, 0, 2*divsU*divsV),
	}

	for i := 0; i < nu; i++ {
		u := minU + (maxU-minU)*float64(i)/float64(divsU)
		for j := 0; j < nv; j++ {
			v := minV + (maxV-minV)*float64(j)/float64(divsV)
			uv := nurbs.UV{u, v}
			ts.Vertices = append(ts.Vertices, s.Point(uv))
			n := s.Normal(uv)
			if n.Length() > geom.Epsilon {
				n.Normalize()
			}
			ts.Normals = append(ts.Normals, n)
			ts.UVs = append(ts.UVs, uv)
		}
	}

	for i := 0; i < divsU; i++ {
		for j := 0; j < divsV; j++ {
			a := i*nv + j
			b := (i+1)*nv + j
			c := (i+1)*nv + j + 1
			d := i*nv + j + 1
			ts.Faces = append(ts.Faces, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return ts
}

// gridDivisions picks the sampling resolution per direction. The boundary
// tessellations estimate arc length per direction; a 3x3 interior curvature
// probe converts CurvatureTolerance into a target chord length via the
// sagitta formula l = sqrt(8*tol/k).
func gridDivisions(s *nurbs.Surface, opts Options) (divsU, divsV int) {
	bounds := s.Boundaries()
	// Coarse settings for the arc-length estimate only; the caller's sample
	// bounds apply to the grid itself.
	copts := opts
	copts.MinSamples = 8
	copts.MaxSamples = 64
	// bounds[0] and bounds[1] run along u, bounds[2] and bounds[3] along v.
	// The mid-parameter isocurves guard against boundaries that collapse to
	// a point, as at the poles of a surface of revolution.
	minU, maxU := s.DomainU()
	minV, maxV := s.DomainV()
	midU := s.Isocurve(0.5*(minV+maxV), true)
	midV := s.Isocurve(0.5*(minU+maxU), false)
	lenU := math.Max(TessellateCurve(midU, copts).Length(),
		math.Max(TessellateCurve(bounds[0], copts).Length(), TessellateCurve(bounds[1], copts).Length()))
	lenV := math.Max(TessellateCurve(midV, copts).Length(),
		math.Max(TessellateCurve(bounds[2], copts).Length(), TessellateCurve(bounds[3], copts).Length()))

	var maxK float64
	for i := 1; i <= 3; i++ {
		for j := 1; j <= 3; j++ {
			uv := nurbs.UV{
				minU + (maxU-minU)*float64(i)/4,
				minV + (maxV-minV)*float64(j)/4,
			}
			if k := s.MaxPrincipalCurvature(uv); k > maxK {
				maxK = k
			}
		}
	}

	target := math.Inf(1)
	if maxK > geom.Epsilon {
		target = math.Sqrt(8 * opts.CurvatureTolerance / maxK)
	}
	if opts.MaxSegmentLength > 0 && opts.MaxSegmentLength < target {
		target = opts.MaxSegmentLength
	}

	divs := func(length float64) int {
		if math.IsInf(target, 1) || length <= 0 {
			return opts.MinSamples
		}
		d := int(math.Ceil(length / target))
		if d < opts.MinSamples {
			d = opts.MinSamples
		}
		if d > opts.MaxSamples {
			d = opts.MaxSamples
		}
		return d
	}
	return divs(lenU), divs(lenV)
}
