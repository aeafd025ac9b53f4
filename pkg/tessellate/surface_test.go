package tessellate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/nurbs"
)

func TestTessellateSurfaceFlatPatch(t *testing.T) {
	p1 := vec3.T{0, 0, 0}
	p2 := vec3.T{2, 0, 0}
	p3 := vec3.T{2, 2, 0}
	p4 := vec3.T{0, 2, 0}
	s, err := nurbs.FourPointSurface(&p1, &p2, &p3, &p4, 3)
	require.NoError(t, err)

	opts := DefaultOptions()
	ts := TessellateSurface(s, opts)
	require.NotEmpty(t, ts.Faces)
	require.Equal(t, len(ts.Vertices), len(ts.Normals))
	require.Equal(t, len(ts.Vertices), len(ts.UVs))

	// A flat patch gets the minimum grid: MinSamples cells per axis.
	n := opts.MinSamples + 1
	assert.Len(t, ts.Vertices, n*n)
	assert.Len(t, ts.Faces, 2*opts.MinSamples*opts.MinSamples)

	for i, v := range ts.Vertices {
		assert.InDelta(t, 0, v[2], 1e-9, "vertex %d off plane", i)
	}
	for i, n := range ts.Normals {
		assert.InDelta(t, 1, math.Abs(n[2]), 1e-9, "normal %d not +/-z", i)
	}
}

func TestTessellateSurfaceFaceIndicesValid(t *testing.T) {
	base := vec3.T{0, 0, 0}
	s, err := nurbs.CylindricalSurface(&vec3.UnitZ, &vec3.UnitX, &base, 4, 1)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.MaxSamples = 64
	ts := TessellateSurface(s, opts)
	for fi, f := range ts.Faces {
		for _, idx := range f {
			require.GreaterOrEqual(t, idx, 0, "face %d", fi)
			require.Less(t, idx, len(ts.Vertices), "face %d", fi)
		}
	}
}

func TestTessellateSurfaceWindingMatchesNormal(t *testing.T) {
	p1 := vec3.T{0, 0, 0}
	p2 := vec3.T{1, 0, 0}
	p3 := vec3.T{1, 1, 0}
	p4 := vec3.T{0, 1, 0}
	s, err := nurbs.FourPointSurface(&p1, &p2, &p3, &p4, 1)
	require.NoError(t, err)

	ts := TessellateSurface(s, DefaultOptions())
	for fi, f := range ts.Faces {
		a, b, c := ts.Vertices[f[0]], ts.Vertices[f[1]], ts.Vertices[f[2]]
		e1 := vec3.Sub(&b, &a)
		e2 := vec3.Sub(&c, &a)
		fn := vec3.Cross(&e1, &e2)
		// The face normal must agree with the sampled surface normal.
		dot := vec3.Dot(&fn, &ts.Normals[f[0]])
		assert.Greater(t, dot, 0.0, "face %d wound against the normal", fi)
	}
}

func TestTessellateSurfaceCurvedGetsFinerGrid(t *testing.T) {
	center := vec3.T{0, 0, 0}
	sphere, err := nurbs.SphericalSurface(&center, &vec3.UnitZ, &vec3.UnitX, 5)
	require.NoError(t, err)

	flatP1 := vec3.T{0, 0, 0}
	flatP2 := vec3.T{10, 0, 0}
	flatP3 := vec3.T{10, 10, 0}
	flatP4 := vec3.T{0, 10, 0}
	flat, err := nurbs.FourPointSurface(&flatP1, &flatP2, &flatP3, &flatP4, 3)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.MaxSamples = 64
	curved := TessellateSurface(sphere, opts)
	planar := TessellateSurface(flat, opts)
	assert.Greater(t, len(curved.Faces), len(planar.Faces))
}

func TestTessellateSurfaceSphereAccuracy(t *testing.T) {
	center := vec3.T{0, 0, 0}
	radius := 2.0
	sphere, err := nurbs.SphericalSurface(&center, &vec3.UnitZ, &vec3.UnitX, radius)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.MaxSamples = 64
	ts := TessellateSurface(sphere, opts)
	for i, v := range ts.Vertices {
		assert.InDelta(t, radius, v.Length(), 1e-9, "vertex %d off sphere", i)
	}
}

func TestTessellateSurfaceHonorsSampleFloor(t *testing.T) {
	p1 := vec3.T{0, 0, 0}
	p2 := vec3.T{2, 0, 0}
	p3 := vec3.T{2, 2, 0}
	p4 := vec3.T{0, 2, 0}
	s, err := nurbs.FourPointSurface(&p1, &p2, &p3, &p4, 1)
	require.NoError(t, err)

	// A flat patch yields no curvature target, so the caller's floor alone
	// decides the resolution: 50 cells per axis, a 51x51 vertex grid.
	opts := DefaultOptions()
	opts.MinSamples = 50
	ts := TessellateSurface(s, opts)
	assert.Len(t, ts.Vertices, 51*51)
	assert.Len(t, ts.Faces, 2*50*50)
}

func TestTessellateSurfaceHonorsSampleCap(t *testing.T) {
	center := vec3.T{0, 0, 0}
	sphere, err := nurbs.SphericalSurface(&center, &vec3.UnitZ, &vec3.UnitX, 100)
	require.NoError(t, err)

	// A large sphere wants far more cells than the cap allows.
	opts := DefaultOptions()
	opts.MaxSamples = 16
	ts := TessellateSurface(sphere, opts)
	assert.Len(t, ts.Vertices, 17*17)
}
