package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ungerik/go3d/float64/vec3"
)

func TestBestFitPlaneExact(t *testing.T) {
	// Points exactly on z = 2.
	pts := []vec3.T{
		{0, 0, 2}, {4, 0, 2}, {4, 3, 2}, {0, 3, 2}, {2, 1.5, 2},
	}
	pl := BestFitPlane(pts)

	assert.InDelta(t, 1, math.Abs(pl.Normal[2]), 1e-9)
	assert.InDelta(t, 2, pl.Origin[2], 1e-9)

	// Basis must be orthonormal.
	assert.InDelta(t, 1, pl.XAxis.Length(), 1e-9)
	assert.InDelta(t, 1, pl.YAxis.Length(), 1e-9)
	assert.InDelta(t, 0, vec3.Dot(&pl.XAxis, &pl.YAxis), 1e-9)
	assert.InDelta(t, 0, vec3.Dot(&pl.XAxis, &pl.Normal), 1e-9)
	assert.InDelta(t, 0, vec3.Dot(&pl.YAxis, &pl.Normal), 1e-9)
}

func TestBestFitPlaneNoisy(t *testing.T) {
	// A tilted plane with symmetric out-of-plane noise: the fit must recover
	// the tilt, not the noise.
	n := vec3.T{1, 1, 1}
	n.Normalize()
	u := vec3.T{1, -1, 0}
	u.Normalize()
	v := vec3.Cross(&n, &u)

	var pts []vec3.T
	offsets := []float64{0.01, -0.01}
	for i := 0; i < 20; i++ {
		a := math.Cos(float64(i) / 20 * 2 * math.Pi)
		b := math.Sin(float64(i) / 20 * 2 * math.Pi)
		uc := u.Scaled(3 * a)
		vc := v.Scaled(2 * b)
		nc := n.Scaled(offsets[i%2])
		p := vec3.Add(&uc, &vc)
		pts = append(pts, vec3.Add(&p, &nc))
	}

	pl := BestFitPlane(pts)
	align := math.Abs(vec3.Dot(&pl.Normal, &n))
	assert.Greater(t, align, 0.999)
}

func TestBestFitPlaneCollinearFallsBack(t *testing.T) {
	// Collinear points have no unique plane; the fit must still return an
	// orthonormal frame rather than NaN.
	pts := []vec3.T{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}}
	pl := BestFitPlane(pts)

	require.False(t, math.IsNaN(pl.Normal[0]))
	assert.InDelta(t, 1, pl.Normal.Length(), 1e-9)
	assert.InDelta(t, 1, pl.XAxis.Length(), 1e-9)
}

func TestBestFitPlaneTwoPoints(t *testing.T) {
	pts := []vec3.T{{0, 0, 0}, {1, 2, 3}}
	pl := BestFitPlane(pts)
	assert.InDelta(t, 1, pl.Normal.Length(), 1e-9)
	assert.InDelta(t, 0.5, pl.Origin[0], 1e-9)
}

func TestProjectUnprojectRoundTrip(t *testing.T) {
	pts := []vec3.T{{1, 0, 1}, {3, 2, 1}, {0, 4, 1}}
	pl := BestFitPlane(pts)

	for i := range pts {
		x, y := pl.Project(&pts[i])
		back := pl.Unproject(x, y)
		assert.InDelta(t, 0, vec3.Distance(&back, &pts[i]), 1e-9, "point %d", i)
	}
}

func TestNewellNormalSquare(t *testing.T) {
	pts := []vec3.T{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	n := NewellNormal(pts)
	// The Newell normal is unnormalized with magnitude twice the loop area.
	assert.InDelta(t, 0, n[0], 1e-12)
	assert.InDelta(t, 0, n[1], 1e-12)
	assert.InDelta(t, 2, math.Abs(n[2]), 1e-12)
}
