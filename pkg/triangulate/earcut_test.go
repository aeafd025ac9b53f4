package triangulate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ungerik/go3d/float64/vec3"
)

// triangleArea2D sums the unsigned area of the triangles produced for the
// given coordinate list.
func triangleArea2D(coords []float64, tris []int) float64 {
	var sum float64
	for i := 0; i+2 < len(tris); i += 3 {
		ax, ay := coords[tris[i]*2], coords[tris[i]*2+1]
		bx, by := coords[tris[i+1]*2], coords[tris[i+1]*2+1]
		cx, cy := coords[tris[i+2]*2], coords[tris[i+2]*2+1]
		sum += math.Abs((bx-ax)*(cy-ay)-(cx-ax)*(by-ay)) / 2
	}
	return sum
}

func TestTriangulateSquare(t *testing.T) {
	coords := []float64{0, 0, 1, 0, 1, 1, 0, 1}
	tris, err := Triangulate(coords, nil)
	require.NoError(t, err)
	assert.Len(t, tris, 6)
	assert.InDelta(t, 1, triangleArea2D(coords, tris), 1e-12)
}

// A convex n-gon must yield exactly n-2 triangles whose areas sum to the
// polygon area.
func TestTriangulateConvexPolygon(t *testing.T) {
	for _, n := range []int{3, 5, 8, 17, 33} {
		coords := make([]float64, 0, n*2)
		for i := 0; i < n; i++ {
			a := 2 * math.Pi * float64(i) / float64(n)
			coords = append(coords, math.Cos(a), math.Sin(a))
		}
		tris, err := Triangulate(coords, nil)
		require.NoError(t, err, "n=%d", n)
		assert.Len(t, tris, (n-2)*3, "n=%d", n)

		want := float64(n) / 2 * math.Sin(2*math.Pi/float64(n))
		assert.InDelta(t, want, triangleArea2D(coords, tris), 1e-9, "n=%d", n)
	}
}

func TestTriangulateConcavePolygon(t *testing.T) {
	// An L shape: area 3.
	coords := []float64{0, 0, 2, 0, 2, 1, 1, 1, 1, 2, 0, 2}
	tris, err := Triangulate(coords, nil)
	require.NoError(t, err)
	assert.Len(t, tris, 12)
	assert.InDelta(t, 3, triangleArea2D(coords, tris), 1e-12)
}

func TestTriangulateSquareWithHole(t *testing.T) {
	coords := []float64{
		0, 0, 4, 0, 4, 4, 0, 4, // outline, area 16
		1, 1, 1, 3, 3, 3, 3, 1, // hole, area 4
	}
	tris, err := Triangulate(coords, []int{4})
	require.NoError(t, err)
	assert.InDelta(t, 12, triangleArea2D(coords, tris), 1e-9)

	for _, idx := range tris {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 8)
	}
}

func TestTriangulateTwoHoles(t *testing.T) {
	coords := []float64{
		0, 0, 10, 0, 10, 10, 0, 10, // outline, area 100
		1, 1, 1, 3, 3, 3, 3, 1, // hole, area 4
		6, 6, 6, 8, 8, 8, 8, 6, // hole, area 4
	}
	tris, err := Triangulate(coords, []int{4, 8})
	require.NoError(t, err)
	assert.InDelta(t, 92, triangleArea2D(coords, tris), 1e-9)
}

func TestTriangulateDegenerate(t *testing.T) {
	_, err := Triangulate([]float64{0, 0, 1, 1}, nil)
	assert.ErrorIs(t, err, ErrDegeneratePolygon)

	// Collinear points have no area.
	_, err = Triangulate([]float64{0, 0, 1, 0, 2, 0}, nil)
	assert.ErrorIs(t, err, ErrDegeneratePolygon)
}

func TestTriangulateWindingIndependent(t *testing.T) {
	cw := []float64{0, 0, 0, 1, 1, 1, 1, 0}
	ccw := []float64{0, 0, 1, 0, 1, 1, 0, 1}

	t1, err := Triangulate(cw, nil)
	require.NoError(t, err)
	t2, err := Triangulate(ccw, nil)
	require.NoError(t, err)
	assert.Len(t, t1, 6)
	assert.Len(t, t2, 6)
}

// Large polygons cross the spatial-index threshold; the result must still
// cover the full area.
func TestTriangulateLargePolygonUsesIndex(t *testing.T) {
	n := 200
	coords := make([]float64, 0, n*2)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		r := 10.0
		if i%2 == 1 {
			r = 9.5 // slight concavity on every other vertex
		}
		coords = append(coords, r*math.Cos(a), r*math.Sin(a))
	}
	tris, err := Triangulate(coords, nil)
	require.NoError(t, err)
	assert.Len(t, tris, (n-2)*3)

	got := triangleArea2D(coords, tris)
	var want float64
	j := n - 1
	for i := 0; i < n; i++ {
		want += coords[j*2]*coords[i*2+1] - coords[i*2]*coords[j*2+1]
		j = i
	}
	want = math.Abs(want) / 2
	assert.InDelta(t, want, got, 1e-6)
}

func TestTriangulateLoop3D(t *testing.T) {
	// A tilted quad in 3D.
	outline := []vec3.T{
		{0, 0, 0}, {2, 0, 1}, {2, 2, 1}, {0, 2, 0},
	}
	tris, err := TriangulateLoop(outline, nil)
	require.NoError(t, err)
	assert.Len(t, tris, 6)
}

func TestTriangulateLoop3DWithHole(t *testing.T) {
	outline := []vec3.T{{0, 0, 5}, {4, 0, 5}, {4, 4, 5}, {0, 4, 5}}
	hole := []vec3.T{{1, 1, 5}, {1, 3, 5}, {3, 3, 5}, {3, 1, 5}}

	tris, err := TriangulateLoop(outline, [][]vec3.T{hole})
	require.NoError(t, err)
	require.NotEmpty(t, tris)
	for _, idx := range tris {
		assert.Less(t, idx, 8)
	}
}
