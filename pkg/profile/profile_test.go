package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
	"github.com/petersancho/armature/pkg/mesh"
)

func xyPlane() geom.PlaneDefinition {
	return geom.PlaneDefinition{
		Origin: vec3.T{0, 0, 0},
		Normal: vec3.UnitZ,
		XAxis:  vec3.UnitX,
		YAxis:  vec3.UnitY,
	}
}

func TestRectangleArea(t *testing.T) {
	r, err := Rectangle(xyPlane(), 4, 2)
	require.NoError(t, err)
	assert.InDelta(t, 8, r.Area(), 1e-12)

	_, err = Rectangle(xyPlane(), 0, 2)
	assert.Error(t, err)
}

func TestFromPointsProjectsOntoPlane(t *testing.T) {
	pts := []vec3.T{{0, 0, 3}, {2, 0, 3}, {2, 2, 3}, {0, 2, 3}}
	p, err := FromPoints(pts)
	require.NoError(t, err)
	assert.InDelta(t, 4, p.Area(), 1e-9)

	_, err = FromPoints(pts[:2])
	assert.Error(t, err)
}

func TestBooleanAreas(t *testing.T) {
	big, err := Rectangle(xyPlane(), 4, 4)
	require.NoError(t, err)
	small, err := Rectangle(xyPlane(), 2, 2)
	require.NoError(t, err)

	assert.InDelta(t, 16, big.Union(small).Area(), 1e-9)
	assert.InDelta(t, 4, big.Intersection(small).Area(), 1e-9)
	assert.InDelta(t, 12, big.Difference(small).Area(), 1e-9)
	assert.InDelta(t, 12, big.Xor(small).Area(), 1e-9)
}

func TestDifferenceProducesHole(t *testing.T) {
	big, err := Rectangle(xyPlane(), 4, 4)
	require.NoError(t, err)
	small, err := Rectangle(xyPlane(), 2, 2)
	require.NoError(t, err)

	ring := big.Difference(small)
	assert.Equal(t, 2, ring.contourCount())

	m, err := ring.Triangulate()
	require.NoError(t, err)
	var area float64
	for fi := range m.Faces {
		area += m.FaceArea(fi)
	}
	assert.InDelta(t, 12, area, 1e-9)
}

func TestExtrudeRectangleIsClosedBox(t *testing.T) {
	r, err := Rectangle(xyPlane(), 2, 1)
	require.NoError(t, err)

	solid, err := r.Extrude(3)
	require.NoError(t, err)

	// 2 caps x 2 triangles + 4 wall quads.
	assert.Len(t, solid.Faces, 8)
	assert.Len(t, solid.Vertices, 8)

	topo := mesh.NewTopology(solid)
	assert.Empty(t, topo.BoundaryLoops(), "extruded box must be watertight")

	_, err = r.Extrude(0)
	assert.Error(t, err)
}

func TestExtrudeRingHasHole(t *testing.T) {
	big, err := Rectangle(xyPlane(), 4, 4)
	require.NoError(t, err)
	small, err := Rectangle(xyPlane(), 2, 2)
	require.NoError(t, err)
	ring := big.Difference(small)

	solid, err := ring.Extrude(1)
	require.NoError(t, err)

	topo := mesh.NewTopology(solid)
	assert.Empty(t, topo.BoundaryLoops(), "extruded ring must be watertight")

	// Inner wall vertices exist on both z levels.
	foundInner := false
	for _, v := range solid.Vertices {
		if v[0] > -1.1 && v[0] < 1.1 && v[1] > -1.1 && v[1] < 1.1 && v[2] == 1 {
			foundInner = true
		}
	}
	assert.True(t, foundInner)
}
