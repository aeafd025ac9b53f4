package triangulate

import (
	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
)

// TriangulateLoop triangulates a closed 3D vertex loop, with optional hole
// loops, by projecting everything onto the best-fit plane of the outline.
// The returned indices refer to the concatenation of outline and holes in
// order.
func TriangulateLoop(outline []vec3.T, holes [][]vec3.T) ([]int, error) {
	if len(outline) < 3 {
		return nil, ErrDegeneratePolygon
	}
	pl := geom.BestFitPlane(outline)

	total := len(outline)
	for _, h := range holes {
		total += len(h)
	}

	coords := make([]float64, 0, total*2)
	push := func(pts []vec3.T) {
		for i := range pts {
			x, y := pl.Project(&pts[i])
			coords = append(coords, x, y)
		}
	}
	push(outline)

	var holeIndices []int
	offset := len(outline)
	for _, h := range holes {
		holeIndices = append(holeIndices, offset)
		push(h)
		offset += len(h)
	}

	return Triangulate(coords, holeIndices)
}
