package intersect

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
	"github.com/petersancho/armature/pkg/mesh"
)

// MeshHit is a ray/triangle-mesh intersection.
type MeshHit struct {
	Point    vec3.T
	T        float64
	Triangle int
	Bary     [3]float64
}

// RayTriangle runs the Moller-Trumbore test against a single triangle.
// Backfaces count as hits; t is negative-free (hits behind the origin are
// misses).
func RayTriangle(ray *Ray, a, b, c *vec3.T) (t, u, v float64, hit bool) {
	e1 := vec3.Sub(b, a)
	e2 := vec3.Sub(c, a)
	p := vec3.Cross(&ray.Dir, &e2)
	det := vec3.Dot(&e1, &p)
	if math.Abs(det) < geom.Tolerance {
		return 0, 0, 0, false
	}
	inv := 1 / det

	s := vec3.Sub(&ray.Origin, a)
	u = vec3.Dot(&s, &p) * inv
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := vec3.Cross(&s, &e1)
	v = vec3.Dot(&ray.Dir, &q) * inv
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = vec3.Dot(&e2, &q) * inv
	if t < 0 {
		return 0, 0, 0, false
	}
	return t, u, v, true
}

// RayRenderMesh returns the nearest triangle hit on a render mesh, for
// picking. ok is false when the ray misses every triangle.
func RayRenderMesh(ray *Ray, rm *mesh.RenderMesh) (MeshHit, bool) {
	best := MeshHit{T: math.Inf(1), Triangle: -1}

	vertexAt := func(i uint32) vec3.T {
		return vec3.T{
			float64(rm.Positions[i*3]),
			float64(rm.Positions[i*3+1]),
			float64(rm.Positions[i*3+2]),
		}
	}

	for tri := 0; tri*3+2 < len(rm.Indices); tri++ {
		a := vertexAt(rm.Indices[tri*3])
		b := vertexAt(rm.Indices[tri*3+1])
		c := vertexAt(rm.Indices[tri*3+2])
		t, u, v, hit := RayTriangle(ray, &a, &b, &c)
		if hit && t < best.T {
			best = MeshHit{
				Point:    ray.At(t),
				T:        t,
				Triangle: tri,
				Bary:     [3]float64{1 - u - v, u, v},
			}
		}
	}
	return best, best.Triangle >= 0
}
