// Package kernel defines the abstract solid-modeling kernel interface.
// Implementations provide solid primitives and boolean operations behind
// this interface, so the rest of the system can swap backends without
// changing any call sites. Tessellated output is the shared
// mesh.RenderMesh type.
package kernel

import "github.com/petersancho/armature/pkg/mesh"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract solid kernel interface.
type Kernel interface {
	// Primitives, centered at the origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid
	Sphere(radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output
	ToMesh(s Solid) (*mesh.RenderMesh, error)
}
