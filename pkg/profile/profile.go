// Package profile models closed 2D regions on a work plane and the boolean
// operations between them. Profiles are where slots, lattices, and cutouts
// are modeled; the result is triangulated or extruded into meshes. Boolean
// clipping is delegated to polyclip-go.
package profile

import (
	"errors"
	"fmt"

	polyclip "github.com/akavel/polyclip-go"
	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
	"github.com/petersancho/armature/pkg/mesh"
	"github.com/petersancho/armature/pkg/nurbs"
	"github.com/petersancho/armature/pkg/tessellate"
	"github.com/petersancho/armature/pkg/triangulate"
)

// Profile is a set of closed contours on a plane. The first contour of each
// region is an outline; contours nested inside count as holes under the
// even-odd rule applied by the clipper.
type Profile struct {
	Plane geom.PlaneDefinition
	poly  polyclip.Polygon
}

// FromPoints builds a single-contour profile from 3D points projected onto
// their best-fit plane.
func FromPoints(points []vec3.T) (*Profile, error) {
	if len(points) < 3 {
		return nil, errors.New("profile: need at least 3 points")
	}
	pl := geom.BestFitPlane(points)
	contour := make(polyclip.Contour, len(points))
	for i := range points {
		x, y := pl.Project(&points[i])
		contour[i] = polyclip.Point{X: x, Y: y}
	}
	return &Profile{Plane: pl, poly: polyclip.Polygon{contour}}, nil
}

// FromCurve tessellates a closed curve and builds a profile from the samples.
func FromCurve(c *nurbs.Curve, opts tessellate.Options) (*Profile, error) {
	tc := tessellate.TessellateCurve(c, opts)
	pts := tc.Points
	// Closed curves repeat the seam point; drop it.
	if len(pts) > 1 && vec3.Distance(&pts[0], &pts[len(pts)-1]) < geom.Epsilon {
		pts = pts[:len(pts)-1]
	}
	return FromPoints(pts)
}

// Rectangle builds an axis-aligned rectangle on the given plane, centered at
// the plane origin.
func Rectangle(pl geom.PlaneDefinition, width, height float64) (*Profile, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("profile: rectangle needs positive extents")
	}
	w, h := width/2, height/2
	return &Profile{Plane: pl, poly: polyclip.Polygon{{
		{X: -w, Y: -h}, {X: w, Y: -h}, {X: w, Y: h}, {X: -w, Y: h},
	}}}, nil
}

// contourCount returns the number of contours, for tests and diagnostics.
func (p *Profile) contourCount() int { return len(p.poly) }

// Area returns the total signed area of the profile's contours.
func (p *Profile) Area() float64 {
	var sum float64
	for _, c := range p.poly {
		n := len(c)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			sum += c[i].X*c[j].Y - c[j].X*c[i].Y
		}
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}

// clip applies a polyclip boolean, keeping the receiver's plane. The other
// profile's contours are reused as-is: both profiles must share a plane for
// the operation to be meaningful.
func (p *Profile) clip(op polyclip.Op, other *Profile) *Profile {
	return &Profile{Plane: p.Plane, poly: p.poly.Construct(op, other.poly)}
}

// Union returns the region covered by either profile.
func (p *Profile) Union(other *Profile) *Profile {
	return p.clip(polyclip.UNION, other)
}

// Difference returns the receiver's region minus the other profile.
func (p *Profile) Difference(other *Profile) *Profile {
	return p.clip(polyclip.DIFFERENCE, other)
}

// Intersection returns the region covered by both profiles.
func (p *Profile) Intersection(other *Profile) *Profile {
	return p.clip(polyclip.INTERSECTION, other)
}

// Xor returns the region covered by exactly one profile.
func (p *Profile) Xor(other *Profile) *Profile {
	return p.clip(polyclip.XOR, other)
}

// Contours returns the profile's contours lifted back to 3D.
func (p *Profile) Contours() [][]vec3.T {
	out := make([][]vec3.T, len(p.poly))
	for i, c := range p.poly {
		loop := make([]vec3.T, len(c))
		for j, pt := range c {
			loop[j] = p.Plane.Unproject(pt.X, pt.Y)
		}
		out[i] = loop
	}
	return out
}

// Triangulate triangulates the profile region. The largest-area contour is
// the outline; all others are holes.
func (p *Profile) Triangulate() (*mesh.Mesh, error) {
	outline, holes, err := p.splitContours()
	if err != nil {
		return nil, err
	}
	tris, err := triangulate.TriangulateLoop(outline, holes)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	verts := append([]vec3.T(nil), outline...)
	for _, h := range holes {
		verts = append(verts, h...)
	}
	m := &mesh.Mesh{Vertices: verts}
	for i := 0; i+2 < len(tris); i += 3 {
		m.Faces = append(m.Faces, []int{tris[i], tris[i+1], tris[i+2]})
	}
	return m, nil
}

// Extrude sweeps the profile along its plane normal by depth, producing a
// capped solid: bottom cap, top cap with flipped winding, and wall quads
// along every contour.
func (p *Profile) Extrude(depth float64) (*mesh.Mesh, error) {
	if geom.IsZero(depth) {
		return nil, errors.New("profile: extrude depth must be non-zero")
	}
	outline, holes, err := p.splitContours()
	if err != nil {
		return nil, err
	}
	tris, err := triangulate.TriangulateLoop(outline, holes)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	// Cap vertex order is outline followed by holes; the wall rings below
	// walk the same loop order so indices line up.
	loops := append([][]vec3.T{outline}, holes...)
	var bottom []vec3.T
	for _, l := range loops {
		bottom = append(bottom, l...)
	}
	offset := p.Plane.Normal.Scaled(depth)

	nv := len(bottom)
	out := &mesh.Mesh{Vertices: make([]vec3.T, 0, nv*2)}
	out.Vertices = append(out.Vertices, bottom...)
	for i := 0; i < nv; i++ {
		out.Vertices = append(out.Vertices, vec3.Add(&bottom[i], &offset))
	}

	// Bottom cap reversed, top cap as-is, so both face outward.
	for i := 0; i+2 < len(tris); i += 3 {
		out.Faces = append(out.Faces, []int{tris[i+2], tris[i+1], tris[i]})
		out.Faces = append(out.Faces, []int{tris[i] + nv, tris[i+1] + nv, tris[i+2] + nv})
	}

	base := 0
	for _, l := range loops {
		n := len(l)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			a, b := base+i, base+j
			out.Faces = append(out.Faces, []int{a, b, b + nv, a + nv})
		}
		base += n
	}
	return out, nil
}

// splitContours separates the largest contour (outline) from the rest
// (holes), lifted to 3D.
func (p *Profile) splitContours() (outline []vec3.T, holes [][]vec3.T, err error) {
	if len(p.poly) == 0 {
		return nil, nil, errors.New("profile: empty region")
	}
	loops := p.Contours()

	best, bestArea := 0, -1.0
	for i, c := range p.poly {
		var a float64
		n := len(c)
		for j := 0; j < n; j++ {
			k := (j + 1) % n
			a += c[j].X*c[k].Y - c[k].X*c[j].Y
		}
		if a < 0 {
			a = -a
		}
		if a > bestArea {
			best, bestArea = i, a
		}
	}

	outline = loops[best]
	for i, l := range loops {
		if i != best {
			holes = append(holes, l)
		}
	}
	return outline, holes, nil
}
