package tessellate

import (
	"fmt"
	"math"

	"github.com/npillmayer/schuko/tracing"
	"github.com/ungerik/go3d/float64/mat4"
	"github.com/ungerik/go3d/float64/vec3"

	"github.com/petersancho/armature/pkg/geom"
	"github.com/petersancho/armature/pkg/graph"
	"github.com/petersancho/armature/pkg/kernel"
	"github.com/petersancho/armature/pkg/mesh"
	"github.com/petersancho/armature/pkg/nurbs"
	"github.com/petersancho/armature/pkg/profile"
)

// tracer writes to trace with key 'armature.tessellate'.
func tracer() tracing.Trace {
	return tracing.Select("armature.tessellate")
}

// PartCurve is a tessellated curve part.
type PartCurve struct {
	Name   string
	Points []vec3.T
}

// Result collects everything a graph walk produced: one render mesh per
// surface/solid/profile part and one polyline per curve part.
type Result struct {
	Meshes []*mesh.RenderMesh
	Curves []*PartCurve
}

func (r *Result) merge(other *Result) {
	if other == nil {
		return
	}
	r.Meshes = append(r.Meshes, other.Meshes...)
	r.Curves = append(r.Curves, other.Curves...)
}

// transformStack accumulates spatial transforms during graph traversal.
type transformStack struct {
	translations []graph.Vec3
	rotations    []graph.Vec3
}

func newTransformStack() *transformStack {
	return &transformStack{}
}

func (ts *transformStack) pushTranslation(v graph.Vec3) {
	ts.translations = append(ts.translations, v)
}

func (ts *transformStack) pushRotation(v graph.Vec3) {
	ts.rotations = append(ts.rotations, v)
}

func (ts *transformStack) pop() {
	if len(ts.translations) > 0 {
		ts.translations = ts.translations[:len(ts.translations)-1]
	}
	if len(ts.rotations) > 0 {
		ts.rotations = ts.rotations[:len(ts.rotations)-1]
	}
}

// accumulatedTranslation returns the sum of all translations on the stack.
func (ts *transformStack) accumulatedTranslation() graph.Vec3 {
	var sum graph.Vec3
	for _, t := range ts.translations {
		sum = sum.Add(t)
	}
	return sum
}

// accumulatedRotation returns the sum of all rotations on the stack.
func (ts *transformStack) accumulatedRotation() graph.Vec3 {
	var sum graph.Vec3
	for _, r := range ts.rotations {
		sum = sum.Add(r)
	}
	return sum
}

// matrices builds the accumulated rotation and rotation+translation matrices.
// identity reports that the stack carries no transform at all.
func (ts *transformStack) matrices() (rot, full mat4.T, identity bool) {
	t := ts.accumulatedTranslation()
	r := ts.accumulatedRotation()
	if t.IsZero() && r.IsZero() {
		return mat4.Ident, mat4.Ident, true
	}

	rx := mat4.Ident
	ry := mat4.Ident
	rz := mat4.Ident
	rx.AssignXRotation(r.X * math.Pi / 180)
	ry.AssignYRotation(r.Y * math.Pi / 180)
	rz.AssignZRotation(r.Z * math.Pi / 180)

	zy := mat4.Ident
	zy.AssignMul(&rz, &ry)
	rot = mat4.Ident
	rot.AssignMul(&zy, &rx)

	full = rot
	tv := vec3.T{t.X, t.Y, t.Z}
	full.SetTranslation(&tv)
	return rot, full, false
}

// walker carries the per-walk state so the recursion does not have to thread
// the graph, kernel, and options through every call.
type walker struct {
	g    *graph.DesignGraph
	k    kernel.Kernel
	opts Options
	ts   *transformStack
}

// Walk traverses the design graph and tessellates every primitive part:
// NURBS curves and surfaces through the adaptive sampler, solids through the
// kernel, profiles through the planar triangulator. The walker is read-only
// and never mutates the graph.
func Walk(g *graph.DesignGraph, k kernel.Kernel) (*Result, error) {
	if g == nil {
		return &Result{}, nil
	}

	opts := DefaultOptions()
	if g.Defaults.CurvatureTolerance > 0 {
		opts.CurvatureTolerance = g.Defaults.CurvatureTolerance
	}

	tracer().Debugf("walking %d roots with tolerance %g", len(g.Roots), opts.CurvatureTolerance)
	w := &walker{g: g, k: k, opts: opts, ts: newTransformStack()}
	out := &Result{}

	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := w.walkNode(root)
		if err != nil {
			return nil, fmt.Errorf("tessellate: walking root %s: %w", rootID.Short(), err)
		}
		out.merge(collected)
	}

	tracer().Debugf("walk produced %d meshes, %d curves", len(out.Meshes), len(out.Curves))
	return out, nil
}

// walkNode recursively traverses a node and its children, collecting parts.
func (w *walker) walkNode(n *graph.Node) (*Result, error) {
	switch n.Kind {
	case graph.NodePrimitive:
		return w.handlePrimitive(n)

	case graph.NodeTransform:
		return w.handleTransform(n)

	case graph.NodeModifier:
		return w.handleModifier(n)

	case graph.NodeGroup:
		return w.handleGroup(n)

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// handlePrimitive tessellates one geometry source node.
func (w *walker) handlePrimitive(n *graph.Node) (*Result, error) {
	switch data := n.Data.(type) {
	case graph.CurveData:
		return w.emitCurve(n, data)
	case graph.SurfaceData:
		return w.emitSurface(n, data)
	case graph.SolidData:
		return w.emitSolid(n, data)
	case graph.ProfileData:
		return w.emitProfile(n, data)
	default:
		return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}
}

// handleTransform pushes the transform, recurses into children, then pops.
func (w *walker) handleTransform(n *graph.Node) (*Result, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	translation := graph.Vec3{}
	rotation := graph.Vec3{}
	if td.Translation != nil {
		translation = *td.Translation
	}
	if td.Rotation != nil {
		rotation = *td.Rotation
	}
	w.ts.pushTranslation(translation)
	w.ts.pushRotation(rotation)
	defer w.ts.pop()

	out := &Result{}
	for _, child := range w.g.Children(n) {
		collected, err := w.walkNode(child)
		if err != nil {
			return nil, err
		}
		out.merge(collected)
	}
	return out, nil
}

// handleGroup recurses into children transparently.
func (w *walker) handleGroup(n *graph.Node) (*Result, error) {
	out := &Result{}
	for _, child := range w.g.Children(n) {
		collected, err := w.walkNode(child)
		if err != nil {
			return nil, err
		}
		out.merge(collected)
	}
	return out, nil
}

// handleModifier walks the children and runs the configured mesh operation
// over every mesh they produced. Curve parts pass through untouched.
func (w *walker) handleModifier(n *graph.Node) (*Result, error) {
	md, ok := n.Data.(graph.ModifierData)
	if !ok {
		return nil, fmt.Errorf("modifier node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	out := &Result{}
	for _, child := range w.g.Children(n) {
		collected, err := w.walkNode(child)
		if err != nil {
			return nil, err
		}
		out.Curves = append(out.Curves, collected.Curves...)

		for _, rm := range collected.Meshes {
			worked, err := mesh.FromRenderMesh(rm)
			if err != nil {
				return nil, fmt.Errorf("modifier %s on %s: %w", md.Kind, rm.PartName, err)
			}
			modified, err := applyModifier(worked, md)
			if err != nil {
				return nil, fmt.Errorf("modifier %s on %s: %w", md.Kind, rm.PartName, err)
			}
			result := modified.ToRenderMesh()
			result.PartName = rm.PartName
			result.Color = rm.Color
			out.Meshes = append(out.Meshes, result)
		}
	}
	return out, nil
}

// applyModifier dispatches one mesh operation with defaulted parameters.
func applyModifier(m *mesh.Mesh, md graph.ModifierData) (*mesh.Mesh, error) {
	switch md.Kind {
	case graph.ModSubdivide:
		opts := mesh.SubdivideOptions{
			Levels:           md.Levels,
			PreserveBoundary: md.PreserveBoundary,
		}
		switch md.Scheme {
		case graph.SchemeLinear:
			opts.Scheme = mesh.SchemeLinear
		case graph.SchemeLoop:
			opts.Scheme = mesh.SchemeLoop
		case graph.SchemeCatmullClark, "":
			opts.Scheme = mesh.SchemeCatmullClark
		default:
			return nil, fmt.Errorf("unknown subdivision scheme %q", md.Scheme)
		}
		return mesh.Subdivide(m, opts)

	case graph.ModRelax:
		strength := md.Strength
		if strength <= 0 {
			strength = 0.5
		}
		iterations := md.Iterations
		if iterations < 1 {
			iterations = 1
		}
		return mesh.Relax(m, strength, iterations, md.PreserveBoundary), nil

	case graph.ModWeld:
		return mesh.Weld(m, weldTolerance(md)), nil

	case graph.ModRepair:
		return mesh.Repair(m, weldTolerance(md)), nil

	case graph.ModDual:
		return mesh.Dual(m)

	case graph.ModInset:
		fraction := md.Fraction
		if fraction <= 0 || fraction >= 1 {
			fraction = 0.3
		}
		return mesh.InsetFaces(m, nil, fraction)

	case graph.ModExtrudeFaces:
		if md.Distance == 0 {
			return nil, fmt.Errorf("extrude-faces needs a non-zero distance")
		}
		return mesh.ExtrudeFaces(m, nil, md.Distance)

	case graph.ModDecimate:
		if md.CellSize <= 0 {
			return nil, fmt.Errorf("decimate needs a positive cell size")
		}
		return mesh.Decimate(m, md.CellSize), nil

	case graph.ModRemeshQuads:
		maxDihedral := md.MaxDihedral
		if maxDihedral <= 0 {
			maxDihedral = 0.35
		}
		return mesh.RemeshQuadDominant(m, maxDihedral), nil

	default:
		return nil, fmt.Errorf("unknown modifier kind %v", md.Kind)
	}
}

func weldTolerance(md graph.ModifierData) float64 {
	if md.Tolerance > 0 {
		return md.Tolerance
	}
	return geom.Epsilon
}

// ---------------------------------------------------------------------------
// Primitive emitters
// ---------------------------------------------------------------------------

func (w *walker) emitCurve(n *graph.Node, data graph.CurveData) (*Result, error) {
	c, err := buildCurve(data)
	if err != nil {
		return nil, fmt.Errorf("curve node %s: %w", n.ID.Short(), err)
	}

	tc := TessellateCurve(c, w.opts)
	points := tc.Points

	if _, full, identity := w.ts.matrices(); !identity {
		for i := range points {
			points[i] = full.MulVec3(&points[i])
		}
	}

	return &Result{Curves: []*PartCurve{{Name: partName(n), Points: points}}}, nil
}

func (w *walker) emitSurface(n *graph.Node, data graph.SurfaceData) (*Result, error) {
	s, err := w.buildSurface(n, data)
	if err != nil {
		return nil, fmt.Errorf("surface node %s: %w", n.ID.Short(), err)
	}

	ts := TessellateSurface(s, w.opts)
	if rot, full, identity := w.ts.matrices(); !identity {
		for i := range ts.Vertices {
			ts.Vertices[i] = full.MulVec3(&ts.Vertices[i])
		}
		for i := range ts.Normals {
			ts.Normals[i] = rot.MulVec3(&ts.Normals[i])
		}
	}

	rm := surfaceToRenderMesh(ts)
	rm.PartName = partName(n)
	return &Result{Meshes: []*mesh.RenderMesh{rm}}, nil
}

func (w *walker) emitSolid(n *graph.Node, data graph.SolidData) (*Result, error) {
	var solid kernel.Solid
	switch data.Kind {
	case graph.SolidBox:
		solid = w.k.Box(data.Dimensions.X, data.Dimensions.Y, data.Dimensions.Z)
	case graph.SolidCylinder:
		solid = w.k.Cylinder(data.Height, data.Radius, 32)
	case graph.SolidSphere:
		solid = w.k.Sphere(data.Radius, 32)
	default:
		return nil, fmt.Errorf("solid node %s has unknown kind %v", n.ID.Short(), data.Kind)
	}

	// Apply accumulated rotation first, then translation.
	rot := w.ts.accumulatedRotation()
	if !rot.IsZero() {
		solid = w.k.Rotate(solid, rot.X, rot.Y, rot.Z)
	}
	trans := w.ts.accumulatedTranslation()
	if !trans.IsZero() {
		solid = w.k.Translate(solid, trans.X, trans.Y, trans.Z)
	}

	rm, err := w.k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("solid node %s: %w", n.ID.Short(), err)
	}
	rm.PartName = partName(n)
	return &Result{Meshes: []*mesh.RenderMesh{rm}}, nil
}

func (w *walker) emitProfile(n *graph.Node, data graph.ProfileData) (*Result, error) {
	p, err := w.buildProfile(n, data)
	if err != nil {
		return nil, fmt.Errorf("profile node %s: %w", n.ID.Short(), err)
	}

	var worked *mesh.Mesh
	if data.Depth != 0 {
		worked, err = p.Extrude(data.Depth)
	} else {
		worked, err = p.Triangulate()
	}
	if err != nil {
		return nil, fmt.Errorf("profile node %s: %w", n.ID.Short(), err)
	}

	if _, full, identity := w.ts.matrices(); !identity {
		for i := range worked.Vertices {
			worked.Vertices[i] = full.MulVec3(&worked.Vertices[i])
		}
	}

	rm := worked.ToRenderMesh()
	rm.PartName = partName(n)
	return &Result{Meshes: []*mesh.RenderMesh{rm}}, nil
}

// ---------------------------------------------------------------------------
// Geometry construction from node data
// ---------------------------------------------------------------------------

// buildCurve constructs the NURBS curve a CurveData node describes.
func buildCurve(data graph.CurveData) (*nurbs.Curve, error) {
	switch data.Kind {
	case graph.CurvePolyline:
		return nurbs.Polyline(toVecs(data.Points))

	case graph.CurveBezier:
		return nurbs.BezierCurve(toVecs(data.Points))

	case graph.CurveInterpolated:
		degree := data.Degree
		if degree < 1 {
			degree = 3
		}
		return nurbs.InterpolatedCurve(toVecs(data.Points), degree)

	case graph.CurveCircle:
		center := toVec(data.Center)
		pl := geom.PlaneFromNormal(center, toVec(data.Normal))
		return nurbs.Circle(&center, &pl.XAxis, &pl.YAxis, data.Radius)

	case graph.CurveArc:
		center := toVec(data.Center)
		pl := geom.PlaneFromNormal(center, toVec(data.Normal))
		return nurbs.Arc(&center, &pl.XAxis, &pl.YAxis, data.Radius, data.StartAngle, data.EndAngle)

	default:
		return nil, fmt.Errorf("unknown curve kind %v", data.Kind)
	}
}

// buildSurface constructs the NURBS surface a SurfaceData node describes.
// Revolve and extrude read the node's single curve child as the profile.
func (w *walker) buildSurface(n *graph.Node, data graph.SurfaceData) (*nurbs.Surface, error) {
	switch data.Kind {
	case graph.SurfaceFourPoint:
		degree := data.Degree
		if degree < 1 {
			degree = 3
		}
		p1 := toVec(data.Corners[0])
		p2 := toVec(data.Corners[1])
		p3 := toVec(data.Corners[2])
		p4 := toVec(data.Corners[3])
		return nurbs.FourPointSurface(&p1, &p2, &p3, &p4, degree)

	case graph.SurfaceRevolve:
		prof, err := w.childCurve(n)
		if err != nil {
			return nil, err
		}
		angle := data.Angle
		if angle == 0 {
			angle = 2 * math.Pi
		}
		center := toVec(data.Center)
		axis := toVec(data.Axis)
		return nurbs.RevolvedSurface(prof, &center, &axis, angle)

	case graph.SurfaceExtrude:
		prof, err := w.childCurve(n)
		if err != nil {
			return nil, err
		}
		axis := toVec(data.Axis)
		return nurbs.ExtrudedSurface(&axis, data.Length, prof)

	default:
		return nil, fmt.Errorf("unknown surface kind %v", data.Kind)
	}
}

// childCurve builds the NURBS curve from the node's single curve child.
func (w *walker) childCurve(n *graph.Node) (*nurbs.Curve, error) {
	children := w.g.Children(n)
	if len(children) != 1 {
		return nil, fmt.Errorf("needs exactly one curve child, has %d", len(children))
	}
	cd, ok := children[0].Data.(graph.CurveData)
	if !ok {
		return nil, fmt.Errorf("child %s is not a curve", children[0].ID.Short())
	}
	return buildCurve(cd)
}

// buildProfile constructs the planar region a ProfileData node describes.
// Boolean ops fold the node's profile children in order.
func (w *walker) buildProfile(n *graph.Node, data graph.ProfileData) (*profile.Profile, error) {
	switch data.Op {
	case graph.ProfileRectangle:
		pl := geom.PlaneFromNormal(vec3.Zero, vec3.UnitZ)
		return profile.Rectangle(pl, data.Width, data.Height)

	case graph.ProfilePoints:
		return profile.FromPoints(toVecs(data.Points))

	case graph.ProfileUnion, graph.ProfileDifference, graph.ProfileIntersection:
		children := w.g.Children(n)
		if len(children) < 2 {
			return nil, fmt.Errorf("profile %s needs at least two children, has %d", data.Op, len(children))
		}
		var acc *profile.Profile
		for i, child := range children {
			cd, ok := child.Data.(graph.ProfileData)
			if !ok {
				return nil, fmt.Errorf("child %s is not a profile", child.ID.Short())
			}
			p, err := w.buildProfile(child, cd)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				acc = p
				continue
			}
			switch data.Op {
			case graph.ProfileUnion:
				acc = acc.Union(p)
			case graph.ProfileDifference:
				acc = acc.Difference(p)
			case graph.ProfileIntersection:
				acc = acc.Intersection(p)
			}
		}
		return acc, nil

	default:
		return nil, fmt.Errorf("unknown profile op %v", data.Op)
	}
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

func toVec(v graph.Vec3) vec3.T {
	return vec3.T{v.X, v.Y, v.Z}
}

func toVecs(vs []graph.Vec3) []vec3.T {
	out := make([]vec3.T, len(vs))
	for i, v := range vs {
		out[i] = toVec(v)
	}
	return out
}

// surfaceToRenderMesh flattens a tessellated surface grid to float32 arrays.
func surfaceToRenderMesh(ts *Surface) *mesh.RenderMesh {
	rm := &mesh.RenderMesh{
		Positions: make([]float32, 0, len(ts.Vertices)*3),
		Normals:   make([]float32, 0, len(ts.Normals)*3),
		UVs:       make([]float32, 0, len(ts.UVs)*2),
		Indices:   make([]uint32, 0, len(ts.Faces)*3),
	}
	for i, v := range ts.Vertices {
		rm.Positions = append(rm.Positions, float32(v[0]), float32(v[1]), float32(v[2]))
		n := ts.Normals[i]
		rm.Normals = append(rm.Normals, float32(n[0]), float32(n[1]), float32(n[2]))
	}
	for _, uv := range ts.UVs {
		rm.UVs = append(rm.UVs, float32(uv[0]), float32(uv[1]))
	}
	for _, f := range ts.Faces {
		rm.Indices = append(rm.Indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}
	return rm
}

// partName prefers the node's user-assigned name, falling back to short ID.
func partName(n *graph.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}
