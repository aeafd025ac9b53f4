package engine

import (
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/petersancho/armature/pkg/graph"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(sphere :radius 25)`,
			expect: `(sphere "__kw_radius" 25)`,
		},
		{
			name:   "multiple keywords",
			input:  `(cylinder :radius 10 :height 50)`,
			expect: `(cylinder "__kw_radius" 10 "__kw_height" 50)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(interp-curve :points pts)`,
			expect: `(interp_curve "__kw_points" pts)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:catmull-clark`,
			expect: `"__kw_catmull-clark"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Primitive constructors
// ---------------------------------------------------------------------------

func TestBoxPrimitive(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `(box :name "crate" :size (vec3 100 50 25))`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", g.NodeCount())
	}

	n := g.Lookup("crate")
	if n == nil {
		t.Fatal("expected node named 'crate'")
	}
	if n.Kind != graph.NodePrimitive {
		t.Errorf("expected NodePrimitive, got %s", n.Kind)
	}
	sd, ok := n.Data.(graph.SolidData)
	if !ok {
		t.Fatalf("expected SolidData, got %T", n.Data)
	}
	if sd.Kind != graph.SolidBox {
		t.Errorf("expected SolidBox, got %s", sd.Kind)
	}
	if sd.Dimensions != (graph.Vec3{X: 100, Y: 50, Z: 25}) {
		t.Errorf("unexpected dimensions: %+v", sd.Dimensions)
	}

	// Unreferenced node becomes a root.
	if len(g.Roots) != 1 || g.Roots[0] != n.ID {
		t.Errorf("expected 'crate' to be the sole root, got %v", g.Roots)
	}
}

func TestPolylineCurve(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(polyline :name "edge"
  :points (list (vec3 0 0 0) (vec3 100 0 0) (vec3 100 50 0)))
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	n := g.Lookup("edge")
	if n == nil {
		t.Fatal("expected node named 'edge'")
	}
	cd, ok := n.Data.(graph.CurveData)
	if !ok {
		t.Fatalf("expected CurveData, got %T", n.Data)
	}
	if cd.Kind != graph.CurvePolyline {
		t.Errorf("expected CurvePolyline, got %s", cd.Kind)
	}
	if len(cd.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(cd.Points))
	}
	if cd.Points[1] != (graph.Vec3{X: 100}) {
		t.Errorf("point 1: got %+v", cd.Points[1])
	}
}

func TestInterpCurveDegree(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(interp-curve :name "spline" :degree 2
  :points (list (vec3 0 0 0) (vec3 10 10 0) (vec3 20 0 0)))
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	n := g.Lookup("spline")
	if n == nil {
		t.Fatal("expected node named 'spline'")
	}
	cd := n.Data.(graph.CurveData)
	if cd.Kind != graph.CurveInterpolated {
		t.Errorf("expected CurveInterpolated, got %s", cd.Kind)
	}
	if cd.Degree != 2 {
		t.Errorf("expected degree=2, got %d", cd.Degree)
	}
}

func TestCircleDefaults(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `(circle :name "rim" :radius 40)`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	n := g.Lookup("rim")
	if n == nil {
		t.Fatal("expected node named 'rim'")
	}
	cd := n.Data.(graph.CurveData)
	if cd.Kind != graph.CurveCircle {
		t.Errorf("expected CurveCircle, got %s", cd.Kind)
	}
	if cd.Radius != 40 {
		t.Errorf("expected radius=40, got %f", cd.Radius)
	}
	// Normal defaults to +Z, center to origin.
	if cd.Normal != (graph.Vec3{Z: 1}) {
		t.Errorf("expected default normal +Z, got %+v", cd.Normal)
	}
	if !cd.Center.IsZero() {
		t.Errorf("expected default center at origin, got %+v", cd.Center)
	}
}

func TestArcAngles(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `(arc :name "sweep" :radius 10 :from 0 :to 1.5708)`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	cd := g.Lookup("sweep").Data.(graph.CurveData)
	if cd.Kind != graph.CurveArc {
		t.Errorf("expected CurveArc, got %s", cd.Kind)
	}
	if cd.StartAngle != 0 {
		t.Errorf("expected start=0, got %f", cd.StartAngle)
	}
	if math.Abs(cd.EndAngle-math.Pi/2) > 1e-3 {
		t.Errorf("expected end ~= pi/2, got %f", cd.EndAngle)
	}
}

// ---------------------------------------------------------------------------
// Surface constructors
// ---------------------------------------------------------------------------

func TestFourPointSurface(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(four-point :name "patch"
  :corners (list (vec3 0 0 0) (vec3 100 0 0) (vec3 100 100 0) (vec3 0 100 0))
  :degree 1)
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	n := g.Lookup("patch")
	if n == nil {
		t.Fatal("expected node named 'patch'")
	}
	sd := n.Data.(graph.SurfaceData)
	if sd.Kind != graph.SurfaceFourPoint {
		t.Errorf("expected SurfaceFourPoint, got %s", sd.Kind)
	}
	if sd.Degree != 1 {
		t.Errorf("expected degree=1, got %d", sd.Degree)
	}
	if sd.Corners[2] != (graph.Vec3{X: 100, Y: 100}) {
		t.Errorf("corner 2: got %+v", sd.Corners[2])
	}
}

func TestRevolveReferencesCurveChild(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(def outline (polyline :name "outline"
  :points (list (vec3 30 0 0) (vec3 30 0 100))))
(revolve outline :name "shell" :axis (vec3 0 0 1) :angle 6.2832)
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g.NodeCount() != 2 {
		t.Fatalf("expected 2 nodes, got %d", g.NodeCount())
	}

	shell := g.Lookup("shell")
	outline := g.Lookup("outline")
	if shell == nil || outline == nil {
		t.Fatal("expected 'shell' and 'outline' nodes")
	}
	if len(shell.Children) != 1 || shell.Children[0] != outline.ID {
		t.Errorf("expected shell to reference outline as its child")
	}
	sd := shell.Data.(graph.SurfaceData)
	if sd.Kind != graph.SurfaceRevolve {
		t.Errorf("expected SurfaceRevolve, got %s", sd.Kind)
	}
	if math.Abs(sd.Angle-2*math.Pi) > 1e-3 {
		t.Errorf("expected full sweep, got %f", sd.Angle)
	}

	// The curve is referenced, so only the revolve is a root.
	if len(g.Roots) != 1 || g.Roots[0] != shell.ID {
		t.Errorf("expected shell to be the sole root, got %v", g.Roots)
	}
}

func TestExtrudeSurface(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(def rail (polyline :points (list (vec3 0 0 0) (vec3 50 0 0))))
(extrude rail :name "wall" :axis (vec3 0 0 1) :length 30)
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	wall := g.Lookup("wall")
	if wall == nil {
		t.Fatal("expected node named 'wall'")
	}
	sd := wall.Data.(graph.SurfaceData)
	if sd.Kind != graph.SurfaceExtrude {
		t.Errorf("expected SurfaceExtrude, got %s", sd.Kind)
	}
	if sd.Length != 30 {
		t.Errorf("expected length=30, got %f", sd.Length)
	}
	if len(wall.Children) != 1 {
		t.Errorf("expected 1 child, got %d", len(wall.Children))
	}
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

func TestProfileDifference(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(def plate (rect-profile :name "plate" :width 100 :height 100))
(def hole (rect-profile :name "hole" :width 40 :height 40))
(profile-difference plate hole :name "panel" :depth 5)
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g.NodeCount() != 3 {
		t.Fatalf("expected 3 nodes, got %d", g.NodeCount())
	}

	panel := g.Lookup("panel")
	if panel == nil {
		t.Fatal("expected node named 'panel'")
	}
	pd := panel.Data.(graph.ProfileData)
	if pd.Op != graph.ProfileDifference {
		t.Errorf("expected ProfileDifference, got %s", pd.Op)
	}
	if pd.Depth != 5 {
		t.Errorf("expected depth=5, got %f", pd.Depth)
	}
	if len(panel.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(panel.Children))
	}
	if panel.Children[0] != g.Lookup("plate").ID {
		t.Error("expected first operand to be 'plate'")
	}
	if panel.Children[1] != g.Lookup("hole").ID {
		t.Error("expected second operand to be 'hole'")
	}

	// Only the boolean result roots; its operands are referenced.
	if len(g.Roots) != 1 || g.Roots[0] != panel.ID {
		t.Errorf("expected panel to be the sole root, got %v", g.Roots)
	}
}

func TestPolyProfile(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(poly-profile :name "bracket" :depth 8
  :points (list (vec3 0 0 0) (vec3 60 0 0) (vec3 60 20 0) (vec3 0 40 0)))
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	pd := g.Lookup("bracket").Data.(graph.ProfileData)
	if pd.Op != graph.ProfilePoints {
		t.Errorf("expected ProfilePoints, got %s", pd.Op)
	}
	if len(pd.Points) != 4 {
		t.Errorf("expected 4 points, got %d", len(pd.Points))
	}
	if pd.Depth != 8 {
		t.Errorf("expected depth=8, got %f", pd.Depth)
	}
}

// ---------------------------------------------------------------------------
// Placement and assembly
// ---------------------------------------------------------------------------

func TestAssemblyWithPlacement(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(def body (box :name "body" :size (vec3 100 50 25)))
(def cap  (sphere :name "cap" :radius 20))

(assembly "widget"
  (place body :at (vec3 0 0 0))
  (place cap  :at (vec3 0 0 25) :rotate (vec3 0 0 90)))
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	// 2 primitives + 2 transforms + 1 group = 5 nodes
	if g.NodeCount() != 5 {
		t.Fatalf("expected 5 nodes, got %d", g.NodeCount())
	}

	widget := g.Lookup("widget")
	if widget == nil {
		t.Fatal("expected node named 'widget'")
	}
	if widget.Kind != graph.NodeGroup {
		t.Errorf("expected NodeGroup, got %s", widget.Kind)
	}
	if len(widget.Children) != 2 {
		t.Errorf("expected 2 children, got %d", len(widget.Children))
	}

	if len(g.Roots) != 1 || g.Roots[0] != widget.ID {
		t.Errorf("expected widget to be the sole root, got %v", g.Roots)
	}

	// Check transforms carry translation and rotation.
	transforms := 0
	rotated := 0
	for _, n := range g.Nodes {
		if n.Kind != graph.NodeTransform {
			continue
		}
		transforms++
		td, ok := n.Data.(graph.TransformData)
		if !ok {
			t.Fatalf("transform node: expected TransformData, got %T", n.Data)
		}
		if td.Translation == nil {
			t.Error("transform node: expected non-nil translation")
		}
		if td.Rotation != nil {
			rotated++
			if td.Rotation.Z != 90 {
				t.Errorf("expected rotate Z=90, got %f", td.Rotation.Z)
			}
		}
	}
	if transforms != 2 {
		t.Errorf("expected 2 transform nodes, got %d", transforms)
	}
	if rotated != 1 {
		t.Errorf("expected 1 rotated transform, got %d", rotated)
	}
}

func TestAutoRootOrdering(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	// Two unreferenced primitives both become roots, in creation order.
	source := `
(box :name "first" :size (vec3 10 10 10))
(sphere :name "second" :radius 5)
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	if len(g.Roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(g.Roots))
	}
	if g.Roots[0] != g.Lookup("first").ID {
		t.Error("expected 'first' as root 0")
	}
	if g.Roots[1] != g.Lookup("second").ID {
		t.Error("expected 'second' as root 1")
	}
}

// ---------------------------------------------------------------------------
// Modifiers
// ---------------------------------------------------------------------------

func TestSubdivideModifier(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(def b (box :name "blank" :size (vec3 50 50 50)))
(subdivide b :name "smooth" :scheme :catmull-clark :levels 2 :preserve-boundary true)
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	n := g.Lookup("smooth")
	if n == nil {
		t.Fatal("expected node named 'smooth'")
	}
	if n.Kind != graph.NodeModifier {
		t.Errorf("expected NodeModifier, got %s", n.Kind)
	}
	md := n.Data.(graph.ModifierData)
	if md.Kind != graph.ModSubdivide {
		t.Errorf("expected ModSubdivide, got %s", md.Kind)
	}
	if md.Scheme != graph.SchemeCatmullClark {
		t.Errorf("expected catmull-clark, got %q", md.Scheme)
	}
	if md.Levels != 2 {
		t.Errorf("expected levels=2, got %d", md.Levels)
	}
	if !md.PreserveBoundary {
		t.Error("expected preserve-boundary=true")
	}
	if len(n.Children) != 1 || n.Children[0] != g.Lookup("blank").ID {
		t.Error("expected modifier to reference 'blank'")
	}
}

func TestSubdivideSchemeDefault(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(def b (box :size (vec3 10 10 10)))
(subdivide b :name "s")
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	md := g.Lookup("s").Data.(graph.ModifierData)
	if md.Scheme != graph.SchemeCatmullClark {
		t.Errorf("expected default scheme catmull-clark, got %q", md.Scheme)
	}
	if md.Levels != 1 {
		t.Errorf("expected default levels=1, got %d", md.Levels)
	}
}

func TestInvalidSchemeError(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(def b (box :size (vec3 10 10 10)))
(subdivide b :scheme :butterfly)
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on invalid scheme")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval error for invalid scheme")
	}
}

func TestModifierChain(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(def b (box :name "base" :size (vec3 40 40 40)))
(def s (subdivide b :scheme :loop :levels 1))
(def r (relax s :strength 0.4 :iterations 3))
(weld r :name "final" :tolerance 0.001)
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g.NodeCount() != 4 {
		t.Fatalf("expected 4 nodes, got %d", g.NodeCount())
	}

	final := g.Lookup("final")
	if final == nil {
		t.Fatal("expected node named 'final'")
	}
	md := final.Data.(graph.ModifierData)
	if md.Kind != graph.ModWeld {
		t.Errorf("expected ModWeld, got %s", md.Kind)
	}
	if md.Tolerance != 0.001 {
		t.Errorf("expected tolerance=0.001, got %f", md.Tolerance)
	}

	// Only the top of the chain roots.
	if len(g.Roots) != 1 || g.Roots[0] != final.ID {
		t.Errorf("expected 'final' as sole root, got %v", g.Roots)
	}

	// Walk the chain down to the box.
	relaxNode := g.Get(final.Children[0])
	if relaxNode == nil {
		t.Fatal("missing relax node")
	}
	rd := relaxNode.Data.(graph.ModifierData)
	if rd.Kind != graph.ModRelax {
		t.Errorf("expected ModRelax, got %s", rd.Kind)
	}
	if rd.Strength != 0.4 || rd.Iterations != 3 {
		t.Errorf("unexpected relax params: %+v", rd)
	}
	if !rd.PreserveBoundary {
		t.Error("relax should pin the boundary unless :preserve-boundary is false")
	}

	subNode := g.Get(relaxNode.Children[0])
	if subNode == nil {
		t.Fatal("missing subdivide node")
	}
	sd := subNode.Data.(graph.ModifierData)
	if sd.Scheme != graph.SchemeLoop {
		t.Errorf("expected loop scheme, got %q", sd.Scheme)
	}
	if subNode.Children[0] != g.Lookup("base").ID {
		t.Error("expected subdivide to reference 'base'")
	}
}

func TestRemainingModifierKinds(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(def b (box :name "b" :size (vec3 20 20 20)))
(dual b :name "d")
(inset b :name "i" :fraction 0.25)
(extrude-faces b :name "e" :distance 4)
(decimate b :name "dec" :cell-size 2)
(remesh-quads b :name "q" :max-dihedral 0.3)
(repair b :name "rep" :tolerance 0.01)
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	checks := []struct {
		name string
		kind graph.ModifierKind
		get  func(md graph.ModifierData) float64
		want float64
	}{
		{"d", graph.ModDual, nil, 0},
		{"i", graph.ModInset, func(md graph.ModifierData) float64 { return md.Fraction }, 0.25},
		{"e", graph.ModExtrudeFaces, func(md graph.ModifierData) float64 { return md.Distance }, 4},
		{"dec", graph.ModDecimate, func(md graph.ModifierData) float64 { return md.CellSize }, 2},
		{"q", graph.ModRemeshQuads, func(md graph.ModifierData) float64 { return md.MaxDihedral }, 0.3},
		{"rep", graph.ModRepair, func(md graph.ModifierData) float64 { return md.Tolerance }, 0.01},
	}
	for _, c := range checks {
		n := g.Lookup(c.name)
		if n == nil {
			t.Fatalf("missing node %q", c.name)
		}
		md := n.Data.(graph.ModifierData)
		if md.Kind != c.kind {
			t.Errorf("%s: expected %s, got %s", c.name, c.kind, md.Kind)
		}
		if c.get != nil {
			if got := c.get(md); got != c.want {
				t.Errorf("%s: expected %f, got %f", c.name, c.want, got)
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Variables and errors
// ---------------------------------------------------------------------------

func TestVariableReference(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(def r 40)
(circle :name "rim" :radius r)
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}

	cd := g.Lookup("rim").Data.(graph.CurveData)
	if cd.Radius != 40 {
		t.Errorf("expected radius=40 (from variable), got %f", cd.Radius)
	}
}

func TestNodeRefTypeError(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	// Passing a number where a node reference is expected fails the eval.
	g, evalErrs, err := eng.Evaluate(`(revolve 5 :angle 1)`)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on type error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval error for bad node reference")
	}
}

func TestPolylineTooFewPoints(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	g, evalErrs, err := eng.Evaluate(`(polyline :points (list (vec3 0 0 0)))`)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected eval error for a one-point polyline")
	}
}

func TestAnonymousNodesGetDistinctIDs(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	source := `
(box :size (vec3 10 10 10))
(box :size (vec3 10 10 10))
`
	g, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	// Identical anonymous primitives stay distinct nodes.
	if g.NodeCount() != 2 {
		t.Fatalf("expected 2 nodes, got %d", g.NodeCount())
	}
	if len(g.Roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(g.Roots))
	}
	if g.Roots[0] == g.Roots[1] {
		t.Error("expected distinct IDs for anonymous nodes")
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	eng := NewEngine()

	g, evalErrs, err := eng.Evaluate("(+ 1 2)")
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
}
