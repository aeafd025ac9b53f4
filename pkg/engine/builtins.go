package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/petersancho/armature/pkg/graph"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms Armature Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: interp-curve -> interp_curve
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a graph.Vec3.
type sexpVec3 struct {
	vec graph.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// name extracts the optional :name keyword.
func (pa kwArgs) name() (string, error) {
	v, ok := pa.kw["name"]
	if !ok {
		return "", nil
	}
	return toString(v)
}

// float reads a numeric keyword, returning fallback when absent.
func (pa kwArgs) float(key string, fallback float64) (float64, error) {
	v, ok := pa.kw[key]
	if !ok {
		return fallback, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// integer reads an integer keyword, returning fallback when absent.
func (pa kwArgs) integer(key string, fallback int) (int, error) {
	f, err := pa.float(key, float64(fallback))
	return int(f), err
}

// vec reads a vec3 keyword, returning fallback when absent.
func (pa kwArgs) vec(key string, fallback graph.Vec3) (graph.Vec3, error) {
	v, ok := pa.kw[key]
	if !ok {
		return fallback, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return graph.Vec3{}, fmt.Errorf("%s: %w", key, err)
	}
	return vec, nil
}

// points reads a list-of-vec3 keyword.
func (pa kwArgs) points(key string) ([]graph.Vec3, error) {
	v, ok := pa.kw[key]
	if !ok {
		return nil, nil
	}
	items, err := sexpListToSlice(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	out := make([]graph.Vec3, 0, len(items))
	for _, item := range items {
		vec, err := toVec3(item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, vec)
	}
	return out, nil
}

// boolean reads a bool keyword, returning fallback when absent.
func (pa kwArgs) boolean(key string, fallback bool) (bool, error) {
	v, ok := pa.kw[key]
	if !ok {
		return fallback, nil
	}
	if b, ok := v.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("%s: expected bool, got %T", key, v)
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_loop) and plain strings ("loop").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toScheme converts a keyword or string to a subdivision scheme.
func toScheme(s zygo.Sexp) (graph.SubdivisionScheme, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", fmt.Errorf("expected scheme keyword: %w", err)
	}
	switch graph.SubdivisionScheme(name) {
	case graph.SchemeLinear, graph.SchemeCatmullClark, graph.SchemeLoop:
		return graph.SubdivisionScheme(name), nil
	}
	return "", fmt.Errorf("invalid scheme %q, expected linear, catmull-clark, or loop", name)
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (graph.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return "", fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Graph builder
// ---------------------------------------------------------------------------

// builder accumulates nodes during one evaluation. Nodes that end the run
// unreferenced by any other node become the graph's roots, in creation order,
// so single-expression programs render without an explicit assembly.
type builder struct {
	g     *graph.DesignGraph
	order []graph.NodeID
	anon  uint64
}

func newBuilder() *builder {
	return &builder{g: graph.New()}
}

// add creates a node with a content hash and a stable ID: named nodes hash
// their name, anonymous nodes get a per-evaluation counter.
func (b *builder) add(kind graph.NodeKind, name string, data graph.NodeData, children []graph.NodeID) *sexpNodeRef {
	hash := graph.HashNode(kind, data, children)

	var id graph.NodeID
	if name != "" {
		id = graph.NodeIDFromPath(kind.String() + "/" + name)
	} else {
		b.anon++
		id = graph.NodeIDFromPath(fmt.Sprintf("%s/anon/%d", kind, b.anon))
	}

	b.g.AddNode(&graph.Node{
		ID:          id,
		Kind:        kind,
		Name:        name,
		ContentHash: hash,
		Children:    children,
		Data:        data,
	})
	b.order = append(b.order, id)
	return &sexpNodeRef{id: id, name: name}
}

// finish promotes unreferenced nodes to roots and returns the graph.
func (b *builder) finish() *graph.DesignGraph {
	referenced := make(map[graph.NodeID]bool)
	for _, n := range b.g.Nodes {
		for _, c := range n.Children {
			referenced[c] = true
		}
	}
	seen := make(map[graph.NodeID]bool)
	for _, id := range b.order {
		if referenced[id] || seen[id] {
			continue
		}
		seen[id] = true
		b.g.AddRoot(id)
	}
	return b.g
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// regFn is the signature zygomys expects for builtins.
type regFn = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs all Armature DSL builtins into a zygomys
// environment. The builtins populate the builder's DesignGraph during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation
// so that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}
		return &sexpVec3{vec: graph.Vec3{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// Curve constructors
	//
	// (polyline :name "edge" :points (list (vec3 0 0 0) (vec3 100 0 0)))
	// (bezier :points (...))
	// (interp-curve :points (...) :degree 3)
	// (circle :name "rim" :center (vec3 0 0 0) :radius 40 :normal (vec3 0 0 1))
	// (arc :center v :radius r :from 0 :to 1.57 :normal v)
	// -----------------------------------------------------------------------
	pointCurve := func(form string, kind graph.CurveKind) regFn {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			nodeName, err := pa.name()
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: name: %w", form, err)
			}
			pts, err := pa.points("points")
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
			}
			if len(pts) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s needs at least 2 points, got %d", form, len(pts))
			}
			degree, err := pa.integer("degree", 3)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
			}
			data := graph.CurveData{Kind: kind, Points: pts}
			if kind == graph.CurveInterpolated {
				data.Degree = degree
			}
			return b.add(graph.NodePrimitive, nodeName, data, nil), nil
		}
	}
	env.AddFunction("polyline", pointCurve("polyline", graph.CurvePolyline))
	env.AddFunction("bezier", pointCurve("bezier", graph.CurveBezier))
	env.AddFunction("interp_curve", pointCurve("interp-curve", graph.CurveInterpolated))

	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		nodeName, err := pa.name()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: name: %w", err)
		}
		center, err := pa.vec("center", graph.Vec3{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		radius, err := pa.float("radius", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		normal, err := pa.vec("normal", graph.Vec3{Z: 1})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		data := graph.CurveData{
			Kind:   graph.CurveCircle,
			Center: center,
			Radius: radius,
			Normal: normal,
		}
		return b.add(graph.NodePrimitive, nodeName, data, nil), nil
	})

	env.AddFunction("arc", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		nodeName, err := pa.name()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: name: %w", err)
		}
		center, err := pa.vec("center", graph.Vec3{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: %w", err)
		}
		radius, err := pa.float("radius", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: %w", err)
		}
		from, err := pa.float("from", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: %w", err)
		}
		to, err := pa.float("to", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: %w", err)
		}
		normal, err := pa.vec("normal", graph.Vec3{Z: 1})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: %w", err)
		}
		data := graph.CurveData{
			Kind:       graph.CurveArc,
			Center:     center,
			Radius:     radius,
			StartAngle: from,
			EndAngle:   to,
			Normal:     normal,
		}
		return b.add(graph.NodePrimitive, nodeName, data, nil), nil
	})

	// -----------------------------------------------------------------------
	// Surface constructors
	//
	// (four-point :corners (list v1 v2 v3 v4) :degree 3)
	// (revolve curveRef :center v :axis (vec3 0 0 1) :angle 6.28)
	// (extrude curveRef :axis (vec3 0 0 1) :length 50)
	// -----------------------------------------------------------------------
	env.AddFunction("four_point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		nodeName, err := pa.name()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("four-point: name: %w", err)
		}
		pts, err := pa.points("corners")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("four-point: %w", err)
		}
		if len(pts) != 4 {
			return zygo.SexpNull, fmt.Errorf("four-point needs exactly 4 corners, got %d", len(pts))
		}
		degree, err := pa.integer("degree", 3)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("four-point: %w", err)
		}
		data := graph.SurfaceData{
			Kind:    graph.SurfaceFourPoint,
			Corners: [4]graph.Vec3{pts[0], pts[1], pts[2], pts[3]},
			Degree:  degree,
		}
		return b.add(graph.NodePrimitive, nodeName, data, nil), nil
	})

	env.AddFunction("revolve", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("revolve requires a curve reference as first argument")
		}
		curveID, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("revolve: curve: %w", err)
		}
		nodeName, err := pa.name()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("revolve: name: %w", err)
		}
		center, err := pa.vec("center", graph.Vec3{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("revolve: %w", err)
		}
		axis, err := pa.vec("axis", graph.Vec3{Z: 1})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("revolve: %w", err)
		}
		angle, err := pa.float("angle", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("revolve: %w", err)
		}
		data := graph.SurfaceData{
			Kind:   graph.SurfaceRevolve,
			Center: center,
			Axis:   axis,
			Angle:  angle,
		}
		return b.add(graph.NodePrimitive, nodeName, data, []graph.NodeID{curveID}), nil
	})

	env.AddFunction("extrude", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("extrude requires a curve reference as first argument")
		}
		curveID, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: curve: %w", err)
		}
		nodeName, err := pa.name()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: name: %w", err)
		}
		axis, err := pa.vec("axis", graph.Vec3{Z: 1})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: %w", err)
		}
		length, err := pa.float("length", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: %w", err)
		}
		data := graph.SurfaceData{
			Kind:   graph.SurfaceExtrude,
			Axis:   axis,
			Length: length,
		}
		return b.add(graph.NodePrimitive, nodeName, data, []graph.NodeID{curveID}), nil
	})

	// -----------------------------------------------------------------------
	// Solid constructors
	//
	// (box :size (vec3 100 50 25))
	// (cylinder :radius 10 :height 50)
	// (sphere :radius 25)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		nodeName, err := pa.name()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: name: %w", err)
		}
		size, err := pa.vec("size", graph.Vec3{})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		data := graph.SolidData{Kind: graph.SolidBox, Dimensions: size}
		return b.add(graph.NodePrimitive, nodeName, data, nil), nil
	})

	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		nodeName, err := pa.name()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: name: %w", err)
		}
		radius, err := pa.float("radius", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		height, err := pa.float("height", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		data := graph.SolidData{Kind: graph.SolidCylinder, Radius: radius, Height: height}
		return b.add(graph.NodePrimitive, nodeName, data, nil), nil
	})

	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		nodeName, err := pa.name()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: name: %w", err)
		}
		radius, err := pa.float("radius", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		data := graph.SolidData{Kind: graph.SolidSphere, Radius: radius}
		return b.add(graph.NodePrimitive, nodeName, data, nil), nil
	})

	// -----------------------------------------------------------------------
	// Profile constructors and booleans
	//
	// (rect-profile :width 80 :height 40 :depth 10)
	// (poly-profile :points (list ...) :depth 5)
	// (profile-difference outer inner :depth 5)
	// -----------------------------------------------------------------------
	env.AddFunction("rect_profile", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		nodeName, err := pa.name()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect-profile: name: %w", err)
		}
		width, err := pa.float("width", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect-profile: %w", err)
		}
		height, err := pa.float("height", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect-profile: %w", err)
		}
		depth, err := pa.float("depth", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect-profile: %w", err)
		}
		data := graph.ProfileData{Op: graph.ProfileRectangle, Width: width, Height: height, Depth: depth}
		return b.add(graph.NodePrimitive, nodeName, data, nil), nil
	})

	env.AddFunction("poly_profile", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		nodeName, err := pa.name()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("poly-profile: name: %w", err)
		}
		pts, err := pa.points("points")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("poly-profile: %w", err)
		}
		if len(pts) < 3 {
			return zygo.SexpNull, fmt.Errorf("poly-profile needs at least 3 points, got %d", len(pts))
		}
		depth, err := pa.float("depth", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("poly-profile: %w", err)
		}
		data := graph.ProfileData{Op: graph.ProfilePoints, Points: pts, Depth: depth}
		return b.add(graph.NodePrimitive, nodeName, data, nil), nil
	})

	profileBoolean := func(form string, op graph.ProfileOp) regFn {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			nodeName, err := pa.name()
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: name: %w", form, err)
			}
			if len(pa.positional) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least two profile references", form)
			}
			children := make([]graph.NodeID, 0, len(pa.positional))
			for i, arg := range pa.positional {
				id, err := toNodeRef(arg)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", form, i, err)
				}
				children = append(children, id)
			}
			depth, err := pa.float("depth", 0)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
			}
			data := graph.ProfileData{Op: op, Depth: depth}
			return b.add(graph.NodePrimitive, nodeName, data, children), nil
		}
	}
	env.AddFunction("profile_union", profileBoolean("profile-union", graph.ProfileUnion))
	env.AddFunction("profile_difference", profileBoolean("profile-difference", graph.ProfileDifference))
	env.AddFunction("profile_intersection", profileBoolean("profile-intersection", graph.ProfileIntersection))

	// -----------------------------------------------------------------------
	// (place ref :at (vec3 0 0 19) :rotate (vec3 0 0 90))
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a part reference as first argument")
		}
		childID, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: part: %w", err)
		}

		td := graph.TransformData{}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			td.Translation = &vec
		}
		if v, ok := pa.kw["rotate"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
			}
			td.Rotation = &vec
		}

		return b.add(graph.NodeTransform, "", td, []graph.NodeID{childID}), nil
	})

	// -----------------------------------------------------------------------
	// Mesh modifiers
	//
	// (subdivide ref :scheme :catmull-clark :levels 2 :preserve-boundary true)
	// (relax ref :strength 0.5 :iterations 3)
	// (weld ref :tolerance 0.001)     (repair ref :tolerance 0.001)
	// (dual ref)                      (inset ref :fraction 0.3)
	// (extrude-faces ref :distance 5) (decimate ref :cell-size 2)
	// (remesh-quads ref :max-dihedral 0.3)
	// -----------------------------------------------------------------------
	modifier := func(form string, build func(pa kwArgs) (graph.ModifierData, error)) regFn {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) < 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires a mesh reference as first argument", form)
			}
			childID, err := toNodeRef(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: mesh: %w", form, err)
			}
			nodeName, err := pa.name()
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: name: %w", form, err)
			}
			md, err := build(pa)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
			}
			return b.add(graph.NodeModifier, nodeName, md, []graph.NodeID{childID}), nil
		}
	}

	env.AddFunction("subdivide", modifier("subdivide", func(pa kwArgs) (graph.ModifierData, error) {
		md := graph.ModifierData{Kind: graph.ModSubdivide, Scheme: graph.SchemeCatmullClark}
		if v, ok := pa.kw["scheme"]; ok {
			scheme, err := toScheme(v)
			if err != nil {
				return md, err
			}
			md.Scheme = scheme
		}
		var err error
		if md.Levels, err = pa.integer("levels", 1); err != nil {
			return md, err
		}
		md.PreserveBoundary, err = pa.boolean("preserve-boundary", false)
		return md, err
	}))

	env.AddFunction("relax", modifier("relax", func(pa kwArgs) (graph.ModifierData, error) {
		md := graph.ModifierData{Kind: graph.ModRelax}
		var err error
		if md.Strength, err = pa.float("strength", 0.5); err != nil {
			return md, err
		}
		if md.Iterations, err = pa.integer("iterations", 1); err != nil {
			return md, err
		}
		md.PreserveBoundary, err = pa.boolean("preserve-boundary", true)
		return md, err
	}))

	env.AddFunction("weld", modifier("weld", func(pa kwArgs) (graph.ModifierData, error) {
		md := graph.ModifierData{Kind: graph.ModWeld}
		var err error
		md.Tolerance, err = pa.float("tolerance", 0)
		return md, err
	}))

	env.AddFunction("repair", modifier("repair", func(pa kwArgs) (graph.ModifierData, error) {
		md := graph.ModifierData{Kind: graph.ModRepair}
		var err error
		md.Tolerance, err = pa.float("tolerance", 0)
		return md, err
	}))

	env.AddFunction("dual", modifier("dual", func(pa kwArgs) (graph.ModifierData, error) {
		return graph.ModifierData{Kind: graph.ModDual}, nil
	}))

	env.AddFunction("inset", modifier("inset", func(pa kwArgs) (graph.ModifierData, error) {
		md := graph.ModifierData{Kind: graph.ModInset}
		var err error
		md.Fraction, err = pa.float("fraction", 0.3)
		return md, err
	}))

	env.AddFunction("extrude_faces", modifier("extrude-faces", func(pa kwArgs) (graph.ModifierData, error) {
		md := graph.ModifierData{Kind: graph.ModExtrudeFaces}
		var err error
		md.Distance, err = pa.float("distance", 0)
		return md, err
	}))

	env.AddFunction("decimate", modifier("decimate", func(pa kwArgs) (graph.ModifierData, error) {
		md := graph.ModifierData{Kind: graph.ModDecimate}
		var err error
		md.CellSize, err = pa.float("cell-size", 0)
		return md, err
	}))

	env.AddFunction("remesh_quads", modifier("remesh-quads", func(pa kwArgs) (graph.ModifierData, error) {
		md := graph.ModifierData{Kind: graph.ModRemeshQuads}
		var err error
		md.MaxDihedral, err = pa.float("max-dihedral", 0)
		return md, err
	}))

	// -----------------------------------------------------------------------
	// (assembly "name" (place ...) (place ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("assembly", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
		}
		asmName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
		}

		var children []graph.NodeID
		for i := 1; i < len(args); i++ {
			ref, ok := args[i].(*sexpNodeRef)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("assembly: child %d: expected node reference, got %T (%s)",
					i, args[i], args[i].SexpString(nil))
			}
			children = append(children, ref.id)
		}

		return b.add(graph.NodeGroup, asmName, graph.GroupData{}, children), nil
	})
}
