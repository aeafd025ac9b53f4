package graph

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// Validate runs all structural validation checks on the design graph and
// returns a slice of validation errors. An empty slice means the graph is
// valid. This function is read-only and never mutates the graph.
func Validate(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateArity(g)...)
	errs = append(errs, validateData(g)...)
	return errs
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully
// explored. A gray node reached during traversal means a cycle.
func validateDAG(g *DesignGraph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int) // default zero = white
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray

		node, ok := g.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}

		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}

		color[id] = black
		return false
	}

	for id := range g.Nodes {
		if color[id] == white {
			if visit(id) {
				// One cycle error is sufficient; stop early.
				break
			}
		}
	}

	return errs
}

// validateReferences checks that every child reference points to a node that
// actually exists in g.Nodes.
func validateReferences(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateNames checks that the NameIndex is injective (no two nodes share
// the same name) and that every entry points to an existing node.
func validateNames(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range g.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateRoots checks that every root ID references an existing node and
// warns about orphan nodes (nodes unreachable from any root).
func validateRoots(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		}
	}

	if len(g.Nodes) == 0 {
		return errs
	}

	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(g.Roots))
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; ok && !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Nodes[current]
		if node == nil {
			continue
		}
		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	for id, node := range g.Nodes {
		if !reachable[id] {
			name := node.Name
			if name == "" {
				name = id.Short()
			}
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", name),
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}

// validateArity checks that each node kind has a sensible child count:
// transforms, modifiers, and groups operate on children; primitives other
// than surface sweeps have none.
func validateArity(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		switch node.Kind {
		case NodeTransform, NodeModifier:
			if len(node.Children) == 0 {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("%s node has no children to operate on", node.Kind),
					Severity: SeverityError,
				})
			}
		case NodePrimitive:
			switch d := node.Data.(type) {
			case SurfaceData:
				if (d.Kind == SurfaceRevolve || d.Kind == SurfaceExtrude) && len(node.Children) != 1 {
					errs = append(errs, ValidationError{
						NodeID:   node.ID,
						Message:  fmt.Sprintf("%s surface needs exactly one curve child, has %d", d.Kind, len(node.Children)),
						Severity: SeverityError,
					})
				}
			case ProfileData:
				boolean := d.Op == ProfileUnion || d.Op == ProfileDifference || d.Op == ProfileIntersection
				if boolean && len(node.Children) < 2 {
					errs = append(errs, ValidationError{
						NodeID:   node.ID,
						Message:  fmt.Sprintf("profile %s needs at least two profile children, has %d", d.Op, len(node.Children)),
						Severity: SeverityError,
					})
				}
			}
		}
	}
	return errs
}

// validateData checks the numeric parameters of primitive data payloads.
func validateData(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	bad := func(id NodeID, format string, args ...interface{}) {
		errs = append(errs, ValidationError{
			NodeID:   id,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	for _, node := range g.Nodes {
		switch d := node.Data.(type) {
		case CurveData:
			switch d.Kind {
			case CurvePolyline, CurveBezier:
				if len(d.Points) < 2 {
					bad(node.ID, "%s curve needs at least 2 points, has %d", d.Kind, len(d.Points))
				}
			case CurveInterpolated:
				if len(d.Points) < 2 {
					bad(node.ID, "interpolated curve needs at least 2 points, has %d", len(d.Points))
				}
			case CurveCircle, CurveArc:
				if d.Radius <= 0 {
					bad(node.ID, "%s radius must be positive, got %g", d.Kind, d.Radius)
				}
			}
		case SolidData:
			switch d.Kind {
			case SolidBox:
				if d.Dimensions.X <= 0 || d.Dimensions.Y <= 0 || d.Dimensions.Z <= 0 {
					bad(node.ID, "box dimensions must be positive, got (%g, %g, %g)",
						d.Dimensions.X, d.Dimensions.Y, d.Dimensions.Z)
				}
			case SolidCylinder:
				if d.Radius <= 0 || d.Height <= 0 {
					bad(node.ID, "cylinder radius and height must be positive, got r=%g h=%g", d.Radius, d.Height)
				}
			case SolidSphere:
				if d.Radius <= 0 {
					bad(node.ID, "sphere radius must be positive, got %g", d.Radius)
				}
			}
		case SurfaceData:
			if d.Kind == SurfaceRevolve && d.Axis.IsZero() {
				bad(node.ID, "revolve axis must be non-zero")
			}
			if d.Kind == SurfaceExtrude && (d.Axis.IsZero() || d.Length == 0) {
				bad(node.ID, "extrude needs a non-zero axis and length")
			}
		case ProfileData:
			if d.Op == ProfileRectangle && (d.Width <= 0 || d.Height <= 0) {
				bad(node.ID, "rectangle extents must be positive, got %gx%g", d.Width, d.Height)
			}
			if d.Op == ProfilePoints && len(d.Points) < 3 {
				bad(node.ID, "point profile needs at least 3 points, has %d", len(d.Points))
			}
		}
	}
	return errs
}
