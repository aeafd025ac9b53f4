package graph

// ---------------------------------------------------------------------------
// Curves
// ---------------------------------------------------------------------------

// CurveKind distinguishes the curve constructors.
type CurveKind int

const (
	CurvePolyline CurveKind = iota
	CurveBezier
	CurveInterpolated
	CurveCircle
	CurveArc
)

func (k CurveKind) String() string {
	switch k {
	case CurvePolyline:
		return "polyline"
	case CurveBezier:
		return "bezier"
	case CurveInterpolated:
		return "interpolated"
	case CurveCircle:
		return "circle"
	case CurveArc:
		return "arc"
	default:
		return "unknown"
	}
}

// CurveData describes a curve primitive by its construction parameters. The
// kernel builds the actual NURBS curve from these at tessellation time.
type CurveData struct {
	Kind       CurveKind `json:"kind"`
	Points     []Vec3    `json:"points,omitempty"`      // polyline/bezier/interpolated
	Degree     int       `json:"degree,omitempty"`      // interpolated
	Center     Vec3      `json:"center,omitempty"`      // circle/arc
	Radius     float64   `json:"radius,omitempty"`      // circle/arc
	StartAngle float64   `json:"start_angle,omitempty"` // arc, radians
	EndAngle   float64   `json:"end_angle,omitempty"`   // arc, radians
	Normal     Vec3      `json:"normal,omitempty"`      // circle/arc plane normal
}

func (CurveData) nodeData() {}

// ---------------------------------------------------------------------------
// Surfaces
// ---------------------------------------------------------------------------

// SurfaceKind distinguishes the surface constructors.
type SurfaceKind int

const (
	SurfaceFourPoint SurfaceKind = iota
	SurfaceRevolve
	SurfaceExtrude
)

func (k SurfaceKind) String() string {
	switch k {
	case SurfaceFourPoint:
		return "four-point"
	case SurfaceRevolve:
		return "revolve"
	case SurfaceExtrude:
		return "extrude"
	default:
		return "unknown"
	}
}

// SurfaceData describes a surface primitive. Revolve and extrude operate on
// the node's single curve child.
type SurfaceData struct {
	Kind    SurfaceKind `json:"kind"`
	Corners [4]Vec3     `json:"corners,omitempty"` // four-point
	Degree  int         `json:"degree,omitempty"`  // four-point
	Center  Vec3        `json:"center,omitempty"`  // revolve axis anchor
	Axis    Vec3        `json:"axis,omitempty"`    // revolve/extrude direction
	Angle   float64     `json:"angle,omitempty"`   // revolve sweep, radians
	Length  float64     `json:"length,omitempty"`  // extrude distance
}

func (SurfaceData) nodeData() {}

// ---------------------------------------------------------------------------
// Solids
// ---------------------------------------------------------------------------

// SolidKind distinguishes the solid primitives.
type SolidKind int

const (
	SolidBox SolidKind = iota
	SolidCylinder
	SolidSphere
)

func (k SolidKind) String() string {
	switch k {
	case SolidBox:
		return "box"
	case SolidCylinder:
		return "cylinder"
	case SolidSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// SolidData describes a closed solid primitive.
type SolidData struct {
	Kind       SolidKind `json:"kind"`
	Dimensions Vec3      `json:"dimensions,omitempty"` // box extents
	Radius     float64   `json:"radius,omitempty"`     // cylinder/sphere
	Height     float64   `json:"height,omitempty"`     // cylinder
}

func (SolidData) nodeData() {}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

// ProfileOp distinguishes profile constructors and booleans.
type ProfileOp int

const (
	ProfileRectangle ProfileOp = iota
	ProfilePoints
	ProfileUnion
	ProfileDifference
	ProfileIntersection
)

func (op ProfileOp) String() string {
	switch op {
	case ProfileRectangle:
		return "rectangle"
	case ProfilePoints:
		return "points"
	case ProfileUnion:
		return "union"
	case ProfileDifference:
		return "difference"
	case ProfileIntersection:
		return "intersection"
	default:
		return "unknown"
	}
}

// ProfileData describes a planar region. Boolean ops combine the node's
// profile children in order; Depth extrudes the result into a solid when
// non-zero.
type ProfileData struct {
	Op     ProfileOp `json:"op"`
	Width  float64   `json:"width,omitempty"`
	Height float64   `json:"height,omitempty"`
	Points []Vec3    `json:"points,omitempty"`
	Depth  float64   `json:"depth,omitempty"`
}

func (ProfileData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData represents a spatial transformation applied to child nodes.
// Created by the (place ...) form.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Modifier
// ---------------------------------------------------------------------------

// ModifierKind enumerates the mesh modifiers.
type ModifierKind int

const (
	ModSubdivide ModifierKind = iota
	ModRelax
	ModWeld
	ModRepair
	ModDual
	ModInset
	ModExtrudeFaces
	ModDecimate
	ModRemeshQuads
)

func (k ModifierKind) String() string {
	switch k {
	case ModSubdivide:
		return "subdivide"
	case ModRelax:
		return "relax"
	case ModWeld:
		return "weld"
	case ModRepair:
		return "repair"
	case ModDual:
		return "dual"
	case ModInset:
		return "inset"
	case ModExtrudeFaces:
		return "extrude-faces"
	case ModDecimate:
		return "decimate"
	case ModRemeshQuads:
		return "remesh-quads"
	default:
		return "unknown"
	}
}

// SubdivisionScheme names the subdivision rule for ModSubdivide.
type SubdivisionScheme string

const (
	SchemeLinear       SubdivisionScheme = "linear"
	SchemeCatmullClark SubdivisionScheme = "catmull-clark"
	SchemeLoop         SubdivisionScheme = "loop"
)

// ModifierData configures a mesh modifier applied to the node's children.
type ModifierData struct {
	Kind             ModifierKind      `json:"kind"`
	Scheme           SubdivisionScheme `json:"scheme,omitempty"`
	Levels           int               `json:"levels,omitempty"`
	PreserveBoundary bool              `json:"preserve_boundary,omitempty"`
	Strength         float64           `json:"strength,omitempty"`
	Iterations       int               `json:"iterations,omitempty"`
	Tolerance        float64           `json:"tolerance,omitempty"`
	Fraction         float64           `json:"fraction,omitempty"`
	Distance         float64           `json:"distance,omitempty"`
	CellSize         float64           `json:"cell_size,omitempty"`
	MaxDihedral      float64           `json:"max_dihedral,omitempty"`
}

func (ModifierData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a logical grouping (assembly, subassembly).
// Created by the (assembly ...) form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
