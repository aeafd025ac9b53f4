package main

import (
	"log"

	"github.com/petersancho/armature/pkg/engine"
	"github.com/petersancho/armature/pkg/graph"
	"github.com/petersancho/armature/pkg/kernel"
	"github.com/petersancho/armature/pkg/kernel/sdfx"
	"github.com/petersancho/armature/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the evaluation backend. It owns the engine and the geometry kernel
// and exposes a single Evaluate entry point for frontends and the CLI.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
}

// MeshData is the JSON-serializable mesh format sent to viewers.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	UVs      []float32 `json:"uvs,omitempty"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// CurveData is the JSON-serializable polyline format for curve parts.
type CurveData struct {
	Points   []float32 `json:"points"` // [x0,y0,z0, x1,y1,z1, ...]
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval or validation error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating a source program.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Curves   []CurveData     `json:"curves"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates a new App with an engine and the sdfx kernel.
func NewApp() *App {
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
	}
}

// Evaluate takes Lisp source and returns mesh and curve data plus errors.
//
// The pipeline is: evaluate source into a design graph, validate the graph
// structure, then tessellate the graph into render geometry. Validation
// errors block tessellation; warnings are passed through alongside results.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Curves:   []CurveData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a design graph.
	g, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: err.Error(),
		})
		return result
	}

	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 2: Validate the graph structure before doing any geometry.
	blocked := false
	for _, v := range graph.Validate(g) {
		data := EvalErrorData{Message: v.Error()}
		if v.Severity == graph.SeverityError {
			result.Errors = append(result.Errors, data)
			blocked = true
		} else {
			result.Warnings = append(result.Warnings, data)
		}
	}
	if blocked {
		return result
	}

	// Step 3: Tessellate the design graph into render geometry.
	out, err := tessellate.Walk(g, a.kernel)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 4: Convert to the wire format, assigning palette colors per part.
	part := 0
	for _, m := range out.Meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Positions,
			Normals:  m.Normals,
			UVs:      m.UVs,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[part%len(colorPalette)],
		})
		part++
	}
	for _, c := range out.Curves {
		pts := make([]float32, 0, len(c.Points)*3)
		for _, p := range c.Points {
			pts = append(pts, float32(p[0]), float32(p[1]), float32(p[2]))
		}
		result.Curves = append(result.Curves, CurveData{
			Points:   pts,
			PartName: c.Name,
			Color:    colorPalette[part%len(colorPalette)],
		})
		part++
	}

	return result
}
