package main

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 meshes, 0 errors.
//    (TestE2EEmptySource already exists; this verifies additional invariants.)
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Meshes == nil {
		t.Error("Meshes should be non-nil empty slice, got nil")
	}
	if result.Curves == nil {
		t.Error("Curves should be non-nil empty slice, got nil")
	}
	if result.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
}

func TestE2EWhitespaceAndCommentsOnly(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("  \n\t; just a comment\n;; another one\n")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors, got %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax error mid-expression: unmatched parens -> eval error, 0 meshes.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := NewApp()

	// Put valid code on line 1, broken code on line 2 so line info is meaningful.
	source := "(+ 1 2)\n(box \"test\""
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on syntax error, got %d", len(result.Meshes))
	}

	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

func TestE2ESyntaxErrorSingleLineMissingParen(t *testing.T) {
	app := NewApp()

	result := app.Evaluate("(+ 1 2")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for missing closing paren")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
	if result.Errors[0].Message == "" {
		t.Error("error message should not be empty")
	}
}

// ---------------------------------------------------------------------------
// 3. Wrong argument type: a number where a node reference is expected.
// ---------------------------------------------------------------------------

func TestE2EBadNodeReference(t *testing.T) {
	app := NewApp()

	result := app.Evaluate(`(revolve 42 :angle 3.14)`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for numeric node reference")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}

	found := false
	for _, e := range result.Errors {
		if strings.Contains(e.Message, "node reference") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected error mentioning 'node reference', got: %v", result.Errors)
	}
}

// ---------------------------------------------------------------------------
// 4. Validation failures: structurally valid programs whose parameters make
//    no geometric sense. These pass the engine but are blocked before
//    tessellation.
// ---------------------------------------------------------------------------

func TestE2ENegativeRadiusBlocked(t *testing.T) {
	app := NewApp()

	result := app.Evaluate(`(circle :name "bad" :radius -5)`)

	if len(result.Errors) == 0 {
		t.Fatal("expected validation error for negative radius")
	}
	if len(result.Meshes) != 0 || len(result.Curves) != 0 {
		t.Error("expected no geometry when validation fails")
	}

	found := false
	for _, e := range result.Errors {
		if strings.Contains(e.Message, "radius") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected error mentioning 'radius', got: %v", result.Errors)
	}
}

func TestE2EZeroSizeBoxBlocked(t *testing.T) {
	app := NewApp()

	result := app.Evaluate(`(box :name "flat" :size (vec3 100 0 25))`)

	if len(result.Errors) == 0 {
		t.Fatal("expected validation error for zero box dimension")
	}

	found := false
	for _, e := range result.Errors {
		if strings.Contains(e.Message, "dimensions") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected error mentioning 'dimensions', got: %v", result.Errors)
	}
}

func TestE2EZeroAxisRevolveBlocked(t *testing.T) {
	app := NewApp()

	source := `
(def c (polyline :points (list (vec3 30 0 0) (vec3 30 0 50))))
(revolve c :name "shell" :axis (vec3 0 0 0) :angle 6.28)
`
	result := app.Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected validation error for zero revolve axis")
	}

	found := false
	for _, e := range result.Errors {
		if strings.Contains(e.Message, "axis") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected error mentioning 'axis', got: %v", result.Errors)
	}
}

// ---------------------------------------------------------------------------
// 5. Multiple top-level parts: every unreferenced node renders.
// ---------------------------------------------------------------------------

func TestE2EMultipleRoots(t *testing.T) {
	app := NewApp()

	source := `
(box :name "a" :size (vec3 20 20 20))
(sphere :name "b" :radius 15)
(cylinder :name "c" :radius 8 :height 40)
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(result.Meshes))
	}

	names := map[string]bool{}
	for _, m := range result.Meshes {
		names[m.PartName] = true
	}
	for _, want := range []string{"a", "b", "c"} {
		if !names[want] {
			t.Errorf("missing mesh for part %q", want)
		}
	}
}

// ---------------------------------------------------------------------------
// 6. Modifier chains survive the full pipeline.
// ---------------------------------------------------------------------------

func TestE2EModifierChainRenders(t *testing.T) {
	app := NewApp()

	source := `
(def base (four-point :name "base" :degree 1
  :corners (list (vec3 0 0 0) (vec3 100 0 0) (vec3 100 100 0) (vec3 0 100 0))))
(relax (subdivide base :scheme :linear :levels 1) :name "soft" :strength 0.3)
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if result.Meshes[0].PartName != "soft" {
		t.Errorf("expected part name 'soft', got %q", result.Meshes[0].PartName)
	}
	if len(result.Meshes[0].Indices)%3 != 0 {
		t.Error("mesh indices should form whole triangles")
	}
}

// ---------------------------------------------------------------------------
// 7. Re-evaluation is deterministic: same source, same output shape.
// ---------------------------------------------------------------------------

func TestE2ERepeatedEvaluationStable(t *testing.T) {
	app := NewApp()
	source := `(box :name "crate" :size (vec3 60 40 30))`

	first := app.Evaluate(source)
	second := app.Evaluate(source)

	if len(first.Errors) > 0 || len(second.Errors) > 0 {
		t.Fatalf("unexpected errors: %v %v", first.Errors, second.Errors)
	}
	if len(first.Meshes) != len(second.Meshes) {
		t.Fatalf("mesh count changed between runs: %d vs %d",
			len(first.Meshes), len(second.Meshes))
	}
	if len(first.Meshes[0].Vertices) != len(second.Meshes[0].Vertices) {
		t.Error("vertex count changed between identical runs")
	}
}

// ---------------------------------------------------------------------------
// 8. Mixed curves and meshes in one program keep their kinds separated.
// ---------------------------------------------------------------------------

func TestE2EMixedCurveAndSolid(t *testing.T) {
	app := NewApp()

	source := `
(polyline :name "guide" :points (list (vec3 0 0 0) (vec3 50 50 0)))
(box :name "block" :size (vec3 30 30 30))
`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 1 {
		t.Errorf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if len(result.Curves) != 1 {
		t.Errorf("expected 1 curve, got %d", len(result.Curves))
	}
}
