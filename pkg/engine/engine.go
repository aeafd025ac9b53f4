// Package engine provides the Lisp evaluation engine for Armature.
// It wraps zygomys in a sandboxed environment and produces a DesignGraph
// from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/npillmayer/schuko/tracing"

	"github.com/petersancho/armature/pkg/graph"
)

// evalTimeout is the hard limit for a single evaluation. It is a variable so
// tests can shorten it.
var evalTimeout = 5 * time.Second

// tracer writes to trace with key 'armature.engine'.
func tracer() tracing.Trace {
	return tracing.Select("armature.engine")
}

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	NodeID  graph.NodeID
}

// EvalResult bundles the full output of an evaluation for use by UI bindings.
type EvalResult struct {
	Graph    *graph.DesignGraph
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for Armature evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate takes Lisp source code and produces a new DesignGraph.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns graph + nil errors + nil error
//   - On parse/eval failure: returns nil graph + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*graph.DesignGraph, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		g, evalErrs, err := evaluate(source, gen)
		ch <- evalResult{graph: g, errors: evalErrs, err: err}
	}()

	return e.await(ch, gen)
}

// evalResult carries one evaluation outcome through the worker channel.
type evalResult struct {
	graph  *graph.DesignGraph
	errors []EvalError
	err    error
}

// await blocks for the result of generation gen, abandoning it when the
// timeout elapses or a newer evaluation has started. After a timeout the
// worker goroutine may still be running; the generation check discards its
// result when it eventually lands.
func (e *Engine) await(ch <-chan evalResult, gen uint64) (*graph.DesignGraph, []EvalError, error) {
	timer := time.NewTimer(evalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.graph, res.errors, res.err

	case <-timer.C:
		tracer().Infof("evaluation generation %d timed out", gen)
		return nil, nil, fmt.Errorf("evaluation timed out after %s", evalTimeout)
	}
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func evaluate(source string, gen uint64) (*graph.DesignGraph, []EvalError, error) {
	// Empty source is a valid program that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		g := graph.New()
		g.Version = gen
		return g, nil, nil
	}

	processed := preprocessSource(source)
	tracer().Debugf("evaluating %d bytes of source (generation %d)", len(processed), gen)

	// Sandbox mode prevents user code from accessing the filesystem or
	// syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder()
	registerBuiltins(env, b)

	if err := env.LoadString(processed); err != nil {
		tracer().Infof("load error: %v", err)
		return nil, parseZygomysError(err), nil
	}

	if _, err := env.Run(); err != nil {
		tracer().Infof("eval error: %v", err)
		return nil, parseZygomysError(err), nil
	}

	g := b.finish()
	g.Version = gen
	tracer().Debugf("evaluation produced %d nodes, %d roots", g.NodeCount(), len(g.Roots))
	return g, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	// Fallback: no line info available.
	return []EvalError{{
		Line:    0,
		Col:     0,
		Message: strings.TrimSpace(msg),
	}}
}
