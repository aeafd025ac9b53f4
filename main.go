// Armature evaluates parametric design programs written in a small Lisp
// dialect and emits render-ready geometry as JSON.
//
// Usage:
//
//	armature design.arm            evaluate a file, JSON on stdout
//	armature -o out.json design.arm
//	armature -                     read source from stdin
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
)

func main() {
	out := flag.String("o", "", "write JSON output to this file instead of stdout")
	indent := flag.Bool("indent", false, "pretty-print the JSON output")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: armature [-o out.json] [-indent] <design.arm | ->")
		os.Exit(2)
	}

	source, err := readSource(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "armature: %v\n", err)
		os.Exit(1)
	}

	app := NewApp()
	result := app.Evaluate(source)

	var data []byte
	if *indent {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "armature: encoding result: %v\n", err)
		os.Exit(1)
	}
	data = append(data, '\n')

	if *out != "" {
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "armature: %v\n", err)
			os.Exit(1)
		}
	} else {
		os.Stdout.Write(data)
	}

	// Errors in the design are reported in the JSON, but also fail the exit
	// code so shell pipelines notice.
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "armature: %s\n", e.Message)
		}
		os.Exit(1)
	}
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
