package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tiesdata/ties"
	"github.com/tiesdata/ties/validate"
)

// statusWidth is the column the per-file result is aligned to.
const statusWidth = 153

func (e *env) validateCmd(args []string) int {
	fs := e.flagSet("validate", "[-v] [FILE|GLOB ...]")
	verbose := fs.Bool("v", false, "log progress to stderr")
	if code, ok := e.parse(fs, args, verbose); !ok {
		return code
	}
	files := fs.Args()
	if len(files) == 0 || len(files) == 1 && files[0] == "-" {
		if !e.validateOne(e.stdin, "stdin") {
			return 1
		}
		return 0
	}
	failed := false
	for _, p := range expandInputs(files) {
		e.log.Debug("validating", "path", p)
		f, err := os.Open(p)
		if err != nil {
			e.status("Validating " + p)
			e.fail("Schema validation was unsuccessful:", "error:", err.Error())
			failed = true
			continue
		}
		if !e.validateOne(f, p) {
			failed = true
		}
		f.Close()
	}
	if failed {
		return 1
	}
	return 0
}

func (e *env) status(s string) {
	fmt.Fprint(e.stdout, s+strings.Repeat(".", max(0, statusWidth-len(s))))
}

// fail finishes a status line with ERROR (or WARNING) and lists entries on
// stderr under header.
func (e *env) fail(header, label string, entries ...string) {
	result := "ERROR"
	if label == "warning:" {
		result = "WARNING"
	}
	fmt.Fprintln(e.stdout, result)
	fmt.Fprintln(e.stderr, header)
	for _, s := range entries {
		fmt.Fprintln(e.stderr, label)
		fmt.Fprintln(e.stderr, validate.Indent(s, "    "))
	}
}

// validateOne validates a single document and reports whether it passed.
func (e *env) validateOne(r io.Reader, name string) bool {
	e.status("Validating " + name)
	data, err := io.ReadAll(r)
	if err != nil {
		e.fail("Schema validation was unsuccessful:", "error:", err.Error())
		return false
	}
	doc, err := ties.ReadTree(source(name, data))
	if err != nil {
		e.fail("Schema validation was unsuccessful:", "error:", err.Error())
		return false
	}
	rep, err := validate.Document(doc)
	if err != nil {
		e.fail("Schema validation was unsuccessful:", "error:", err.Error())
		return false
	}
	if len(rep.Errors) > 0 {
		msgs := make([]string, len(rep.Errors))
		for i, ve := range rep.Errors {
			msgs[i] = ve.Error()
		}
		e.fail("Schema validation was unsuccessful:", "error:", msgs...)
		return false
	}
	if len(rep.Warnings) > 0 {
		msgs := make([]string, len(rep.Warnings))
		for i, w := range rep.Warnings {
			msgs[i] = w.Error()
		}
		e.fail("Schema validation completed with warnings:", "warning:", msgs...)
		return false
	}
	e.log.Debug("valid", "name", name)
	fmt.Fprintln(e.stdout, "done")
	return true
}
