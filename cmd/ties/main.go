package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tiesdata/ties"
)

// version is the release of the TIES tools, independent of the schema version.
const version = "0.9.1"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// env carries the process streams so subcommands can be driven from tests.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *log.Logger
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	e := &env{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		log: log.NewWithOptions(stderr, log.Options{
			Prefix:          "ties",
			ReportTimestamp: false,
			Level:           log.WarnLevel,
		}),
	}
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "validate":
		return e.validateCmd(args[1:])
	case "format":
		return e.formatCmd(args[1:])
	case "convert":
		return e.convertCmd(args[1:])
	case "schema":
		return e.schemaCmd(args[1:])
	case "describe":
		return e.describeCmd(args[1:])
	case "version", "-version", "--version":
		fmt.Fprintf(stdout, "TIES tools\nversion %s\nschema %s\n", version, ties.Version)
		return 0
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `TIES tools

Usage:
  ties validate [-v] [FILE|GLOB ...]
  ties format [-v] [-o json|yaml] EXPORT_PATH|-
  ties convert [-v] [-c TAG] [-f OUT | -i] [-o json|yaml] EXPORT_PATH|-
  ties schema
  ties describe [-v] [-root DIR] [-c TAG] [-o json|yaml] FILE ...
  ties version

Notes:
  - validate reads stdin when no FILE is given or FILE is -.
  - Exit status is 1 when any input fails, 2 on usage errors.`)
}

// flagSet returns a flag set that reports to stderr instead of exiting.
func (e *env) flagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: ties %s %s\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args and applies -v. ok is false when the caller should
// return code immediately.
func (e *env) parse(fs *flag.FlagSet, args []string, verbose *bool) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	if verbose != nil && *verbose {
		e.log.SetLevel(log.DebugLevel)
	}
	return 0, true
}

func (e *env) printf(format string, args ...any) {
	fmt.Fprintf(e.stderr, format, args...)
}

func (e *env) usageError(fs *flag.FlagSet, format string, args ...any) int {
	fmt.Fprintf(e.stderr, "error: "+format+"\n", args...)
	fs.Usage()
	return 2
}

// outputFormat validates the -o flag.
func outputFormat(s string) (ties.FormatOpt, error) {
	switch s {
	case "", "json":
		return ties.FormatOpt{}, nil
	case "yaml", "yml":
		return ties.FormatOpt{YAML: true}, nil
	}
	return ties.FormatOpt{}, fmt.Errorf("unknown output format %q", s)
}

// absPath expands a leading ~ and makes p absolute.
func absPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// expandInputs expands each argument as a glob, keeping patterns that match
// nothing, and returns the distinct absolute paths in sorted order.
func expandInputs(patterns []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, pat := range patterns {
		matches, err := filepath.Glob(pat)
		if err != nil || len(matches) == 0 {
			matches = []string{pat}
		}
		for _, m := range matches {
			a := absPath(m)
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	sort.Strings(out)
	return out
}

// source picks the token source for a file by extension.
func source(path string, data []byte) ties.Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ties.YAMLBytes(data)
	}
	return ties.JSONBytes(data)
}

// readDocument reads the document named by path ("-" for stdin) into a
// generic tree. Failures are reported on stderr in the tools' wording.
func (e *env) readDocument(path string) (tree any, abs string, ok bool) {
	if path == "-" {
		data, err := io.ReadAll(e.stdin)
		if err == nil {
			tree, err = ties.ReadTree(ties.JSONBytes(data))
		}
		if err != nil {
			e.log.Debug("read stdin", "err", err)
			fmt.Fprintln(e.stderr, "error: could not parse JSON from stdin")
			return nil, "", false
		}
		return tree, "", true
	}
	abs = absPath(path)
	data, err := os.ReadFile(abs)
	if err == nil {
		tree, err = ties.ReadTree(source(abs, data))
	}
	if err != nil {
		e.log.Debug("read file", "path", abs, "err", err)
		fmt.Fprintf(e.stderr, "error: could not read from file: %s\n", abs)
		return nil, abs, false
	}
	return tree, abs, true
}
