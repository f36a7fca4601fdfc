package main

import (
	"context"

	"github.com/tiesdata/ties"
	"github.com/tiesdata/ties/bundle"
	js "github.com/tiesdata/ties/jsonschema"
	"github.com/tiesdata/ties/validate"
)

func (e *env) schemaCmd(args []string) int {
	fs := e.flagSet("schema", "")
	if code, ok := e.parse(fs, args, nil); !ok {
		return code
	}
	b, err := js.Marshal(validate.Schema())
	if err != nil {
		e.log.Error("schema", "err", err)
		return 1
	}
	_, _ = e.stdout.Write(append(b, '\n'))
	return 0
}

func (e *env) describeCmd(args []string) int {
	fs := e.flagSet("describe", "[-v] [-root DIR] [-c TAG] [-o json|yaml] FILE ...")
	verbose := fs.Bool("v", false, "log progress to stderr")
	root := fs.String("root", "", "bundle directory; sets relativeUri for each file")
	tag := fs.String("c", "", "security tag for the document and each item")
	workers := fs.Int("j", 0, "files hashed concurrently (default GOMAXPROCS)")
	out := fs.String("o", "json", "output format: json or yaml")
	if code, ok := e.parse(fs, args, verbose); !ok {
		return code
	}
	if fs.NArg() == 0 {
		return e.usageError(fs, "expected at least one FILE")
	}
	opt, err := outputFormat(*out)
	if err != nil {
		return e.usageError(fs, "%v", err)
	}
	files := expandInputs(fs.Args())
	e.log.Debug("describing", "files", len(files), "root", *root)
	items, err := bundle.DescribeAll(context.Background(), files, bundle.Options{
		Root:        *root,
		SecurityTag: *tag,
		Workers:     *workers,
	})
	if err != nil {
		e.printf("error: %v\n", err)
		return 1
	}
	rec := bundle.Record(items, *tag)
	var b []byte
	if opt.YAML {
		b, err = ties.MarshalYAML(rec)
	} else {
		b, err = ties.MarshalIndent(rec, "  ")
		b = append(b, '\n')
	}
	if err != nil {
		e.log.Error("encode", "err", err)
		return 1
	}
	_, _ = e.stdout.Write(b)
	return 0
}
