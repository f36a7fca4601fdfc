package main

import (
	"os"

	"github.com/tiesdata/ties"
	"github.com/tiesdata/ties/convert"
)

func (e *env) formatCmd(args []string) int {
	fs := e.flagSet("format", "[-v] [-o json|yaml] EXPORT_PATH|-")
	verbose := fs.Bool("v", false, "log progress to stderr")
	out := fs.String("o", "json", "output format: json or yaml")
	if code, ok := e.parse(fs, args, verbose); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return e.usageError(fs, "expected exactly one EXPORT_PATH")
	}
	opt, err := outputFormat(*out)
	if err != nil {
		return e.usageError(fs, "%v", err)
	}
	tree, _, ok := e.readDocument(fs.Arg(0))
	if !ok {
		return 1
	}
	b, err := ties.FormatTree(tree, opt)
	if err != nil {
		e.log.Error("format", "err", err)
		return 1
	}
	_, _ = e.stdout.Write(b)
	return 0
}

func (e *env) convertCmd(args []string) int {
	fs := e.flagSet("convert", "[-v] [-c TAG] [-f OUT | -i] [-o json|yaml] EXPORT_PATH|-")
	verbose := fs.Bool("v", false, "log progress to stderr")
	tag := fs.String("c", "", "security tag (classification level), required for documents older than 0.3")
	outFile := fs.String("f", "", "write the converted document to this file")
	inPlace := fs.Bool("i", false, "overwrite the input file with the converted document")
	out := fs.String("o", "json", "output format: json or yaml")
	if code, ok := e.parse(fs, args, verbose); !ok {
		return code
	}
	if fs.NArg() != 1 {
		return e.usageError(fs, "expected exactly one EXPORT_PATH")
	}
	if *outFile != "" && *inPlace {
		return e.usageError(fs, "-f and -i are mutually exclusive")
	}
	opt, err := outputFormat(*out)
	if err != nil {
		return e.usageError(fs, "%v", err)
	}
	tree, abs, ok := e.readDocument(fs.Arg(0))
	if !ok {
		return 1
	}
	if doc, isObj := tree.(map[string]any); isObj {
		v := convert.Version(doc)
		if !convert.Supported(v) {
			e.log.Warn("unrecognized version, document left unchanged", "version", v)
		} else {
			e.log.Debug("converting", "from", v, "to", convert.Target)
		}
	}
	if err := convert.Tree(tree, *tag); err != nil {
		e.log.Debug("convert", "err", err)
		e.printf("error: %v\n", err)
		return 1
	}
	b, err := ties.FormatTree(tree, opt)
	if err != nil {
		e.log.Error("format", "err", err)
		return 1
	}

	dest := ""
	switch {
	case *outFile != "":
		dest = absPath(*outFile)
	case *inPlace && abs != "":
		dest = abs
	}
	if dest == "" {
		_, _ = e.stdout.Write(b)
		return 0
	}
	if err := os.WriteFile(dest, b, 0o644); err != nil {
		e.log.Debug("write", "path", dest, "err", err)
		e.printf("error: could not write to file: %s\n", dest)
		return 1
	}
	return 0
}
