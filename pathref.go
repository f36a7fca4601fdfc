package ties

import (
	"fmt"
	"strconv"
	"strings"
)

// PathRef builds JSON Pointer paths in a chain-safe way and creates Issues.
// Paths share their prefix, so extending one is cheap.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
	Issue(code, msg string, kv ...any) Issue
}

// RootPath returns the path of the document root ("/").
func RootPath() PathRef { return (*pathRef)(nil) }

type pathRef struct {
	parent *pathRef
	seg    string // already escaped per RFC 6901
}

func (p *pathRef) Field(name string) PathRef {
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return &pathRef{parent: p, seg: esc}
}

func (p *pathRef) Index(i int) PathRef {
	return &pathRef{parent: p, seg: strconv.Itoa(i)}
}

func (p *pathRef) Pointer() string {
	if p == nil {
		return "/"
	}
	var segs []string
	for q := p; q != nil; q = q.parent {
		segs = append(segs, q.seg)
	}
	b := &strings.Builder{}
	for i := len(segs) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(segs[i])
	}
	return b.String()
}

func (p *pathRef) Issue(code, msg string, kv ...any) Issue {
	var m map[string]any
	if len(kv) >= 2 {
		m = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			m[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return Issue{Path: p.Pointer(), Code: code, Message: msg, Params: m, Offset: -1}
}
