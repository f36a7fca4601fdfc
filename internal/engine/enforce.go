package engine

import (
	"strconv"
	"strings"
)

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// SimpleIssue is a minimal issue representation used by internal helpers.
// The root package converts it into its public Issue type.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
	Offset  int64
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// IssueSink receives non-fatal issues (duplicate keys under DupWarn).
	IssueSink func(SimpleIssue)
	// FailFast turns every reported issue into an error.
	FailFast bool
}

// Enabled reports whether wrapping a source with these options has any effect.
func (o EnforceOptions) Enabled() bool {
	return o.OnDuplicate != DupIgnore || o.MaxDepth > 0 || o.MaxBytes > 0
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind      containerKind
	path      string
	keys      map[string]struct{}
	key       string // pending key while its value is being read
	haveKey   bool
	nextIndex int
}

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes, tracking a JSON Pointer
// for every token so issues can be located.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	stack []frame
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}

	switch tok.Kind {
	case KindKey:
		if top := e.top(); top != nil && top.kind == kindObject {
			path := joinPointer(top.path, tok.String)
			if _, dup := top.keys[tok.String]; dup && e.opt.OnDuplicate != DupIgnore {
				si := SimpleIssue{Code: "duplicate_key", Path: path, Message: "key '" + tok.String + "' duplicated", Offset: e.Location()}
				if e.opt.OnDuplicate == DupError || e.opt.FailFast {
					return Token{}, IssueError{si}
				}
				if e.opt.IssueSink != nil {
					e.opt.IssueSink(si)
				}
			}
			top.keys[tok.String] = struct{}{}
			top.key = tok.String
			top.haveKey = true
		}
	case KindBeginObject, KindBeginArray:
		path := e.valuePath()
		f := frame{kind: kindArray, path: path}
		if tok.Kind == KindBeginObject {
			f = frame{kind: kindObject, path: path, keys: make(map[string]struct{})}
		}
		e.stack = append(e.stack, f)
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return Token{}, IssueError{SimpleIssue{Code: "truncated", Path: rootSlash(path), Message: "max depth exceeded", Offset: e.Location()}}
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		e.valueDone()
	default:
		e.valuePath()
		e.valueDone()
	}

	if e.opt.MaxBytes > 0 {
		if off := e.Location(); off > e.opt.MaxBytes {
			return Token{}, IssueError{SimpleIssue{Code: "truncated", Path: rootSlash(e.currentPath()), Message: "max bytes exceeded", Offset: off}}
		}
	}
	return tok, nil
}

func (e *enforcingTokenSource) top() *frame {
	if n := len(e.stack); n > 0 {
		return &e.stack[n-1]
	}
	return nil
}

// valuePath returns the pointer of the value that starts at the current token
// and advances array indexes.
func (e *enforcingTokenSource) valuePath() string {
	top := e.top()
	if top == nil {
		return ""
	}
	if top.kind == kindArray {
		p := joinPointer(top.path, strconv.Itoa(top.nextIndex))
		top.nextIndex++
		return p
	}
	if top.haveKey {
		return joinPointer(top.path, top.key)
	}
	return top.path
}

// valueDone marks the pending key of the enclosing object as consumed.
func (e *enforcingTokenSource) valueDone() {
	if top := e.top(); top != nil && top.kind == kindObject {
		top.haveKey = false
		top.key = ""
	}
}

func (e *enforcingTokenSource) currentPath() string {
	if top := e.top(); top != nil {
		return top.path
	}
	return ""
}

func rootSlash(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinPointer(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}
