package engine

import (
	"errors"
	"io"
	"reflect"
	"testing"

	gojson "github.com/goccy/go-json"
)

type sliceSource struct {
	toks []Token
	pos  int
}

func (s *sliceSource) NextToken() (Token, error) {
	if s.pos >= len(s.toks) {
		return Token{}, io.EOF
	}
	t := s.toks[s.pos]
	s.pos++
	return t, nil
}

func (s *sliceSource) Location() int64 { return int64(s.pos) }

func obj(toks ...Token) []Token {
	out := []Token{{Kind: KindBeginObject}}
	out = append(out, toks...)
	return append(out, Token{Kind: KindEndObject})
}

func key(k string) Token { return Token{Kind: KindKey, String: k} }
func str(s string) Token { return Token{Kind: KindString, String: s} }
func num(n string) Token { return Token{Kind: KindNumber, Number: n} }
func begin(k Kind) Token { return Token{Kind: k} }
func null() Token { return Token{Kind: KindNull} }
func boolean(b bool) Token { return Token{Kind: KindBool, Bool: b} }

func TestDecodeTree_Shapes(t *testing.T) {
	toks := obj(
		key("a"), str("x"),
		key("n"), num("3.0"),
		key("list"), begin(KindBeginArray), boolean(true), null(), begin(KindEndArray),
		key("empty"), begin(KindBeginArray), begin(KindEndArray),
	)
	got, err := DecodeTree(&sliceSource{toks: toks})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"a":     "x",
		"n":     gojson.Number("3.0"),
		"list":  []any{true, nil},
		"empty": []any{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tree mismatch:\n got=%#v\nwant=%#v", got, want)
	}
	if got.(map[string]any)["empty"] == nil {
		t.Fatalf("empty array must not decode to nil")
	}
}

func TestDecodeTree_Truncated(t *testing.T) {
	toks := []Token{begin(KindBeginObject), key("a")}
	_, err := DecodeTree(&sliceSource{toks: toks})
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
}

func TestDecodeTree_EmptyInput(t *testing.T) {
	_, err := DecodeTree(&sliceSource{})
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected SyntaxError for empty input, got %v", err)
	}
}

func TestExpectEOF(t *testing.T) {
	src := &sliceSource{toks: append(obj(), obj()...)}
	if _, err := DecodeTree(src); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := ExpectEOF(src); err == nil {
		t.Fatalf("expected trailing data error")
	}
}

func TestEnforce_DuplicateKeyError(t *testing.T) {
	toks := obj(key("items"), begin(KindBeginArray), begin(KindBeginObject), key("id"), str("a"), key("id"), str("b"), begin(KindEndObject), begin(KindEndArray))
	src := WrapWithEnforcement(&sliceSource{toks: toks}, EnforceOptions{OnDuplicate: DupError})
	_, err := DecodeTree(src)
	var ie IssueError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IssueError, got %v", err)
	}
	if ie.Code != "duplicate_key" || ie.Path != "/items/0/id" {
		t.Fatalf("unexpected issue: %+v", ie.SimpleIssue)
	}
}

func TestEnforce_DuplicateKeyWarnSink(t *testing.T) {
	toks := obj(key("k"), num("1"), key("k"), num("2"))
	var got []SimpleIssue
	src := WrapWithEnforcement(&sliceSource{toks: toks}, EnforceOptions{
		OnDuplicate: DupWarn,
		IssueSink:   func(si SimpleIssue) { got = append(got, si) },
	})
	tree, err := DecodeTree(src)
	if err != nil {
		t.Fatalf("warn mode must not fail: %v", err)
	}
	if len(got) != 1 || got[0].Path != "/k" {
		t.Fatalf("expected one warning at /k, got %+v", got)
	}
	if v := tree.(map[string]any)["k"]; v != gojson.Number("2") {
		t.Fatalf("expected last value to win, got %v", v)
	}
}

func TestEnforce_SiblingKeysAfterNestedValues(t *testing.T) {
	toks := obj(
		key("a"), begin(KindBeginObject), key("x"), num("1"), begin(KindEndObject),
		key("b"), begin(KindBeginArray), num("1"), begin(KindEndArray),
		key("x"), num("2"),
	)
	src := WrapWithEnforcement(&sliceSource{toks: toks}, EnforceOptions{OnDuplicate: DupError})
	if _, err := DecodeTree(src); err != nil {
		t.Fatalf("keys in different objects must not collide: %v", err)
	}
}

func TestEnforce_MaxDepth(t *testing.T) {
	toks := obj(key("a"), begin(KindBeginArray), begin(KindBeginArray), begin(KindEndArray), begin(KindEndArray))
	src := WrapWithEnforcement(&sliceSource{toks: toks}, EnforceOptions{MaxDepth: 2})
	_, err := DecodeTree(src)
	var ie IssueError
	if !errors.As(err, &ie) || ie.Code != "truncated" {
		t.Fatalf("expected truncated issue, got %v", err)
	}
	if ie.Path != "/a/0" {
		t.Fatalf("unexpected path %q", ie.Path)
	}
}

func TestEnforceOptions_Enabled(t *testing.T) {
	if (EnforceOptions{}).Enabled() {
		t.Fatalf("zero options should be disabled")
	}
	if !(EnforceOptions{MaxBytes: 10}).Enabled() {
		t.Fatalf("max bytes should enable enforcement")
	}
}
