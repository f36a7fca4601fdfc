package ties_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/tiesdata/ties"
)

func TestPointerToField(t *testing.T) {
	cases := map[string]string{
		"/":                         "",
		"/version":                  "version",
		"/objectItems/2/size":       "objectItems[2].size",
		"/otherInformation/0/value": "otherInformation[0].value",
		"/a~1b/c~0d":                "a/b.c~d",
	}
	for in, want := range cases {
		if got := ties.PointerToField(in); got != want {
			t.Fatalf("%s: got %q want %q", in, got, want)
		}
	}
}

func TestPathRef_EscapesSegments(t *testing.T) {
	p := ties.RootPath().Field("a/b").Index(3).Field("c~d")
	if p.Pointer() != "/a~1b/3/c~0d" {
		t.Fatalf("got %s", p.Pointer())
	}
	if ties.RootPath().Pointer() != "/" {
		t.Fatalf("root must render as /")
	}
	it := p.Issue(ties.CodeUnexpectedType, "bad", "expected", "string")
	if it.Params["expected"] != "string" || it.Offset != -1 {
		t.Fatalf("unexpected issue %+v", it)
	}
}

func TestIssues_ErrorAndIs(t *testing.T) {
	iss := ties.Issues{
		{Code: ties.CodeUnexpectedType, Path: "/a"},
		{Code: ties.CodeTruncated, Path: "/b"},
		{Code: ties.CodeUnknownKey, Path: "/c"},
		{Code: ties.CodeUnknownKey, Path: "/d", Cause: io.ErrUnexpectedEOF},
	}
	msg := iss.Error()
	if !strings.HasPrefix(msg, "unexpected_type at /a; truncated at /b") || !strings.HasSuffix(msg, "(total 4)") {
		t.Fatalf("unexpected message %q", msg)
	}
	var err error = iss
	if !errors.Is(err, ties.ErrMalformedInput) || !errors.Is(err, ties.ErrUnknownKey) {
		t.Fatalf("sentinels must match")
	}
	if errors.Is(err, ties.ErrAmbiguousVariant) {
		t.Fatalf("unrelated sentinel matched")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("causes must unwrap")
	}
	if !iss.HasCode(ties.CodeTruncated) || iss.HasCode(ties.CodeDuplicateKey) {
		t.Fatalf("HasCode mismatch")
	}
	if _, ok := ties.AsIssues(errors.New("plain")); ok {
		t.Fatalf("plain errors are not Issues")
	}
}
