package yaml

import (
	"reflect"
	"testing"

	gojson "github.com/goccy/go-json"

	eng "github.com/tiesdata/ties/internal/engine"
)

func TestTree_ScalarsAndContainers(t *testing.T) {
	in := `
version: "0.9"
count: 0x10
ratio: 3.0
big: 1_000
ok: true
nothing: ~
when: 2021-01-02T03:04:05Z
list: [a, 1]
empty: []
`
	got, err := eng.DecodeTree(NewBytes([]byte(in)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"version": "0.9",
		"count":   gojson.Number("16"),
		"ratio":   gojson.Number("3.0"),
		"big":     gojson.Number("1000"),
		"ok":      true,
		"nothing": nil,
		"when":    "2021-01-02T03:04:05Z",
		"list":    []any{"a", gojson.Number("1")},
		"empty":   []any{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tree mismatch:\n got=%#v\nwant=%#v", got, want)
	}
}

func TestTree_Alias(t *testing.T) {
	in := "base: &b {k: v}\ncopy: *b\n"
	got, err := eng.DecodeTree(NewBytes([]byte(in)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := got.(map[string]any)
	if !reflect.DeepEqual(m["base"], m["copy"]) {
		t.Fatalf("alias should resolve to the anchored value: %#v", m)
	}
}

func TestTree_NonFiniteRejected(t *testing.T) {
	if _, err := eng.DecodeTree(NewBytes([]byte("x: .inf\n"))); err == nil {
		t.Fatalf("expected error for .inf")
	}
}

func TestIsJSONNumber(t *testing.T) {
	good := []string{"0", "-1", "3.14", "1e10", "2.5E-3"}
	bad := []string{"", "01", "1.", ".5", "+1", "1e", "0x10"}
	for _, s := range good {
		if !IsJSONNumber(s) {
			t.Fatalf("%q should be a JSON number", s)
		}
	}
	for _, s := range bad {
		if IsJSONNumber(s) {
			t.Fatalf("%q should not be a JSON number", s)
		}
	}
}
