package ties

import (
	"bytes"

	gojson "github.com/goccy/go-json"
)

// FormatOpt configures Format. The last option passed wins.
type FormatOpt struct {
	Indent string // per-level indent; default two spaces
	YAML   bool   // render YAML instead of JSON
}

func lastFormatOpt(opts []FormatOpt) FormatOpt {
	var o FormatOpt
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	if o.Indent == "" {
		o.Indent = "  "
	}
	return o
}

// Format rewrites a TIES JSON document in canonical form: known properties in
// schema order, unknown properties kept and sorted after them. The document
// is not bound to Record, so anything well-formed can be formatted,
// including documents that would not decode.
func Format(data []byte, opts ...FormatOpt) ([]byte, error) {
	tree, err := ReadTree(JSONBytes(data))
	if err != nil {
		return nil, err
	}
	return FormatTree(tree, opts...)
}

// FormatTree renders a generic tree (as returned by ReadTree or produced by
// the convert package) in canonical form.
func FormatTree(tree any, opts ...FormatOpt) ([]byte, error) {
	o := lastFormatOpt(opts)
	if o.YAML {
		return marshalYAMLTree(tree, len(o.Indent))
	}
	e := &encodeState{}
	e.anyShaped(tree, recordShape, RootPath())
	if len(e.issues) > 0 {
		return nil, e.issues
	}
	var out bytes.Buffer
	if err := gojson.Indent(&out, e.buf.Bytes(), "", o.Indent); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
