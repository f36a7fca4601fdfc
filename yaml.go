package ties

import (
	"bytes"
	"fmt"
	"strconv"

	gojson "github.com/goccy/go-json"
	y "gopkg.in/yaml.v3"
)

// MarshalYAML encodes r as a YAML document with the same property order,
// omission rules and number forms as Marshal. Floats keep their fraction, so
// a value decoded back with UnmarshalYAML has the same kind.
func MarshalYAML(r *Record, opts ...EncodeOpt) ([]byte, error) {
	o := lastEncodeOpt(opts)
	o.Indent = ""
	b, err := Marshal(r, o)
	if err != nil {
		return nil, err
	}
	tree, err := ReadTree(JSONBytes(b))
	if err != nil {
		return nil, err
	}
	return marshalYAMLTree(tree, 2)
}

func marshalYAMLTree(tree any, indent int) ([]byte, error) {
	n, err := yamlNode(tree, recordShape)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := y.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(n); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// yamlNode builds a node tree with explicit core tags so that strings which
// look like numbers, booleans or timestamps are quoted on output.
func yamlNode(v any, sh *shape) (*y.Node, error) {
	switch x := v.(type) {
	case nil:
		return &y.Node{Kind: y.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case string:
		return &y.Node{Kind: y.ScalarNode, Tag: "!!str", Value: x}, nil
	case bool:
		return &y.Node{Kind: y.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(x)}, nil
	case gojson.Number:
		tag := "!!int"
		if !isIntegerLiteral(string(x)) {
			tag = "!!float"
		}
		return &y.Node{Kind: y.ScalarNode, Tag: tag, Value: string(x)}, nil
	case map[string]any:
		n := &y.Node{Kind: y.MappingNode, Tag: "!!map"}
		for _, k := range orderedKeys(x, sh) {
			var child *shape
			if sh != nil {
				child = sh.children[k]
			}
			vn, err := yamlNode(x[k], child)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &y.Node{Kind: y.ScalarNode, Tag: "!!str", Value: k}, vn)
		}
		return n, nil
	case []any:
		n := &y.Node{Kind: y.SequenceNode, Tag: "!!seq"}
		for _, el := range x {
			en, err := yamlNode(el, sh)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, en)
		}
		return n, nil
	}
	return nil, fmt.Errorf("ties: cannot render %T as YAML", v)
}
