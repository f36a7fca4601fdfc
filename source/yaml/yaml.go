// Package yaml feeds YAML documents to the engine as a JSON-shaped token
// stream, so YAML input binds through the same decoder as JSON.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	y "gopkg.in/yaml.v3"

	eng "github.com/tiesdata/ties/internal/engine"
)

const maxAliasDepth = 1000

type source struct {
	data []byte
	toks []eng.Token
	pos  int
	err  error
	done bool
}

// NewBytes returns a TokenSource over the first YAML document in b.
func NewBytes(b []byte) eng.TokenSource { return &source{data: b} }

// NewReader reads r fully and returns a TokenSource over its first document.
func NewReader(r io.Reader) eng.TokenSource {
	b, err := io.ReadAll(r)
	if err != nil {
		return &source{err: err, done: true}
	}
	return NewBytes(b)
}

func (s *source) NextToken() (eng.Token, error) {
	if !s.done {
		s.done = true
		s.err = s.load()
	}
	if s.err != nil {
		return eng.Token{}, s.err
	}
	if s.pos >= len(s.toks) {
		return eng.Token{}, io.EOF
	}
	t := s.toks[s.pos]
	s.pos++
	return t, nil
}

func (s *source) Location() int64 { return -1 }

func (s *source) load() error {
	var doc y.Node
	if err := y.Unmarshal(s.data, &doc); err != nil {
		return err
	}
	if doc.Kind == 0 {
		// empty document
		return nil
	}
	return s.walk(&doc, 0)
}

func (s *source) emit(t eng.Token) { s.toks = append(s.toks, t) }

func (s *source) walk(n *y.Node, aliasDepth int) error {
	switch n.Kind {
	case y.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return s.walk(n.Content[0], aliasDepth)
	case y.AliasNode:
		if aliasDepth >= maxAliasDepth || n.Alias == nil {
			return fmt.Errorf("yaml: alias nesting too deep at line %d", n.Line)
		}
		return s.walk(n.Alias, aliasDepth+1)
	case y.MappingNode:
		s.emit(eng.Token{Kind: eng.KindBeginObject, Offset: -1})
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind == y.AliasNode && k.Alias != nil {
				k = k.Alias
			}
			if k.Kind != y.ScalarNode {
				return fmt.Errorf("yaml: non-scalar mapping key at line %d", k.Line)
			}
			s.emit(eng.Token{Kind: eng.KindKey, String: k.Value, Offset: -1})
			if err := s.walk(n.Content[i+1], aliasDepth); err != nil {
				return err
			}
		}
		s.emit(eng.Token{Kind: eng.KindEndObject, Offset: -1})
		return nil
	case y.SequenceNode:
		s.emit(eng.Token{Kind: eng.KindBeginArray, Offset: -1})
		for _, c := range n.Content {
			if err := s.walk(c, aliasDepth); err != nil {
				return err
			}
		}
		s.emit(eng.Token{Kind: eng.KindEndArray, Offset: -1})
		return nil
	case y.ScalarNode:
		t, err := scalar(n)
		if err != nil {
			return err
		}
		s.emit(t)
		return nil
	}
	return fmt.Errorf("yaml: unsupported node kind %d at line %d", n.Kind, n.Line)
}

func scalar(n *y.Node) (eng.Token, error) {
	switch n.ShortTag() {
	case "!!null":
		return eng.Token{Kind: eng.KindNull, Offset: -1}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return eng.Token{}, err
		}
		return eng.Token{Kind: eng.KindBool, Bool: b, Offset: -1}, nil
	case "!!int":
		lit, err := intLiteral(n.Value)
		if err != nil {
			return eng.Token{}, fmt.Errorf("yaml: line %d: %w", n.Line, err)
		}
		return eng.Token{Kind: eng.KindNumber, Number: lit, Offset: -1}, nil
	case "!!float":
		lit, err := floatLiteral(n.Value)
		if err != nil {
			return eng.Token{}, fmt.Errorf("yaml: line %d: %w", n.Line, err)
		}
		return eng.Token{Kind: eng.KindNumber, Number: lit, Offset: -1}, nil
	}
	// strings, timestamps, binary and custom tags keep their text
	return eng.Token{Kind: eng.KindString, String: n.Value, Offset: -1}, nil
}

var errNotFinite = errors.New("non-finite number has no JSON form")

func intLiteral(v string) (string, error) {
	clean := strings.ReplaceAll(v, "_", "")
	if IsJSONNumber(clean) {
		return clean, nil
	}
	i, err := strconv.ParseInt(clean, 0, 64)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(i, 10), nil
}

func floatLiteral(v string) (string, error) {
	clean := strings.ReplaceAll(v, "_", "")
	switch strings.ToLower(strings.TrimLeft(clean, "+-")) {
	case ".inf", ".nan":
		return "", errNotFinite
	}
	if IsJSONNumber(clean) {
		return clean, nil
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return "", err
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}

// IsJSONNumber reports whether s matches the JSON number grammar.
func IsJSONNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	if i >= len(s) {
		return false
	}
	if s[i] == '0' {
		i++
	} else if s[i] >= '1' && s[i] <= '9' {
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	} else {
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
