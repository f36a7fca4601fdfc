// Package gojson adapts github.com/goccy/go-json's streaming decoder to the
// engine token model. It is the default JSON driver of the ties package.
package gojson

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"

	eng "github.com/tiesdata/ties/internal/engine"
)

// Name identifies this driver in diagnostics.
const Name = "go-json"

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

type source struct {
	dec   *j.Decoder
	stack []frame
	err   error
}

// NewStream wraps an io.Reader into an engine.TokenSource without a syntax
// pre-check. The go-json tokenizer skips separators, so only well-formed
// input should be fed through it.
func NewStream(r io.Reader) eng.TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &source{dec: dec}
}

// NewBytes wraps a byte slice into an engine.TokenSource. The input is
// checked for well-formedness before the first token is produced.
func NewBytes(b []byte) eng.TokenSource {
	s := NewStream(bytes.NewReader(b)).(*source)
	s.err = check(b)
	return s
}

// NewReader buffers r fully and behaves like NewBytes.
func NewReader(r io.Reader) eng.TokenSource {
	b, err := io.ReadAll(r)
	if err != nil {
		return &source{dec: j.NewDecoder(bytes.NewReader(nil)), err: err}
	}
	return NewBytes(b)
}

// Valid reports whether b holds exactly one well-formed JSON value. Numbers
// beyond the float64 range are well-formed.
func Valid(b []byte) bool { return check(b) == nil }

func check(b []byte) error {
	if j.Valid(b) {
		return nil
	}
	// go-json parses every number as a float64 while validating, so a
	// literal like 1e400 fails the check although the text is well-formed.
	if fixed, ok := clampOverflow(b); ok && j.Valid(fixed) {
		return nil
	}
	var v any
	if err := j.Unmarshal(b, &v); err != nil {
		return &eng.SyntaxError{Offset: -1, Msg: err.Error()}
	}
	return &eng.SyntaxError{Offset: -1, Msg: "invalid data after top-level value"}
}

// clampOverflow returns a copy of b in which every number literal outside a
// string that is grammatical but overflows float64 is replaced by 0 padded
// with spaces. ok is false when no literal was replaced.
func clampOverflow(b []byte) (out []byte, ok bool) {
	inString, escaped := false, false
	for i := 0; i < len(b); i++ {
		c := b[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			continue
		}
		if c != '-' && (c < '0' || c > '9') {
			continue
		}
		end := i
		for end < len(b) && strings.IndexByte("+-.eE0123456789", b[end]) >= 0 {
			end++
		}
		lit := string(b[i:end])
		if numberLiteral.MatchString(lit) {
			if _, err := strconv.ParseFloat(lit, 64); errors.Is(err, strconv.ErrRange) {
				if out == nil {
					out = bytes.Clone(b)
				}
				out[i] = '0'
				for k := i + 1; k < end; k++ {
					out[k] = ' '
				}
			}
		}
		i = end - 1
	}
	return out, out != nil
}

var numberLiteral = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

func (s *source) NextToken() (eng.Token, error) {
	if s.err != nil {
		return eng.Token{}, s.err
	}
	tok, err := s.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return eng.Token{}, io.EOF
		}
		return eng.Token{}, err
	}
	off := s.dec.InputOffset()
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return eng.Token{Kind: eng.KindBeginObject, Offset: off}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return eng.Token{Kind: eng.KindBeginArray, Offset: off}, nil
		case '}':
			s.pop()
			return eng.Token{Kind: eng.KindEndObject, Offset: off}, nil
		case ']':
			s.pop()
			return eng.Token{Kind: eng.KindEndArray, Offset: off}, nil
		}
	case string:
		if top := s.top(); top != nil && top.kind == kindObject && top.expectingKey {
			top.expectingKey = false
			return eng.Token{Kind: eng.KindKey, String: v, Offset: off}, nil
		}
		s.scalarDone()
		return eng.Token{Kind: eng.KindString, String: v, Offset: off}, nil
	case bool:
		s.scalarDone()
		return eng.Token{Kind: eng.KindBool, Bool: v, Offset: off}, nil
	case j.Number:
		s.scalarDone()
		// the tokenizer hands out a view into its read buffer
		return eng.Token{Kind: eng.KindNumber, Number: strings.Clone(string(v)), Offset: off}, nil
	case float64:
		s.scalarDone()
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: off}, nil
	}
	s.scalarDone()
	return eng.Token{Kind: eng.KindNull, Offset: off}, nil
}

func (s *source) Location() int64 { return s.dec.InputOffset() }

func (s *source) top() *frame {
	if n := len(s.stack); n > 0 {
		return &s.stack[n-1]
	}
	return nil
}

func (s *source) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.scalarDone()
}

// scalarDone flips the enclosing object back to expecting a key.
func (s *source) scalarDone() {
	if top := s.top(); top != nil && top.kind == kindObject {
		top.expectingKey = true
	}
}
