package engine

import (
	"errors"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
)

// SyntaxError reports a token sequence that does not form a JSON value.
type SyntaxError struct {
	Offset int64
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s (offset %d)", e.Msg, e.Offset)
	}
	return e.Msg
}

// DecodeTree builds a generic tree from the token source: objects become
// map[string]any, arrays []any (never nil, so an empty array stays
// distinguishable from an absent one), numbers gojson.Number carrying the
// literal text, and null a nil interface.
func DecodeTree(src TokenSource) (any, error) {
	tok, err := src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SyntaxError{Offset: src.Location(), Msg: "empty input"}
		}
		return nil, err
	}
	return decodeValue(src, tok)
}

// ExpectEOF reports an error if the source still holds tokens after the
// top-level value.
func ExpectEOF(src TokenSource) error {
	tok, err := src.NextToken()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	return &SyntaxError{Offset: src.Location(), Msg: "unexpected " + tok.Kind.String() + " after top-level value"}
}

func decodeValue(src TokenSource, tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src)
	case KindBeginArray:
		return decodeArray(src)
	case KindString:
		return tok.String, nil
	case KindNumber:
		return gojson.Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	}
	return nil, &SyntaxError{Offset: src.Location(), Msg: "unexpected " + tok.Kind.String()}
}

func decodeObject(src TokenSource) (any, error) {
	m := make(map[string]any)
	for {
		tok, err := next(src)
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, &SyntaxError{Offset: src.Location(), Msg: "expected object key, got " + tok.Kind.String()}
		}
		vt, err := next(src)
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(src, vt)
		if err != nil {
			return nil, err
		}
		// last occurrence wins; duplicate policy is enforced upstream
		m[tok.String] = v
	}
}

func decodeArray(src TokenSource) (any, error) {
	arr := []any{}
	for {
		tok, err := next(src)
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := decodeValue(src, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

// next reads a token inside a container where EOF means truncated input.
func next(src TokenSource) (Token, error) {
	tok, err := src.NextToken()
	if errors.Is(err, io.EOF) {
		return Token{}, &SyntaxError{Offset: src.Location(), Msg: "unexpected end of input"}
	}
	return tok, err
}
