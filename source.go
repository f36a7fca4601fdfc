package ties

import (
	"io"
	"sync"

	eng "github.com/tiesdata/ties/internal/engine"
	"github.com/tiesdata/ties/source/gojson"
	yamlsrc "github.com/tiesdata/ties/source/yaml"
)

// TokenKind enumerates JSON token kinds.
type TokenKind int

const (
	TokenBeginObject TokenKind = iota
	TokenEndObject
	TokenBeginArray
	TokenEndArray
	TokenKey
	TokenString
	TokenNumber
	TokenBool
	TokenNull
)

// Token describes a token in the input stream. Offset records the byte position
// when known (-1 otherwise).
type Token struct {
	Kind   TokenKind
	String string // Stored for key/string tokens.
	Number string // Literal text; the decoder classifies it.
	Bool   bool
	Offset int64
}

// Source abstracts over polymorphic input sources. NextToken returns io.EOF
// after the last token.
type Source interface {
	NextToken() (Token, error)
	Location() int64 // byte offset; -1 if unknown
}

// JSONDriver converts JSON input into a Source via a pluggable SPI. The default
// implementation is based on goccy/go-json and may be swapped with SetJSONDriver.
type JSONDriver interface {
	NewReader(r io.Reader) Source
	NewBytes(b []byte) Source
	Name() string
}

var (
	jsonDriverMu      sync.RWMutex
	currentJSONDriver JSONDriver = defaultJSONDriver{}
)

// SetJSONDriver replaces the global JSON driver; nil values are ignored.
func SetJSONDriver(d JSONDriver) {
	if d == nil {
		return
	}
	jsonDriverMu.Lock()
	currentJSONDriver = d
	jsonDriverMu.Unlock()
}

// UseDefaultJSONDriver restores the default go-json-backed driver.
func UseDefaultJSONDriver() {
	jsonDriverMu.Lock()
	currentJSONDriver = defaultJSONDriver{}
	jsonDriverMu.Unlock()
}

// JSONDriverName returns the name of the active driver.
func JSONDriverName() string { return getJSONDriver().Name() }

func getJSONDriver() JSONDriver {
	jsonDriverMu.RLock()
	d := currentJSONDriver
	jsonDriverMu.RUnlock()
	return d
}

type defaultJSONDriver struct{}

func (defaultJSONDriver) NewReader(r io.Reader) Source {
	return &engineSourceAdapter{inner: gojson.NewReader(r)}
}
func (defaultJSONDriver) NewBytes(b []byte) Source {
	return &engineSourceAdapter{inner: gojson.NewBytes(b)}
}
func (defaultJSONDriver) Name() string { return gojson.Name }

// JSONReader wraps an io.Reader as a JSON Source.
func JSONReader(r io.Reader) Source { return getJSONDriver().NewReader(r) }

// JSONBytes wraps a byte slice as a JSON Source.
func JSONBytes(b []byte) Source { return getJSONDriver().NewBytes(b) }

// YAMLBytes wraps the first YAML document in b as a Source. Mappings,
// sequences and scalars map onto their JSON counterparts; timestamps stay
// text so the configured time codec parses them.
func YAMLBytes(b []byte) Source { return &engineSourceAdapter{inner: yamlsrc.NewBytes(b)} }

// YAMLReader reads r fully and wraps its first YAML document as a Source.
func YAMLReader(r io.Reader) Source { return &engineSourceAdapter{inner: yamlsrc.NewReader(r)} }

type engineSourceAdapter struct {
	inner eng.TokenSource
}

func (s *engineSourceAdapter) NextToken() (Token, error) {
	t, err := s.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	return Token{Kind: TokenKind(t.Kind), String: t.String, Number: t.Number, Bool: t.Bool, Offset: t.Offset}, nil
}
func (s *engineSourceAdapter) Location() int64 { return s.inner.Location() }

// publicSourceAdapter lets a user-supplied Source feed the engine.
type publicSourceAdapter struct {
	inner Source
}

func (s publicSourceAdapter) NextToken() (eng.Token, error) {
	t, err := s.inner.NextToken()
	if err != nil {
		return eng.Token{}, err
	}
	return eng.Token{Kind: eng.Kind(t.Kind), String: t.String, Number: t.Number, Bool: t.Bool, Offset: t.Offset}, nil
}
func (s publicSourceAdapter) Location() int64 { return s.inner.Location() }

func engineTokenSource(s Source) eng.TokenSource {
	if ea, ok := s.(*engineSourceAdapter); ok {
		return ea.inner
	}
	return publicSourceAdapter{inner: s}
}
