package engine

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindBeginObject:
		return "begin-object"
	case KindEndObject:
		return "end-object"
	case KindBeginArray:
		return "begin-array"
	case KindEndArray:
		return "end-array"
	case KindKey:
		return "key"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	}
	return "unknown"
}

// Token represents a streaming token with approximate input offset.
// Number keeps the literal text so callers decide how to interpret it.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine. NextToken
// returns io.EOF once the input is exhausted.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}
