package ties

import (
	"fmt"
	"strconv"
)

// ValueKind tags the representation held by a Value.
type ValueKind int

const (
	KindNone   ValueKind = iota // unset; encodes as an absent field
	KindString                  // JSON string
	KindInt                     // 32-bit integer
	KindFloat                   // single-precision float
	KindDouble                  // double-precision float
	KindBool                    // JSON boolean
)

func (k ValueKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	}
	return "ValueKind(" + strconv.Itoa(int(k)) + ")"
}

// Value is the polymorphic value of an otherInformation entry. The zero
// Value is unset. Values are comparable with ==.
type Value struct {
	kind ValueKind
	s    string
	i    int32
	f    float32
	d    float64
	b    bool
}

func StringValue(s string) Value  { return Value{kind: KindString, s: s} }
func IntValue(i int32) Value      { return Value{kind: KindInt, i: i} }
func FloatValue(f float32) Value  { return Value{kind: KindFloat, f: f} }
func DoubleValue(d float64) Value { return Value{kind: KindDouble, d: d} }
func BoolValue(b bool) Value      { return Value{kind: KindBool, b: b} }

// Kind reports which representation the value holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsSet reports whether the value holds anything.
func (v Value) IsSet() bool { return v.kind != KindNone }

// AsString returns the string payload; ok is false for other kinds.
func (v Value) AsString() (s string, ok bool) { return v.s, v.kind == KindString }

// AsInt returns the integer payload; ok is false for other kinds.
func (v Value) AsInt() (i int32, ok bool) { return v.i, v.kind == KindInt }

// AsFloat returns the single-precision payload; ok is false for other kinds.
func (v Value) AsFloat() (f float32, ok bool) { return v.f, v.kind == KindFloat }

// AsDouble returns the double-precision payload; ok is false for other kinds.
func (v Value) AsDouble() (d float64, ok bool) { return v.d, v.kind == KindDouble }

// AsBool returns the boolean payload; ok is false for other kinds.
func (v Value) AsBool() (b bool, ok bool) { return v.b, v.kind == KindBool }

// Interface returns the payload as a plain Go value (nil when unset).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindDouble:
		return v.d
	case KindBool:
		return v.b
	}
	return nil
}

func (v Value) String() string {
	if v.kind == KindNone {
		return "<unset>"
	}
	return fmt.Sprintf("%s(%v)", v.kind, v.Interface())
}

// OtherInformation is a key/value extension entry. Key is always present on
// the wire; Value is omitted when unset.
type OtherInformation struct {
	Key   string
	Value Value
}
