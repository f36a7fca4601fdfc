package ties

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Issue codes.
const (
	CodeMalformedInput       = "malformed_input"
	CodeUnexpectedType       = "unexpected_type"
	CodeUnrecognizedVariant  = "unrecognized_variant"
	CodeAmbiguousVariant     = "ambiguous_variant"
	CodeMissingRequiredField = "missing_required_field"
	CodeUnknownKey           = "unknown_key"
	CodeDuplicateKey         = "duplicate_key"
	CodeTruncated            = "truncated"
)

// Sentinel errors matched by errors.Is against Issues. Each issue code maps
// to exactly one sentinel.
var (
	ErrMalformedInput       = errors.New("ties: malformed input")
	ErrUnexpectedType       = errors.New("ties: unexpected type")
	ErrUnrecognizedVariant  = errors.New("ties: unrecognized supplemental description variant")
	ErrAmbiguousVariant     = errors.New("ties: ambiguous supplemental description variant")
	ErrMissingRequiredField = errors.New("ties: missing required field")
	ErrUnknownKey           = errors.New("ties: unknown key")
)

func sentinelFor(code string) error {
	switch code {
	case CodeMalformedInput, CodeDuplicateKey, CodeTruncated:
		return ErrMalformedInput
	case CodeUnexpectedType:
		return ErrUnexpectedType
	case CodeUnrecognizedVariant:
		return ErrUnrecognizedVariant
	case CodeAmbiguousVariant:
		return ErrAmbiguousVariant
	case CodeMissingRequiredField:
		return ErrMissingRequiredField
	case CodeUnknownKey:
		return ErrUnknownKey
	}
	return nil
}

// Issue is a single decode or encode problem.
type Issue struct {
	Path    string // JSON Pointer (for example: /objectItems/2/size).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: expected type, variant fields, etc.
	Cause   error  // Optional: underlying error.
	Offset  int64  // Byte offset in the input source (-1 when unknown).
	// Params carries structured parameters (e.g., {"expected":"string",
	// "got":"number"}) for i18n.
	Params map[string]any
}

// Field renders the path in dotted form, e.g.
// objectItems[2].objectAssertions.supplementalDescriptions[0].dataSize.
func (it Issue) Field() string { return PointerToField(it.Path) }

func (it Issue) String() string {
	s := it.Code + " at " + it.Path
	if it.Message != "" {
		s += ": " + it.Message
	}
	return s
}

// Issues is a collection of problems that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		// e.g. unexpected_type at /objectItems/0/size
		fmt.Fprintf(b, "%s at %s", iss[i].Code, iss[i].Path)
	}
	if n := len(iss); n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Is reports whether any issue maps to target, so callers can write
// errors.Is(err, ties.ErrUnrecognizedVariant).
func (iss Issues) Is(target error) bool {
	for _, it := range iss {
		if s := sentinelFor(it.Code); s != nil && s == target {
			return true
		}
	}
	return false
}

// Unwrap exposes the underlying causes.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// HasCode reports whether any issue carries code.
func (iss Issues) HasCode(code string) bool {
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// PointerToField converts a JSON Pointer into dotted field notation. Numeric
// segments become [i] indexes.
func PointerToField(ptr string) string {
	if ptr == "" || ptr == "/" {
		return ""
	}
	b := &strings.Builder{}
	for _, seg := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if _, err := strconv.Atoi(seg); err == nil {
			b.WriteString("[" + seg + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}
