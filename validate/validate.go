// Package validate checks TIES documents against the TIES 0.9 JSON Schema and
// runs the semantic checks that a schema cannot express (duplicate
// identifiers, dangling references).
//
// Documents are the generic JSON tree returned by ties.ReadTree. Schema
// errors and semantic warnings carry a human message and a location such as
// /objectItems[0]/objectAssertions/annotations[1].
package validate

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	gojson "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tiesdata/ties"
	js "github.com/tiesdata/ties/jsonschema"
)

// SchemaURL identifies the schema resource inside the compiler. Nothing is
// fetched from it.
const SchemaURL = "https://tiesdata.github.io/schema/ties-0.9.json"

// ValidationError is a schema violation. Causes is set for anyOf failures and
// lists why each alternative was rejected.
type ValidationError struct {
	Message  string
	Location string
	Causes   []*ValidationError

	keyword string
}

func (e *ValidationError) Error() string {
	if len(e.Causes) == 0 {
		return e.Message + "\nlocation: " + e.Location
	}
	b := &strings.Builder{}
	b.WriteString(e.Message)
	b.WriteString("\npossible causes:")
	for _, c := range e.Causes {
		b.WriteByte('\n')
		b.WriteString(Indent(c.Error(), "    "))
	}
	return b.String()
}

// ValidationWarning is a semantic finding in an otherwise schema-valid
// document.
type ValidationWarning struct {
	Message  string
	Location string
}

func (w *ValidationWarning) Error() string { return w.Message + "\nlocation: " + w.Location }

// Indent prefixes every line of s.
func Indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// Validator checks documents against the whole schema or one of its
// definitions.
type Validator struct {
	definition string
	schema     *jsonschema.Schema
}

// New compiles a Validator. definition is one of the definition constants
// (Annotation, ObjectItem, ...) or "" for a whole TIES document.
func New(definition string) (*Validator, error) {
	b, err := js.Marshal(Schema())
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft4)
	if err := c.AddResource(SchemaURL, doc); err != nil {
		return nil, err
	}
	loc := SchemaURL
	if definition != "" {
		loc += "#/definitions/" + definition
	}
	sch, err := c.Compile(loc)
	if err != nil {
		return nil, fmt.Errorf("validate: compile %s: %w", loc, err)
	}
	return &Validator{definition: definition, schema: sch}, nil
}

var (
	defaultOnce sync.Once
	defaultV    *Validator
	defaultErr  error
)

// Default returns the shared whole-document Validator.
func Default() (*Validator, error) {
	defaultOnce.Do(func() { defaultV, defaultErr = New("") })
	return defaultV, defaultErr
}

// AllErrors returns every schema violation in doc, sorted by location and
// then by keyword. A valid document yields nil.
func (v *Validator) AllErrors(doc any) []*ValidationError {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []*ValidationError{{Message: err.Error(), Location: "/"}}
	}
	return sortErrors(flatten(ve, doc))
}

// Validate returns the first schema violation in doc, or nil.
func (v *Validator) Validate(doc any) error {
	if errs := v.AllErrors(doc); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// ValidateJSON parses data and returns its schema violations. Malformed input
// is reported through the error result.
func (v *Validator) ValidateJSON(data []byte) ([]*ValidationError, error) {
	doc, err := ties.ReadTree(ties.JSONBytes(data))
	if err != nil {
		return nil, err
	}
	return v.AllErrors(doc), nil
}

// Report is the outcome of checking one document.
type Report struct {
	Errors   []*ValidationError
	Warnings []*ValidationWarning
}

// OK reports whether the document passed without errors or warnings.
func (r Report) OK() bool { return len(r.Errors) == 0 && len(r.Warnings) == 0 }

// Document runs schema validation on doc and, when the schema is satisfied,
// the semantic checks.
func Document(doc any) (Report, error) {
	v, err := Default()
	if err != nil {
		return Report{}, err
	}
	if errs := v.AllErrors(doc); len(errs) > 0 {
		return Report{Errors: errs}, nil
	}
	return Report{Warnings: Warnings(doc)}, nil
}

func flatten(ve *jsonschema.ValidationError, doc any) []*ValidationError {
	loc := ve.InstanceLocation
	if _, ok := ve.ErrorKind.(*kind.AnyOf); ok {
		var causes []*ValidationError
		for _, c := range ve.Causes {
			causes = append(causes, flatten(c, doc)...)
		}
		return []*ValidationError{{
			Message:  anyOfMessage(loc),
			Location: location(doc, loc),
			Causes:   sortErrors(causes),
			keyword:  "anyOf",
		}}
	}
	if e := leaf(ve, doc); e != nil {
		return []*ValidationError{e}
	}
	var out []*ValidationError
	for _, c := range ve.Causes {
		out = append(out, flatten(c, doc)...)
	}
	if len(out) == 0 && len(ve.Causes) == 0 {
		out = append(out, unknown(ve, doc))
	}
	return out
}

var printer = message.NewPrinter(language.English)

func unknown(ve *jsonschema.ValidationError, doc any) *ValidationError {
	kw := ""
	if p := ve.ErrorKind.KeywordPath(); len(p) > 0 {
		kw = p[len(p)-1]
	}
	return &ValidationError{
		Message:  ve.ErrorKind.LocalizedString(printer),
		Location: location(doc, ve.InstanceLocation),
		keyword:  kw,
	}
}

// leaf maps a single-keyword failure to its message; wrapper kinds return nil.
func leaf(ve *jsonschema.ValidationError, doc any) *ValidationError {
	loc := ve.InstanceLocation
	inst, _ := lookup(doc, loc)
	name := propertyName(loc)
	e := &ValidationError{Location: location(doc, loc)}
	switch k := ve.ErrorKind.(type) {
	case *kind.Type:
		e.keyword = "type"
		e.Message = typeMessage(name, jsonType(inst), k.Want)
	case *kind.Required:
		e.keyword = "required"
		missing := append([]string(nil), k.Missing...)
		sort.Strings(missing)
		if len(missing) == 1 {
			e.Message = "required property " + missing[0] + " is missing"
		} else {
			e.Message = "required properties [" + strings.Join(missing, ", ") + "] are missing"
		}
	case *kind.AdditionalProperties:
		e.keyword = "additionalProperties"
		extra := append([]string(nil), k.Properties...)
		sort.Strings(extra)
		if len(extra) == 1 {
			e.Message = "additional property " + extra[0] + " is not allowed"
		} else {
			e.Message = "additional properties [" + strings.Join(extra, ", ") + "] are not allowed"
		}
	case *kind.Minimum:
		e.keyword = "minimum"
		e.Message = valueMessage(loc, plain(inst), "is less than the minimum value of "+k.Want.RatString())
	case *kind.Maximum:
		e.keyword = "maximum"
		e.Message = valueMessage(loc, plain(inst), "is greater than the maximum value of "+k.Want.RatString())
	case *kind.MinLength:
		e.keyword = "minLength"
		e.Message = valueMessage(loc, quote(inst), "is too short, minimum length "+strconv.Itoa(k.Want))
	case *kind.MaxLength:
		e.keyword = "maxLength"
		e.Message = valueMessage(loc, quote(inst), "is too long, maximum length "+strconv.Itoa(k.Want))
	case *kind.Pattern:
		e.keyword = "pattern"
		e.Message = valueMessage(loc, quote(inst), "does not match the pattern '"+k.Want+"'")
	case *kind.Enum:
		e.keyword = "enum"
		allowed := make([]string, len(k.Want))
		for i, w := range k.Want {
			allowed[i] = plain(w)
		}
		list := "[" + strings.Join(allowed, ", ") + "]"
		if idx, arr, ok := elementOf(loc); ok {
			e.Message = fmt.Sprintf("property value %s for element at index %s in %s should have one of the allowed values: %s", quote(inst), idx, arr, list)
		} else {
			e.Message = fmt.Sprintf("enum property %s with value %s should have one of the allowed values: %s", name, quote(inst), list)
		}
	case *kind.MinItems:
		e.keyword = "minItems"
		e.Message = fmt.Sprintf("array property %s with %d items is too small, minimum size %d", name, k.Got, k.Want)
	case *kind.MaxItems:
		e.keyword = "maxItems"
		e.Message = fmt.Sprintf("array property %s with %d items is too large, maximum size %d", name, k.Got, k.Want)
	case *kind.UniqueItems:
		e.keyword = "uniqueItems"
		e.Message = uniqueMessage(name, inst)
	default:
		return nil
	}
	return e
}

// typeRank orders type names the way the schema lists them.
var typeRank = map[string]int{"string": 0, "boolean": 1, "integer": 2, "number": 3, "object": 4, "array": 5, "null": 6}

func typeMessage(name, found string, want []string) string {
	want = append([]string(nil), want...)
	sort.SliceStable(want, func(i, j int) bool { return typeRank[want[i]] < typeRank[want[j]] })
	if len(want) > 1 {
		list := strings.Join(want, ", ")
		if found == "null" {
			return fmt.Sprintf("property %s with null value should be one of the allowed types: [%s]", name, list)
		}
		return fmt.Sprintf("property type %s for property %s is not one of the allowed types: [%s]", found, name, list)
	}
	w := strings.Join(want, "")
	if found == "null" {
		return fmt.Sprintf("property %s with null value should be of type %s", name, w)
	}
	return fmt.Sprintf("property type %s for property %s is not the allowed type: %s", found, name, w)
}

// valueMessage renders "property value V for P property ..." or, for array
// elements, "property value V for element at index I in P ...".
func valueMessage(loc []string, value, tail string) string {
	if idx, arr, ok := elementOf(loc); ok {
		return fmt.Sprintf("property value %s for element at index %s in %s %s", value, idx, arr, tail)
	}
	return fmt.Sprintf("property value %s for %s property %s", value, propertyName(loc), tail)
}

func anyOfMessage(loc []string) string {
	if idx, arr, ok := elementOf(loc); ok {
		return fmt.Sprintf("content for array property at index %s in %s does not match any of the possible schema definitions", idx, arr)
	}
	return fmt.Sprintf("content for property %s does not match any of the possible schema definitions", propertyName(loc))
}

func uniqueMessage(name string, inst any) string {
	arr, _ := inst.([]any)
	seen := map[string][]int{}
	var order []string
	for i, el := range arr {
		b, err := gojson.Marshal(el)
		if err != nil {
			continue
		}
		k := string(b)
		if _, ok := seen[k]; !ok {
			order = append(order, k)
		}
		seen[k] = append(seen[k], i)
	}
	for _, k := range order {
		if idx := seen[k]; len(idx) > 1 {
			return fmt.Sprintf("array property %s has duplicate items at index %s", name, intList(idx))
		}
	}
	return fmt.Sprintf("array property %s has duplicate items", name)
}

func propertyName(loc []string) string {
	if len(loc) == 0 {
		return ""
	}
	return loc[len(loc)-1]
}

// elementOf reports whether loc ends in an array index and returns the
// index and the array's property name.
func elementOf(loc []string) (idx, arr string, ok bool) {
	n := len(loc)
	if n < 2 {
		return "", "", false
	}
	if _, err := strconv.Atoi(loc[n-1]); err != nil {
		return "", "", false
	}
	return loc[n-1], loc[n-2], true
}

// location renders an instance location with array indexes in brackets,
// deciding by the shape of doc whether a token is an index.
func location(doc any, loc []string) string {
	if len(loc) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	cur := doc
	for _, tok := range loc {
		switch c := cur.(type) {
		case []any:
			b.WriteString("[" + tok + "]")
			if i, err := strconv.Atoi(tok); err == nil && i >= 0 && i < len(c) {
				cur = c[i]
			} else {
				cur = nil
			}
		case map[string]any:
			b.WriteString("/" + tok)
			cur = c[tok]
		default:
			b.WriteString("/" + tok)
			cur = nil
		}
	}
	return b.String()
}

func lookup(doc any, loc []string) (any, bool) {
	cur := doc
	for _, tok := range loc {
		switch c := cur.(type) {
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		case map[string]any:
			v, ok := c[tok]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

func jsonType(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case gojson.Number:
		if strings.ContainsAny(string(x), ".eE") {
			return "number"
		}
		return "integer"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "unknown"
}

func plain(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case gojson.Number:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	}
	b, err := gojson.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func quote(v any) string {
	if v == nil {
		return "null"
	}
	return "'" + plain(v) + "'"
}

func intList(idx []int) string {
	s := make([]string, len(idx))
	for i, n := range idx {
		s[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(s, ", ") + "]"
}

// sortErrors drops duplicates and orders by keyword, then stably by
// location.
func sortErrors(errs []*ValidationError) []*ValidationError {
	seen := map[string]bool{}
	out := errs[:0:0]
	for _, e := range errs {
		k := e.Location + "\x00" + e.Error()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].keyword < out[j].keyword })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}
