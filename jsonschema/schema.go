package jsonschema

import gojson "github.com/goccy/go-json"

// Draft4 is the meta-schema URI written into exported documents.
const Draft4 = "http://json-schema.org/draft-04/schema#"

// Schema is a minimal JSON Schema (draft 4) representation used for export.
// Only the keywords the TIES schema needs are modelled.
type Schema struct {
	SchemaURI   string `json:"$schema,omitempty"`
	ID          string `json:"id,omitempty"`
	Ref         string `json:"$ref,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Core
	Type    Types  `json:"type,omitempty"`
	Format  string `json:"format,omitempty"`
	Default any    `json:"default,omitempty"`
	Enum    []any  `json:"enum,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Number
	Minimum *int64 `json:"minimum,omitempty"`
	Maximum *int64 `json:"maximum,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`

	// Array
	Items       *Schema `json:"items,omitempty"`
	MinItems    *int    `json:"minItems,omitempty"`
	MaxItems    *int    `json:"maxItems,omitempty"`
	UniqueItems bool    `json:"uniqueItems,omitempty"`

	// Union
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`

	Definitions map[string]*Schema `json:"definitions,omitempty"`
}

// Types is the "type" keyword: a single name marshals as a string, several
// as an array.
type Types []string

func (t Types) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return gojson.Marshal(t[0])
	}
	return gojson.Marshal([]string(t))
}

func (t *Types) UnmarshalJSON(b []byte) error {
	var one string
	if err := gojson.Unmarshal(b, &one); err == nil {
		*t = Types{one}
		return nil
	}
	var many []string
	if err := gojson.Unmarshal(b, &many); err != nil {
		return err
	}
	*t = many
	return nil
}

// Int returns a pointer to n, for the length and count keywords.
func Int(n int) *int { return &n }

// Bool returns a pointer to b, for additionalProperties.
func Bool(b bool) *bool { return &b }

// Int64 returns a pointer to n, for minimum and maximum.
func Int64(n int64) *int64 { return &n }

// RefTo returns a schema that references a definition by name.
func RefTo(definition string) *Schema {
	return &Schema{Ref: "#/definitions/" + definition}
}

// Marshal renders s as indented JSON.
func Marshal(s *Schema) ([]byte, error) {
	return gojson.MarshalIndent(s, "", "  ")
}
