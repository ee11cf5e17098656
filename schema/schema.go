package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// Sentinel errors returned by the schema package.
var (
	// ErrInvalidSchema indicates a schema document could not be parsed.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrInvalidOption indicates a configuration value is invalid.
	ErrInvalidOption = errors.New("invalid option")
)

// Schema is a JSON Schema (Draft 7) document or sub-schema.
//
// Schemas are stored by reference and never mutated after construction, so a
// single Schema may be shared across validators and parsers. The boolean
// schema forms `true` and `false` are represented by [Schema.Always] and
// [Schema.Never].
//
// Create instances with [Load], [LoadYAML], or [json.Unmarshal].
type Schema struct {
	// Core vocabulary.
	SchemaURI string `json:"$schema,omitempty"`
	ID        string `json:"$id,omitempty"`
	Ref       string `json:"$ref,omitempty"`
	Title     string `json:"title,omitempty"`
	Comment   string `json:"$comment,omitempty"`

	// Description documents the schema for humans; it asserts nothing.
	Description string `json:"description,omitempty"`

	// Type holds the `type` keyword: a single type name or a list.
	Type TypeSet `json:"type,omitempty"`

	// Generic assertions.
	Const *any  `json:"const,omitempty"`
	Enum  []any `json:"enum,omitempty"`

	// String assertions.
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Format    string `json:"format,omitempty"`

	// Number assertions.
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `json:"multipleOf,omitempty"`

	// Array assertions. Items carries both the uniform and the tuple form.
	Items           *Items   `json:"items,omitempty"`
	AdditionalItems *Or      `json:"additionalItems,omitempty"`
	Contains        *Schema  `json:"contains,omitempty"`
	MinItems        *int     `json:"minItems,omitempty"`
	MaxItems        *int     `json:"maxItems,omitempty"`
	UniqueItems     bool     `json:"uniqueItems,omitempty"`

	// Object assertions.
	Properties           map[string]*Schema `json:"properties,omitempty"`
	PatternProperties    map[string]*Schema `json:"patternProperties,omitempty"`
	AdditionalProperties *Or                `json:"additionalProperties,omitempty"`
	PropertyNames        *Schema            `json:"propertyNames,omitempty"`
	Required             []string           `json:"required,omitempty"`
	MinProperties        *int               `json:"minProperties,omitempty"`
	MaxProperties        *int               `json:"maxProperties,omitempty"`

	// Combinators.
	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`
	If    *Schema   `json:"if,omitempty"`
	Then  *Schema   `json:"then,omitempty"`
	Else  *Schema   `json:"else,omitempty"`

	// Named definitions. Both spellings are merged by the validator.
	Defs        map[string]*Schema `json:"$defs,omitempty"`
	Definitions map[string]*Schema `json:"definitions,omitempty"`

	// Annotations.
	Default *any `json:"default,omitempty"`

	// Always and Never mark the boolean schema forms. They are set when a
	// sub-schema position held a bare `true` or `false`.
	Always bool `json:"-"`
	Never  bool `json:"-"`
}

// UnmarshalJSON implements [json.Unmarshaler], accepting the boolean schema
// forms `true` and `false` in addition to schema objects.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			s.Always = true
		} else {
			s.Never = true
		}

		return nil
	}

	type plain Schema

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	*s = Schema(p)

	return nil
}

// MarshalJSON implements [json.Marshaler], restoring the boolean schema
// forms.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s.Always {
		return []byte("true"), nil
	}

	if s.Never {
		return []byte("false"), nil
	}

	type plain Schema

	return json.Marshal((*plain)(s))
}

// TypeSet holds the `type` keyword, which may be a single type name or a
// list of type names.
type TypeSet []string

// UnmarshalJSON implements [json.Unmarshaler].
func (t *TypeSet) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = TypeSet{single}

		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}

	*t = TypeSet(many)

	return nil
}

// MarshalJSON implements [json.Marshaler].
func (t TypeSet) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}

	return json.Marshal([]string(t))
}

// Contains reports whether the set names kind.
func (t TypeSet) Contains(kind string) bool {
	for _, name := range t {
		if name == kind {
			return true
		}
	}

	return false
}

// Items holds the `items` keyword: either a single uniform schema or a
// tuple of per-position schemas.
type Items struct {
	// Schema is the uniform form; nil when Tuple is set.
	Schema *Schema
	// Tuple is the positional form; nil when Schema is set.
	Tuple []*Schema
}

// UnmarshalJSON implements [json.Unmarshaler].
func (i *Items) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &i.Tuple)
	}

	i.Schema = &Schema{}

	return json.Unmarshal(data, i.Schema)
}

// MarshalJSON implements [json.Marshaler].
func (i *Items) MarshalJSON() ([]byte, error) {
	if i.Tuple != nil {
		return json.Marshal(i.Tuple)
	}

	return json.Marshal(i.Schema)
}

// Or holds a keyword position that accepts either a boolean or a schema
// (`additionalProperties`, `additionalItems`).
type Or struct {
	// Schema is set for the object form; nil for the boolean form.
	Schema *Schema
	// Bool holds the boolean form; meaningful only when Schema is nil.
	Bool bool
}

// UnmarshalJSON implements [json.Unmarshaler].
func (o *Or) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		o.Bool = b

		return nil
	}

	o.Schema = &Schema{}

	return json.Unmarshal(data, o.Schema)
}

// MarshalJSON implements [json.Marshaler].
func (o *Or) MarshalJSON() ([]byte, error) {
	if o.Schema != nil {
		return json.Marshal(o.Schema)
	}

	return json.Marshal(o.Bool)
}

// Forbids reports whether the position denies unlisted members
// (`false`, or a `false` boolean schema).
func (o *Or) Forbids() bool {
	if o.Schema != nil {
		return o.Schema.Never
	}

	return !o.Bool
}

// Load constructs a [*Schema] from JSON bytes.
func Load(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	return &s, nil
}

// LoadYAML constructs a [*Schema] from YAML bytes. The YAML document is
// decoded to a generic value and round-tripped through JSON so that the
// boolean and tuple keyword forms behave identically to [Load].
func LoadYAML(data []byte) (*Schema, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	return Load(jsonBytes)
}
