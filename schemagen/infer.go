package schemagen

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/Tylerbryy/stream-schema/jsonval"
)

// JSON Schema type constants.
const (
	typeBoolean = "boolean"
	typeInteger = "integer"
	typeNumber  = "number"
	typeString  = "string"
	typeArray   = "array"
	typeObject  = "object"
)

// inferValue recursively generates a schema fragment for a parsed value.
func (g *Generator) inferValue(value any) *jsonschema.Schema {
	switch v := value.(type) {
	case *jsonval.Object:
		return g.inferObject(v)
	case *jsonval.Array:
		return g.inferArray(v)
	default:
		t := inferType(value)
		if t == "" {
			return &jsonschema.Schema{}
		}

		return &jsonschema.Schema{Type: t}
	}
}

// inferObject generates an object schema with properties in document order.
func (g *Generator) inferObject(obj *jsonval.Object) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       typeObject,
		Properties: make(map[string]*jsonschema.Schema),
	}

	if g.strict {
		s.AdditionalProperties = falseSchema()
	} else {
		s.AdditionalProperties = trueSchema()
	}

	var order []string

	for _, key := range obj.Keys() {
		value, _ := obj.Get(key)
		s.Properties[key] = g.inferValue(value)
		order = append(order, key)
	}

	s.PropertyOrder = order

	if len(s.Properties) == 0 {
		s.Properties = nil
		s.PropertyOrder = nil
	}

	return s
}

// inferArray generates an array schema, deriving items from the elements.
// Object elements merge their schemas; scalar elements widen their types.
// Empty arrays emit no items constraint.
func (g *Generator) inferArray(arr *jsonval.Array) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: typeArray}

	if arr.Len() == 0 {
		return s
	}

	allObjects := true

	for _, item := range arr.Items() {
		if _, ok := item.(*jsonval.Object); !ok {
			allObjects = false

			break
		}
	}

	if allObjects {
		var merged *jsonschema.Schema
		for _, item := range arr.Items() {
			merged = MergeSchemas(merged, g.inferValue(item))
		}

		s.Items = merged

		return s
	}

	resultType := ""
	first := true

	for _, item := range arr.Items() {
		elemType := inferType(item)
		if first {
			resultType = elemType
			first = false

			continue
		}

		resultType = widenType(resultType, elemType)
	}

	if resultType != "" {
		s.Items = &jsonschema.Schema{Type: resultType}
	}

	return s
}

// inferType returns the JSON Schema type string for a scalar value.
// Null values return an empty string (maximally permissive). Whole numbers
// infer as integer.
func inferType(value any) string {
	switch v := value.(type) {
	case bool:
		return typeBoolean
	case float64:
		if jsonval.IsIntegral(v) {
			return typeInteger
		}

		return typeNumber
	case string:
		return typeString
	case *jsonval.Array:
		return typeArray
	case *jsonval.Object:
		return typeObject
	}

	return ""
}

// widenType returns the widened type when merging two type strings.
// Returns empty string (no constraint) for incompatible types.
func widenType(a, b string) string {
	if a == b {
		return a
	}

	// Null/empty merges transparently.
	if a == "" {
		return b
	}

	if b == "" {
		return a
	}

	// Integer + number -> number.
	if (a == typeInteger && b == typeNumber) || (a == typeNumber && b == typeInteger) {
		return typeNumber
	}

	// All other combinations -> no constraint.
	return ""
}

// trueSchema returns a schema that validates everything.
func trueSchema() *jsonschema.Schema {
	return &jsonschema.Schema{}
}

// falseSchema returns a schema that validates nothing.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}
