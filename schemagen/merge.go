package schemagen

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// MergeSchemas merges two schemas using union semantics: property sets
// union, conflicting types widen, required intersects, and the remaining
// constraints fail open. It is used internally to fold multiple samples
// into one schema, and is exported so callers can fold an inferred schema
// into a hand-authored one.
func MergeSchemas(a, b *jsonschema.Schema) *jsonschema.Schema {
	if a == nil {
		return b
	}

	if b == nil {
		return a
	}

	result := &jsonschema.Schema{}

	if merged := widenType(a.Type, b.Type); merged != "" {
		result.Type = merged
	}

	if a.Properties != nil || b.Properties != nil {
		mergeProperties(result, a, b)
	}

	result.AdditionalProperties = mergeAdditional(a.AdditionalProperties, b.AdditionalProperties)

	// Required intersects: a property stays required only if every input
	// requires it.
	result.Required = intersectStrings(a.Required, b.Required)

	switch {
	case a.Items != nil && b.Items != nil:
		result.Items = MergeSchemas(a.Items, b.Items)
	case a.Items != nil:
		result.Items = a.Items
	default:
		result.Items = b.Items
	}

	return result
}

// mergeProperties unions the property maps of a and b into result,
// preserving first-seen order.
func mergeProperties(result, a, b *jsonschema.Schema) {
	result.Properties = make(map[string]*jsonschema.Schema)

	var order []string

	for _, src := range []*jsonschema.Schema{a, b} {
		for _, key := range propertyOrder(src) {
			if existing, ok := result.Properties[key]; ok {
				result.Properties[key] = MergeSchemas(existing, src.Properties[key])

				continue
			}

			result.Properties[key] = src.Properties[key]
			order = append(order, key)
		}
	}

	result.PropertyOrder = order
}

// propertyOrder returns property keys in PropertyOrder, then any stragglers.
func propertyOrder(s *jsonschema.Schema) []string {
	if s.Properties == nil {
		return nil
	}

	seen := make(map[string]bool, len(s.PropertyOrder))

	var keys []string

	for _, key := range s.PropertyOrder {
		if _, ok := s.Properties[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}

	for key := range s.Properties {
		if !seen[key] {
			keys = append(keys, key)
		}
	}

	return keys
}

// mergeAdditional merges additionalProperties fail-open: an unset or true
// side makes the result permissive.
func mergeAdditional(a, b *jsonschema.Schema) *jsonschema.Schema {
	if a == nil && b == nil {
		return nil
	}

	if a == nil || b == nil || isTrueSchema(a) || isTrueSchema(b) {
		return trueSchema()
	}

	return a
}

// isTrueSchema checks whether a schema validates everything.
func isTrueSchema(s *jsonschema.Schema) bool {
	if s == nil {
		return false
	}

	return s.Not == nil && s.Type == "" && len(s.Types) == 0 &&
		s.Properties == nil && s.Items == nil
}

// intersectStrings returns the intersection of two string slices,
// preserving b's order. Nil when either side is nil or nothing overlaps.
func intersectStrings(a, b []string) []string {
	if a == nil || b == nil {
		return nil
	}

	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}

	var result []string

	for _, s := range b {
		if set[s] {
			result = append(result, s)
		}
	}

	return result
}
