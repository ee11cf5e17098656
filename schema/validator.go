package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Tylerbryy/stream-schema/jsonval"
)

const maxRefHops = 64

// Validator checks values against a JSON Schema (Draft 7) document.
//
// A Validator holds no mutable state beyond the definitions table built at
// construction, so a single instance may be shared by any number of
// sequential callers and speculative sub-validations observe no shared
// state.
//
// Create instances with [NewValidator].
type Validator struct {
	root        *Schema
	defs        map[string]*Schema
	earlyReject bool
	allErrors   bool
}

// ValidatorOption configures a [Validator].
type ValidatorOption func(*Validator)

// WithEarlyReject makes a failed type check short-circuit the remaining
// assertions for the same value.
func WithEarlyReject(enabled bool) ValidatorOption {
	return func(v *Validator) {
		v.earlyReject = enabled
	}
}

// WithAllErrors requests that all errors for a value be reported. This is
// the default behavior; the option exists for symmetry with callers that
// configure it explicitly.
func WithAllErrors(enabled bool) ValidatorOption {
	return func(v *Validator) {
		v.allErrors = enabled
	}
}

// NewValidator creates a [Validator] for the given root schema. Named
// definitions from both `$defs` and `definitions` are merged into a single
// lookup table; when a name appears in both, `$defs` wins.
func NewValidator(root *Schema, opts ...ValidatorOption) *Validator {
	v := &Validator{
		root: root,
		defs: make(map[string]*Schema),
	}

	if root != nil {
		for name, def := range root.Definitions {
			v.defs[name] = def
		}

		for name, def := range root.Defs {
			v.defs[name] = def
		}
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Validate checks value against the schema at path and returns all failed
// assertions. A nil path addresses the root. Repeated calls with the same
// inputs return the same errors.
func (v *Validator) Validate(value any, path []string) []*ValidationError {
	s := v.SchemaAt(path)
	if s == nil {
		return nil
	}

	return v.validateValue(value, s, path)
}

// CanBeType reports whether a value of the given JSON Schema type can
// possibly satisfy the schema at path. It returns true when no schema or
// type constraint applies, when kind is listed, or when kind is "number"
// and the schema type is "integer". Schemas without a `type` keyword fall
// back to structural hints: `properties` or `required` imply object-only,
// `items` implies array-only.
func (v *Validator) CanBeType(kind string, path []string) bool {
	s := v.SchemaAt(path)
	if s == nil || s.Always {
		return true
	}

	if s.Never {
		return false
	}

	if len(s.Type) == 0 {
		if s.Properties != nil || s.Required != nil {
			return kind == jsonval.KindObject
		}

		if s.Items != nil {
			return kind == jsonval.KindArray
		}

		return true
	}

	if s.Type.Contains(kind) {
		return true
	}

	return kind == jsonval.KindNumber && s.Type.Contains(jsonval.KindInteger)
}

// SchemaAt returns the sub-schema addressing path, or nil when the schema
// does not constrain that location. Object segments descend `properties` by
// name; numeric segments descend tuple `items` by position or the uniform
// `items` schema; otherwise `additionalProperties` is used when it carries a
// schema. `$ref` is resolved at each hop.
func (v *Validator) SchemaAt(path []string) *Schema {
	s := v.resolve(v.root)

	for _, seg := range path {
		if s == nil {
			return nil
		}

		s = v.resolve(v.childSchema(s, seg))
	}

	return s
}

// Required returns the `required` property names of the schema at path.
func (v *Validator) Required(path []string) []string {
	s := v.SchemaAt(path)
	if s == nil {
		return nil
	}

	return s.Required
}

// IsRequired reports whether name is a required property of the object
// schema at parentPath.
func (v *Validator) IsRequired(name string, parentPath []string) bool {
	for _, req := range v.Required(parentPath) {
		if req == name {
			return true
		}
	}

	return false
}

// childSchema descends one path segment without resolving the result.
func (v *Validator) childSchema(s *Schema, seg string) *Schema {
	if prop, ok := s.Properties[seg]; ok {
		return prop
	}

	if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 && s.Items != nil {
		if s.Items.Tuple != nil {
			if idx < len(s.Items.Tuple) {
				return s.Items.Tuple[idx]
			}

			if s.AdditionalItems != nil && s.AdditionalItems.Schema != nil {
				return s.AdditionalItems.Schema
			}

			return nil
		}

		return s.Items.Schema
	}

	if s.AdditionalProperties != nil && s.AdditionalProperties.Schema != nil {
		return s.AdditionalProperties.Schema
	}

	return nil
}

// resolve follows `$ref` chains. Only same-document pointers of the form
// `#/$defs/NAME` and `#/definitions/NAME` are supported; anything else
// resolves to the schema itself.
func (v *Validator) resolve(s *Schema) *Schema {
	for hops := 0; s != nil && s.Ref != "" && hops < maxRefHops; hops++ {
		name, ok := refName(s.Ref)
		if !ok {
			return s
		}

		target, found := v.defs[name]
		if !found {
			return s
		}

		s = target
	}

	return s
}

// refName extracts the definition name from a same-document pointer.
func refName(ref string) (string, bool) {
	for _, prefix := range []string{"#/$defs/", "#/definitions/"} {
		if name, found := strings.CutPrefix(ref, prefix); found {
			return name, true
		}
	}

	return "", false
}

// validateValue checks one (value, schema) pair, recursing into children.
func (v *Validator) validateValue(value any, s *Schema, path []string) []*ValidationError {
	s = v.resolve(s)
	if s == nil || s.Always {
		return nil
	}

	if s.Never {
		return []*ValidationError{v.newError(path, "not", s, value, "schema permits no value")}
	}

	var errs []*ValidationError

	if len(s.Type) > 0 && !v.typeAllowed(value, s.Type) {
		errs = append(errs, v.newError(path, "type", s, value,
			fmt.Sprintf("expected %s, got %s", strings.Join(s.Type, " or "), kindName(value))))

		if v.earlyReject {
			return errs
		}
	}

	if s.Const != nil && !jsonval.Equal(value, jsonval.FromGo(*s.Const)) {
		errs = append(errs, v.newError(path, "const", s, value, "value does not match const"))
	}

	if len(s.Enum) > 0 && !enumContains(s.Enum, value) {
		errs = append(errs, v.newError(path, "enum", s, value, "value is not one of enum"))
	}

	switch val := value.(type) {
	case string:
		errs = append(errs, v.validateString(val, s, path)...)
	case float64:
		errs = append(errs, v.validateNumber(val, s, path)...)
	case *jsonval.Array:
		errs = append(errs, v.validateArray(val, s, path)...)
	case *jsonval.Object:
		errs = append(errs, v.validateObject(val, s, path)...)
	}

	errs = append(errs, v.validateCombinators(value, s, path)...)

	return errs
}

// typeAllowed applies the type check with integer/number subsumption.
func (v *Validator) typeAllowed(value any, types TypeSet) bool {
	kind := jsonval.KindOf(value)
	if types.Contains(kind) {
		return true
	}

	if kind != jsonval.KindNumber || !types.Contains(jsonval.KindInteger) {
		return false
	}

	f, ok := value.(float64)

	return ok && jsonval.IsIntegral(f)
}

func (v *Validator) validateString(val string, s *Schema, path []string) []*ValidationError {
	var errs []*ValidationError

	length := utf8.RuneCountInString(val)

	if s.MinLength != nil && length < *s.MinLength {
		errs = append(errs, v.newError(path, "minLength", s, val,
			fmt.Sprintf("length %d is less than minLength %d", length, *s.MinLength)))
	}

	if s.MaxLength != nil && length > *s.MaxLength {
		errs = append(errs, v.newError(path, "maxLength", s, val,
			fmt.Sprintf("length %d exceeds maxLength %d", length, *s.MaxLength)))
	}

	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err == nil && !re.MatchString(val) {
			errs = append(errs, v.newError(path, "pattern", s, val,
				fmt.Sprintf("value does not match pattern %q", s.Pattern)))
		}
	}

	if s.Format != "" && !checkFormat(s.Format, val) {
		errs = append(errs, v.newError(path, "format", s, val,
			fmt.Sprintf("value is not a valid %s", s.Format)))
	}

	return errs
}

func (v *Validator) validateNumber(val float64, s *Schema, path []string) []*ValidationError {
	var errs []*ValidationError

	if s.Minimum != nil && val < *s.Minimum {
		errs = append(errs, v.newError(path, "minimum", s, val,
			fmt.Sprintf("%v is less than minimum %v", val, *s.Minimum)))
	}

	if s.Maximum != nil && val > *s.Maximum {
		errs = append(errs, v.newError(path, "maximum", s, val,
			fmt.Sprintf("%v exceeds maximum %v", val, *s.Maximum)))
	}

	if s.ExclusiveMinimum != nil && val <= *s.ExclusiveMinimum {
		errs = append(errs, v.newError(path, "exclusiveMinimum", s, val,
			fmt.Sprintf("%v is not greater than exclusiveMinimum %v", val, *s.ExclusiveMinimum)))
	}

	if s.ExclusiveMaximum != nil && val >= *s.ExclusiveMaximum {
		errs = append(errs, v.newError(path, "exclusiveMaximum", s, val,
			fmt.Sprintf("%v is not less than exclusiveMaximum %v", val, *s.ExclusiveMaximum)))
	}

	if s.MultipleOf != nil && *s.MultipleOf != 0 && !isMultipleOf(val, *s.MultipleOf) {
		errs = append(errs, v.newError(path, "multipleOf", s, val,
			fmt.Sprintf("%v is not a multiple of %v", val, *s.MultipleOf)))
	}

	return errs
}

// isMultipleOf checks divisibility with a tolerance for floating-point
// remainder imprecision.
func isMultipleOf(val, div float64) bool {
	rem := math.Abs(math.Mod(val, div))
	eps := 1e-9 * math.Abs(div)

	return rem < eps || math.Abs(rem-math.Abs(div)) < eps
}

func (v *Validator) validateArray(arr *jsonval.Array, s *Schema, path []string) []*ValidationError {
	var errs []*ValidationError

	if s.MinItems != nil && arr.Len() < *s.MinItems {
		errs = append(errs, v.newError(path, "minItems", s, arr,
			fmt.Sprintf("array has %d items, fewer than minItems %d", arr.Len(), *s.MinItems)))
	}

	if s.MaxItems != nil && arr.Len() > *s.MaxItems {
		errs = append(errs, v.newError(path, "maxItems", s, arr,
			fmt.Sprintf("array has %d items, more than maxItems %d", arr.Len(), *s.MaxItems)))
	}

	if s.UniqueItems {
		errs = append(errs, v.checkUniqueItems(arr, s, path)...)
	}

	if s.Items != nil {
		errs = append(errs, v.validateItems(arr, s, path)...)
	}

	if s.Contains != nil {
		found := false

		for _, item := range arr.Items() {
			if len(v.validateValue(item, s.Contains, path)) == 0 {
				found = true

				break
			}
		}

		if !found {
			errs = append(errs, v.newError(path, "contains", s, arr,
				"no array item matches the contains schema"))
		}
	}

	return errs
}

// checkUniqueItems compares elements by their JSON serialization.
func (v *Validator) checkUniqueItems(arr *jsonval.Array, s *Schema, path []string) []*ValidationError {
	seen := make(map[string]bool, arr.Len())

	for _, item := range arr.Items() {
		b, err := json.Marshal(item)
		if err != nil {
			continue
		}

		if seen[string(b)] {
			return []*ValidationError{v.newError(path, "uniqueItems", s, arr,
				"array items are not unique")}
		}

		seen[string(b)] = true
	}

	return nil
}

func (v *Validator) validateItems(arr *jsonval.Array, s *Schema, path []string) []*ValidationError {
	var errs []*ValidationError

	if s.Items.Tuple == nil {
		for i, item := range arr.Items() {
			errs = append(errs, v.validateValue(item, s.Items.Schema, childPath(path, strconv.Itoa(i)))...)
		}

		return errs
	}

	for i, item := range arr.Items() {
		itemPath := childPath(path, strconv.Itoa(i))

		if i < len(s.Items.Tuple) {
			errs = append(errs, v.validateValue(item, s.Items.Tuple[i], itemPath)...)

			continue
		}

		if s.AdditionalItems == nil {
			continue
		}

		if s.AdditionalItems.Schema != nil {
			errs = append(errs, v.validateValue(item, s.AdditionalItems.Schema, itemPath)...)

			continue
		}

		if s.AdditionalItems.Forbids() {
			errs = append(errs, v.newError(itemPath, "additionalItems", s, item,
				fmt.Sprintf("tuple allows %d items, got extra item at index %d", len(s.Items.Tuple), i)))
		}
	}

	return errs
}

func (v *Validator) validateObject(obj *jsonval.Object, s *Schema, path []string) []*ValidationError {
	var errs []*ValidationError

	if s.MinProperties != nil && obj.Len() < *s.MinProperties {
		errs = append(errs, v.newError(path, "minProperties", s, obj,
			fmt.Sprintf("object has %d properties, fewer than minProperties %d", obj.Len(), *s.MinProperties)))
	}

	if s.MaxProperties != nil && obj.Len() > *s.MaxProperties {
		errs = append(errs, v.newError(path, "maxProperties", s, obj,
			fmt.Sprintf("object has %d properties, more than maxProperties %d", obj.Len(), *s.MaxProperties)))
	}

	for _, name := range s.Required {
		if !obj.Has(name) {
			errs = append(errs, v.newError(path, "required", s, obj,
				fmt.Sprintf("missing required property %q", name)))
		}
	}

	patterns := v.compilePatternProperties(s)

	for _, key := range obj.Keys() {
		val, _ := obj.Get(key)
		keyPath := childPath(path, key)
		known := false

		if prop, ok := s.Properties[key]; ok {
			known = true

			errs = append(errs, v.validateValue(val, prop, keyPath)...)
		}

		for i, re := range patterns.regexps {
			if re.MatchString(key) {
				known = true

				errs = append(errs, v.validateValue(val, patterns.schemas[i], keyPath)...)
			}
		}

		if !known && s.AdditionalProperties != nil {
			if s.AdditionalProperties.Schema != nil {
				errs = append(errs, v.validateValue(val, s.AdditionalProperties.Schema, keyPath)...)
			} else if s.AdditionalProperties.Forbids() {
				errs = append(errs, v.newError(keyPath, "additionalProperties", s, val,
					fmt.Sprintf("additional property %q is not allowed", key)))
			}
		}

		if s.PropertyNames != nil && len(v.validateValue(key, s.PropertyNames, keyPath)) > 0 {
			errs = append(errs, v.newError(keyPath, "propertyNames", s, key,
				fmt.Sprintf("property name %q is not valid", key)))
		}
	}

	return errs
}

// compiledPatterns pairs patternProperties regexps with their schemas in a
// stable order.
type compiledPatterns struct {
	regexps []*regexp.Regexp
	schemas []*Schema
}

func (v *Validator) compilePatternProperties(s *Schema) compiledPatterns {
	if len(s.PatternProperties) == 0 {
		return compiledPatterns{}
	}

	names := make([]string, 0, len(s.PatternProperties))
	for pattern := range s.PatternProperties {
		names = append(names, pattern)
	}

	// Deterministic order keeps repeated validations identical.
	slices.Sort(names)

	var cp compiledPatterns

	for _, pattern := range names {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}

		cp.regexps = append(cp.regexps, re)
		cp.schemas = append(cp.schemas, s.PatternProperties[pattern])
	}

	return cp
}

func (v *Validator) validateCombinators(value any, s *Schema, path []string) []*ValidationError {
	var errs []*ValidationError

	for _, sub := range s.AllOf {
		errs = append(errs, v.validateValue(value, sub, path)...)
	}

	if len(s.AnyOf) > 0 {
		passed := false

		for _, sub := range s.AnyOf {
			if len(v.validateValue(value, sub, path)) == 0 {
				passed = true

				break
			}
		}

		if !passed {
			errs = append(errs, v.newError(path, "anyOf", s, value,
				"value does not match any schema in anyOf"))
		}
	}

	if len(s.OneOf) > 0 {
		matches := 0

		for _, sub := range s.OneOf {
			if len(v.validateValue(value, sub, path)) == 0 {
				matches++
			}
		}

		if matches != 1 {
			errs = append(errs, v.newError(path, "oneOf", s, value,
				fmt.Sprintf("value matches %d schemas in oneOf, expected exactly 1", matches)))
		}
	}

	if s.Not != nil && len(v.validateValue(value, s.Not, path)) == 0 {
		errs = append(errs, v.newError(path, "not", s, value,
			"value matches the not schema"))
	}

	if s.If != nil {
		if len(v.validateValue(value, s.If, path)) == 0 {
			if s.Then != nil {
				errs = append(errs, v.validateValue(value, s.Then, path)...)
			}
		} else if s.Else != nil {
			errs = append(errs, v.validateValue(value, s.Else, path)...)
		}
	}

	return errs
}

// enumContains reports whether value deep-equals any enum member.
func enumContains(enum []any, value any) bool {
	for _, member := range enum {
		if jsonval.Equal(value, jsonval.FromGo(member)) {
			return true
		}
	}

	return false
}

// newError constructs a [ValidationError] with a copied path.
func (v *Validator) newError(path []string, keyword string, s *Schema, value any, message string) *ValidationError {
	p := make([]string, len(path))
	copy(p, path)

	return &ValidationError{
		Path:    p,
		Message: message,
		Keyword: keyword,
		Schema:  s,
		Value:   value,
	}
}

// childPath returns path extended by one segment without aliasing the
// parent's backing array.
func childPath(path []string, seg string) []string {
	p := make([]string, len(path), len(path)+1)
	copy(p, path)

	return append(p, seg)
}

func kindName(value any) string {
	kind := jsonval.KindOf(value)
	if kind == "" {
		return "unknown"
	}

	return kind
}
