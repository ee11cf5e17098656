// Package schema implements a JSON Schema (Draft 7 subset) document model
// and validator with path-addressable sub-schema lookup.
//
// [Schema] mirrors the Draft 7 vocabulary, including the boolean schema
// forms, the tuple and uniform forms of `items`, and the boolean-or-schema
// forms of `additionalProperties` and `additionalItems`. Schemas may be
// loaded from JSON with [Load] or from YAML with [LoadYAML], and are never
// mutated after construction, so one schema may be shared across any number
// of validators and parsers.
//
// [Validator] decides whether a value satisfies a schema, producing zero or
// more [ValidationError] values. Beyond full-value validation it supports
// the queries a streaming parser needs before a value is complete:
//
//   - [Validator.SchemaAt] descends the root schema along a path of
//     property names and array indices, resolving `$ref` at each hop.
//   - [Validator.CanBeType] answers whether a container of a given type
//     could possibly satisfy the schema at a path, enabling type mismatch
//     reports as soon as `{` or `[` is seen rather than at container close.
//   - [Validator.Required] and [Validator.IsRequired] expose the `required`
//     assertion for prompting and early feedback.
//
// # Supported keywords
//
// type (with integer/number subsumption), const, enum, minLength,
// maxLength, pattern, format, minimum, maximum, exclusiveMinimum,
// exclusiveMaximum, multipleOf, items (uniform and tuple), additionalItems,
// contains, minItems, maxItems, uniqueItems, properties, patternProperties,
// additionalProperties, propertyNames, required, minProperties,
// maxProperties, allOf, anyOf, oneOf, not, if/then/else, and same-document
// `$ref` through `#/$defs/NAME` or `#/definitions/NAME`. Definitions from
// `$defs` and `definitions` are merged into one lookup table at validator
// construction.
//
// The `format` keyword checks date-time, date, time, email, uri, uuid,
// ipv4, and ipv6 with regular expressions; unrecognized formats pass
// silently.
//
// # Errors
//
// Validation never aborts: every failed assertion yields a
// [ValidationError] carrying the path, the failed keyword, the sub-schema,
// and the offending value. [WithEarlyReject] short-circuits the remaining
// assertions for a value after its type check fails.
package schema
