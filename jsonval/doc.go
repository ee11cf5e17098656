// Package jsonval defines the value model shared by the streaming parser and
// the schema validator.
//
// A JSON value is represented as one of: nil, bool, float64, string,
// [*Array], or [*Object]. [Object] preserves key insertion order, which keeps
// partially-built documents stable across snapshots and makes serialized
// output deterministic.
//
// [Kind] names the JSON Schema type vocabulary ("null", "boolean", "number",
// "string", "array", "object") so that validator keywords and parser frames
// can agree on type names without conversion.
package jsonval
