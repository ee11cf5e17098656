// Package schemagen generates JSON Schema (Draft 7) from sample JSON
// documents on a best-effort basis, inferring types from document
// structure.
//
// The primary use case is bootstrapping a schema from observed LLM output:
// capture a few representative responses, infer a schema, then validate
// subsequent streams against it with the jsonstream parser. Samples are
// parsed with the module's own lenient streaming parser, so near-JSON
// model output works as input.
//
// Generated schemas fail open: additionalProperties defaults to true,
// inference never marks a property required, and conflicting observations
// widen to the most permissive type. When [Generator.Generate] receives
// multiple samples, it produces a single schema representing their union:
// property sets are unioned, integer and number widen to number,
// incompatible types drop the type constraint entirely, and required
// arrays intersect: a property stays required only if every input requires
// it, which matters when folding a hand-authored schema in via
// [MergeSchemas]. Property order in the output follows sample document
// order.
//
// # Basic usage
//
//	gen := schemagen.NewGenerator()
//	s, err := gen.Generate(sample1, sample2)
//	out, _ := json.MarshalIndent(s, "", "  ")
//
// # With options
//
//	gen := schemagen.NewGenerator(
//	    schemagen.WithTitle("Chat Response"),
//	    schemagen.WithStrict(true),
//	)
package schemagen
