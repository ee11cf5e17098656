// Package jsonstream implements an incremental JSON parser with integrated
// schema validation, built for input that arrives in arbitrarily small
// fragments. Its intended workload is the output of generative language
// models, where consumers want to render or act on fields as soon as they
// complete rather than waiting for the entire document.
//
// # Pipeline
//
// Data flows one direction per [Parser.Feed] call:
//
//	bytes -> Tokenizer -> tokens -> Parser -> (value tree, events, errors)
//
// The [Tokenizer] owns a carry buffer holding the unconsumed tail of the
// input, so a chunk boundary may fall anywhere, including inside a string
// escape or between the digits of a number. Lexemes whose terminator has
// not arrived are retained and re-scanned on the next feed;
// [Tokenizer.PartialToken] classifies the retained tail as a partial
// string, key, or number without consuming it.
//
// The [Parser] consumes tokens through a state machine, maintains a stack
// of open containers, and tracks two path-keyed sets: completed paths,
// whose values are fully parsed, and pending paths, which have started but
// not finished. Every feed returns a [ParseResult] snapshot exposing the
// growing value tree, both path sets as dot-joined strings, accumulated
// validation errors, and progress counters. A path moves from pending to
// completed exactly once; completed paths only grow across feeds.
//
// A [schema.Validator] is consulted as the document streams: container
// opens are checked with early type rejection (a `{` where the schema
// wants an array is reported immediately, not at the close), and every
// completed value is validated at its path. Validation errors accumulate
// and never abort the parse.
//
// # Lenient recovery
//
// [WithLLMMode] enables a family of relaxations for model-generated JSON:
// trailing commas, unquoted keys, single-quoted strings, tolerated missing
// colons and commas, and non-fatal syntax errors. Defects are recorded as
// synthetic validation errors with the keyword "syntax" and the parser
// resynchronizes at the next structural token, producing as usable a tree
// as possible from malformed input. In strict mode (the default) the first
// syntax error is fatal. Exceeding the nesting ceiling ([WithMaxDepth],
// default 100) is fatal in both modes.
//
// # Basic usage
//
//	p := jsonstream.New(
//	    jsonstream.WithSchema(s),
//	    jsonstream.WithLLMMode(true),
//	)
//
//	for chunk := range chunks {
//	    result, err := p.Feed(chunk)
//	    if err != nil {
//	        return err
//	    }
//
//	    render(result.CompletedFields)
//	}
//
// # Events
//
// [Events] callbacks fire synchronously, in transition order, strictly
// before Feed returns: PartialObject on each container close,
// CompleteField on each assignment to an object key, ValidationError per
// error, Complete once at the root, and Error on fatal failures. A
// [Publisher] fans [ParseResult] snapshots out to channel subscribers for
// consumers that render progressively on another goroutine.
//
// # Limitations
//
// The `\u` escape decodes as the literal character `u`; the four hex
// digits pass through as ordinary characters. A parser instance is not
// safe for concurrent feeds; callers serialize. [Parser.Reset] restores a
// finished parser for reuse with the same schema.
package jsonstream
