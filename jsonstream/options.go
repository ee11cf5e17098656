package jsonstream

import (
	"github.com/Tylerbryy/stream-schema/schema"
)

// DefaultMaxDepth is the default container nesting ceiling.
const DefaultMaxDepth = 100

// Events holds optional callbacks dispatched by the [Parser]. Nil callbacks
// are skipped. Events fire in the order their triggering transitions occur,
// strictly before [Parser.Feed] returns.
type Events struct {
	// PartialObject fires on each container close with the completed
	// container value and its path.
	PartialObject func(value any, path []string)
	// CompleteField fires on each scalar or nested assignment to an
	// object key.
	CompleteField func(key string, value any, parentPath []string)
	// ValidationError fires for each validation error as it is produced.
	ValidationError func(err *schema.ValidationError)
	// Complete fires once when the document root is fully parsed.
	Complete func(root any)
	// Error fires on a fatal parse error.
	Error func(err error)
}

// Option configures a [Parser].
type Option func(*settings)

// settings collects option values before they are resolved into a Parser.
// The lenient flags are tri-state so that LLM mode can imply them unless a
// caller set one explicitly.
type settings struct {
	schema         *schema.Schema
	events         Events
	trailingCommas *bool
	unquotedKeys   *bool
	singleQuotes   *bool
	maxDepth       int
	llmMode        bool
	earlyReject    bool
}

// WithSchema validates the document against s while it streams.
func WithSchema(s *schema.Schema) Option {
	return func(cfg *settings) {
		cfg.schema = s
	}
}

// WithLLMMode enables the lenient-recovery family: trailing commas,
// unquoted keys, single quotes, tolerated missing separators, and
// non-fatal syntax errors. Each individual flag can still be overridden by
// its own option.
func WithLLMMode(enabled bool) Option {
	return func(cfg *settings) {
		cfg.llmMode = enabled
	}
}

// WithTrailingCommas tolerates a comma immediately before a closing
// bracket.
func WithTrailingCommas(enabled bool) Option {
	return func(cfg *settings) {
		cfg.trailingCommas = &enabled
	}
}

// WithUnquotedKeys admits bare identifiers as object keys.
func WithUnquotedKeys(enabled bool) Option {
	return func(cfg *settings) {
		cfg.unquotedKeys = &enabled
	}
}

// WithSingleQuotes admits single-quoted strings.
func WithSingleQuotes(enabled bool) Option {
	return func(cfg *settings) {
		cfg.singleQuotes = &enabled
	}
}

// WithMaxDepth sets the container nesting ceiling. Values less than 1 keep
// the default.
func WithMaxDepth(depth int) Option {
	return func(cfg *settings) {
		if depth >= 1 {
			cfg.maxDepth = depth
		}
	}
}

// WithEvents registers event callbacks.
func WithEvents(events Events) Option {
	return func(cfg *settings) {
		cfg.events = events
	}
}

// WithEarlyReject makes the validator short-circuit remaining assertions
// for a value after its type check fails.
func WithEarlyReject(enabled bool) Option {
	return func(cfg *settings) {
		cfg.earlyReject = enabled
	}
}

// resolve folds LLM mode into the individual lenient flags.
func (cfg *settings) resolve() (trailingCommas, unquotedKeys, singleQuotes bool) {
	flag := func(explicit *bool) bool {
		if explicit != nil {
			return *explicit
		}

		return cfg.llmMode
	}

	return flag(cfg.trailingCommas), flag(cfg.unquotedKeys), flag(cfg.singleQuotes)
}
