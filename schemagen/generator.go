package schemagen

import (
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/Tylerbryy/stream-schema/jsonstream"
)

// Sentinel errors returned by the generator.
var (
	ErrInvalidJSON   = errors.New("invalid json")
	ErrInvalidOption = errors.New("invalid option")
	ErrReadInput     = errors.New("read input")
	ErrWriteOutput   = errors.New("write output")
)

// draft7URI is the $schema value stamped on generated root schemas.
const draft7URI = "http://json-schema.org/draft-07/schema#"

// Generator produces JSON Schema from sample JSON documents.
type Generator struct {
	title       string
	description string
	id          string
	strict      bool
}

// Option configures a Generator.
type Option func(*Generator)

// NewGenerator creates a Generator with the given options.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// WithTitle sets the schema title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithDescription sets the schema description.
func WithDescription(desc string) Option {
	return func(g *Generator) {
		g.description = desc
	}
}

// WithID sets the schema $id.
func WithID(id string) Option {
	return func(g *Generator) {
		g.id = id
	}
}

// WithStrict sets additionalProperties to false on objects.
func WithStrict(strict bool) Option {
	return func(g *Generator) {
		g.strict = strict
	}
}

// Generate produces a JSON Schema from one or more sample documents.
// Multiple samples are merged with union semantics.
func (g *Generator) Generate(samples ...[]byte) (*jsonschema.Schema, error) {
	var result *jsonschema.Schema

	if len(samples) == 0 {
		result = &jsonschema.Schema{}
	} else {
		for i, sample := range samples {
			s, err := g.generateSingle(sample)
			if err != nil {
				return nil, fmt.Errorf("sample %d: %w", i, err)
			}

			result = MergeSchemas(result, s)
		}
	}

	result.Schema = draft7URI

	if g.title != "" {
		result.Title = g.title
	}

	if g.description != "" {
		result.Description = g.description
	}

	if g.id != "" {
		result.ID = g.id
	}

	// Set additionalProperties on the root object.
	if (result.Type == typeObject || result.Properties != nil) && result.AdditionalProperties == nil {
		if g.strict {
			result.AdditionalProperties = falseSchema()
		} else {
			result.AdditionalProperties = trueSchema()
		}
	}

	return result, nil
}

// generateSingle parses one sample with the lenient streaming parser and
// infers its schema.
func (g *Generator) generateSingle(sample []byte) (*jsonschema.Schema, error) {
	if isBlank(sample) {
		return &jsonschema.Schema{}, nil
	}

	p := jsonstream.New(jsonstream.WithLLMMode(true))

	_, err := p.Feed(string(sample))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	if !p.IsComplete() {
		// A trailing scalar lexeme needs a terminator to complete.
		_, err = p.Feed("\n")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}
	}

	value, err := p.Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	return g.inferValue(value), nil
}

// isBlank returns true if the byte slice contains only whitespace.
func isBlank(data []byte) bool {
	for _, b := range data {
		if b != ' ' && b != '\t' && b != '\n' && b != '\r' {
			return false
		}
	}

	return true
}
