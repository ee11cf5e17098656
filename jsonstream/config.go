package jsonstream

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Tylerbryy/stream-schema/schema"
)

// ErrReadInput indicates an I/O error reading an input file.
var ErrReadInput = errors.New("read input")

// Flags holds CLI flag names for parser configuration, allowing callers to
// customize flag names while keeping sensible defaults.
type Flags struct {
	Schema         string
	LLMMode        string
	TrailingCommas string
	UnquotedKeys   string
	SingleQuotes   string
	MaxDepth       string
	EarlyReject    string
}

// Config holds CLI flag values for parser configuration.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewParser] to create a [Parser].
type Config struct {
	Flags          Flags
	Schema         string
	MaxDepth       int
	LLMMode        bool
	TrailingCommas bool
	UnquotedKeys   bool
	SingleQuotes   bool
	EarlyReject    bool
}

// NewConfig returns a new [Config] with default flag names.
func NewConfig() *Config {
	f := Flags{
		Schema:         "schema",
		LLMMode:        "llm",
		TrailingCommas: "allow-trailing-commas",
		UnquotedKeys:   "allow-unquoted-keys",
		SingleQuotes:   "allow-single-quotes",
		MaxDepth:       "max-depth",
		EarlyReject:    "early-reject",
	}

	return &Config{Flags: f}
}

// RegisterFlags adds parser flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.Schema, c.Flags.Schema, "s", "",
		"JSON Schema file to validate against (.json, .yaml, or .yml)")
	flags.BoolVar(&c.LLMMode, c.Flags.LLMMode, false,
		"enable lenient recovery for LLM output (implies the allow-* flags)")
	flags.BoolVar(&c.TrailingCommas, c.Flags.TrailingCommas, false,
		"tolerate a comma before a closing bracket")
	flags.BoolVar(&c.UnquotedKeys, c.Flags.UnquotedKeys, false,
		"admit bare identifiers as object keys")
	flags.BoolVar(&c.SingleQuotes, c.Flags.SingleQuotes, false,
		"admit single-quoted strings")
	flags.IntVar(&c.MaxDepth, c.Flags.MaxDepth, DefaultMaxDepth,
		"container nesting ceiling")
	flags.BoolVar(&c.EarlyReject, c.Flags.EarlyReject, false,
		"short-circuit remaining checks after a type mismatch")
}

// RegisterCompletions registers shell completions for parser flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Schema,
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{"json", "yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
		})
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Schema, err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.MaxDepth,
		cobra.FixedCompletions(nil, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.MaxDepth, err)
	}

	return nil
}

// NewParser creates a [Parser] using this [Config], loading the schema
// file when one is configured. Passed options are appended after the
// flag-derived ones, so callers can attach events or override flags.
func (c *Config) NewParser(opts ...Option) (*Parser, error) {
	flagOpts, err := c.options()
	if err != nil {
		return nil, err
	}

	return New(append(flagOpts, opts...)...), nil
}

// options converts flag values into parser options.
func (c *Config) options() ([]Option, error) {
	var opts []Option

	if c.Schema != "" {
		s, err := loadSchemaFile(c.Schema)
		if err != nil {
			return nil, err
		}

		opts = append(opts, WithSchema(s))
	}

	if c.LLMMode {
		opts = append(opts, WithLLMMode(true))
	}

	if c.TrailingCommas {
		opts = append(opts, WithTrailingCommas(true))
	}

	if c.UnquotedKeys {
		opts = append(opts, WithUnquotedKeys(true))
	}

	if c.SingleQuotes {
		opts = append(opts, WithSingleQuotes(true))
	}

	if c.EarlyReject {
		opts = append(opts, WithEarlyReject(true))
	}

	opts = append(opts, WithMaxDepth(c.MaxDepth))

	return opts, nil
}

// loadSchemaFile loads a schema document, selecting the YAML loader by
// file extension.
func loadSchemaFile(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Schema path from CLI flag is expected.
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return schema.LoadYAML(data)
	}

	return schema.Load(data)
}
