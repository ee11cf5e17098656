package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tylerbryy/stream-schema/jsonstream"
	"github.com/Tylerbryy/stream-schema/profile"
	"github.com/Tylerbryy/stream-schema/schema"
)

// newParseCmd builds the parse subcommand.
func newParseCmd(profileCfg *profile.Config) *cobra.Command {
	parserCfg := jsonstream.NewConfig()

	var (
		chunkSize int
		report    bool
	)

	cmd := &cobra.Command{
		Use:   "parse [flags] <file.json | ->",
		Short: "Incrementally parse and validate a JSON document",
		Long: `parse feeds a JSON document through the streaming parser in fixed-size
chunks, validating against a schema as fields complete, and prints the
parsed document. With --llm, malformed model output is repaired on a
best-effort basis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runParse(parserCfg, profileCfg, args[0], chunkSize, report)
		},
	}

	parserCfg.RegisterFlags(cmd.Flags())
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 512,
		"bytes fed to the parser per step")
	cmd.Flags().BoolVar(&report, "report", false,
		"print the final parse snapshot instead of the document")

	completionErr := parserCfg.RegisterCompletions(cmd)
	if completionErr != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", completionErr)
	}

	return cmd
}

func runParse(parserCfg *jsonstream.Config, profileCfg *profile.Config, arg string, chunkSize int, report bool) error {
	profiler := profileCfg.NewProfiler()

	err := profiler.Start()
	if err != nil {
		return err
	}

	defer func() {
		stopErr := profiler.Stop()
		if stopErr != nil {
			slog.Warn("stopping profiler", slog.Any("error", stopErr))
		}
	}()

	parser, err := parserCfg.NewParser(jsonstream.WithEvents(jsonstream.Events{
		CompleteField: func(key string, _ any, parentPath []string) {
			slog.Debug("field complete",
				slog.String("key", key),
				slog.String("parent", strings.Join(parentPath, ".")),
			)
		},
		ValidationError: func(err *schema.ValidationError) {
			slog.Warn("validation error",
				slog.String("keyword", err.Keyword),
				slog.String("path", strings.Join(err.Path, ".")),
				slog.String("detail", err.Message),
			)
		},
	}))
	if err != nil {
		return err
	}

	data, err := readInput(arg)
	if err != nil {
		return fmt.Errorf("%w: %w", jsonstream.ErrReadInput, err)
	}

	if chunkSize < 1 {
		chunkSize = 1
	}

	var result *jsonstream.ParseResult

	input := string(data)
	for off := 0; off < len(input); off += chunkSize {
		end := off + chunkSize
		if end > len(input) {
			end = len(input)
		}

		result, err = parser.Feed(input[off:end])
		if err != nil {
			return err
		}
	}

	if result == nil {
		return jsonstream.ErrIncomplete
	}

	if !result.Complete {
		slog.Warn("document incomplete",
			slog.Any("pending", result.PendingFields),
		)
	}

	out := any(result.Data)
	if report {
		out = result
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(encoded))

	if !result.Valid {
		return fmt.Errorf("document has %d validation errors", len(result.Errors))
	}

	return nil
}
