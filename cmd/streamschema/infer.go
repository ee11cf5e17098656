package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tylerbryy/stream-schema/schemagen"
)

// newInferCmd builds the infer subcommand.
func newInferCmd() *cobra.Command {
	cfg := schemagen.NewConfig()

	cmd := &cobra.Command{
		Use:   "infer [flags] <sample.json> [sample2.json ...]",
		Short: "Infer a JSON Schema from sample documents",
		Long: `infer generates a permissive JSON Schema (Draft 7) from one or more
sample JSON documents, merging multiple samples with union semantics.
Samples are parsed leniently, so raw LLM output works as input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInfer(cfg, args)
		},
	}

	cfg.RegisterFlags(cmd.Flags())

	completionErr := cfg.RegisterCompletions(cmd)
	if completionErr != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", completionErr)
	}

	return cmd
}

func runInfer(cfg *schemagen.Config, args []string) error {
	gen, err := cfg.NewGenerator()
	if err != nil {
		return err
	}

	var samples [][]byte

	for _, arg := range args {
		data, err := readInput(arg)
		if err != nil {
			return fmt.Errorf("%w: %w", schemagen.ErrReadInput, err)
		}

		samples = append(samples, data)
	}

	generated, err := gen.Generate(samples...)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(generated, "", strings.Repeat(" ", cfg.Indent))
	if err != nil {
		return fmt.Errorf("%w: %w", schemagen.ErrWriteOutput, err)
	}

	out = append(out, '\n')

	if cfg.Output == "" || cfg.Output == "-" {
		_, err = os.Stdout.Write(out)
		if err != nil {
			return fmt.Errorf("%w: %w", schemagen.ErrWriteOutput, err)
		}

		return nil
	}

	err = os.WriteFile(cfg.Output, out, 0o644) //nolint:gosec // Schema output is not sensitive.
	if err != nil {
		return fmt.Errorf("%w: %w", schemagen.ErrWriteOutput, err)
	}

	return nil
}
