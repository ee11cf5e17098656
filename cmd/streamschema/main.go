// Package main provides the CLI entry point for streamschema, a tool that
// incrementally parses and validates JSON streams against a JSON Schema
// (Draft 7), and infers schemas from sample documents.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tylerbryy/stream-schema/log"
	"github.com/Tylerbryy/stream-schema/profile"
	"github.com/Tylerbryy/stream-schema/version"
)

func main() {
	logCfg := log.NewConfig()
	profileCfg := profile.NewConfig()

	rootCmd := &cobra.Command{
		Use:           "streamschema",
		Short:         "Incrementally parse and validate JSON streams",
		Version:       version.Info(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	logCfg.RegisterFlags(rootCmd.PersistentFlags())
	profileCfg.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return setupLogging(logCfg)
	}

	rootCmd.AddCommand(newParseCmd(profileCfg))
	rootCmd.AddCommand(newInferCmd())

	completionErr := logCfg.RegisterCompletions(rootCmd)
	if completionErr != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", completionErr)
	}

	completionErr = profileCfg.RegisterCompletions(rootCmd)
	if completionErr != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", completionErr)
	}

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// setupLogging installs the default slog handler from CLI flags.
func setupLogging(cfg *log.Config) error {
	handler, err := cfg.NewHandler(os.Stderr)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(handler))

	return nil
}

// readInput reads one input argument, with "-" meaning stdin.
func readInput(arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(os.Stdin)
	}

	return os.ReadFile(arg) //nolint:gosec // Input path from CLI argument is expected.
}
