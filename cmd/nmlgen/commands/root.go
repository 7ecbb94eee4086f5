// Package commands implements the nmlgen command line interface.
package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nmltools/go-nmlgen/pkg/orchestrator"
	"github.com/nmltools/go-nmlgen/pkg/registry"
)

var (
	configPath string
	verbose    bool
	defines    []string

	logger zerolog.Logger
)

// Execute runs the root command.
func Execute() error {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		return err
	}
	return nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nmlgen",
		Short:         "Generate Fortran namelist modules, docs, and templates from schemas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
			logger = zerolog.New(writer).Level(level).With().Timestamp().Logger()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "nml-config.toml", "project configuration file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringArrayVarP(&defines, "define", "D", nil, "define a constant as name=value (repeatable)")

	cmd.AddCommand(
		newGenerateCmd(),
		newGenCodeCmd(),
		newGenDocsCmd(),
		newGenTemplateCmd(),
		newValidateCmd(),
		newDumpCmd(),
	)
	return cmd
}

// loadOrchestrator builds the orchestrator from the configured project file
// and any --define overrides.
func loadOrchestrator(extra ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	cfg, err := registry.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	overrides, err := parseDefines(defines)
	if err != nil {
		return nil, err
	}
	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithConstantOverrides(overrides),
	}
	opts = append(opts, extra...)
	return orchestrator.New(cfg, opts...)
}

func parseDefines(raw []string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	overrides := make(map[string]float64, len(raw))
	for _, entry := range raw {
		name, value, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --define %q, expected name=value", entry)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --define %q: %w", entry, err)
		}
		overrides[name] = parsed
	}
	return overrides, nil
}
