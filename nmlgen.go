// Package nmlgen generates Fortran namelist readers, documentation, and
// input templates from schema files. The root package re-exports the common
// entry points; the pkg tree holds the pipeline stages.
package nmlgen

import (
	"context"

	"github.com/nmltools/go-nmlgen/pkg/orchestrator"
	"github.com/nmltools/go-nmlgen/pkg/registry"
	"github.com/nmltools/go-nmlgen/pkg/render"
	"github.com/nmltools/go-nmlgen/pkg/validation"
)

// Config is the parsed project configuration.
type Config = registry.Config

// Option configures the orchestrator.
type Option = orchestrator.Option

// Options carries per-request rendering instructions.
type Options = render.Options

// Status is the numbered validation result taxonomy.
type Status = validation.Status

// ValidationReport summarizes one namelist file checked against a schema.
type ValidationReport = orchestrator.ValidationReport

// LoadConfig reads and validates a project configuration file.
func LoadConfig(path string) (*Config, error) {
	return registry.LoadConfig(path)
}

// New exposes the orchestrator constructor from the top-level module.
func New(cfg *Config, options ...Option) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(cfg, options...)
}

// GenerateAll runs every configured target of a project. It is the simplest
// entry point for callers that just want the batch behavior of the CLI.
func GenerateAll(ctx context.Context, cfg *Config, options ...Option) error {
	gen, err := orchestrator.New(cfg, options...)
	if err != nil {
		return err
	}
	return gen.GenerateAll(ctx)
}

// GenerateFortran renders the Fortran module for one schema, bypassing the
// config's target routing.
func GenerateFortran(ctx context.Context, cfg *Config, schemaPath, outputPath string, options ...Option) error {
	gen, err := orchestrator.New(cfg, options...)
	if err != nil {
		return err
	}
	rc, err := gen.LoadContext(schemaPath)
	if err != nil {
		return err
	}
	return gen.Emit(ctx, "fortran", rc, gen.Options(), outputPath)
}

// ValidateFile checks one namelist file against a schema.
func ValidateFile(cfg *Config, schemaPath, nmlPath string, options ...Option) (*ValidationReport, error) {
	gen, err := orchestrator.New(cfg, options...)
	if err != nil {
		return nil, err
	}
	return gen.ValidateFile(schemaPath, nmlPath)
}
