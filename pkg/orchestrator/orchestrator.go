// Package orchestrator drives full project runs: it loads every schema named
// by the project config, renders the configured targets, and applies the
// batch failure policy.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nmltools/go-nmlgen/pkg/registry"
	"github.com/nmltools/go-nmlgen/pkg/render"
	"github.com/nmltools/go-nmlgen/pkg/renderers/fortran"
	"github.com/nmltools/go-nmlgen/pkg/renderers/markdown"
	"github.com/nmltools/go-nmlgen/pkg/renderers/template"
	"github.com/nmltools/go-nmlgen/pkg/resolver"
	"github.com/nmltools/go-nmlgen/pkg/schema"
	"github.com/nmltools/go-nmlgen/pkg/validation"
)

// Orchestrator runs code, docs, and template generation for a project config.
type Orchestrator struct {
	cfg       *registry.Config
	registry  *registry.Registry
	emitters  *render.Registry
	logger    zerolog.Logger
	failFast  bool
	overrides map[string]float64
}

// Option configures an orchestrator instance.
type Option func(*Orchestrator)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithConstantOverrides supplies ad hoc constant definitions that win over
// the config's [constants] tables.
func WithConstantOverrides(overrides map[string]float64) Option {
	return func(o *Orchestrator) {
		o.overrides = overrides
	}
}

// WithEmitters replaces the default emitter registry.
func WithEmitters(emitters *render.Registry) Option {
	return func(o *Orchestrator) {
		o.emitters = emitters
	}
}

// WithFailFast overrides the config's batch policy.
func WithFailFast(failFast bool) Option {
	return func(o *Orchestrator) {
		o.failFast = failFast
	}
}

// New builds an orchestrator from a parsed project config.
func New(cfg *registry.Config, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("orchestrator: config is required")
	}

	o := &Orchestrator{
		cfg:      cfg,
		logger:   zerolog.Nop(),
		failFast: cfg.Batch.FailFast,
	}
	for _, opt := range opts {
		opt(o)
	}

	reg, err := registry.NewFromConfig(cfg, o.overrides)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	o.registry = reg

	if o.emitters == nil {
		o.emitters = DefaultEmitters()
	}
	return o, nil
}

// DefaultEmitters wires the built-in emitter set.
func DefaultEmitters() *render.Registry {
	emitters := render.NewRegistry()
	emitters.MustRegister(fortran.New())
	emitters.MustRegister(fortran.NewHelper())
	emitters.MustRegister(markdown.New())
	emitters.MustRegister(template.New())
	return emitters
}

// Registry exposes the constant/kind registry built from the config.
func (o *Orchestrator) Registry() *registry.Registry {
	return o.registry
}

// LoadContext loads, parses, and resolves one schema into a render context.
// The path resolves against the config directory.
func (o *Orchestrator) LoadContext(path string) (render.Context, error) {
	doc, err := schema.LoadFile(o.cfg.ResolvePath(path))
	if err != nil {
		return render.Context{}, err
	}
	raw, err := schema.Parse(doc)
	if err != nil {
		return render.Context{}, err
	}
	m, err := resolver.Resolve(raw, o.registry)
	if err != nil {
		return render.Context{}, err
	}
	return render.NewContext(m, o.registry)
}

// Options returns the config-wide render options; callers adjust the
// per-request knobs before emitting.
func (o *Orchestrator) Options() render.Options {
	return o.baseOptions()
}

// Emit renders one named emitter to a file.
func (o *Orchestrator) Emit(ctx context.Context, emitter string, rc render.Context, opts render.Options, path string) error {
	return o.emitTo(ctx, emitter, rc, opts, path)
}

func (o *Orchestrator) baseOptions() render.Options {
	return render.Options{
		KindModule:        o.cfg.Kinds.Module,
		HelperModule:      o.cfg.HelperModule(),
		ModuleDoc:         o.cfg.Documentation.Module,
		DoxygenIDFromName: o.cfg.Documentation.DoxygenIDFromName,
		AddTOCStatement:   o.cfg.Documentation.AddTOCStatement,
	}
}

// GenerateAll runs the helper, every [[nml-files]] entry, and every
// [[templates]] entry. With fail_fast the first error aborts the batch;
// otherwise every entry runs and the failures are reported together.
func (o *Orchestrator) GenerateAll(ctx context.Context) error {
	var errs []error
	record := func(err error) error {
		if err == nil {
			return nil
		}
		if o.failFast {
			return err
		}
		errs = append(errs, err)
		return nil
	}

	if err := record(o.GenerateHelper(ctx)); err != nil {
		return err
	}
	for _, entry := range o.cfg.NMLFiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := record(o.GenerateFile(ctx, entry)); err != nil {
			return err
		}
	}
	for _, entry := range o.cfg.Templates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := record(o.GenerateTemplate(ctx, entry)); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

// GenerateHelper writes the shared helper module when the config asks for
// one.
func (o *Orchestrator) GenerateHelper(ctx context.Context) error {
	path := o.cfg.ResolvePath(o.cfg.Helper.Path)
	if path == "" {
		return nil
	}
	err := o.emitTo(ctx, "fortran-helper", render.Context{Registry: o.registry}, o.baseOptions(), path)
	if err != nil {
		return err
	}
	o.logger.Info().Str("path", path).Msg("wrote helper module")
	return nil
}

// GenerateFile renders every configured target of one schema entry. Targets
// run independently: a docs failure does not suppress the code output.
func (o *Orchestrator) GenerateFile(ctx context.Context, entry registry.FileEntry) error {
	rc, err := o.LoadContext(entry.Schema)
	if err != nil {
		return fmt.Errorf("orchestrator: schema %s: %w", entry.Schema, err)
	}

	targets := []struct {
		emitter string
		path    string
	}{
		{"fortran", o.cfg.ResolvePath(entry.ModPath)},
		{"markdown", o.cfg.ResolvePath(entry.DocPath)},
		{"template", o.cfg.ResolvePath(entry.TempPath)},
	}

	var errs []error
	for _, target := range targets {
		if target.path == "" {
			continue
		}
		if err := o.emitTo(ctx, target.emitter, rc, o.baseOptions(), target.path); err != nil {
			errs = append(errs, err)
			continue
		}
		o.logger.Info().
			Str("schema", entry.Schema).
			Str("emitter", target.emitter).
			Str("path", target.path).
			Msg("wrote target")
	}
	return errors.Join(errs...)
}

// GenerateTemplate renders one combined template output covering several
// schemas, with per-block value overrides.
func (o *Orchestrator) GenerateTemplate(ctx context.Context, entry registry.TemplateEntry) error {
	emitter, err := o.emitters.Get("template")
	if err != nil {
		return err
	}

	schemas := entry.Schemas
	if len(schemas) == 0 {
		for _, file := range o.cfg.NMLFiles {
			schemas = append(schemas, file.Schema)
		}
	}

	seen := make(map[string]bool, len(schemas))
	var parts []string
	for _, schemaPath := range schemas {
		rc, err := o.LoadContext(schemaPath)
		if err != nil {
			return fmt.Errorf("orchestrator: schema %s: %w", schemaPath, err)
		}
		block := rc.Model.Block()
		seen[block] = true

		opts := o.baseOptions()
		opts.DocMode = entry.DocMode
		opts.ValueMode = entry.ValueMode
		opts.Overrides = entry.Values[block]

		data, err := emitter.Render(ctx, rc, opts)
		if err != nil {
			return &render.TargetError{Emitter: emitter.Name(), Path: entry.Output, Err: err}
		}
		parts = append(parts, string(data))
	}

	for block := range entry.Values {
		if !seen[block] {
			return fmt.Errorf("orchestrator: template %s: values for unknown block %q", entry.Output, block)
		}
	}

	path := o.cfg.ResolvePath(entry.Output)
	if err := writeFile(path, []byte(strings.Join(parts, "\n"))); err != nil {
		return &render.TargetError{Emitter: emitter.Name(), Path: path, Err: err}
	}
	o.logger.Info().Str("path", path).Int("blocks", len(parts)).Msg("wrote template")
	return nil
}

func (o *Orchestrator) emitTo(ctx context.Context, name string, rc render.Context, opts render.Options, path string) error {
	emitter, err := o.emitters.Get(name)
	if err != nil {
		return err
	}
	data, err := emitter.Render(ctx, rc, opts)
	if err != nil {
		return &render.TargetError{Emitter: name, Path: path, Err: err}
	}
	if err := writeFile(path, data); err != nil {
		return &render.TargetError{Emitter: name, Path: path, Err: err}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ValidationReport summarizes one namelist file checked against a schema.
type ValidationReport struct {
	Schema  string `json:"schema"`
	Block   string `json:"block"`
	Path    string `json:"path"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Valid   bool   `json:"valid"`
}

// ValidateFile loads a schema, reads the namelist file into a fresh record,
// and runs the compiled checks.
func (o *Orchestrator) ValidateFile(schemaPath, nmlPath string) (*ValidationReport, error) {
	rc, err := o.LoadContext(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: schema %s: %w", schemaPath, err)
	}

	report := &ValidationReport{
		Schema: schemaPath,
		Block:  rc.Model.Block(),
		Path:   nmlPath,
	}

	record := validation.NewRecord(rc.Plan, rc.Defaults)
	if status, message := record.LoadFrom(nmlPath); !status.OK() {
		report.Status = status.String()
		report.Message = message
		return report, nil
	}
	status, message := record.Validate()
	report.Status = status.String()
	report.Message = message
	report.Valid = status.OK()
	return report, nil
}
