package render

import (
	"context"
	"fmt"

	"github.com/nmltools/go-nmlgen/pkg/model"
	"github.com/nmltools/go-nmlgen/pkg/registry"
	"github.com/nmltools/go-nmlgen/pkg/resolver"
	"github.com/nmltools/go-nmlgen/pkg/validation"
)

// Context bundles everything an emitter may consume: the resolved model, its
// materialized defaults, the compiled validation plan, and the constant/kind
// registry. Emitters never re-derive resolution logic from the raw schema.
type Context struct {
	Model    *model.Model
	Defaults map[string]*model.MaterializedDefault
	Plan     *validation.Plan
	Registry *registry.Registry
}

// NewContext materializes defaults and compiles the validation plan for a
// resolved model.
func NewContext(m *model.Model, reg *registry.Registry) (Context, error) {
	defaults, err := resolver.MaterializeAll(m)
	if err != nil {
		return Context{}, fmt.Errorf("render: materialize defaults: %w", err)
	}
	return Context{
		Model:    m,
		Defaults: defaults,
		Plan:     validation.Compile(m),
		Registry: reg,
	}, nil
}

// Default returns the materialized default for a field, or nil.
func (c Context) Default(name string) *model.MaterializedDefault {
	return c.Defaults[name]
}

// Options carries per-request rendering instructions. Emitters ignore the
// knobs that do not apply to them.
type Options struct {
	// DocMode selects template commenting: "plain" or "doc".
	DocMode string

	// ValueMode selects template population: "empty", "filled",
	// "minimal-empty", or "minimal-filled".
	ValueMode string

	// Overrides replace a field's rendered value verbatim. Unknown keys are
	// fatal.
	Overrides map[string]string

	// KindModule and HelperModule name the Fortran modules generated code
	// imports.
	KindModule   string
	HelperModule string

	// ModuleDoc is an optional documentation banner for generated modules.
	ModuleDoc string

	// DoxygenIDFromName appends a {#block} anchor to the docs heading;
	// AddTOCStatement inserts a [TOC] marker after it.
	DoxygenIDFromName bool
	AddTOCStatement   bool
}

// Emitter converts a render context into target text (Fortran source,
// Markdown, or a namelist template).
type Emitter interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, rc Context, opts Options) ([]byte, error)
}
