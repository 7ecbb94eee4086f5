// Package template emits ready-to-edit namelist input files from a resolved
// model: every field spelled correctly, with values filled from defaults or
// left blank for the user.
package template

import (
	"context"
	"fmt"
	"strings"

	"github.com/nmltools/go-nmlgen/internal/fliteral"
	"github.com/nmltools/go-nmlgen/pkg/model"
	"github.com/nmltools/go-nmlgen/pkg/render"
)

// Value modes. Minimal variants restrict output to required fields plus any
// explicitly overridden ones.
const (
	ModeEmpty         = "empty"
	ModeFilled        = "filled"
	ModeMinimalEmpty  = "minimal-empty"
	ModeMinimalFilled = "minimal-filled"
)

// Doc modes. DocModeDoc prefixes each field with a comment built from its
// title or description.
const (
	DocModePlain = "plain"
	DocModeDoc   = "doc"
)

// Emitter renders namelist input templates for one resolved model.
type Emitter struct{}

// New constructs the template emitter.
func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Name() string {
	return "template"
}

func (e *Emitter) ContentType() string {
	return "text/plain"
}

// Render produces the template text.
func (e *Emitter) Render(_ context.Context, rc render.Context, opts render.Options) ([]byte, error) {
	if rc.Model == nil {
		return nil, fmt.Errorf("template emitter: model is required")
	}

	valueMode := opts.ValueMode
	if valueMode == "" {
		valueMode = ModeEmpty
	}
	switch valueMode {
	case ModeEmpty, ModeFilled, ModeMinimalEmpty, ModeMinimalFilled:
	default:
		return nil, fmt.Errorf("template emitter: unknown value mode %q", valueMode)
	}
	docMode := opts.DocMode
	if docMode == "" {
		docMode = DocModePlain
	}
	switch docMode {
	case DocModePlain, DocModeDoc:
	default:
		return nil, fmt.Errorf("template emitter: unknown doc mode %q", docMode)
	}

	m := rc.Model
	for name := range opts.Overrides {
		if _, ok := m.Field(name); !ok {
			return nil, &render.UnknownOverrideError{Block: m.Block(), Field: name}
		}
	}

	minimal := valueMode == ModeMinimalEmpty || valueMode == ModeMinimalFilled
	filled := valueMode == ModeFilled || valueMode == ModeMinimalFilled

	var sb strings.Builder
	fmt.Fprintf(&sb, "&%s\n", m.Block())
	for _, field := range m.Fields() {
		override, overridden := opts.Overrides[field.Name]
		if minimal && !field.Required && !overridden {
			continue
		}
		if docMode == DocModeDoc {
			if comment := fieldComment(&field); comment != "" {
				fmt.Fprintf(&sb, "   ! %s\n", comment)
			}
		}
		switch {
		case overridden:
			fmt.Fprintf(&sb, "   %s = %s\n", field.Name, override)
		case filled:
			writeFilled(&sb, rc, &field)
		default:
			fmt.Fprintf(&sb, "   %s =\n", field.Name)
		}
	}
	sb.WriteString("/\n")

	return []byte(sb.String()), nil
}

// plainValue coerces a raw schema value before rendering, so YAML integers
// and floats come out in canonical namelist spelling.
func plainValue(field *model.Field, value any) string {
	coerced, err := model.Coerce(field.Type, value)
	if err != nil {
		return fliteral.Plain(value)
	}
	return fliteral.Plain(coerced)
}

func fieldComment(field *model.Field) string {
	if field.Title != "" {
		return field.Title
	}
	desc := strings.TrimSpace(field.Description)
	if idx := strings.IndexAny(desc, ".\n"); idx >= 0 {
		desc = desc[:idx]
	}
	return desc
}

// writeFilled renders a field with its materialized default, falling back to
// its first example, then the first enum literal, and finally to an empty
// assignment.
func writeFilled(sb *strings.Builder, rc render.Context, field *model.Field) {
	grid := rc.Default(field.Name)
	if grid == nil {
		if len(field.Examples) > 0 {
			fmt.Fprintf(sb, "   %s = %s\n", field.Name, plainValue(field, field.Examples[0]))
			return
		}
		if len(field.Enum) > 0 {
			fmt.Fprintf(sb, "   %s = %s\n", field.Name, plainValue(field, field.Enum[0]))
		} else {
			fmt.Fprintf(sb, "   %s =\n", field.Name)
		}
		return
	}
	if grid.IsScalar() {
		fmt.Fprintf(sb, "   %s = %s\n", field.Name, fliteral.Plain(grid.Scalar()))
		return
	}
	if field.Rank() == 1 {
		fmt.Fprintf(sb, "   %s = %s\n", field.Name, fliteral.PlainList(grid.Values))
		return
	}
	writeColumns(sb, field, grid)
}

// writeColumns renders a rank-2+ default one column at a time, so the file
// reads in the array's own memory order:
//
//	grid(:, 1) = 1, 2
//	grid(:, 2) = 3, 0
func writeColumns(sb *strings.Builder, field *model.Field, grid *model.MaterializedDefault) {
	shape := grid.Shape
	columnLen := shape[0]
	trailing := make([]int, len(shape)-1)
	for i := range trailing {
		trailing[i] = 1
	}
	offset := 0
	for {
		subs := make([]string, len(shape))
		subs[0] = ":"
		for i, idx := range trailing {
			subs[i+1] = fmt.Sprintf("%d", idx)
		}
		column := grid.Values[offset : offset+columnLen]
		fmt.Fprintf(sb, "   %s(%s) = %s\n", field.Name, strings.Join(subs, ", "), fliteral.PlainList(column))
		offset += columnLen

		carry := 0
		for carry < len(trailing) {
			trailing[carry]++
			if trailing[carry] <= shape[carry+1] {
				break
			}
			trailing[carry] = 1
			carry++
		}
		if carry == len(trailing) {
			return
		}
	}
}
