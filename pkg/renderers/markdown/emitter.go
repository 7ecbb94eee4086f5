// Package markdown emits reference documentation for a namelist block: a
// summary table, one detail section per field, and a worked example.
package markdown

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nmltools/go-nmlgen/internal/fliteral"
	"github.com/nmltools/go-nmlgen/pkg/model"
	"github.com/nmltools/go-nmlgen/pkg/render"
)

// Emitter renders Markdown documentation for one resolved model.
type Emitter struct{}

// New constructs the Markdown docs emitter.
func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Name() string {
	return "markdown"
}

func (e *Emitter) ContentType() string {
	return "text/markdown"
}

// Render produces the documentation page.
func (e *Emitter) Render(_ context.Context, rc render.Context, opts render.Options) ([]byte, error) {
	if rc.Model == nil {
		return nil, fmt.Errorf("markdown emitter: model is required")
	}

	m := rc.Model
	var sb strings.Builder

	title := m.Title()
	if title == "" {
		title = m.Block()
	}
	if opts.DoxygenIDFromName {
		fmt.Fprintf(&sb, "# %s {#%s}\n", title, m.Block())
	} else {
		fmt.Fprintf(&sb, "# %s\n", title)
	}
	if opts.AddTOCStatement {
		sb.WriteString("\n[TOC]\n")
	}
	if desc := strings.TrimSpace(m.Description()); desc != "" {
		sb.WriteString("\n" + desc + "\n")
	}
	fmt.Fprintf(&sb, "\nNamelist block: `&%s`\n", m.Block())

	writeSummaryTable(&sb, rc)
	for _, field := range m.Fields() {
		writeFieldSection(&sb, rc, field)
	}
	writeExample(&sb, rc)

	return []byte(sb.String()), nil
}

func writeSummaryTable(sb *strings.Builder, rc render.Context) {
	sb.WriteString("\n| Name | Type | Default | Description |\n")
	sb.WriteString("| --- | --- | --- | --- |\n")
	for _, field := range rc.Model.Fields() {
		doc := field.Title
		if doc == "" {
			doc = firstSentence(field.Description)
		}
		fmt.Fprintf(sb, "| `%s` | %s | %s | %s |\n",
			field.Name, typeString(&field), summaryDefault(&field), doc)
	}
}

func summaryDefault(field *model.Field) string {
	if field.Default == nil {
		if field.Required {
			return "*required*"
		}
		return "*unset*"
	}
	values := flattenRaw(field.Default.Raw)
	if len(values) == 1 {
		return "`" + renderValue(field, values[0]) + "`"
	}
	return "`" + renderList(field, values) + "`"
}

func writeFieldSection(sb *strings.Builder, rc render.Context, field model.Field) {
	fmt.Fprintf(sb, "\n## %s\n", field.Name)
	if field.Title != "" {
		sb.WriteString("\n" + field.Title + "\n")
	}
	if desc := strings.TrimSpace(field.Description); desc != "" && desc != field.Title {
		sb.WriteString("\n" + desc + "\n")
	}
	sb.WriteString("\n")

	fmt.Fprintf(sb, "- Type: `%s`\n", declString(&field))
	if field.IsArray() {
		fmt.Fprintf(sb, "- Shape: `(%s)`\n", shapeString(&field))
		if field.FlexTailDims > 0 {
			fmt.Fprintf(sb, "- The last %s may be filled partially.\n", dimWord(field.FlexTailDims))
		}
	}
	if field.Required {
		sb.WriteString("- Required\n")
	}
	if field.Default != nil {
		values := flattenRaw(field.Default.Raw)
		if len(values) == 1 {
			fmt.Fprintf(sb, "- Default: `%s`\n", renderValue(&field, values[0]))
		} else {
			fmt.Fprintf(sb, "- Default: `%s`\n", renderList(&field, values))
		}
		if field.Default.Fill == model.FillPad {
			fmt.Fprintf(sb, "- Pad: `%s`\n", fliteral.PlainList(field.Default.Pad))
		}
		if field.Default.Fill == model.FillRepeat && field.IsArray() {
			sb.WriteString("- The default repeats across all cells.\n")
		}
	}
	if len(field.Enum) > 0 {
		parts := make([]string, len(field.Enum))
		for i, value := range field.Enum {
			parts[i] = "`" + renderValue(&field, value) + "`"
		}
		fmt.Fprintf(sb, "- Allowed values: %s\n", strings.Join(parts, ", "))
	}
	if field.Bounds != nil {
		if field.Bounds.Min != nil {
			op := ">="
			if field.Bounds.MinExclusive {
				op = ">"
			}
			fmt.Fprintf(sb, "- Minimum: `%s %s`\n", op, boundString(&field, *field.Bounds.Min))
		}
		if field.Bounds.Max != nil {
			op := "<="
			if field.Bounds.MaxExclusive {
				op = "<"
			}
			fmt.Fprintf(sb, "- Maximum: `%s %s`\n", op, boundString(&field, *field.Bounds.Max))
		}
	}
	if len(field.Examples) > 0 {
		parts := make([]string, len(field.Examples))
		for i, value := range field.Examples {
			parts[i] = "`" + renderValue(&field, value) + "`"
		}
		fmt.Fprintf(sb, "- Examples: %s\n", strings.Join(parts, ", "))
	}
}

// writeExample renders a worked namelist block from example values, falling
// back to defaults and then to the first enum literal. Fields with no usable
// value are left out.
func writeExample(sb *strings.Builder, rc render.Context) {
	var lines []string
	for _, field := range rc.Model.Fields() {
		value, ok := exampleValue(rc, &field)
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("   %s = %s", field.Name, value))
	}
	if len(lines) == 0 {
		return
	}
	sb.WriteString("\n## Example\n\n```fortran\n")
	fmt.Fprintf(sb, "&%s\n", rc.Model.Block())
	for _, line := range lines {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("/\n```\n")
}

func exampleValue(rc render.Context, field *model.Field) (string, bool) {
	if len(field.Examples) > 0 {
		return renderValue(field, field.Examples[0]), true
	}
	if grid := rc.Default(field.Name); grid != nil {
		if grid.IsScalar() {
			return fliteral.Plain(grid.Scalar()), true
		}
		return fliteral.PlainList(grid.Values), true
	}
	if len(field.Enum) > 0 {
		return renderValue(field, field.Enum[0]), true
	}
	return "", false
}

func renderValue(field *model.Field, value any) string {
	coerced, err := model.Coerce(field.Type, value)
	if err != nil {
		return fliteral.Plain(value)
	}
	return fliteral.Plain(coerced)
}

func renderList(field *model.Field, values []any) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = renderValue(field, value)
	}
	return strings.Join(parts, ", ")
}

// typeString is the compact form used in the summary table.
func typeString(field *model.Field) string {
	base := baseType(field)
	if field.IsArray() {
		return base + "(" + shapeString(field) + ")"
	}
	return base
}

// declString is the full Fortran declaration form used in detail sections.
func declString(field *model.Field) string {
	base := baseType(field)
	if field.IsArray() {
		return base + ", dimension(" + shapeString(field) + ")"
	}
	return base
}

func baseType(field *model.Field) string {
	switch field.Type {
	case model.ValueInteger:
		if field.Kind != "" {
			return "integer(" + field.Kind + ")"
		}
		return "integer"
	case model.ValueReal:
		if field.Kind != "" {
			return "real(" + field.Kind + ")"
		}
		return "real"
	case model.ValueString:
		if field.LengthToken != "" {
			return "character(len=" + field.LengthToken + ")"
		}
		return "character(len=" + strconv.Itoa(field.Length) + ")"
	}
	return "logical"
}

func boundString(field *model.Field, value float64) string {
	if field.Type == model.ValueInteger {
		return strconv.FormatInt(int64(value), 10)
	}
	return fliteral.Real(value, "")
}

func shapeString(field *model.Field) string {
	parts := make([]string, field.Rank())
	for d, dim := range field.Dims {
		if dim.Token != "" {
			parts[d] = dim.Token
		} else {
			parts[d] = strconv.Itoa(dim.Extent)
		}
	}
	return strings.Join(parts, ", ")
}

func dimWord(n int) string {
	if n == 1 {
		return "dimension"
	}
	return strconv.Itoa(n) + " dimensions"
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, ".\n"); idx >= 0 {
		return text[:idx]
	}
	return text
}

func flattenRaw(raw any) []any {
	list, ok := raw.([]any)
	if !ok {
		return []any{raw}
	}
	var out []any
	for _, item := range list {
		out = append(out, flattenRaw(item)...)
	}
	return out
}
