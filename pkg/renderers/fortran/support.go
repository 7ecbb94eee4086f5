package fortran

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/nmltools/go-nmlgen/internal/fliteral"
	"github.com/nmltools/go-nmlgen/pkg/model"
	"github.com/nmltools/go-nmlgen/pkg/validation"
)

// StatusParamName maps a status to its generated parameter name, e.g.
// FileNotFound -> NML_STATUS_FILE_NOT_FOUND.
func StatusParamName(s validation.Status) string {
	name := s.String()
	var sb strings.Builder
	sb.WriteString("NML_STATUS_")
	for i, r := range name {
		if r >= 'A' && r <= 'Z' && i > 0 {
			sb.WriteByte('_')
		}
		sb.WriteRune(unicode.ToUpper(r))
	}
	return sb.String()
}

func kindSuffix(kind string) string {
	if kind == "" {
		return ""
	}
	return "_" + kind
}

func kindOr(kind, fallback string) string {
	if kind == "" {
		return fallback
	}
	return kind
}

// isSetFunc names the helper predicate for a field's element type.
func isSetFunc(field *model.Field) string {
	switch field.Type {
	case model.ValueInteger:
		return "nml_is_set_" + kindOr(field.Kind, "int")
	case model.ValueReal:
		return "nml_is_set_" + kindOr(field.Kind, "real")
	case model.ValueString:
		return "nml_is_set_string"
	}
	return ""
}

func unsetName(kind string) string {
	return "nml_unset_" + kindOr(kind, "int")
}

func lengthExpr(field *model.Field) string {
	if field.LengthToken != "" {
		return field.LengthToken
	}
	return strconv.Itoa(field.Length)
}

// elementSpec renders the element type declaration for a field.
func elementSpec(field *model.Field) string {
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
		return "character(len=" + lengthExpr(field) + ")"
	}
	return "logical"
}

// dummyElementSpec is elementSpec with assumed-length characters, for dummy
// arguments.
func dummyElementSpec(field *model.Field) string {
	if field.Type == model.ValueString {
		return "character(len=*)"
	}
	return elementSpec(field)
}

// localSpec declares a field-shaped variable (type components, locals).
func localSpec(field *model.Field) string {
	spec := elementSpec(field)
	if field.IsArray() {
		spec += ", dimension(" + dimensionList(field) + ")"
	}
	return spec
}

// dummySpec declares a field-shaped dummy argument.
func dummySpec(field *model.Field) string {
	spec := dummyElementSpec(field)
	if field.IsArray() {
		spec += ", dimension(" + dimensionList(field) + ")"
	}
	return spec
}

// dimensionExtent renders one declared extent, preferring the constant name
// the schema used over the resolved number.
func dimensionExtent(field *model.Field, d int) string {
	dim := field.Dims[d]
	if dim.Token != "" {
		return dim.Token
	}
	return strconv.Itoa(dim.Extent)
}

func dimensionList(field *model.Field) string {
	parts := make([]string, field.Rank())
	for d := range parts {
		parts[d] = dimensionExtent(field, d)
	}
	return strings.Join(parts, ", ")
}

// rawDefaultValues flattens and coerces the declared default list. The
// resolver has already validated it, so coercion cannot fail here.
func rawDefaultValues(field *model.Field, grid *model.MaterializedDefault) []any {
	if field.Default == nil {
		return nil
	}
	flat := flattenRaw(field.Default.Raw)
	out := make([]any, 0, len(flat))
	for _, value := range flat {
		coerced, err := model.Coerce(field.Type, value)
		if err != nil {
			return grid.Values
		}
		out = append(out, coerced)
	}
	return out
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

// arrayConstructor renders a literal array, using a typed constructor for
// character arrays so every element gets the declared length.
func arrayConstructor(field *model.Field, values []any) string {
	if field.Type == model.ValueString {
		return "[character(len=" + lengthExpr(field) + ") :: " + fliteral.List(values, "") + "]"
	}
	return "[" + fliteral.List(values, field.Kind) + "]"
}

func usedKinds(fields []model.Field) []string {
	set := make(map[string]struct{})
	for i := range fields {
		if fields[i].Kind != "" {
			set[fields[i].Kind] = struct{}{}
		}
	}
	kinds := make([]string, 0, len(set))
	for kind := range set {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func fieldNames(fields []model.Field) []string {
	names := make([]string, len(fields))
	for i := range fields {
		names[i] = fields[i].Name
	}
	return names
}

// indexBoundsExpr renders the out-of-range test for an optional index array.
func indexBoundsExpr(field *model.Field) string {
	parts := make([]string, 0, field.Rank()*2)
	for d := 0; d < field.Rank(); d++ {
		parts = append(parts,
			fmt.Sprintf("index(%d) < 1", d+1),
			fmt.Sprintf("index(%d) > %s", d+1, dimensionExtent(field, d)))
	}
	return strings.Join(parts, " .or. ")
}

func indexedSubscripts(field *model.Field) string {
	parts := make([]string, field.Rank())
	for d := range parts {
		parts[d] = fmt.Sprintf("index(%d)", d+1)
	}
	return strings.Join(parts, ", ")
}

// sliceSubscripts renders the subscript list that fixes dimension d at the
// loop variable i and leaves the rest whole.
func sliceSubscripts(field *model.Field, d int) string {
	parts := make([]string, field.Rank())
	for j := range parts {
		if j == d {
			parts[j] = "i"
		} else {
			parts[j] = ":"
		}
	}
	return strings.Join(parts, ", ")
}

// regionSubscripts renders the sub-region implied by the computed extents.
func regionSubscripts(field *model.Field) string {
	parts := make([]string, field.Rank())
	for d := range parts {
		parts[d] = fmt.Sprintf("1:extents(%d)", d+1)
	}
	return strings.Join(parts, ", ")
}

func anyExtentZeroExpr(field *model.Field) string {
	rank := field.Rank()
	parts := make([]string, 0, field.FlexTailDims)
	for d := rank - field.FlexTailDims; d < rank; d++ {
		parts = append(parts, fmt.Sprintf("extents(%d) == 0", d+1))
	}
	return strings.Join(parts, " .or. ")
}

func wrapAll(expr string, isArray bool) string {
	if isArray {
		return "all(" + expr + ")"
	}
	return expr
}

func wrapAny(expr string, isArray bool) string {
	if isArray {
		return "any(" + expr + ")"
	}
	return "(" + expr + ")"
}

// boundsPredicate renders the in-range expression for a bounded field.
func boundsPredicate(field *model.Field) string {
	bounds := field.Bounds
	var parts []string
	if bounds.Min != nil {
		op := ">="
		if bounds.MinExclusive {
			op = ">"
		}
		parts = append(parts, fmt.Sprintf("this%%%s %s %s", field.Name, op, boundLiteral(field, *bounds.Min)))
	}
	if bounds.Max != nil {
		op := "<="
		if bounds.MaxExclusive {
			op = "<"
		}
		parts = append(parts, fmt.Sprintf("this%%%s %s %s", field.Name, op, boundLiteral(field, *bounds.Max)))
	}
	return strings.Join(parts, " .and. ")
}

func boundLiteral(field *model.Field, value float64) string {
	if field.Type == model.ValueInteger {
		return fliteral.Integer(int64(value), field.Kind)
	}
	return fliteral.Real(value, field.Kind)
}
