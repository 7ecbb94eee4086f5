// Package fliteral renders canonical Go values as Fortran literals. It is
// shared by the code, docs, and template emitters so every output agrees on
// literal spelling.
package fliteral

import (
	"fmt"
	"strconv"
	"strings"
)

// Integer renders an integer literal, with a kind suffix when the field
// declares a kind token.
func Integer(value int64, kind string) string {
	text := strconv.FormatInt(value, 10)
	if kind != "" {
		return text + "_" + kind
	}
	return text
}

// Real renders a real literal. Values without a decimal point or exponent
// gain a trailing ".0" so Fortran reads them as reals.
func Real(value float64, kind string) string {
	text := strconv.FormatFloat(value, 'g', -1, 64)
	if !strings.ContainsAny(text, ".eE") {
		text += ".0"
	}
	if kind != "" {
		return text + "_" + kind
	}
	return text
}

// String renders a single-quoted character literal, doubling embedded
// quotes.
func String(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// Logical renders .true. or .false..
func Logical(value bool) string {
	if value {
		return ".true."
	}
	return ".false."
}

// Value renders any canonical value (int64, float64, string, bool) with the
// optional kind suffix for numerics.
func Value(value any, kind string) string {
	switch v := value.(type) {
	case int64:
		return Integer(v, kind)
	case float64:
		return Real(v, kind)
	case string:
		return String(v)
	case bool:
		return Logical(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Plain renders a value for namelist input: like Value but without kind
// suffixes, since namelist data carries no kind notation.
func Plain(value any) string {
	return Value(value, "")
}

// List renders a comma-separated literal list.
func List(values []any, kind string) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = Value(value, kind)
	}
	return strings.Join(parts, ", ")
}

// PlainList renders a comma-separated namelist value list.
func PlainList(values []any) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = Plain(value)
	}
	return strings.Join(parts, ", ")
}
