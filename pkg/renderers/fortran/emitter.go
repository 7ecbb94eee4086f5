// Package fortran emits the generated namelist module: a record type with
// defaulting, sentinel-based unset tracking, and the compiled validation
// checks, mirroring the plan the validation package executes in-process.
package fortran

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nmltools/go-nmlgen/internal/fliteral"
	"github.com/nmltools/go-nmlgen/pkg/model"
	"github.com/nmltools/go-nmlgen/pkg/render"
	"github.com/nmltools/go-nmlgen/pkg/validation"
)

const defaultKindModule = "iso_fortran_env"

// Emitter renders Fortran source for one resolved model.
type Emitter struct{}

// New constructs the Fortran code emitter.
func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Name() string {
	return "fortran"
}

func (e *Emitter) ContentType() string {
	return "text/x-fortran"
}

// Render produces the complete module source.
func (e *Emitter) Render(_ context.Context, rc render.Context, opts render.Options) ([]byte, error) {
	if rc.Model == nil {
		return nil, fmt.Errorf("fortran emitter: model is required")
	}

	g := &generator{
		model:    rc.Model,
		defaults: rc.Defaults,
		plan:     rc.Plan,
		opts:     opts,
	}
	return g.render()
}

type generator struct {
	model    *model.Model
	defaults map[string]*model.MaterializedDefault
	plan     *validation.Plan
	opts     render.Options

	out indentWriter
}

type indentWriter struct {
	sb strings.Builder
}

func (w *indentWriter) linef(indent int, format string, args ...any) {
	w.sb.WriteString(strings.Repeat("   ", indent))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *indentWriter) blank() {
	w.sb.WriteByte('\n')
}

func (g *generator) moduleName() string {
	return "nml_" + g.model.Block()
}

func (g *generator) typeName() string {
	return g.model.Block() + "_t"
}

func (g *generator) procName(op string) string {
	return g.model.Block() + "_" + op
}

func (g *generator) helperModule() string {
	if g.opts.HelperModule != "" {
		return g.opts.HelperModule
	}
	return "nml_helper"
}

func (g *generator) render() ([]byte, error) {
	fields := g.model.Fields()

	if doc := strings.TrimSpace(g.opts.ModuleDoc); doc != "" {
		for _, line := range strings.Split(doc, "\n") {
			g.out.linef(0, "!> %s", line)
		}
	}
	g.out.linef(0, "!> Generated namelist module for &%s. Do not edit by hand.", g.model.Block())
	g.out.linef(0, "module %s", g.moduleName())
	g.writeUseStatements(fields)
	g.out.linef(1, "implicit none")
	g.out.blank()
	g.out.linef(1, "private")
	g.out.blank()
	g.writeParameters(fields)
	g.writeType(fields)
	g.out.blank()
	g.out.linef(0, "contains")
	g.writeEnumFunctions(fields)
	g.writeInit(fields)
	g.writeLoadFrom(fields)
	g.writeSet(fields)
	g.writeIsSet(fields)
	g.writeFilledShape(fields)
	g.writeIsValid(fields)
	g.out.blank()
	g.out.linef(0, "end module %s", g.moduleName())

	return []byte(g.out.sb.String()), nil
}

func (g *generator) writeUseStatements(fields []model.Field) {
	kinds := usedKinds(fields)
	if len(kinds) > 0 {
		module := g.opts.KindModule
		if module == "" {
			module = defaultKindModule
		}
		g.out.linef(1, "use %s, only: %s", module, strings.Join(kinds, ", "))
	}
	if g.needsIEEE(fields) {
		g.out.linef(1, "use, intrinsic :: ieee_arithmetic, only: ieee_value, ieee_quiet_nan")
	}

	symbols := g.helperSymbols(fields)
	line := fmt.Sprintf("use %s, only: %s", g.helperModule(), symbols[0])
	for _, symbol := range symbols[1:] {
		if len(line)+len(symbol)+2 > 72 {
			g.out.linef(1, "%s, &", line)
			line = "   " + symbol
			continue
		}
		line += ", " + symbol
	}
	g.out.linef(1, "%s", line)
}

// helperSymbols collects everything the module imports from the shared
// helper: status codes, is_set helpers, integer unset sentinels, and the
// constants referenced by shapes and lengths.
func (g *generator) helperSymbols(fields []model.Field) []string {
	set := make(map[string]struct{})
	for _, status := range validation.Statuses() {
		set[StatusParamName(status)] = struct{}{}
	}
	for i := range fields {
		field := &fields[i]
		switch field.Type {
		case model.ValueInteger:
			set[isSetFunc(field)] = struct{}{}
			set[unsetName(field.Kind)] = struct{}{}
		case model.ValueReal:
			set[isSetFunc(field)] = struct{}{}
		case model.ValueString:
			set["nml_is_set_string"] = struct{}{}
		}
		for _, dim := range field.Dims {
			if dim.Token != "" {
				set[dim.Token] = struct{}{}
			}
		}
		if field.LengthToken != "" {
			set[field.LengthToken] = struct{}{}
		}
	}
	symbols := make([]string, 0, len(set))
	for symbol := range set {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func (g *generator) needsIEEE(fields []model.Field) bool {
	for i := range fields {
		if fields[i].Type == model.ValueReal && g.defaults[fields[i].Name] == nil {
			return true
		}
	}
	return false
}

func (g *generator) writeParameters(fields []model.Field) {
	wrote := false
	for i := range fields {
		field := &fields[i]
		grid := g.defaults[field.Name]
		if grid != nil {
			raw := rawDefaultValues(field, grid)
			if len(raw) == 1 && (!field.IsArray() || field.Default.Fill == model.FillRepeat) {
				g.out.linef(1, "%s, parameter, public :: %s_default = %s",
					elementSpec(field), field.Name, fliteral.Value(raw[0], field.Kind))
			} else {
				g.out.linef(1, "%s, parameter, public :: %s_default(%d) = %s",
					elementSpec(field), field.Name, len(raw), arrayConstructor(field, raw))
			}
			wrote = true
		}
		if field.Default != nil && field.Default.Fill == model.FillPad {
			pad := field.Default.Pad
			if len(pad) == 1 {
				g.out.linef(1, "%s, parameter, public :: %s_pad = %s",
					elementSpec(field), field.Name, fliteral.Value(pad[0], field.Kind))
			} else {
				g.out.linef(1, "%s, parameter, public :: %s_pad(%d) = %s",
					elementSpec(field), field.Name, len(pad), arrayConstructor(field, pad))
			}
			wrote = true
		}
		if len(field.Enum) > 0 {
			g.out.linef(1, "%s, parameter, public :: %s_enum_values(%d) = %s",
				elementSpec(field), field.Name, len(field.Enum), arrayConstructor(field, field.Enum))
			wrote = true
		}
	}
	if wrote {
		g.out.blank()
	}
}

func (g *generator) writeType(fields []model.Field) {
	g.out.linef(1, "type, public :: %s", g.typeName())
	for i := range fields {
		field := &fields[i]
		spec := elementSpec(field)
		if field.IsArray() {
			spec += ", dimension(" + dimensionList(field) + ")"
		}
		g.out.linef(2, "%s :: %s", spec, field.Name)
	}
	g.out.linef(2, "logical :: configured = .false.")
	g.out.linef(1, "contains")
	for _, op := range []string{"init", "load_from", "set", "is_set", "filled_shape", "is_valid"} {
		g.out.linef(2, "procedure :: %s => %s", op, g.procName(op))
	}
	g.out.linef(1, "end type %s", g.typeName())
}

func (g *generator) writeEnumFunctions(fields []model.Field) {
	for i := range fields {
		field := &fields[i]
		if len(field.Enum) == 0 {
			continue
		}
		g.out.blank()
		g.out.linef(1, "!> Membership test for the %s enum; unset values pass only", field.Name)
		g.out.linef(1, "!> when allow_missing is true.")
		g.out.linef(1, "elemental logical function %s_in_enum(value, allow_missing)", field.Name)
		g.out.linef(2, "%s, intent(in) :: value", dummyElementSpec(field))
		g.out.linef(2, "logical, intent(in), optional :: allow_missing")
		g.out.linef(2, "if (.not. %s(value)) then", isSetFunc(field))
		g.out.linef(3, "%s_in_enum = .false.", field.Name)
		g.out.linef(3, "if (present(allow_missing)) %s_in_enum = allow_missing", field.Name)
		g.out.linef(3, "return")
		g.out.linef(2, "end if")
		g.out.linef(2, "%s_in_enum = any(%s_enum_values == value)", field.Name, field.Name)
		g.out.linef(1, "end function %s_in_enum", field.Name)
	}
}

func (g *generator) writeInit(fields []model.Field) {
	g.out.blank()
	g.out.linef(1, "!> Reset every field to its default, or to the unset sentinel for")
	g.out.linef(1, "!> required fields without one.")
	g.out.linef(1, "integer function %s(this) result(status)", g.procName("init"))
	g.out.linef(2, "class(%s), intent(inout) :: this", g.typeName())
	for i := range fields {
		field := &fields[i]
		g.out.linef(2, "this%%%s = %s", field.Name, g.initExpression(field))
	}
	g.out.linef(2, "this%%configured = .false.")
	g.out.linef(2, "status = %s", StatusParamName(validation.StatusOK))
	g.out.linef(1, "end function %s", g.procName("init"))
}

// initExpression renders the right-hand side of one init assignment.
func (g *generator) initExpression(field *model.Field) string {
	grid := g.defaults[field.Name]
	if grid == nil {
		switch field.Type {
		case model.ValueReal:
			return fmt.Sprintf("ieee_value(0.0%s, ieee_quiet_nan)", kindSuffix(field.Kind))
		case model.ValueInteger:
			return unsetName(field.Kind)
		case model.ValueString:
			return fmt.Sprintf("repeat(achar(0), len(this%%%s))", field.Name)
		}
		return fliteral.Logical(false)
	}

	raw := rawDefaultValues(field, grid)
	if !field.IsArray() {
		return field.Name + "_default"
	}
	spec := field.Default
	if len(raw) == 1 && spec.Fill == model.FillRepeat {
		return field.Name + "_default"
	}
	if len(raw) == field.TotalCells() && field.Rank() == 1 {
		return field.Name + "_default"
	}

	args := []string{field.Name + "_default", "[" + dimensionList(field) + "]"}
	if spec.Order == model.RowMajor {
		order := make([]string, field.Rank())
		for i := range order {
			order[i] = fmt.Sprintf("%d", field.Rank()-i)
		}
		args = append(args, "order=["+strings.Join(order, ", ")+"]")
	}
	switch spec.Fill {
	case model.FillPad:
		if len(spec.Pad) == 1 {
			args = append(args, "pad=["+field.Name+"_pad]")
		} else {
			args = append(args, "pad="+field.Name+"_pad")
		}
	case model.FillRepeat:
		if len(raw) < field.TotalCells() {
			args = append(args, "pad="+field.Name+"_default")
		}
	}
	return "reshape(" + strings.Join(args, ", ") + ")"
}

func (g *generator) writeLoadFrom(fields []model.Field) {
	block := g.model.Block()
	g.out.blank()
	g.out.linef(1, "!> Seed working storage from the current record, read the &%s", block)
	g.out.linef(1, "!> block, and replace the record only when the whole read succeeds.")
	g.out.linef(1, "integer function %s(this, path, message) result(status)", g.procName("load_from"))
	g.out.linef(2, "class(%s), intent(inout) :: this", g.typeName())
	g.out.linef(2, "character(len=*), intent(in) :: path")
	g.out.linef(2, "character(len=*), intent(out), optional :: message")
	for i := range fields {
		field := &fields[i]
		g.out.linef(2, "%s :: %s", localSpec(field), field.Name)
	}
	names := fieldNames(fields)
	g.out.linef(2, "namelist /%s/ %s", block, strings.Join(names, ", "))
	g.out.linef(2, "integer :: unit, ios")
	g.out.linef(2, "logical :: exists")
	g.out.linef(2, "if (present(message)) message = ''")
	for _, name := range names {
		g.out.linef(2, "%s = this%%%s", name, name)
	}
	g.out.linef(2, "inquire(file=path, exist=exists)")
	g.out.linef(2, "if (.not. exists) then")
	g.out.linef(3, "status = %s", StatusParamName(validation.StatusFileNotFound))
	g.out.linef(3, "if (present(message)) message = 'namelist file not found: ' // trim(path)")
	g.out.linef(3, "return")
	g.out.linef(2, "end if")
	g.out.linef(2, "open(newunit=unit, file=path, status='old', action='read', iostat=ios)")
	g.out.linef(2, "if (ios /= 0) then")
	g.out.linef(3, "status = %s", StatusParamName(validation.StatusOpenFailed))
	g.out.linef(3, "if (present(message)) message = 'cannot open: ' // trim(path)")
	g.out.linef(3, "return")
	g.out.linef(2, "end if")
	g.out.linef(2, "read(unit, nml=%s, iostat=ios)", block)
	g.out.linef(2, "if (ios /= 0) then")
	g.out.linef(3, "close(unit)")
	g.out.linef(3, "status = %s", StatusParamName(validation.StatusReadError))
	g.out.linef(3, "if (present(message)) message = 'cannot read &%s from: ' // trim(path)", block)
	g.out.linef(3, "return")
	g.out.linef(2, "end if")
	g.out.linef(2, "close(unit, iostat=ios)")
	g.out.linef(2, "if (ios /= 0) then")
	g.out.linef(3, "status = %s", StatusParamName(validation.StatusCloseError))
	g.out.linef(3, "if (present(message)) message = 'cannot close: ' // trim(path)")
	g.out.linef(3, "return")
	g.out.linef(2, "end if")
	for _, name := range names {
		g.out.linef(2, "this%%%s = %s", name, name)
	}
	g.out.linef(2, "this%%configured = .true.")
	g.out.linef(2, "status = %s", StatusParamName(validation.StatusOK))
	g.out.linef(1, "end function %s", g.procName("load_from"))
}

func (g *generator) writeSet(fields []model.Field) {
	var required, optional []*model.Field
	for i := range fields {
		if fields[i].Required {
			required = append(required, &fields[i])
		} else {
			optional = append(optional, &fields[i])
		}
	}

	args := make([]string, 0, len(fields)+2)
	args = append(args, "this")
	for _, field := range required {
		args = append(args, field.Name)
	}
	for _, field := range optional {
		args = append(args, field.Name)
	}
	args = append(args, "message")

	g.out.blank()
	g.out.linef(1, "!> Assign required fields positionally and optional fields by")
	g.out.linef(1, "!> keyword, keeping values set by earlier calls or loads.")
	g.out.linef(1, "integer function %s(%s) result(status)", g.procName("set"), strings.Join(args, ", "))
	g.out.linef(2, "class(%s), intent(inout) :: this", g.typeName())
	for _, field := range required {
		g.out.linef(2, "%s, intent(in) :: %s", dummySpec(field), field.Name)
	}
	for _, field := range optional {
		g.out.linef(2, "%s, intent(in), optional :: %s", dummySpec(field), field.Name)
	}
	g.out.linef(2, "character(len=*), intent(out), optional :: message")
	g.out.linef(2, "if (present(message)) message = ''")
	for _, field := range required {
		g.out.linef(2, "this%%%s = %s", field.Name, field.Name)
	}
	for _, field := range optional {
		g.out.linef(2, "if (present(%s)) this%%%s = %s", field.Name, field.Name, field.Name)
	}
	g.out.linef(2, "this%%configured = .true.")
	g.out.linef(2, "status = %s", StatusParamName(validation.StatusOK))
	g.out.linef(1, "end function %s", g.procName("set"))
}

func (g *generator) writeIsSet(fields []model.Field) {
	g.out.blank()
	g.out.linef(1, "!> Report whether a field, or one addressed element, holds a live")
	g.out.linef(1, "!> value. Bad names and bad indices are distinct from 'not set'.")
	g.out.linef(1, "integer function %s(this, field, index) result(status)", g.procName("is_set"))
	g.out.linef(2, "class(%s), intent(in) :: this", g.typeName())
	g.out.linef(2, "character(len=*), intent(in) :: field")
	g.out.linef(2, "integer, intent(in), optional :: index(:)")
	g.out.linef(2, "status = %s", StatusParamName(validation.StatusOK))
	g.out.linef(2, "select case (trim(field))")
	for i := range fields {
		field := &fields[i]
		g.out.linef(2, "case ('%s')", field.Name)
		if field.Type == model.ValueLogical {
			if !field.IsArray() {
				g.out.linef(3, "if (present(index)) status = %s", StatusParamName(validation.StatusInvalidIndex))
				continue
			}
			g.out.linef(3, "if (present(index)) then")
			g.out.linef(4, "if (size(index) /= %d) then", field.Rank())
			g.out.linef(5, "status = %s", StatusParamName(validation.StatusInvalidIndex))
			g.out.linef(4, "else if (%s) then", indexBoundsExpr(field))
			g.out.linef(5, "status = %s", StatusParamName(validation.StatusInvalidIndex))
			g.out.linef(4, "end if")
			g.out.linef(3, "end if")
			continue
		}
		if !field.IsArray() {
			g.out.linef(3, "if (present(index)) then")
			g.out.linef(4, "status = %s", StatusParamName(validation.StatusInvalidIndex))
			g.out.linef(3, "else if (.not. %s(this%%%s)) then", isSetFunc(field), field.Name)
			g.out.linef(4, "status = %s", StatusParamName(validation.StatusNotSet))
			g.out.linef(3, "end if")
			continue
		}
		g.out.linef(3, "if (present(index)) then")
		g.out.linef(4, "if (size(index) /= %d) then", field.Rank())
		g.out.linef(5, "status = %s", StatusParamName(validation.StatusInvalidIndex))
		g.out.linef(4, "else if (%s) then", indexBoundsExpr(field))
		g.out.linef(5, "status = %s", StatusParamName(validation.StatusInvalidIndex))
		g.out.linef(4, "else if (.not. %s(this%%%s(%s))) then", isSetFunc(field), field.Name, indexedSubscripts(field))
		g.out.linef(5, "status = %s", StatusParamName(validation.StatusNotSet))
		g.out.linef(4, "end if")
		g.out.linef(3, "else if (.not. all(%s(this%%%s))) then", isSetFunc(field), field.Name)
		g.out.linef(4, "status = %s", StatusParamName(validation.StatusNotSet))
		g.out.linef(3, "end if")
	}
	g.out.linef(2, "case default")
	g.out.linef(3, "status = %s", StatusParamName(validation.StatusInvalidName))
	g.out.linef(2, "end select")
	g.out.linef(1, "end function %s", g.procName("is_set"))
}

func (g *generator) writeFilledShape(fields []model.Field) {
	g.out.blank()
	g.out.linef(1, "!> Compute the filled extent of each flexible trailing dimension and")
	g.out.linef(1, "!> detect holes inside the implied sub-region.")
	g.out.linef(1, "integer function %s(this, field, extents) result(status)", g.procName("filled_shape"))
	g.out.linef(2, "class(%s), intent(in) :: this", g.typeName())
	g.out.linef(2, "character(len=*), intent(in) :: field")
	g.out.linef(2, "integer, intent(out) :: extents(:)")
	g.out.linef(2, "integer :: i")
	g.out.linef(2, "status = %s", StatusParamName(validation.StatusOK))
	g.out.linef(2, "extents = 0")
	g.out.linef(2, "select case (trim(field))")
	for i := range fields {
		field := &fields[i]
		if !field.IsArray() {
			continue
		}
		g.out.linef(2, "case ('%s')", field.Name)
		g.out.linef(3, "extents(1:%d) = [%s]", field.Rank(), dimensionList(field))
		if field.FlexTailDims == 0 {
			continue
		}
		rank := field.Rank()
		for d := rank - field.FlexTailDims; d < rank; d++ {
			g.out.linef(3, "extents(%d) = 0", d+1)
			g.out.linef(3, "do i = %s, 1, -1", dimensionExtent(field, d))
			g.out.linef(4, "if (any(%s(this%%%s(%s)))) then", isSetFunc(field), field.Name, sliceSubscripts(field, d))
			g.out.linef(5, "extents(%d) = i", d+1)
			g.out.linef(5, "exit")
			g.out.linef(4, "end if")
			g.out.linef(3, "end do")
		}
		g.out.linef(3, "if (%s) then", anyExtentZeroExpr(field))
		if field.Required {
			g.out.linef(4, "status = %s", StatusParamName(validation.StatusRequired))
		}
		g.out.linef(4, "return")
		g.out.linef(3, "end if")
		g.out.linef(3, "if (.not. all(%s(this%%%s(%s)))) then", isSetFunc(field), field.Name, regionSubscripts(field))
		g.out.linef(4, "status = %s", StatusParamName(validation.StatusPartlyFilled))
		g.out.linef(3, "end if")
	}
	g.out.linef(2, "case default")
	g.out.linef(3, "status = %s", StatusParamName(validation.StatusInvalidName))
	g.out.linef(2, "end select")
	g.out.linef(1, "end function %s", g.procName("filled_shape"))
}

func (g *generator) writeIsValid(fields []model.Field) {
	g.out.blank()
	g.out.linef(1, "!> Evaluate the compiled checks in declaration order and stop at the")
	g.out.linef(1, "!> first failure: required presence, flexible fill, enums, bounds.")
	g.out.linef(1, "integer function %s(this, message) result(status)", g.procName("is_valid"))
	g.out.linef(2, "class(%s), intent(in) :: this", g.typeName())
	g.out.linef(2, "character(len=*), intent(out), optional :: message")
	if g.hasFlexible(fields) {
		g.out.linef(2, "integer :: extents(%d)", g.maxRank(fields))
	}
	g.out.linef(2, "status = %s", StatusParamName(validation.StatusOK))
	g.out.linef(2, "if (present(message)) message = ''")

	for i := range fields {
		field := &fields[i]
		if !field.Required || field.Type == model.ValueLogical || field.FlexTailDims > 0 {
			continue
		}
		g.out.linef(2, "if (.not. %s) then", wrapAll(fmt.Sprintf("%s(this%%%s)", isSetFunc(field), field.Name), field.IsArray()))
		g.out.linef(3, "status = %s", StatusParamName(validation.StatusRequired))
		g.out.linef(3, "if (present(message)) message = \"required field '%s' is not set\"", field.Name)
		g.out.linef(3, "return")
		g.out.linef(2, "end if")
	}

	for i := range fields {
		field := &fields[i]
		if field.FlexTailDims == 0 {
			continue
		}
		g.out.linef(2, "status = this%%filled_shape('%s', extents)", field.Name)
		g.out.linef(2, "if (status /= %s) then", StatusParamName(validation.StatusOK))
		g.out.linef(3, "if (present(message)) message = \"field '%s' is not completely filled\"", field.Name)
		g.out.linef(3, "return")
		g.out.linef(2, "end if")
	}

	for i := range fields {
		field := &fields[i]
		if len(field.Enum) == 0 {
			continue
		}
		allowMissing := ".false."
		if !field.Required {
			allowMissing = ".true."
		}
		call := fmt.Sprintf("%s_in_enum(this%%%s, allow_missing=%s)", field.Name, field.Name, allowMissing)
		g.out.linef(2, "if (.not. %s) then", wrapAll(call, field.IsArray()))
		g.out.linef(3, "status = %s", StatusParamName(validation.StatusEnumViolation))
		g.out.linef(3, "if (present(message)) message = \"field '%s' holds a value outside its enum\"", field.Name)
		g.out.linef(3, "return")
		g.out.linef(2, "end if")
	}

	for i := range fields {
		field := &fields[i]
		if field.Bounds == nil {
			continue
		}
		violation := fmt.Sprintf("%s(this%%%s) .and. .not. (%s)",
			isSetFunc(field), field.Name, boundsPredicate(field))
		g.out.linef(2, "if (%s) then", wrapAny(violation, field.IsArray()))
		g.out.linef(3, "status = %s", StatusParamName(validation.StatusBoundsViolation))
		g.out.linef(3, "if (present(message)) message = \"field '%s' is out of bounds\"", field.Name)
		g.out.linef(3, "return")
		g.out.linef(2, "end if")
	}

	g.out.linef(1, "end function %s", g.procName("is_valid"))
}

func (g *generator) hasFlexible(fields []model.Field) bool {
	for i := range fields {
		if fields[i].FlexTailDims > 0 {
			return true
		}
	}
	return false
}

func (g *generator) maxRank(fields []model.Field) int {
	max := 1
	for i := range fields {
		if fields[i].Rank() > max {
			max = fields[i].Rank()
		}
	}
	return max
}
