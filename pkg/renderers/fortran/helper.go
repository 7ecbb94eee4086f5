package fortran

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nmltools/go-nmlgen/internal/fliteral"
	"github.com/nmltools/go-nmlgen/pkg/render"
	"github.com/nmltools/go-nmlgen/pkg/validation"
)

// HelperEmitter renders the helper module every generated namelist module
// imports: the shared constants, the status code parameters, the unset
// sentinels, and the elemental is_set predicates.
type HelperEmitter struct{}

// NewHelper constructs the helper module emitter.
func NewHelper() *HelperEmitter {
	return &HelperEmitter{}
}

func (e *HelperEmitter) Name() string {
	return "fortran-helper"
}

func (e *HelperEmitter) ContentType() string {
	return "text/x-fortran"
}

// Render produces the helper module source from the registry alone; no model
// is needed.
func (e *HelperEmitter) Render(_ context.Context, rc render.Context, opts render.Options) ([]byte, error) {
	if rc.Registry == nil {
		return nil, fmt.Errorf("fortran helper emitter: registry is required")
	}

	module := opts.HelperModule
	if module == "" {
		module = "nml_helper"
	}
	reg := rc.Registry

	intKinds := reg.IntegerKinds()
	realKinds := reg.RealKinds()
	sort.Strings(intKinds)
	sort.Strings(realKinds)
	if len(intKinds) == 0 {
		intKinds = []string{""}
	}
	if len(realKinds) == 0 {
		realKinds = []string{""}
	}

	var out indentWriter
	out.linef(0, "!> Shared support for generated namelist modules. Do not edit by hand.")
	out.linef(0, "module %s", module)
	if kinds := importedKinds(intKinds, realKinds); len(kinds) > 0 {
		out.linef(1, "use %s, only: %s", reg.KindModule(), strings.Join(kinds, ", "))
	}
	out.linef(1, "use, intrinsic :: ieee_arithmetic, only: ieee_is_nan")
	out.linef(1, "implicit none")
	out.blank()
	out.linef(1, "private")
	out.blank()

	names := reg.ConstantNames()
	if len(names) > 0 {
		for _, name := range names {
			constant, _ := reg.Constant(name)
			if constant.Doc != "" {
				out.linef(1, "!> %s", constant.Doc)
			}
			if constant.IsInteger() {
				out.linef(1, "integer, parameter, public :: %s = %d", name, constant.Int())
			} else {
				out.linef(1, "real, parameter, public :: %s = %s", name, fliteral.Real(constant.Value, ""))
			}
		}
		out.blank()
	}

	out.linef(1, "!> Result codes shared by every generated module.")
	for _, status := range validation.Statuses() {
		out.linef(1, "integer, parameter, public :: %s = %d", StatusParamName(status), int(status))
	}
	out.blank()

	for _, kind := range intKinds {
		out.linef(1, "%s, parameter, public :: %s = -huge(%s) - %s",
			intSpec(kind), unsetName(kind), intOne(kind), intOne(kind))
	}
	out.blank()

	exported := make([]string, 0, len(intKinds)+len(realKinds)+1)
	for _, kind := range intKinds {
		exported = append(exported, "nml_is_set_"+kindOr(kind, "int"))
	}
	for _, kind := range realKinds {
		exported = append(exported, "nml_is_set_"+kindOr(kind, "real"))
	}
	exported = append(exported, "nml_is_set_string")
	out.linef(1, "public :: %s", strings.Join(exported, ", "))
	out.blank()
	out.linef(0, "contains")

	for _, kind := range intKinds {
		fn := "nml_is_set_" + kindOr(kind, "int")
		out.blank()
		out.linef(1, "!> True when the value differs from the integer unset sentinel.")
		out.linef(1, "elemental logical function %s(value)", fn)
		out.linef(2, "%s, intent(in) :: value", intSpec(kind))
		out.linef(2, "%s = value /= %s", fn, unsetName(kind))
		out.linef(1, "end function %s", fn)
	}

	for _, kind := range realKinds {
		fn := "nml_is_set_" + kindOr(kind, "real")
		spec := "real"
		if kind != "" {
			spec = "real(" + kind + ")"
		}
		out.blank()
		out.linef(1, "!> True when the value is not the NaN unset sentinel.")
		out.linef(1, "elemental logical function %s(value)", fn)
		out.linef(2, "%s, intent(in) :: value", spec)
		out.linef(2, "%s = .not. ieee_is_nan(value)", fn)
		out.linef(1, "end function %s", fn)
	}

	out.blank()
	out.linef(1, "!> True when any character differs from the NUL fill.")
	out.linef(1, "elemental logical function nml_is_set_string(value)")
	out.linef(2, "character(len=*), intent(in) :: value")
	out.linef(2, "nml_is_set_string = value /= repeat(achar(0), len(value))")
	out.linef(1, "end function nml_is_set_string")
	out.blank()
	out.linef(0, "end module %s", module)

	return []byte(out.sb.String()), nil
}

func importedKinds(intKinds, realKinds []string) []string {
	set := make(map[string]struct{})
	for _, kind := range intKinds {
		if kind != "" {
			set[kind] = struct{}{}
		}
	}
	for _, kind := range realKinds {
		if kind != "" {
			set[kind] = struct{}{}
		}
	}
	kinds := make([]string, 0, len(set))
	for kind := range set {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func intSpec(kind string) string {
	if kind == "" {
		return "integer"
	}
	return "integer(" + kind + ")"
}

func intOne(kind string) string {
	if kind == "" {
		return "1"
	}
	return "1_" + kind
}
