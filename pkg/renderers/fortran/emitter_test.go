package fortran

import (
	"context"
	"strings"
	"testing"

	"github.com/nmltools/go-nmlgen/pkg/registry"
	"github.com/nmltools/go-nmlgen/pkg/render"
	"github.com/nmltools/go-nmlgen/pkg/resolver"
	"github.com/nmltools/go-nmlgen/pkg/schema"
	"github.com/nmltools/go-nmlgen/pkg/validation"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(
		registry.Kinds{
			Module:  "mo_kind",
			Real:    []string{"wp"},
			Integer: []string{"i4"},
		},
		map[string]registry.ConstantEntry{
			"max_layers": {Value: 5, Doc: "Maximum number of layers"},
			"name_len":   {Value: 16},
		},
		nil,
	)
	if err != nil {
		t.Fatalf("registry.New failed: %v", err)
	}
	return reg
}

func plainRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(registry.Kinds{Module: "iso_fortran_env"}, nil, nil)
	if err != nil {
		t.Fatalf("registry.New failed: %v", err)
	}
	return reg
}

func renderContext(t *testing.T, text string) render.Context {
	t.Helper()
	reg := testRegistry(t)
	doc := schema.MustNewDocument(schema.SourceFromFile("test.yml"), []byte(text))
	raw, err := schema.Parse(doc)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	m, err := resolver.Resolve(raw, reg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	rc, err := render.NewContext(m, reg)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	return rc
}

const optimizationSchema = `
type: object
title: Optimization settings
x-fortran-namelist: optimization
required: [count]
properties:
  count:
    type: integer
    minimum: 1
  ratio:
    type: number
  name:
    type: string
    x-fortran-len: name_len
  method:
    type: string
    x-fortran-len: 8
    default: DDS
    enum: [DDS, MCMC]
  try_methods:
    type: array
    items:
      type: string
      x-fortran-len: 8
      default: DDS
      enum: [DDS, MCMC]
    x-fortran-shape: [3]
  values:
    type: array
    items:
      type: integer
      x-fortran-kind: i4
      default: 1
    x-fortran-shape: [max_layers]
  matrix:
    type: array
    default: [1, 2, 3]
    items:
      type: integer
      x-fortran-kind: i4
    x-fortran-shape: [2, 2]
    x-fortran-default-order: "C"
    x-fortran-default-pad: 0
  tolerance:
    type: number
    x-fortran-kind: wp
    default: 0.5
    minimum: 0.0
    exclusiveMinimum: true
    maximum: 1.0
  coeffs:
    type: array
    items:
      type: number
      x-fortran-kind: wp
    x-fortran-shape: [3, 2]
    x-fortran-flex-tail-dims: 1
`

func renderModule(t *testing.T) string {
	t.Helper()
	rc := renderContext(t, optimizationSchema)
	out, err := New().Render(context.Background(), rc, render.Options{
		KindModule:   "mo_kind",
		HelperModule: "nml_helper",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return string(out)
}

func wantFragments(t *testing.T, text string, fragments []string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(text, fragment) {
			t.Errorf("output is missing %q", fragment)
		}
	}
}

func TestRenderModuleStructure(t *testing.T) {
	text := renderModule(t)
	wantFragments(t, text, []string{
		"module nml_optimization",
		"use mo_kind, only: i4, wp",
		"use, intrinsic :: ieee_arithmetic, only: ieee_value, ieee_quiet_nan",
		"use nml_helper, only:",
		"type, public :: optimization_t",
		"logical :: configured = .false.",
		"procedure :: init => optimization_init",
		"procedure :: load_from => optimization_load_from",
		"procedure :: is_valid => optimization_is_valid",
		"end module nml_optimization",
	})
}

func TestRenderDeclarations(t *testing.T) {
	text := renderModule(t)
	wantFragments(t, text, []string{
		"integer :: count",
		"real :: ratio",
		"character(len=name_len) :: name",
		"character(len=8) :: method",
		"integer(i4), dimension(max_layers) :: values",
		"integer(i4), dimension(2, 2) :: matrix",
		"real(wp), dimension(3, 2) :: coeffs",
	})
}

func TestRenderDefaultParameters(t *testing.T) {
	text := renderModule(t)
	wantFragments(t, text, []string{
		"integer(i4), parameter, public :: values_default = 1_i4",
		"integer(i4), parameter, public :: matrix_default(3) = [1_i4, 2_i4, 3_i4]",
		"integer(i4), parameter, public :: matrix_pad = 0_i4",
		"character(len=8), parameter, public :: method_enum_values(2) = [character(len=8) :: 'DDS', 'MCMC']",
		"real(wp), parameter, public :: tolerance_default = 0.5_wp",
	})
}

func TestRenderInit(t *testing.T) {
	text := renderModule(t)
	wantFragments(t, text, []string{
		"this%count = nml_unset_int",
		"this%ratio = ieee_value(0.0, ieee_quiet_nan)",
		"this%name = repeat(achar(0), len(this%name))",
		"this%method = method_default",
		"this%values = values_default",
		"this%matrix = reshape(matrix_default, [2, 2], order=[2, 1], pad=[matrix_pad])",
		"this%tolerance = tolerance_default",
		"this%configured = .false.",
	})
}

func TestRenderLoadFrom(t *testing.T) {
	text := renderModule(t)
	wantFragments(t, text, []string{
		"namelist /optimization/ count, ratio, name, method, try_methods, values, matrix, tolerance, coeffs",
		"inquire(file=path, exist=exists)",
		"status = NML_STATUS_FILE_NOT_FOUND",
		"open(newunit=unit, file=path, status='old', action='read', iostat=ios)",
		"read(unit, nml=optimization, iostat=ios)",
		"status = NML_STATUS_READ_ERROR",
		"this%configured = .true.",
	})
}

func TestRenderEnumFunctions(t *testing.T) {
	text := renderModule(t)
	wantFragments(t, text, []string{
		"elemental logical function method_in_enum(value, allow_missing)",
		"method_in_enum = any(method_enum_values == value)",
		"elemental logical function try_methods_in_enum(value, allow_missing)",
	})
}

func TestRenderIsValid(t *testing.T) {
	text := renderModule(t)
	wantFragments(t, text, []string{
		"if (.not. nml_is_set_int(this%count)) then",
		"status = NML_STATUS_REQUIRED",
		"status = this%filled_shape('coeffs', extents)",
		"all(try_methods_in_enum(this%try_methods, allow_missing=.true.))",
		"method_in_enum(this%method, allow_missing=.true.)",
		"this%tolerance > 0.0_wp .and. this%tolerance <= 1.0_wp",
		"status = NML_STATUS_BOUNDS_VIOLATION",
		"this%count >= 1",
	})
}

func TestRenderFilledShape(t *testing.T) {
	text := renderModule(t)
	wantFragments(t, text, []string{
		"integer function optimization_filled_shape(this, field, extents) result(status)",
		"case ('coeffs')",
		"do i = 2, 1, -1",
		"if (any(nml_is_set_wp(this%coeffs(:, i)))) then",
		"status = NML_STATUS_PARTLY_FILLED",
	})
}

func TestRenderIsSet(t *testing.T) {
	text := renderModule(t)
	wantFragments(t, text, []string{
		"integer function optimization_is_set(this, field, index) result(status)",
		"case ('count')",
		"status = NML_STATUS_INVALID_INDEX",
		"status = NML_STATUS_NOT_SET",
		"case default",
		"status = NML_STATUS_INVALID_NAME",
	})
}

func TestRenderIsSetLogicalArray(t *testing.T) {
	rc := renderContext(t, `
type: object
x-fortran-namelist: switches
properties:
  enabled:
    type: boolean
  flags:
    type: array
    items:
      type: boolean
    x-fortran-shape: [2]
`)
	out, err := New().Render(context.Background(), rc, render.Options{
		KindModule:   "mo_kind",
		HelperModule: "nml_helper",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	text := string(out)
	wantFragments(t, text, []string{
		"case ('enabled')",
		"if (present(index)) status = NML_STATUS_INVALID_INDEX",
		"case ('flags')",
		"if (size(index) /= 1) then",
		"else if (index(1) < 1 .or. index(1) > 2) then",
	})
	// Logicals always hold a value, so the flags case never reports NotSet.
	flagsCase := text[strings.Index(text, "case ('flags')"):]
	if end := strings.Index(flagsCase, "case default"); end >= 0 {
		flagsCase = flagsCase[:end]
	}
	if strings.Contains(flagsCase, "NML_STATUS_NOT_SET") {
		t.Errorf("logical array case reports NotSet:\n%s", flagsCase)
	}
}

func TestStatusParamName(t *testing.T) {
	cases := map[validation.Status]string{
		validation.StatusOK:              "NML_STATUS_OK",
		validation.StatusFileNotFound:    "NML_STATUS_FILE_NOT_FOUND",
		validation.StatusPartlyFilled:    "NML_STATUS_PARTLY_FILLED",
		validation.StatusBoundsViolation: "NML_STATUS_BOUNDS_VIOLATION",
	}
	for status, want := range cases {
		if got := StatusParamName(status); got != want {
			t.Errorf("StatusParamName(%v) = %q, want %q", status, got, want)
		}
	}
}

func TestRenderModuleDocBanner(t *testing.T) {
	rc := renderContext(t, optimizationSchema)
	out, err := New().Render(context.Background(), rc, render.Options{
		KindModule: "mo_kind",
		ModuleDoc:  "Generated configuration modules",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.HasPrefix(string(out), "!> Generated configuration modules\n") {
		t.Error("module doc banner missing")
	}
}
