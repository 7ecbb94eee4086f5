package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nmltools/go-nmlgen/pkg/registry"
	"github.com/nmltools/go-nmlgen/pkg/resolver"
	"github.com/nmltools/go-nmlgen/pkg/schema"
)

const runSchema = `
type: object
x-fortran-namelist: run
required: [count]
properties:
  count:
    type: integer
    x-fortran-kind: i4
    minimum: 1
  name:
    type: string
    x-fortran-len: 16
  method:
    type: string
    x-fortran-len: 8
    default: DDS
    enum: [DDS, MCMC]
  ratio:
    type: number
    default: 0.5
    minimum: 0.0
    exclusiveMinimum: true
    maximum: 1.0
  weights:
    type: array
    items:
      type: number
    x-fortran-shape: [3]
`

// flexSchema exercises the flexible trailing dimension paths. Flexible
// arrays carry no default, so they are implicitly required.
const flexSchema = `
type: object
x-fortran-namelist: series
properties:
  extras:
    type: array
    items:
      type: number
    x-fortran-shape: [4]
    x-fortran-flex-tail-dims: 1
`

func newRecordFrom(t *testing.T, text string) *Record {
	t.Helper()
	reg, err := registry.New(registry.Kinds{Module: "mo_kind"}, nil, nil)
	if err != nil {
		t.Fatalf("registry.New failed: %v", err)
	}
	doc := schema.MustNewDocument(schema.SourceFromFile("run.yml"), []byte(text))
	raw, err := schema.Parse(doc)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	m, err := resolver.Resolve(raw, reg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	defaults, err := resolver.MaterializeAll(m)
	if err != nil {
		t.Fatalf("MaterializeAll failed: %v", err)
	}
	return NewRecord(Compile(m), defaults)
}

func newTestRecord(t *testing.T) *Record {
	t.Helper()
	return newRecordFrom(t, runSchema)
}

func writeNamelist(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.nml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadFromAndValidate(t *testing.T) {
	record := newTestRecord(t)
	path := writeNamelist(t, `
&run
   count = 3
   name = 'run1'
   weights = 0.1, 0.2, 0.3
/
`)
	if status, msg := record.LoadFrom(path); status != StatusOK {
		t.Fatalf("LoadFrom = %v (%s)", status, msg)
	}
	if !record.Configured() {
		t.Error("record not marked configured")
	}
	if status, msg := record.Validate(); status != StatusOK {
		t.Fatalf("Validate = %v (%s)", status, msg)
	}

	values, status := record.Values("weights")
	if status != StatusOK {
		t.Fatalf("Values(weights) = %v", status)
	}
	if diff := cmp.Diff([]any{0.1, 0.2, 0.3}, values); diff != "" {
		t.Fatalf("weights mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateMissingRequired(t *testing.T) {
	record := newTestRecord(t)
	path := writeNamelist(t, `
&run
   name = 'run1'
   weights = 0.1, 0.2, 0.3
/
`)
	if status, _ := record.LoadFrom(path); status != StatusOK {
		t.Fatalf("LoadFrom = %v", status)
	}
	if status, _ := record.Validate(); status != StatusRequired {
		t.Fatalf("Validate = %v, want Required", status)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	record := newTestRecord(t)
	status, _ := record.LoadFrom(filepath.Join(t.TempDir(), "absent.nml"))
	if status != StatusFileNotFound {
		t.Fatalf("LoadFrom = %v, want FileNotFound", status)
	}
}

func TestLoadFromMissingBlock(t *testing.T) {
	record := newTestRecord(t)
	path := writeNamelist(t, "&other\n count = 1\n/\n")
	if status, _ := record.LoadFrom(path); status != StatusBlockNotFound {
		t.Fatalf("LoadFrom = %v, want BlockNotFound", status)
	}
}

func TestLoadFromUnknownNameKeepsState(t *testing.T) {
	record := newTestRecord(t)
	good := writeNamelist(t, "&run\n count = 3\n name = 'a'\n weights = 1.0, 2.0, 3.0\n/\n")
	if status, _ := record.LoadFrom(good); status != StatusOK {
		t.Fatalf("first LoadFrom failed")
	}

	bad := writeNamelist(t, "&run\n ghost = 1\n/\n")
	if status, _ := record.LoadFrom(bad); status != StatusInvalidName {
		t.Fatalf("LoadFrom = %v, want InvalidName", status)
	}

	// The failed load must not disturb the previous state.
	values, _ := record.Values("count")
	if values[0].(int64) != 3 {
		t.Fatalf("count = %v after failed load, want 3", values[0])
	}
}

func TestSeedThenOverride(t *testing.T) {
	record := newTestRecord(t)
	first := writeNamelist(t, "&run\n count = 3\n name = 'a'\n weights = 1.0, 2.0, 3.0\n/\n")
	if status, _ := record.LoadFrom(first); status != StatusOK {
		t.Fatal("first load failed")
	}
	second := writeNamelist(t, "&run\n count = 9\n/\n")
	if status, _ := record.LoadFrom(second); status != StatusOK {
		t.Fatal("second load failed")
	}

	count, _ := record.Values("count")
	if count[0].(int64) != 9 {
		t.Errorf("count = %v, want 9", count[0])
	}
	name, _ := record.Values("name")
	if name[0].(string) != "a" {
		t.Errorf("name lost its earlier value: %q", name[0])
	}
}

func TestIsSetSemantics(t *testing.T) {
	record := newTestRecord(t)

	if got := record.IsSet("ghost"); got != StatusInvalidName {
		t.Errorf("IsSet(ghost) = %v", got)
	}
	if got := record.IsSet("count"); got != StatusNotSet {
		t.Errorf("IsSet(count) = %v, want NotSet", got)
	}
	if got := record.IsSet("count", 1); got != StatusInvalidIndex {
		t.Errorf("IsSet(count, 1) = %v, want InvalidIndex", got)
	}
	if got := record.IsSet("method"); got != StatusOK {
		t.Errorf("IsSet(method) = %v, want OK via default", got)
	}
	if got := record.IsSet("weights", 4); got != StatusInvalidIndex {
		t.Errorf("IsSet(weights, 4) = %v, want InvalidIndex", got)
	}
	if got := record.IsSet("weights", 1, 1); got != StatusInvalidIndex {
		t.Errorf("IsSet(weights, 1, 1) = %v, want rank mismatch", got)
	}
	if got := record.IsSet("weights", 2); got != StatusNotSet {
		t.Errorf("IsSet(weights, 2) = %v, want NotSet", got)
	}
}

const switchSchema = `
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
`

func TestIsSetLogicalIndexChecks(t *testing.T) {
	record := newRecordFrom(t, switchSchema)

	if got := record.IsSet("enabled"); got != StatusOK {
		t.Errorf("IsSet(enabled) = %v, want OK via default", got)
	}
	if got := record.IsSet("enabled", 1); got != StatusInvalidIndex {
		t.Errorf("IsSet(enabled, 1) = %v, want InvalidIndex", got)
	}
	if got := record.IsSet("flags"); got != StatusOK {
		t.Errorf("IsSet(flags) = %v, want OK via default", got)
	}
	if got := record.IsSet("flags", 2); got != StatusOK {
		t.Errorf("IsSet(flags, 2) = %v, want OK", got)
	}
	if got := record.IsSet("flags", 99); got != StatusInvalidIndex {
		t.Errorf("IsSet(flags, 99) = %v, want InvalidIndex", got)
	}
	if got := record.IsSet("flags", 0); got != StatusInvalidIndex {
		t.Errorf("IsSet(flags, 0) = %v, want InvalidIndex", got)
	}
	if got := record.IsSet("flags", 1, 1); got != StatusInvalidIndex {
		t.Errorf("IsSet(flags, 1, 1) = %v, want InvalidIndex", got)
	}
}

func TestSetPositionalAndOptional(t *testing.T) {
	record := newTestRecord(t)

	// Required in declaration order: count, name, weights.
	status, msg := record.Set(
		[]any{2, "run1", []any{0.1, 0.2, 0.3}},
		map[string]any{"method": "MCMC"},
	)
	if status != StatusOK {
		t.Fatalf("Set = %v (%s)", status, msg)
	}
	if status, msg := record.Validate(); status != StatusOK {
		t.Fatalf("Validate = %v (%s)", status, msg)
	}
	method, _ := record.Values("method")
	if method[0].(string) != "MCMC" {
		t.Errorf("method = %q", method[0])
	}
}

func TestSetWrongArity(t *testing.T) {
	record := newTestRecord(t)
	if status, _ := record.Set([]any{1}, nil); status != StatusRequired {
		t.Fatalf("Set = %v, want Required", status)
	}
}

func TestSetUnknownOptional(t *testing.T) {
	record := newTestRecord(t)
	status, _ := record.Set([]any{2, "a", []any{1.0, 2.0, 3.0}}, map[string]any{"ghost": 1})
	if status != StatusInvalidName {
		t.Fatalf("Set = %v, want InvalidName", status)
	}
}

func TestValidateEnumViolation(t *testing.T) {
	record := newTestRecord(t)
	status, _ := record.Set(
		[]any{2, "a", []any{1.0, 1.0, 1.0}},
		map[string]any{"method": "SCE"},
	)
	if status != StatusOK {
		t.Fatalf("Set = %v", status)
	}
	if status, _ := record.Validate(); status != StatusEnumViolation {
		t.Fatalf("Validate = %v, want EnumViolation", status)
	}
}

func TestValidateBoundsViolation(t *testing.T) {
	record := newTestRecord(t)
	status, _ := record.Set(
		[]any{2, "a", []any{1.0, 1.0, 1.0}},
		map[string]any{"ratio": 0.0},
	)
	if status != StatusOK {
		t.Fatalf("Set = %v", status)
	}
	if status, _ := record.Validate(); status != StatusBoundsViolation {
		t.Fatalf("Validate = %v, want exclusive minimum violation", status)
	}
}

func TestValidateFlexibleHole(t *testing.T) {
	record := newRecordFrom(t, flexSchema)
	path := writeNamelist(t, `
&series
   extras(1) = 5.0
   extras(3) = 7.0
/
`)
	if status, _ := record.LoadFrom(path); status != StatusOK {
		t.Fatal("LoadFrom failed")
	}
	if status, _ := record.Validate(); status != StatusPartlyFilled {
		t.Fatalf("Validate = %v, want PartlyFilled", status)
	}
}

func TestValidateFlexibleEmptyIsRequired(t *testing.T) {
	record := newRecordFrom(t, flexSchema)
	if status, _ := record.Validate(); status != StatusRequired {
		t.Fatalf("Validate = %v, want Required for an empty flexible field", status)
	}
}

func TestFilledShapeThroughRecord(t *testing.T) {
	record := newRecordFrom(t, flexSchema)
	path := writeNamelist(t, `
&series
   extras = 5.0, 6.0
/
`)
	if status, _ := record.LoadFrom(path); status != StatusOK {
		t.Fatal("LoadFrom failed")
	}
	extents, status := record.FilledShape("extras")
	if status != StatusOK {
		t.Fatalf("FilledShape = %v", status)
	}
	if diff := cmp.Diff([]int{2}, extents); diff != "" {
		t.Fatalf("extents mismatch (-want +got):\n%s", diff)
	}
	if status, msg := record.Validate(); status != StatusOK {
		t.Fatalf("Validate = %v (%s)", status, msg)
	}
}

func TestStringTruncationToDeclaredLength(t *testing.T) {
	record := newTestRecord(t)
	status, _ := record.Set(
		[]any{2, "a-very-long-run-name-indeed", []any{1.0, 1.0, 1.0}},
		nil,
	)
	if status != StatusOK {
		t.Fatalf("Set = %v", status)
	}
	name, _ := record.Values("name")
	if got := name[0].(string); len(got) != 16 {
		t.Fatalf("name length = %d, want truncation to 16", len(got))
	}
}

func TestAssignOverflowIsReadError(t *testing.T) {
	record := newTestRecord(t)
	path := writeNamelist(t, "&run\n weights = 1.0, 2.0, 3.0, 4.0\n/\n")
	if status, _ := record.LoadFrom(path); status != StatusReadError {
		t.Fatalf("LoadFrom = %v, want ReadError", status)
	}
}

// endToEndSchema mirrors the canonical three-field block: a required
// integer, a defaulted string, and a defaulted real array.
const endToEndSchema = `
type: object
x-fortran-namelist: run
required: [count]
properties:
  count:
    type: integer
  name:
    type: string
    x-fortran-len: 16
    default: run1
  weights:
    type: array
    default: [0.1, 0.2, 0.3]
    items:
      type: number
    x-fortran-shape: [3]
`

func TestEndToEndDefaults(t *testing.T) {
	record := newRecordFrom(t, endToEndSchema)
	path := writeNamelist(t, "&run\n count = 5\n/\n")
	if status, msg := record.LoadFrom(path); status != StatusOK {
		t.Fatalf("LoadFrom = %v (%s)", status, msg)
	}
	if status, msg := record.Validate(); status != StatusOK {
		t.Fatalf("Validate = %v (%s)", status, msg)
	}

	name, _ := record.Values("name")
	if name[0].(string) != "run1" {
		t.Errorf("name = %q, want run1", name[0])
	}
	weights, _ := record.Values("weights")
	if diff := cmp.Diff([]any{0.1, 0.2, 0.3}, weights); diff != "" {
		t.Errorf("weights mismatch (-want +got):\n%s", diff)
	}
}

func TestEndToEndMissingCount(t *testing.T) {
	record := newRecordFrom(t, endToEndSchema)
	path := writeNamelist(t, "&run\n name = 'other'\n/\n")
	if status, _ := record.LoadFrom(path); status != StatusOK {
		t.Fatal("LoadFrom failed")
	}
	status, msg := record.Validate()
	if status != StatusRequired {
		t.Fatalf("Validate = %v, want Required", status)
	}
	if !strings.Contains(msg, "count") {
		t.Errorf("message %q does not name the field", msg)
	}
}

func TestSentinelExclusivityAfterAssignment(t *testing.T) {
	record := newRecordFrom(t, `
type: object
x-fortran-namelist: run
required: [threshold]
properties:
  threshold:
    type: number
`)
	if got := record.IsSet("threshold"); got != StatusNotSet {
		t.Fatalf("IsSet = %v before assignment", got)
	}
	if status, _ := record.Set([]any{0.2}, nil); status != StatusOK {
		t.Fatal("Set failed")
	}
	if got := record.IsSet("threshold"); got != StatusOK {
		t.Fatalf("IsSet = %v after assigning 0.2", got)
	}
}

func TestInitRestoresDefaults(t *testing.T) {
	record := newTestRecord(t)
	status, _ := record.Set(
		[]any{2, "a", []any{1.0, 1.0, 1.0}},
		map[string]any{"method": "MCMC"},
	)
	if status != StatusOK {
		t.Fatal("Set failed")
	}
	record.Init()
	if record.Configured() {
		t.Error("Init left the record configured")
	}
	method, _ := record.Values("method")
	if method[0].(string) != "DDS" {
		t.Errorf("method = %q after Init, want default", method[0])
	}
	if got := record.IsSet("count"); got != StatusNotSet {
		t.Errorf("IsSet(count) = %v after Init", got)
	}
}
