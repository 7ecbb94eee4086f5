package validation

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nmltools/go-nmlgen/pkg/model"
)

func compileFields(t *testing.T, fields ...model.Field) *Plan {
	t.Helper()
	m, err := model.New("run", "", "", fields)
	if err != nil {
		t.Fatalf("model.New failed: %v", err)
	}
	return Compile(m)
}

func TestSentinelRealIsBitExact(t *testing.T) {
	plan := compileFields(t, model.Field{Name: "x", Type: model.ValueReal})
	rule, _ := plan.Rule("x")

	if !rule.IsSentinel(SentinelReal()) {
		t.Error("sentinel not recognized")
	}
	if rule.IsSentinel(0.2) {
		t.Error("ordinary value flagged as sentinel")
	}
	// A NaN produced by arithmetic has a different payload and stays "set".
	if rule.IsSentinel(math.NaN()) {
		t.Error("arithmetic NaN flagged as sentinel")
	}
	if !math.IsNaN(SentinelReal()) {
		t.Error("sentinel must be a NaN")
	}
}

func TestSentinelIntegerWidths(t *testing.T) {
	if got := SentinelInteger("i4"); got != math.MinInt32 {
		t.Errorf("SentinelInteger(i4) = %d, want %d", got, math.MinInt32)
	}
	if got := SentinelInteger("i8"); got != math.MinInt64 {
		t.Errorf("SentinelInteger(i8) = %d, want %d", got, int64(math.MinInt64))
	}
	if got := SentinelInteger(""); got != math.MinInt32 {
		t.Errorf("SentinelInteger(default) = %d, want 32-bit minimum", got)
	}
}

func TestSentinelString(t *testing.T) {
	plan := compileFields(t, model.Field{Name: "name", Type: model.ValueString, Length: 4})
	rule, _ := plan.Rule("name")
	if !rule.IsSentinel("\x00\x00\x00\x00") {
		t.Error("NUL fill not recognized as sentinel")
	}
	if rule.IsSentinel("abcd") || rule.IsSentinel("") {
		t.Error("live strings flagged as sentinel")
	}
}

func TestStringEnumNormalization(t *testing.T) {
	plan := compileFields(t, model.Field{
		Name: "method", Type: model.ValueString, Length: 8,
		Enum: []any{"DDS", "MCMC"},
	})
	rule, _ := plan.Rule("method")

	for _, value := range []any{"DDS", "dds", "DDS     ", "DDS\x00\x00"} {
		if !rule.InEnum(value) {
			t.Errorf("InEnum(%q) = false, want true", value)
		}
	}
	if rule.InEnum("SCE") {
		t.Error("InEnum accepted a non-member")
	}
}

func TestIntegerEnum(t *testing.T) {
	plan := compileFields(t, model.Field{
		Name: "size", Type: model.ValueInteger,
		Enum: []any{int64(5), int64(10), int64(15), int64(20), int64(30)},
	})
	rule, _ := plan.Rule("size")
	if !rule.InEnum(int64(15)) {
		t.Error("InEnum(15) = false")
	}
	if rule.InEnum(int64(12)) {
		t.Error("InEnum(12) = true")
	}
}

func TestCheckBoundsExclusive(t *testing.T) {
	minimum, maximum := 0.0, 1.0
	plan := compileFields(t, model.Field{
		Name: "ratio", Type: model.ValueReal,
		Bounds: &model.Bounds{Min: &minimum, MinExclusive: true, Max: &maximum, MaxExclusive: true},
	})
	rule, _ := plan.Rule("ratio")

	cases := []struct {
		value float64
		want  bool
	}{
		{0.0, false},
		{0.001, true},
		{0.999, true},
		{1.0, false},
	}
	for _, tc := range cases {
		if got := rule.CheckBounds(tc.value); got != tc.want {
			t.Errorf("CheckBounds(%v) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestCheckBoundsInclusiveInteger(t *testing.T) {
	minimum := 10.0
	plan := compileFields(t, model.Field{
		Name: "count", Type: model.ValueInteger,
		Bounds: &model.Bounds{Min: &minimum},
	})
	rule, _ := plan.Rule("count")
	if !rule.CheckBounds(int64(10)) {
		t.Error("inclusive minimum rejected the boundary value")
	}
	if rule.CheckBounds(int64(9)) {
		t.Error("CheckBounds(9) = true")
	}
}

func flexRule(t *testing.T) *FieldRule {
	t.Helper()
	plan := compileFields(t, model.Field{
		Name: "coeffs", Type: model.ValueReal, Required: true,
		Dims:         []model.Dimension{{Extent: 3}, {Extent: 2}, {Extent: 4}},
		FlexTailDims: 2,
	})
	rule, _ := plan.Rule("coeffs")
	return rule
}

// fill sets the cells with the given 0-based multi-indices, leaving the rest
// at the sentinel.
func fillCells(rule *FieldRule, indices [][]int) []any {
	values := make([]any, rule.TotalCells())
	for i := range values {
		values[i] = SentinelReal()
	}
	for _, index := range indices {
		pos := 0
		stride := 1
		for k, extent := range rule.Shape {
			pos += index[k] * stride
			stride *= extent
		}
		values[pos] = 1.0
	}
	return values
}

func TestFilledShapeClean(t *testing.T) {
	rule := flexRule(t)
	values := fillCells(rule, [][]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}})
	extents, status := rule.FilledShape(values)
	if status != StatusOK {
		t.Fatalf("status = %v, want OK", status)
	}
	if diff := cmp.Diff([]int{3, 1, 1}, extents); diff != "" {
		t.Fatalf("extents mismatch (-want +got):\n%s", diff)
	}
}

func TestFilledShapeHoleIsPartlyFilled(t *testing.T) {
	rule := flexRule(t)
	// (1,0,0) missing inside the implied 3x1x1 region.
	values := fillCells(rule, [][]int{{0, 0, 0}, {2, 0, 0}})
	_, status := rule.FilledShape(values)
	if status != StatusPartlyFilled {
		t.Fatalf("status = %v, want PartlyFilled", status)
	}
}

// fillSlab sets every cell of the first dimension at the given trailing
// indices (0-based).
func fillSlab(rule *FieldRule, values []any, j, k int) {
	for i := 0; i < rule.Shape[0]; i++ {
		pos := i + j*rule.Shape[0] + k*rule.Shape[0]*rule.Shape[1]
		values[pos] = 1.0
	}
}

func TestFilledShapeSlabHole(t *testing.T) {
	rule := flexRule(t)
	values := fillCells(rule, nil)
	fillSlab(rule, values, 0, 0)
	fillSlab(rule, values, 1, 0)
	fillSlab(rule, values, 1, 1)
	// Slab (0,1) stays empty inside the implied 3x2x2 region.
	_, status := rule.FilledShape(values)
	if status != StatusPartlyFilled {
		t.Fatalf("status = %v, want PartlyFilled", status)
	}
}

func TestFilledShapeEmptyRequired(t *testing.T) {
	rule := flexRule(t)
	values := fillCells(rule, nil)
	_, status := rule.FilledShape(values)
	if status != StatusRequired {
		t.Fatalf("status = %v, want Required", status)
	}
}

func TestFilledShapeEmptyOptional(t *testing.T) {
	plan := compileFields(t, model.Field{
		Name: "extra", Type: model.ValueReal,
		Dims:         []model.Dimension{{Extent: 4}},
		FlexTailDims: 1,
	})
	rule, _ := plan.Rule("extra")
	values := make([]any, 4)
	for i := range values {
		values[i] = SentinelReal()
	}
	extents, status := rule.FilledShape(values)
	if status != StatusOK || extents[0] != 0 {
		t.Fatalf("extents/status = %v/%v, want [0]/OK", extents, status)
	}
}

func TestFilledShapeNonFlexReportsDeclared(t *testing.T) {
	plan := compileFields(t, model.Field{
		Name: "grid", Type: model.ValueInteger,
		Dims: []model.Dimension{{Extent: 2}, {Extent: 3}},
	})
	rule, _ := plan.Rule("grid")
	extents, status := rule.FilledShape(make([]any, 6))
	if status != StatusOK {
		t.Fatalf("status = %v", status)
	}
	if diff := cmp.Diff([]int{2, 3}, extents); diff != "" {
		t.Fatalf("extents mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusValuesAreStable(t *testing.T) {
	want := map[Status]int{
		StatusOK:              0,
		StatusFileNotFound:    1,
		StatusOpenFailed:      2,
		StatusNotOpen:         3,
		StatusBlockNotFound:   4,
		StatusReadError:       5,
		StatusCloseError:      6,
		StatusRequired:        7,
		StatusEnumViolation:   8,
		StatusNotSet:          9,
		StatusPartlyFilled:    10,
		StatusBoundsViolation: 11,
		StatusInvalidName:     12,
		StatusInvalidIndex:    13,
	}
	for status, value := range want {
		if int(status) != value {
			t.Errorf("%v = %d, want %d", status, int(status), value)
		}
	}
	if len(Statuses()) != len(want) {
		t.Errorf("Statuses() has %d entries, want %d", len(Statuses()), len(want))
	}
}
