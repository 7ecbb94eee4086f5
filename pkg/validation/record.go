package validation

import (
	"fmt"
	"os"

	"github.com/nmltools/go-nmlgen/pkg/model"
	"github.com/nmltools/go-nmlgen/pkg/namelist"
)

// Record is a mutable instance of a resolved model: working storage for one
// namelist block, driven by the compiled plan. The model and plan stay
// immutable; all mutation happens here.
type Record struct {
	plan       *Plan
	defaults   map[string]*model.MaterializedDefault
	values     [][]any
	configured bool
}

// NewRecord builds a record and initializes its storage: materialized
// defaults where declared, sentinels for everything else.
func NewRecord(plan *Plan, defaults map[string]*model.MaterializedDefault) *Record {
	r := &Record{plan: plan, defaults: defaults}
	r.Init()
	return r
}

// Init resets every field to its materialized default, or to the sentinel
// for required fields without one, and clears the configured flag.
func (r *Record) Init() Status {
	rules := r.plan.Rules()
	r.values = make([][]any, len(rules))
	for i := range rules {
		rule := &rules[i]
		cells := make([]any, rule.TotalCells())
		if grid, ok := r.defaults[rule.Name]; ok {
			copy(cells, grid.Values)
		} else {
			for j := range cells {
				cells[j] = rule.Sentinel
			}
		}
		r.values[i] = cells
	}
	r.configured = false
	return StatusOK
}

// Configured reports whether a load or set has completed successfully.
func (r *Record) Configured() bool {
	return r.configured
}

// Values returns the stored cells for a field (column-major). The slice is a
// copy.
func (r *Record) Values(name string) ([]any, Status) {
	rule, ok := r.plan.Rule(name)
	if !ok {
		return nil, StatusInvalidName
	}
	return append([]any(nil), r.values[rule.Index]...), StatusOK
}

// LoadFrom seeds working storage from the current record state, reads the
// model's block from the file, and atomically replaces the record on
// success. A malformed block leaves the prior state intact.
func (r *Record) LoadFrom(path string) (Status, string) {
	working := r.cloneValues()

	handle, err := namelist.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return StatusFileNotFound, fmt.Sprintf("namelist file %q not found", path)
		}
		return StatusOpenFailed, fmt.Sprintf("cannot open %q: %v", path, err)
	}

	block := r.plan.Model().Block()
	if !handle.Locate(block) {
		_ = handle.Close()
		return StatusBlockNotFound, fmt.Sprintf("block &%s not found in %q", block, path)
	}

	content, err := handle.Read()
	if err != nil {
		_ = handle.Close()
		return StatusReadError, err.Error()
	}

	if status, msg := r.apply(working, content.Assignments); !status.OK() {
		_ = handle.Close()
		return status, msg
	}

	if err := handle.Close(); err != nil {
		return StatusCloseError, err.Error()
	}

	r.values = working
	r.configured = true
	return StatusOK, ""
}

// Set assigns required fields positionally (declaration order) and optional
// fields by name, with the same seed-then-override semantics as LoadFrom but
// without any file access.
func (r *Record) Set(required []any, optional map[string]any) (Status, string) {
	working := r.cloneValues()

	requiredRules := r.requiredRules()
	if len(required) != len(requiredRules) {
		return StatusRequired, fmt.Sprintf("expected %d required values, got %d", len(requiredRules), len(required))
	}
	for i, value := range required {
		if status, msg := r.assign(working, requiredRules[i], nil, value); !status.OK() {
			return status, msg
		}
	}
	for name, value := range optional {
		rule, ok := r.plan.Rule(name)
		if !ok {
			return StatusInvalidName, fmt.Sprintf("unknown field %q", name)
		}
		if status, msg := r.assign(working, rule, nil, value); !status.OK() {
			return status, msg
		}
	}

	r.values = working
	r.configured = true
	return StatusOK, ""
}

// IsSet reports whether a field (or one addressed element) holds a live
// value. Index errors are distinct from "not set".
func (r *Record) IsSet(name string, index ...int) Status {
	rule, ok := r.plan.Rule(name)
	if !ok {
		return StatusInvalidName
	}
	if rule.Type == model.ValueLogical {
		if len(index) > 0 {
			if !rule.IsArray() {
				return StatusInvalidIndex
			}
			if _, ok := linearPosition(rule.Shape, index); !ok {
				return StatusInvalidIndex
			}
		}
		return StatusOK
	}
	cells := r.values[rule.Index]
	if !rule.IsArray() {
		if len(index) > 0 {
			return StatusInvalidIndex
		}
		if rule.IsSentinel(cells[0]) {
			return StatusNotSet
		}
		return StatusOK
	}
	if len(index) == 0 {
		for _, cell := range cells {
			if rule.IsSentinel(cell) {
				return StatusNotSet
			}
		}
		return StatusOK
	}
	pos, ok := linearPosition(rule.Shape, index)
	if !ok {
		return StatusInvalidIndex
	}
	if rule.IsSentinel(cells[pos]) {
		return StatusNotSet
	}
	return StatusOK
}

// FilledShape returns the filled extents of a flexible array field.
func (r *Record) FilledShape(name string) ([]int, Status) {
	rule, ok := r.plan.Rule(name)
	if !ok {
		return nil, StatusInvalidName
	}
	if !rule.IsArray() {
		return nil, StatusInvalidName
	}
	return rule.FilledShape(r.values[rule.Index])
}

// Validate evaluates the compiled plan in declaration order and returns the
// first failure: required presence, flexible fill completeness, enum
// membership, then bounds.
func (r *Record) Validate() (Status, string) {
	rules := r.plan.Rules()

	for i := range rules {
		rule := &rules[i]
		if !rule.Required || rule.Type == model.ValueLogical || rule.FlexTailDims > 0 {
			continue
		}
		for _, cell := range r.values[rule.Index] {
			if rule.IsSentinel(cell) {
				return StatusRequired, fmt.Sprintf("required field %q is not set", rule.Name)
			}
		}
	}

	for i := range rules {
		rule := &rules[i]
		if rule.FlexTailDims == 0 {
			continue
		}
		extents, status := rule.FilledShape(r.values[rule.Index])
		switch status {
		case StatusRequired:
			return status, fmt.Sprintf("required field %q is not set", rule.Name)
		case StatusPartlyFilled:
			return status, fmt.Sprintf("field %q is partly filled within extents %v", rule.Name, extents)
		}
	}

	for i := range rules {
		rule := &rules[i]
		if rule.Enum == nil {
			continue
		}
		for _, cell := range r.values[rule.Index] {
			if rule.IsSentinel(cell) {
				continue
			}
			if !rule.InEnum(cell) {
				return StatusEnumViolation, fmt.Sprintf("field %q value %v is not an allowed value", rule.Name, cell)
			}
		}
	}

	for i := range rules {
		rule := &rules[i]
		if rule.Bounds == nil {
			continue
		}
		for _, cell := range r.values[rule.Index] {
			if rule.IsSentinel(cell) {
				continue
			}
			if !rule.CheckBounds(cell) {
				return StatusBoundsViolation, fmt.Sprintf("field %q value %v is out of bounds", rule.Name, cell)
			}
		}
	}

	return StatusOK, ""
}

func (r *Record) apply(working [][]any, assignments []namelist.Assignment) (Status, string) {
	for _, assign := range assignments {
		rule, ok := r.plan.Rule(assign.Name)
		if !ok {
			return StatusInvalidName, fmt.Sprintf("unknown property %q", assign.Name)
		}
		var index []int
		if len(assign.Index) > 0 {
			index = assign.Index
		}
		value := any(assign.Values)
		if len(assign.Values) == 1 && !rule.IsArray() {
			value = assign.Values[0]
		}
		if status, msg := r.assign(working, rule, index, value); !status.OK() {
			return status, msg
		}
	}
	return StatusOK, ""
}

// assign writes a scalar or a flattened value list into working storage,
// starting at the optional 1-based index and advancing in column-major
// order.
func (r *Record) assign(working [][]any, rule *FieldRule, index []int, value any) (Status, string) {
	cells := working[rule.Index]

	if !rule.IsArray() {
		if len(index) > 0 {
			return StatusInvalidIndex, fmt.Sprintf("field %q is a scalar", rule.Name)
		}
		coerced, err := r.coerce(rule, value)
		if err != nil {
			return StatusReadError, fmt.Sprintf("field %q: %v", rule.Name, err)
		}
		cells[0] = coerced
		return StatusOK, ""
	}

	start := 0
	if len(index) > 0 {
		pos, ok := linearPosition(rule.Shape, index)
		if !ok {
			return StatusInvalidIndex, fmt.Sprintf("field %q: index %v is invalid", rule.Name, index)
		}
		start = pos
	}

	flat := flattenValues(value)
	if start+len(flat) > len(cells) {
		return StatusReadError, fmt.Sprintf("field %q: %d values exceed the declared shape", rule.Name, len(flat))
	}
	for i, raw := range flat {
		coerced, err := r.coerce(rule, raw)
		if err != nil {
			return StatusReadError, fmt.Sprintf("field %q: %v", rule.Name, err)
		}
		cells[start+i] = coerced
	}
	return StatusOK, ""
}

func (r *Record) coerce(rule *FieldRule, raw any) (any, error) {
	value, err := model.Coerce(rule.Type, raw)
	if err != nil {
		return nil, err
	}
	if rule.Type == model.ValueString {
		s := value.(string)
		if rule.Length > 0 && len(s) > rule.Length {
			s = s[:rule.Length]
		}
		return s, nil
	}
	return value, nil
}

func (r *Record) cloneValues() [][]any {
	out := make([][]any, len(r.values))
	for i, cells := range r.values {
		out[i] = append([]any(nil), cells...)
	}
	return out
}

func (r *Record) requiredRules() []*FieldRule {
	rules := r.plan.Rules()
	var out []*FieldRule
	for i := range rules {
		if rules[i].Required {
			out = append(out, &rules[i])
		}
	}
	return out
}

// linearPosition converts a 1-based multi-index to a column-major position.
func linearPosition(shape []int, index []int) (int, bool) {
	if len(index) != len(shape) {
		return 0, false
	}
	pos := 0
	stride := 1
	for k := 0; k < len(shape); k++ {
		i := index[k] - 1
		if i < 0 || i >= shape[k] {
			return 0, false
		}
		pos += i * stride
		stride *= shape[k]
	}
	return pos, true
}

// flattenValues deep-flattens a raw assignment payload.
func flattenValues(value any) []any {
	list, ok := value.([]any)
	if !ok {
		return []any{value}
	}
	var out []any
	for _, item := range list {
		out = append(out, flattenValues(item)...)
	}
	return out
}
