// Package validation compiles a resolved model into the sentinel scheme,
// enum/bounds predicates, and fill-detection algorithm, and executes them
// against record instances. Compilation happens once per model; the plan is
// an index-based table with no per-call string dispatch.
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/nmltools/go-nmlgen/pkg/model"
	"github.com/nmltools/go-nmlgen/pkg/registry"
)

// sentinelRealBits is the exact quiet-NaN bit pattern reserved for "unset".
// Comparison is bit-exact, so ordinary NaNs produced by arithmetic still
// count as set.
const sentinelRealBits = 0x7FF8_0000_0000_0001

// SentinelReal returns the reserved real sentinel.
func SentinelReal() float64 {
	return math.Float64frombits(sentinelRealBits)
}

// SentinelInteger returns the most negative representable value for an
// integer kind token.
func SentinelInteger(kind string) int64 {
	bits := registry.IntegerKindBits(kind)
	return -1 << (bits - 1)
}

// SentinelString returns a string of zero bytes at the declared length.
func SentinelString(length int) string {
	return strings.Repeat("\x00", length)
}

// FieldRule is the compiled per-field entry of a validation plan.
type FieldRule struct {
	Index        int
	Name         string
	Type         model.ValueType
	Shape        []int
	FlexTailDims int
	Required     bool
	Length       int

	// Sentinel is the per-element unset marker; nil for logicals, which
	// always carry a default and therefore have no unset state.
	Sentinel any

	Enum    []any
	enumSet map[any]struct{}
	Bounds  *model.Bounds
}

// Plan is the compiled validation table for one model.
type Plan struct {
	model *model.Model
	rules []FieldRule
}

// Compile builds the plan. Rules keep the model's declaration order, which
// also fixes the short-circuit order of Check.
func Compile(m *model.Model) *Plan {
	rules := make([]FieldRule, 0, m.Len())
	for i := 0; i < m.Len(); i++ {
		field := m.FieldAt(i)
		rule := FieldRule{
			Index:        i,
			Name:         field.Name,
			Type:         field.Type,
			Shape:        field.Shape(),
			FlexTailDims: field.FlexTailDims,
			Required:     field.Required,
			Length:       field.Length,
			Bounds:       field.Bounds,
		}
		switch field.Type {
		case model.ValueReal:
			rule.Sentinel = SentinelReal()
		case model.ValueInteger:
			rule.Sentinel = SentinelInteger(field.Kind)
		case model.ValueString:
			rule.Sentinel = SentinelString(field.Length)
		}
		if len(field.Enum) > 0 {
			rule.Enum = append([]any(nil), field.Enum...)
			rule.enumSet = make(map[any]struct{}, len(field.Enum))
			for _, member := range field.Enum {
				rule.enumSet[normalizeEnumKey(member)] = struct{}{}
			}
		}
		rules = append(rules, rule)
	}
	return &Plan{model: m, rules: rules}
}

// Model returns the model the plan was compiled from.
func (p *Plan) Model() *model.Model {
	return p.model
}

// Rules returns the compiled rules in declaration order.
func (p *Plan) Rules() []FieldRule {
	return p.rules
}

// Rule looks up a rule by field name.
func (p *Plan) Rule(name string) (*FieldRule, bool) {
	i, ok := p.model.FieldIndex(name)
	if !ok {
		return nil, false
	}
	return &p.rules[i], true
}

// IsArray reports array cardinality.
func (r *FieldRule) IsArray() bool {
	return len(r.Shape) > 0
}

// TotalCells returns the declared cell count (1 for scalars).
func (r *FieldRule) TotalCells() int {
	total := 1
	for _, extent := range r.Shape {
		total *= extent
	}
	return total
}

// IsSentinel reports whether a stored element holds the unset marker.
// Reals compare by exact bit pattern, everything else by exact equality.
func (r *FieldRule) IsSentinel(value any) bool {
	switch r.Type {
	case model.ValueReal:
		v, ok := value.(float64)
		return ok && math.Float64bits(v) == sentinelRealBits
	case model.ValueInteger:
		v, ok := value.(int64)
		return ok && v == r.Sentinel.(int64)
	case model.ValueString:
		v, ok := value.(string)
		return ok && v == r.Sentinel.(string)
	default:
		return false
	}
}

// InEnum reports case/length-normalized enum membership.
func (r *FieldRule) InEnum(value any) bool {
	if r.enumSet == nil {
		return true
	}
	_, ok := r.enumSet[normalizeEnumKey(value)]
	return ok
}

// CheckBounds applies the min/max predicates to one element.
func (r *FieldRule) CheckBounds(value any) bool {
	if r.Bounds == nil {
		return true
	}
	var v float64
	switch typed := value.(type) {
	case float64:
		v = typed
	case int64:
		v = float64(typed)
	default:
		return true
	}
	b := r.Bounds
	if b.Min != nil {
		if b.MinExclusive {
			if !(v > *b.Min) {
				return false
			}
		} else if !(v >= *b.Min) {
			return false
		}
	}
	if b.Max != nil {
		if b.MaxExclusive {
			if !(v < *b.Max) {
				return false
			}
		} else if !(v <= *b.Max) {
			return false
		}
	}
	return true
}

// FilledShape computes the filled extent of each flexible trailing dimension
// and detects holes inside the implied sub-region. Non-flexible arrays
// report their declared shape.
func (r *FieldRule) FilledShape(values []any) ([]int, Status) {
	extents := append([]int(nil), r.Shape...)
	if r.FlexTailDims == 0 {
		return extents, StatusOK
	}

	rank := len(r.Shape)
	for d := rank - r.FlexTailDims; d < rank; d++ {
		extents[d] = 0
		for i := r.Shape[d] - 1; i >= 0; i-- {
			if !r.sliceAllSentinel(values, d, i) {
				extents[d] = i + 1
				break
			}
		}
	}

	for _, extent := range extents {
		if extent == 0 {
			if r.Required {
				return extents, StatusRequired
			}
			return extents, StatusOK
		}
	}

	// Re-scan the sub-region implied by the filled extents: any sentinel
	// inside it is a hole.
	index := make([]int, rank)
	for pos, value := range values {
		decompose(pos, r.Shape, index)
		inside := true
		for k, extent := range extents {
			if index[k] >= extent {
				inside = false
				break
			}
		}
		if inside && r.IsSentinel(value) {
			return extents, StatusPartlyFilled
		}
	}
	return extents, StatusOK
}

// sliceAllSentinel reports whether every cell with index i along dimension d
// holds the sentinel.
func (r *FieldRule) sliceAllSentinel(values []any, d, i int) bool {
	index := make([]int, len(r.Shape))
	for pos, value := range values {
		decompose(pos, r.Shape, index)
		if index[d] != i {
			continue
		}
		if !r.IsSentinel(value) {
			return false
		}
	}
	return true
}

// decompose writes the column-major multi-index of a linear position.
func decompose(pos int, shape []int, index []int) {
	for k := 0; k < len(shape); k++ {
		index[k] = pos % shape[k]
		pos /= shape[k]
	}
}

// normalizeEnumKey folds strings to upper case and strips trailing blanks
// and NUL padding so fixed-length target strings compare like declarations.
func normalizeEnumKey(value any) any {
	if s, ok := value.(string); ok {
		return strings.ToUpper(strings.TrimRight(s, " \x00"))
	}
	return value
}

// Describe formats a one-line description of a rule failure subject.
func (r *FieldRule) Describe() string {
	if r.IsArray() {
		return fmt.Sprintf("%s%v", r.Name, r.Shape)
	}
	return r.Name
}
