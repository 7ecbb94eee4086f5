package resolver

import (
	"github.com/nmltools/go-nmlgen/pkg/model"
)

// Materialize expands a field's declared default into the dense, shape-complete
// grid. The grid is stored in column-major order (first declared dimension
// varies fastest) regardless of the declaration's order mode, so emitters can
// re-apply whichever literal order their target needs.
func Materialize(field *model.Field) (*model.MaterializedDefault, error) {
	spec := field.Default
	if spec == nil {
		return nil, nil
	}

	if !field.IsArray() {
		value, err := model.Coerce(field.Type, spec.Raw)
		if err != nil {
			return nil, mismatchErrf(field.Name, "default value: %v", err)
		}
		return &model.MaterializedDefault{Values: []any{value}}, nil
	}

	total := field.TotalCells()
	seq, err := flattenDefault(field, spec.Raw)
	if err != nil {
		return nil, err
	}
	if len(seq) > total {
		return nil, layoutErrf(KindExcessDefault, field.Name,
			"default declares %d values for %d cells", len(seq), total)
	}
	if len(seq) < total {
		switch spec.Fill {
		case model.FillRepeat:
			if len(seq) == 0 {
				return nil, layoutErrf(KindInsufficientDefault, field.Name, "default declares no values")
			}
			base := len(seq)
			for i := base; i < total; i++ {
				seq = append(seq, seq[i%base])
			}
		case model.FillPad:
			pad := spec.Pad
			for i := 0; len(seq) < total; i++ {
				seq = append(seq, pad[i%len(pad)])
			}
		default:
			return nil, layoutErrf(KindInsufficientDefault, field.Name,
				"default declares %d values for %d cells", len(seq), total)
		}
	}

	shape := field.Shape()
	values := seq
	if spec.Order == model.RowMajor {
		values = rowMajorToColumnMajor(seq, shape)
	}
	return &model.MaterializedDefault{Shape: shape, Values: values}, nil
}

// MaterializeAll computes the default grid for every defaulted field, keyed
// by field name.
func MaterializeAll(m *model.Model) (map[string]*model.MaterializedDefault, error) {
	out := make(map[string]*model.MaterializedDefault)
	for i := 0; i < m.Len(); i++ {
		field := m.FieldAt(i)
		if field.Default == nil {
			continue
		}
		grid, err := Materialize(field)
		if err != nil {
			return nil, err
		}
		out[field.Name] = grid
	}
	return out, nil
}

// flattenDefault deep-flattens a possibly nested default literal depth-first
// and coerces every leaf to the field's element type.
func flattenDefault(field *model.Field, raw any) ([]any, error) {
	var out []any
	var walk func(node any) error
	walk = func(node any) error {
		if list, ok := node.([]any); ok {
			for _, item := range list {
				if err := walk(item); err != nil {
					return err
				}
			}
			return nil
		}
		value, err := model.Coerce(field.Type, node)
		if err != nil {
			return mismatchErrf(field.Name, "default value: %v", err)
		}
		out = append(out, value)
		return nil
	}
	if err := walk(raw); err != nil {
		return nil, err
	}
	return out, nil
}

// rowMajorToColumnMajor permutes a row-major sequence (last dimension varies
// fastest) into column-major storage order.
func rowMajorToColumnMajor(seq []any, shape []int) []any {
	out := make([]any, len(seq))
	index := make([]int, len(shape))
	for ci := range out {
		// Decompose the column-major position into a multi-index.
		rest := ci
		for k := 0; k < len(shape); k++ {
			index[k] = rest % shape[k]
			rest /= shape[k]
		}
		// Recompose it as a row-major position.
		ri := 0
		for k := 0; k < len(shape); k++ {
			ri = ri*shape[k] + index[k]
		}
		out[ci] = seq[ri]
	}
	return out
}
