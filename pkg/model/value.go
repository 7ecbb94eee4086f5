package model

import (
	"fmt"
	"math"
)

// Coerce normalizes a raw decoded value (from YAML defaults or namelist
// input) into the canonical Go representation for a value type: int64 for
// Integer, float64 for Real, string for String, bool for Logical.
func Coerce(t ValueType, raw any) (any, error) {
	switch t {
	case ValueInteger:
		switch v := raw.(type) {
		case int:
			return int64(v), nil
		case int8:
			return int64(v), nil
		case int16:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case int64:
			return v, nil
		case uint:
			return int64(v), nil
		case uint64:
			if v > math.MaxInt64 {
				return nil, fmt.Errorf("integer value %d overflows", v)
			}
			return int64(v), nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("value %v is not an integer", v)
			}
			return int64(v), nil
		}
	case ValueReal:
		switch v := raw.(type) {
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case float32:
			return float64(v), nil
		case float64:
			return v, nil
		}
	case ValueString:
		if v, ok := raw.(string); ok {
			return v, nil
		}
	case ValueLogical:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("value %v (%T) does not match type %s", raw, raw, t)
}
