package metadata

import (
	"fmt"
	"math"
	"time"
)

// FromAny converts a plain Go value into a Value. Times are stored as their
// Unix nanosecond timestamp.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case float64:
		return Float(x), nil
	case float32:
		return Float(float64(x)), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, fmt.Errorf("metadata: uint64 %d out of range", x)
		}
		return Int(int64(x)), nil
	case time.Time:
		return Int(x.UnixNano()), nil
	case []Value:
		return Array(x), nil
	case []any:
		arr := make([]Value, len(x))
		for i := range x {
			item, err := FromAny(x[i])
			if err != nil {
				return Value{}, err
			}
			arr[i] = item
		}
		return Array(arr), nil
	case []string:
		arr := make([]Value, len(x))
		for i := range x {
			arr[i] = String(x[i])
		}
		return Array(arr), nil
	default:
		return Value{}, fmt.Errorf("metadata: unsupported value type %T", v)
	}
}

// FromMap converts a map of plain Go values into a Document.
func FromMap(m map[string]any) (Document, error) {
	d := make(Document, len(m))
	for k, v := range m {
		vv, err := FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		d[k] = vv
	}
	return d, nil
}
