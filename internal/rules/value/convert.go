package value

import (
	"fmt"
	"math"
	"sort"
)

// FromGo converts decoded Go data (JSON, YAML, Lua tables, structpb) into a
// Value. Whole floats become integers; other floats are rejected.
func FromGo(raw any) (Value, error) {
	switch v := raw.(type) {
	case Value:
		return v.Clone(), nil
	case string:
		return String(v), nil
	case bool:
		return Boolean(v), nil
	case int:
		return Integer(v), nil
	case int32:
		return Integer(v), nil
	case int64:
		return Integer(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows", v)
		}
		return Integer(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("number %v is not an integer", v)
		}
		if v >= 1<<63 || v < -(1<<63) {
			return nil, fmt.Errorf("number %v overflows an integer", v)
		}
		return Integer(int64(v)), nil
	case []any:
		out := &List{items: make([]Value, 0, len(v))}
		for i, item := range v {
			converted, err := FromGo(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out.items = append(out.items, converted)
		}
		return out, nil
	case []string:
		out := &List{items: make([]Value, 0, len(v))}
		for _, item := range v {
			out.items = append(out.items, String(item))
		}
		return out, nil
	case map[string]any:
		out := &Map{attrs: make(map[string]Value, len(v))}
		for key, item := range v {
			converted, err := FromGo(item)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", key, err)
			}
			out.attrs[key] = converted
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("nil has no value representation")
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}

// ToGo converts a Value into plain Go data suitable for JSON or structpb.
// Integers become int64.
func ToGo(v Value) any {
	switch x := v.(type) {
	case String:
		return string(x)
	case Integer:
		return int64(x)
	case Boolean:
		return bool(x)
	case *List:
		out := make([]any, len(x.items))
		for i, item := range x.items {
			out[i] = ToGo(item)
		}
		return out
	case *Map:
		out := make(map[string]any, len(x.attrs))
		for key, item := range x.attrs {
			out[key] = ToGo(item)
		}
		return out
	default:
		return nil
	}
}

// Strings narrows a list of strings to a Go slice.
func Strings(l *List) ([]string, error) {
	out := make([]string, 0, len(l.items))
	for _, item := range l.items {
		s, err := AsString(item)
		if err != nil {
			return nil, err
		}
		out = append(out, string(s))
	}
	return out, nil
}

// SortedNames returns the keys of vars in sorted order.
func SortedNames[V any](vars map[string]V) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
