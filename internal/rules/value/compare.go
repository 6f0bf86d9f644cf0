package value

import (
	"fmt"
	"sort"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
)

// Equal reports structural equality. Values of different kinds are never equal.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Integer:
		y, ok := b.(Integer)
		return ok && x == y
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		if !ok || len(x.items) != len(y.items) {
			return false
		}
		for i := range x.items {
			if !Equal(x.items[i], y.items[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || len(x.attrs) != len(y.attrs) {
			return false
		}
		for key, xv := range x.attrs {
			yv, found := y.attrs[key]
			if !found || !Equal(xv, yv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Less reports whether a orders before b. ok is false when the ordering is
// undefined: lists, maps, or values of different kinds.
func Less(a, b Value) (less bool, ok bool) {
	switch x := a.(type) {
	case String:
		y, same := b.(String)
		if !same {
			return false, false
		}
		return x < y, true
	case Integer:
		y, same := b.(Integer)
		if !same {
			return false, false
		}
		return x < y, true
	case Boolean:
		y, same := b.(Boolean)
		if !same {
			return false, false
		}
		return !bool(x) && bool(y), true
	default:
		return false, false
	}
}

// Sorted returns a new list holding l's elements in ascending order. l is
// never modified; on error no sorted copy is produced.
func Sorted(l *List) (*List, error) {
	keys := make([]Value, len(l.items))
	copy(keys, l.items)
	return sortByKeys(l, keys)
}

// SortedBy returns a new list holding l's elements ordered by their key
// attribute. Every element must be a map carrying key.
func SortedBy(l *List, key string) (*List, error) {
	keys := make([]Value, len(l.items))
	for i, item := range l.items {
		attr, err := GetAttribute(item, key)
		if err != nil {
			return nil, err
		}
		keys[i] = attr
	}
	return sortByKeys(l, keys)
}

func sortByKeys(l *List, keys []Value) (*List, error) {
	if len(keys) > 1 {
		first := keys[0]
		for _, k := range keys {
			if _, ok := Less(first, k); !ok {
				return nil, apperrors.WithMetadata(
					apperrors.CodeRulesTypeMismatch,
					fmt.Sprintf("cannot order %s against %s", first.Kind(), k.Kind()),
					map[string]string{"Expected": first.Kind().String(), "Actual": k.Kind().String()},
				)
			}
		}
	}

	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		less, _ := Less(keys[order[i]], keys[order[j]])
		return less
	})

	out := &List{items: make([]Value, len(order))}
	for i, idx := range order {
		out.items[i] = l.items[idx].Clone()
	}
	return out, nil
}

func sortStrings(values []string) {
	sort.Strings(values)
}
