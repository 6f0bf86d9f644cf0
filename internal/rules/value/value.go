// Package value defines the closed set of runtime values manipulated by rules
// programs: List, Map, String, Integer and Boolean.
//
// Lists and Maps are mutable and handled through pointers; every place that
// needs copy semantics calls Clone. Scalars are plain Go values.
package value

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindList Kind = iota
	KindMap
	KindString
	KindInteger
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is one of *List, *Map, String, Integer or Boolean.
type Value interface {
	Kind() Kind
	// Clone returns a deep copy that shares no mutable state with the receiver.
	Clone() Value
	String() string
	value()
}

// String is an immutable text value.
type String string

// Integer is a signed 64-bit integer value.
type Integer int64

// Boolean is a truth value.
type Boolean bool

func (String) Kind() Kind  { return KindString }
func (Integer) Kind() Kind { return KindInteger }
func (Boolean) Kind() Kind { return KindBoolean }

func (s String) Clone() Value  { return s }
func (i Integer) Clone() Value { return i }
func (b Boolean) Clone() Value { return b }

func (s String) String() string  { return string(s) }
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }

func (String) value()  {}
func (Integer) value() {}
func (Boolean) value() {}

// Map is a String-keyed, unordered mapping of attributes.
type Map struct {
	attrs map[string]Value
}

// NewMap builds a map owning the given attributes.
func NewMap(attrs map[string]Value) *Map {
	m := &Map{attrs: make(map[string]Value, len(attrs))}
	for key, v := range attrs {
		m.attrs[key] = v
	}
	return m
}

func (*Map) Kind() Kind { return KindMap }
func (*Map) value()     {}

// Clone deep-copies the map and every attribute.
func (m *Map) Clone() Value {
	out := &Map{attrs: make(map[string]Value, len(m.attrs))}
	for key, v := range m.attrs {
		out.attrs[key] = v.Clone()
	}
	return out
}

// Len reports the number of attributes.
func (m *Map) Len() int { return len(m.attrs) }

// Get returns the attribute stored under key.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.attrs[key]
	return v, ok
}

// Set inserts or overwrites the attribute stored under key.
func (m *Map) Set(key string, v Value) {
	if m.attrs == nil {
		m.attrs = map[string]Value{}
	}
	m.attrs[key] = v
}

// Keys returns the attribute names in sorted order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.attrs))
	for key := range m.attrs {
		keys = append(keys, key)
	}
	sortStrings(keys)
	return keys
}

func (m *Map) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, key := range m.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(render(m.attrs[key]))
	}
	b.WriteByte('}')
	return b.String()
}

// render formats nested values, quoting strings so they stay distinguishable
// from numbers and booleans.
func render(v Value) string {
	if s, ok := v.(String); ok {
		return strconv.Quote(string(s))
	}
	return v.String()
}

// AsList narrows v to a list.
func AsList(v Value) (*List, error) {
	l, ok := v.(*List)
	if !ok {
		return nil, mismatch(KindList, v)
	}
	return l, nil
}

// AsMap narrows v to a map.
func AsMap(v Value) (*Map, error) {
	m, ok := v.(*Map)
	if !ok {
		return nil, mismatch(KindMap, v)
	}
	return m, nil
}

// AsString narrows v to a string.
func AsString(v Value) (String, error) {
	s, ok := v.(String)
	if !ok {
		return "", mismatch(KindString, v)
	}
	return s, nil
}

// AsInteger narrows v to an integer.
func AsInteger(v Value) (Integer, error) {
	i, ok := v.(Integer)
	if !ok {
		return 0, mismatch(KindInteger, v)
	}
	return i, nil
}

// AsBoolean narrows v to a boolean.
func AsBoolean(v Value) (Boolean, error) {
	b, ok := v.(Boolean)
	if !ok {
		return false, mismatch(KindBoolean, v)
	}
	return b, nil
}

// GetAttribute reads key from a map value.
func GetAttribute(v Value, key string) (Value, error) {
	m, err := AsMap(v)
	if err != nil {
		return nil, err
	}
	attr, ok := m.Get(key)
	if !ok {
		return nil, apperrors.WithMetadata(
			apperrors.CodeRulesMissingAttribute,
			fmt.Sprintf("missing attribute %q", key),
			map[string]string{"Attribute": key},
		)
	}
	return attr, nil
}

// SetAttribute writes key on a map value.
func SetAttribute(v Value, key string, attr Value) error {
	m, err := AsMap(v)
	if err != nil {
		return err
	}
	m.Set(key, attr)
	return nil
}

func mismatch(want Kind, got Value) error {
	actual := "nothing"
	if got != nil {
		actual = got.Kind().String()
	}
	return apperrors.WithMetadata(
		apperrors.CodeRulesTypeMismatch,
		fmt.Sprintf("expected %s, got %s", want, actual),
		map[string]string{"Expected": want.String(), "Actual": actual},
	)
}
