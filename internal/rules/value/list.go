package value

import (
	"math/rand/v2"
	"strings"
)

// List is an ordered, mutable sequence of values.
type List struct {
	items []Value
}

// NewList builds a list owning the given items.
func NewList(items ...Value) *List {
	out := &List{items: make([]Value, len(items))}
	copy(out.items, items)
	return out
}

func (*List) Kind() Kind { return KindList }
func (*List) value()     {}

// Clone deep-copies the list and every element.
func (l *List) Clone() Value {
	out := &List{items: make([]Value, len(l.items))}
	for i, item := range l.items {
		out.items[i] = item.Clone()
	}
	return out
}

// Len reports the number of elements.
func (l *List) Len() int { return len(l.items) }

// At returns the element at index i. It panics when i is out of range.
func (l *List) At(i int) Value { return l.items[i] }

// Append adds v to the end of the list.
func (l *List) Append(v Value) {
	l.items = append(l.items, v)
}

// Extend appends copies of other's elements. Extending a list with itself
// doubles it.
func (l *List) Extend(other *List) {
	src := other.items
	added := make([]Value, len(src))
	for i, item := range src {
		added[i] = item.Clone()
	}
	l.items = append(l.items, added...)
}

// Reverse reverses the list in place.
func (l *List) Reverse() {
	for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
}

// Shuffle permutes the list uniformly at random. A nil source uses the
// process-wide generator.
func (l *List) Shuffle(src *rand.Rand) {
	swap := func(i, j int) { l.items[i], l.items[j] = l.items[j], l.items[i] }
	if src == nil {
		rand.Shuffle(len(l.items), swap)
		return
	}
	src.Shuffle(len(l.items), swap)
}

// Discard removes the first n elements, clamped to the list size. Negative n
// leaves the list unchanged.
func (l *List) Discard(n int64) {
	if n <= 0 {
		return
	}
	if n >= int64(len(l.items)) {
		l.items = l.items[:0]
		return
	}
	l.items = append(l.items[:0], l.items[n:]...)
}

// Replace swaps the list contents for other's elements. It is the commit half
// of compute-then-commit operations such as sorting.
func (l *List) Replace(other *List) {
	l.items = other.items
}

func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range l.items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(render(item))
	}
	b.WriteByte(']')
	return b.String()
}
