package value

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
)

func TestAccessorsRejectWrongVariant(t *testing.T) {
	values := []Value{NewList(), NewMap(nil), String("a"), Integer(1), Boolean(true)}
	accessors := map[Kind]func(Value) error{
		KindList:    func(v Value) error { _, err := AsList(v); return err },
		KindMap:     func(v Value) error { _, err := AsMap(v); return err },
		KindString:  func(v Value) error { _, err := AsString(v); return err },
		KindInteger: func(v Value) error { _, err := AsInteger(v); return err },
		KindBoolean: func(v Value) error { _, err := AsBoolean(v); return err },
	}

	for _, v := range values {
		for kind, access := range accessors {
			err := access(v)
			if kind == v.Kind() {
				if err != nil {
					t.Fatalf("%s accessor on %s: %v", kind, v.Kind(), err)
				}
				continue
			}
			if apperrors.CodeOf(err) != apperrors.CodeRulesTypeMismatch {
				t.Fatalf("%s accessor on %s: code = %v, want %v", kind, v.Kind(), apperrors.CodeOf(err), apperrors.CodeRulesTypeMismatch)
			}
		}
	}
}

func TestAttributes(t *testing.T) {
	m := NewMap(nil)
	if err := SetAttribute(m, "a", String("1")); err != nil {
		t.Fatalf("set attribute: %v", err)
	}
	got, err := GetAttribute(m, "a")
	if err != nil {
		t.Fatalf("get attribute: %v", err)
	}
	if !Equal(got, String("1")) {
		t.Fatalf("a = %v, want 1", got)
	}

	_, err = GetAttribute(m, "missing")
	if !errors.Is(err, apperrors.New(apperrors.CodeRulesMissingAttribute, "")) {
		t.Fatalf("missing attribute error = %v", err)
	}
	if err := SetAttribute(String("x"), "a", Integer(1)); apperrors.CodeOf(err) != apperrors.CodeRulesTypeMismatch {
		t.Fatalf("set on string code = %v, want type mismatch", apperrors.CodeOf(err))
	}
	if _, err := GetAttribute(NewList(), "a"); apperrors.CodeOf(err) != apperrors.CodeRulesTypeMismatch {
		t.Fatalf("get on list code = %v, want type mismatch", apperrors.CodeOf(err))
	}

	_ = SetAttribute(m, "b", Integer(2))
	if keys := m.Keys(); len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("keys = %v, want [a b]", keys)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{name: "same strings", a: String("a"), b: String("a"), want: true},
		{name: "different strings", a: String("a"), b: String("b")},
		{name: "string vs integer", a: String("1"), b: Integer(1)},
		{name: "integer vs boolean", a: Integer(1), b: Boolean(true)},
		{name: "lists", a: NewList(Integer(1), String("x")), b: NewList(Integer(1), String("x")), want: true},
		{name: "list order", a: NewList(Integer(1), Integer(2)), b: NewList(Integer(2), Integer(1))},
		{name: "list length", a: NewList(Integer(1)), b: NewList(Integer(1), Integer(1))},
		{
			name: "nested maps",
			a:    NewMap(map[string]Value{"k": NewList(Boolean(false))}),
			b:    NewMap(map[string]Value{"k": NewList(Boolean(false))}),
			want: true,
		},
		{name: "map keys", a: NewMap(map[string]Value{"a": Integer(1)}), b: NewMap(map[string]Value{"b": Integer(1)})},
		{name: "empty list vs empty map", a: NewList(), b: NewMap(nil)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Fatalf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestLess(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Value
		less   bool
		wantOK bool
	}{
		{name: "strings", a: String("a"), b: String("b"), less: true, wantOK: true},
		{name: "integers", a: Integer(3), b: Integer(2), wantOK: true},
		{name: "false before true", a: Boolean(false), b: Boolean(true), less: true, wantOK: true},
		{name: "true not before false", a: Boolean(true), b: Boolean(false), wantOK: true},
		{name: "mixed", a: String("a"), b: Integer(1)},
		{name: "lists", a: NewList(), b: NewList()},
		{name: "maps", a: NewMap(nil), b: NewMap(nil)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			less, ok := Less(tc.a, tc.b)
			if ok != tc.wantOK || less != tc.less {
				t.Fatalf("Less(%v, %v) = (%v, %v), want (%v, %v)", tc.a, tc.b, less, ok, tc.less, tc.wantOK)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	inner := NewList(Integer(1))
	original := NewMap(map[string]Value{"inner": inner})
	cloned := original.Clone().(*Map)

	inner.Append(Integer(2))
	got, _ := cloned.Get("inner")
	if got.(*List).Len() != 1 {
		t.Fatalf("cloned inner len = %d, want 1", got.(*List).Len())
	}
}

func TestDiscardClamps(t *testing.T) {
	tests := []struct {
		n    int64
		want int
	}{
		{n: 5, want: 0},
		{n: 2, want: 0},
		{n: 1, want: 1},
		{n: 0, want: 2},
		{n: -1, want: 2},
	}
	for _, tc := range tests {
		l := NewList(String("a"), String("b"))
		l.Discard(tc.n)
		if l.Len() != tc.want {
			t.Fatalf("discard(%d) len = %d, want %d", tc.n, l.Len(), tc.want)
		}
	}

	l := NewList(String("a"), String("b"), String("c"))
	l.Discard(1)
	if !Equal(l, NewList(String("b"), String("c"))) {
		t.Fatalf("discard(1) = %v, want [b, c]", l)
	}
}

func TestExtendAndReverse(t *testing.T) {
	l := NewList(Integer(1))
	l.Extend(NewList(Integer(2), Integer(3)))
	l.Reverse()
	if !Equal(l, NewList(Integer(3), Integer(2), Integer(1))) {
		t.Fatalf("list = %v, want [3, 2, 1]", l)
	}
	if got := l.At(0); !Equal(got, Integer(3)) {
		t.Fatalf("At(0) = %v, want 3", got)
	}

	l.Extend(l)
	if l.Len() != 6 {
		t.Fatalf("self extend len = %d, want 6", l.Len())
	}
}

func TestShuffleKeepsElements(t *testing.T) {
	l := NewList(Integer(1), Integer(2), Integer(3), Integer(4))
	l.Shuffle(rand.New(rand.NewPCG(1, 2)))
	sorted, err := Sorted(l)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if !Equal(sorted, NewList(Integer(1), Integer(2), Integer(3), Integer(4))) {
		t.Fatalf("shuffled elements = %v", l)
	}

	seeded := func() *List {
		out := NewList(Integer(1), Integer(2), Integer(3), Integer(4), Integer(5))
		out.Shuffle(rand.New(rand.NewPCG(7, 7)))
		return out
	}
	if !Equal(seeded(), seeded()) {
		t.Fatal("expected equal seeds to give equal permutations")
	}
}

func TestSorted(t *testing.T) {
	l := NewList(String("c"), String("a"), String("b"))
	sorted, err := Sorted(l)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if !Equal(sorted, NewList(String("a"), String("b"), String("c"))) {
		t.Fatalf("sorted = %v", sorted)
	}
	if !Equal(l, NewList(String("c"), String("a"), String("b"))) {
		t.Fatalf("original mutated: %v", l)
	}
}

func TestSortedFailureLeavesListUntouched(t *testing.T) {
	l := NewList(String("a"), Integer(1))
	before := l.String()

	_, err := Sorted(l)
	if apperrors.CodeOf(err) != apperrors.CodeRulesTypeMismatch {
		t.Fatalf("code = %v, want type mismatch", apperrors.CodeOf(err))
	}
	if l.String() != before {
		t.Fatalf("list = %s, want %s", l, before)
	}
}

func TestSortedBy(t *testing.T) {
	player := func(id string, score int64) Value {
		return NewMap(map[string]Value{"id": String(id), "score": Integer(score)})
	}
	l := NewList(player("b", 3), player("a", 1), player("c", 2))

	sorted, err := SortedBy(l, "score")
	if err != nil {
		t.Fatalf("sort by score: %v", err)
	}
	if !Equal(sorted, NewList(player("a", 1), player("c", 2), player("b", 3))) {
		t.Fatalf("sorted = %v", sorted)
	}

	_, err = SortedBy(l, "missing")
	if apperrors.CodeOf(err) != apperrors.CodeRulesMissingAttribute {
		t.Fatalf("missing key code = %v, want missing attribute", apperrors.CodeOf(err))
	}

	_, err = SortedBy(NewList(player("a", 1), Integer(3)), "score")
	if apperrors.CodeOf(err) != apperrors.CodeRulesTypeMismatch {
		t.Fatalf("non-map element code = %v, want type mismatch", apperrors.CodeOf(err))
	}
}

func TestSortedSingleElementNeedsNoComparison(t *testing.T) {
	sorted, err := Sorted(NewList(NewList()))
	if err != nil {
		t.Fatalf("sort single: %v", err)
	}
	if sorted.Len() != 1 {
		t.Fatalf("len = %d, want 1", sorted.Len())
	}
}

func TestFromGoRoundTrip(t *testing.T) {
	raw := map[string]any{
		"name":    "table",
		"count":   float64(3),
		"ready":   true,
		"players": []any{"a", "b"},
	}
	v, err := FromGo(raw)
	if err != nil {
		t.Fatalf("from go: %v", err)
	}
	m, err := AsMap(v)
	if err != nil {
		t.Fatalf("as map: %v", err)
	}
	count, _ := m.Get("count")
	if !Equal(count, Integer(3)) {
		t.Fatalf("count = %v, want 3", count)
	}
	back := ToGo(v).(map[string]any)
	if back["count"] != int64(3) {
		t.Fatalf("count = %v, want int64 3", back["count"])
	}

	if _, err := FromGo(1.5); err == nil {
		t.Fatal("expected fractional number to be rejected")
	}
	for _, n := range []float64{1e19, -1e19, 1 << 63} {
		if _, err := FromGo(n); err == nil || !strings.Contains(err.Error(), "overflows") {
			t.Fatalf("FromGo(%v) err = %v, want overflow", n, err)
		}
	}
	if v, err := FromGo(float64(-(1 << 63))); err != nil || !Equal(v, Integer(math.MinInt64)) {
		t.Fatalf("FromGo(-2^63) = %v, %v; want min int64", v, err)
	}
}

func TestStringRendering(t *testing.T) {
	v := NewMap(map[string]Value{
		"b": NewList(String("x"), Integer(1)),
		"a": Boolean(true),
	})
	if got := v.String(); got != `{a: true, b: ["x", 1]}` {
		t.Fatalf("render = %s", got)
	}
}
