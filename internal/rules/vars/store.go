// Package vars holds the variable store of one interpreter instance.
package vars

import (
	"fmt"
	"strings"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
	"github.com/JayLeung362573/373-sub000/internal/rules/value"
)

// Store owns exactly one value per variable name. It is not safe for
// concurrent use.
type Store struct {
	entries map[string]value.Value
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: map[string]value.Value{}}
}

// Store replaces the entry for name with a deep copy of v.
func (s *Store) Store(name string, v value.Value) {
	s.entries[name] = v.Clone()
}

// Load returns the live value stored under name. Mutating a returned list or
// map mutates the store.
func (s *Store) Load(name string) (value.Value, error) {
	v, ok := s.entries[name]
	if !ok {
		return nil, apperrors.WithMetadata(
			apperrors.CodeRulesUndefinedVariable,
			fmt.Sprintf("undefined variable %q", name),
			map[string]string{"Variable": name},
		)
	}
	return v, nil
}

// Has reports whether name is defined.
func (s *Store) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Delete removes name. Deleting an undefined name is a no-op.
func (s *Store) Delete(name string) {
	delete(s.entries, name)
}

// Names returns every defined name in sorted order.
func (s *Store) Names() []string {
	return value.SortedNames(s.entries)
}

// Snapshot returns deep copies of every entry.
func (s *Store) Snapshot() map[string]value.Value {
	out := make(map[string]value.Value, len(s.entries))
	for name, v := range s.entries {
		out[name] = v.Clone()
	}
	return out
}

// Ref returns a handle to the variable name, optionally descending through
// map attributes. The handle is resolved against the store on every use, so
// it never outlives the data it points to.
func (s *Store) Ref(name string, path ...string) Ref {
	return Ref{store: s, name: name, path: append([]string(nil), path...)}
}

// Ref is a path into the store: a variable name followed by attribute keys.
type Ref struct {
	store *Store
	name  string
	path  []string
}

// Attribute extends the path by one key.
func (r Ref) Attribute(key string) Ref {
	path := make([]string, len(r.path), len(r.path)+1)
	copy(path, r.path)
	return Ref{store: r.store, name: r.name, path: append(path, key)}
}

// Load walks the path and returns the live value it designates.
func (r Ref) Load() (value.Value, error) {
	current, err := r.store.Load(r.name)
	if err != nil {
		return nil, err
	}
	for _, key := range r.path {
		current, err = value.GetAttribute(current, key)
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

// Replace stores v at the designated location without copying it; the caller
// hands over ownership. Replacing a root variable behaves like Store minus the
// copy.
func (r Ref) Replace(v value.Value) error {
	if len(r.path) == 0 {
		r.store.entries[r.name] = v
		return nil
	}
	parent := Ref{store: r.store, name: r.name, path: r.path[:len(r.path)-1]}
	container, err := parent.Load()
	if err != nil {
		return err
	}
	return value.SetAttribute(container, r.path[len(r.path)-1], v)
}

func (r Ref) String() string {
	if len(r.path) == 0 {
		return r.name
	}
	return r.name + "." + strings.Join(r.path, ".")
}
