package session

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
	"github.com/JayLeung362573/373-sub000/internal/rules/source"
)

var rulesetExtensions = []string{".lua", ".yaml", ".yml"}

// Rulesets is a catalog of rules files at the root of a filesystem. A
// ruleset is addressed by its file name without extension.
type Rulesets struct {
	fsys fs.FS

	mu     sync.Mutex
	loaded map[string]*source.Ruleset
}

// NewRulesets returns a catalog over fsys.
func NewRulesets(fsys fs.FS) *Rulesets {
	return &Rulesets{fsys: fsys, loaded: map[string]*source.Ruleset{}}
}

// List returns the names of every supported rules file, sorted.
func (r *Rulesets) List() ([]string, error) {
	entries, err := fs.ReadDir(r.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read rulesets dir: %w", err)
	}
	seen := map[string]struct{}{}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !source.Supported(entry.Name()) {
			continue
		}
		name := source.NameOf(entry.Name())
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Get loads and caches the named ruleset.
func (r *Rulesets) Get(name string) (*source.Ruleset, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || !fs.ValidPath(name) {
		return nil, rulesetNotFound(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rs, ok := r.loaded[name]; ok {
		return rs, nil
	}
	for _, ext := range rulesetExtensions {
		filename := name + ext
		data, err := fs.ReadFile(r.fsys, filename)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read ruleset %s: %w", filename, err)
		}
		rs, err := source.Parse(filename, data)
		if err != nil {
			return nil, &apperrors.Error{
				Code:     apperrors.CodeRulesetInvalid,
				Message:  "load ruleset " + filename,
				Metadata: map[string]string{"Ruleset": name},
				Cause:    err,
			}
		}
		r.loaded[name] = rs
		return rs, nil
	}
	return nil, rulesetNotFound(name)
}

func rulesetNotFound(name string) error {
	return apperrors.WithMetadata(
		apperrors.CodeRulesetNotFound,
		fmt.Sprintf("ruleset %q not found", name),
		map[string]string{"Ruleset": name},
	)
}
