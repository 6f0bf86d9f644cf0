// Package source turns rules files into programs for the interpreter.
//
// Two formats are supported: Lua scripts that build a program through the
// Rules DSL, and declarative YAML trees. Both produce the same ast.Program.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JayLeung362573/373-sub000/internal/rules/ast"
)

// Ruleset is a named program.
type Ruleset struct {
	Name    string
	Program ast.Program
}

// Supported reports whether filename has an extension Parse understands.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".lua", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// NameOf returns the default ruleset name for filename.
func NameOf(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parse decodes src according to the extension of filename.
func Parse(filename string, src []byte) (*Ruleset, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".lua":
		return LoadLua(filename, string(src))
	case ".yaml", ".yml":
		return LoadYAML(filename, src)
	default:
		return nil, fmt.Errorf("unsupported rules file %q", filename)
	}
}

// LoadFile reads and parses the rules file at path.
func LoadFile(path string) (*Ruleset, error) {
	if strings.EqualFold(filepath.Ext(path), ".lua") {
		return LoadLuaFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(path, data)
}

// targetPath turns "a.b.c" into the attribute chain a.b.c.
func targetPath(path string) (ast.Expression, error) {
	parts := strings.Split(strings.TrimSpace(path), ".")
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("invalid target path %q", path)
		}
	}
	return ast.Attr(ast.Var(parts[0]), parts[1:]...), nil
}
