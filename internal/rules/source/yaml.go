package source

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JayLeung362573/373-sub000/internal/rules/ast"
	"github.com/JayLeung362573/373-sub000/internal/rules/value"
)

// yamlRuleset is the document shape of a YAML rules file.
type yamlRuleset struct {
	Name    string `yaml:"name"`
	Program []any  `yaml:"program"`
}

// LoadYAML decodes a declarative rules document. Each statement is a map
// with a single key naming the statement kind:
//
//	name: high-card
//	program:
//	  - assign: {target: best, value: 0}
//	  - for_each:
//	      var: card
//	      list: {var: hand}
//	      body:
//	        - announce: {var: card}
//
// Scalars and sequences in expression position are constants; maps select
// an expression kind (const, var, attr, eq, lt, or, not, add).
func LoadYAML(filename string, src []byte) (*Ruleset, error) {
	var doc yamlRuleset
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	program, err := decodeStatements(doc.Program)
	if err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = NameOf(filename)
	}
	return &Ruleset{Name: name, Program: program}, nil
}

func decodeStatements(raw []any) ([]ast.Statement, error) {
	out := make([]ast.Statement, 0, len(raw))
	for i, item := range raw {
		stmt, err := decodeStatement(item)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		out = append(out, stmt)
	}
	return out, nil
}

func decodeStatement(raw any) (ast.Statement, error) {
	kind, arg, err := single(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "assign":
		f, err := fieldsOf(kind, arg)
		if err != nil {
			return nil, err
		}
		return buildStatement(f, func() ast.Statement {
			return &ast.Assignment{Target: f.target("target"), Value: f.expr("value")}
		})
	case "extend":
		f, err := fieldsOf(kind, arg)
		if err != nil {
			return nil, err
		}
		return buildStatement(f, func() ast.Statement {
			return &ast.Extend{Target: f.target("target"), Source: f.expr("source")}
		})
	case "reverse", "shuffle":
		target, err := decodeTarget(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		if kind == "reverse" {
			return &ast.Reverse{Target: target}, nil
		}
		return &ast.Shuffle{Target: target}, nil
	case "discard":
		f, err := fieldsOf(kind, arg)
		if err != nil {
			return nil, err
		}
		return buildStatement(f, func() ast.Statement {
			return &ast.Discard{Target: f.target("target"), Amount: f.expr("amount")}
		})
	case "sort":
		if _, isMap := arg.(map[string]any); !isMap {
			target, err := decodeTarget(arg)
			if err != nil {
				return nil, fmt.Errorf("sort: %w", err)
			}
			return &ast.Sort{Target: target}, nil
		}
		f, err := fieldsOf(kind, arg)
		if err != nil {
			return nil, err
		}
		return buildStatement(f, func() ast.Statement {
			return &ast.Sort{Target: f.target("target"), Key: f.optionalString("key")}
		})
	case "match":
		return decodeMatch(arg)
	case "for_each":
		f, err := fieldsOf(kind, arg)
		if err != nil {
			return nil, err
		}
		return buildStatement(f, func() ast.Statement {
			return &ast.ForLoop{Var: f.name("var"), List: f.expr("list"), Body: f.body("body")}
		})
	case "input_text":
		f, err := fieldsOf(kind, arg)
		if err != nil {
			return nil, err
		}
		return buildStatement(f, func() ast.Statement {
			return &ast.InputText{Player: f.expr("player"), Target: f.target("target"), Prompt: f.expr("prompt")}
		})
	case "input_choice":
		f, err := fieldsOf(kind, arg)
		if err != nil {
			return nil, err
		}
		return buildStatement(f, func() ast.Statement {
			return &ast.InputChoice{Player: f.expr("player"), Target: f.target("target"), Prompt: f.expr("prompt"), Choices: f.expr("choices")}
		})
	case "input_range":
		f, err := fieldsOf(kind, arg)
		if err != nil {
			return nil, err
		}
		return buildStatement(f, func() ast.Statement {
			return &ast.InputRange{Player: f.expr("player"), Target: f.target("target"), Prompt: f.expr("prompt"), Min: f.expr("min"), Max: f.expr("max")}
		})
	case "input_vote":
		f, err := fieldsOf(kind, arg)
		if err != nil {
			return nil, err
		}
		return buildStatement(f, func() ast.Statement {
			return &ast.InputVote{Player: f.expr("player"), Target: f.target("target"), Prompt: f.expr("prompt"), Choices: f.expr("choices")}
		})
	case "announce":
		msg, err := decodeExpr(arg)
		if err != nil {
			return nil, fmt.Errorf("announce: %w", err)
		}
		return &ast.Announce{Message: msg}, nil
	default:
		return nil, fmt.Errorf("unknown statement %q", kind)
	}
}

func decodeMatch(arg any) (ast.Statement, error) {
	f, err := fieldsOf("match", arg)
	if err != nil {
		return nil, err
	}
	target := f.expr("target")
	rawCases, _ := f.raw["cases"].([]any)
	candidates := make([]ast.Candidate, 0, len(rawCases))
	for i, rawCase := range rawCases {
		c, err := fieldsOf(fmt.Sprintf("case %d", i), rawCase)
		if err != nil {
			return nil, fmt.Errorf("match: %w", err)
		}
		var candidate ast.Candidate
		if _, guarded := c.raw["when"]; guarded {
			candidate.Guard = c.expr("when")
		}
		candidate.Body = c.body("body")
		if c.err != nil {
			return nil, fmt.Errorf("match: %w", c.err)
		}
		candidates = append(candidates, candidate)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ast.Match{Target: target, Candidates: candidates}, nil
}

func buildStatement(f *fields, build func() ast.Statement) (ast.Statement, error) {
	stmt := build()
	if f.err != nil {
		return nil, f.err
	}
	return stmt, nil
}

// fields reads named arguments of one statement and keeps the first error.
type fields struct {
	kind string
	raw  map[string]any
	err  error
}

func fieldsOf(kind string, raw any) (*fields, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a map of arguments", kind)
	}
	return &fields{kind: kind, raw: m}, nil
}

func (f *fields) fail(key string, err error) {
	if f.err == nil {
		f.err = fmt.Errorf("%s.%s: %w", f.kind, key, err)
	}
}

func (f *fields) expr(key string) ast.Expression {
	raw, ok := f.raw[key]
	if !ok {
		f.fail(key, fmt.Errorf("missing"))
		return nil
	}
	expr, err := decodeExpr(raw)
	if err != nil {
		f.fail(key, err)
	}
	return expr
}

func (f *fields) target(key string) ast.Expression {
	raw, ok := f.raw[key]
	if !ok {
		f.fail(key, fmt.Errorf("missing"))
		return nil
	}
	expr, err := decodeTarget(raw)
	if err != nil {
		f.fail(key, err)
	}
	return expr
}

func (f *fields) name(key string) string {
	s, ok := f.raw[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		f.fail(key, fmt.Errorf("expected a name"))
	}
	return s
}

func (f *fields) optionalString(key string) string {
	raw, ok := f.raw[key]
	if !ok {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		f.fail(key, fmt.Errorf("expected a string"))
	}
	return s
}

func (f *fields) body(key string) []ast.Statement {
	raw, ok := f.raw[key]
	if !ok || raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		f.fail(key, fmt.Errorf("expected a statement list"))
		return nil
	}
	stmts, err := decodeStatements(items)
	if err != nil {
		f.fail(key, err)
	}
	return stmts
}

// decodeTarget accepts "a.b.c" paths or expression maps.
func decodeTarget(raw any) (ast.Expression, error) {
	if path, ok := raw.(string); ok {
		return targetPath(path)
	}
	return decodeExpr(raw)
}

func decodeExpr(raw any) (ast.Expression, error) {
	m, isMap := raw.(map[string]any)
	if !isMap {
		if raw == nil {
			return nil, fmt.Errorf("expression expected")
		}
		v, err := value.FromGo(raw)
		if err != nil {
			return nil, err
		}
		return ast.Const(v), nil
	}

	kind, arg, err := single(m)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "const":
		if arg == nil {
			return nil, fmt.Errorf("const: value expected")
		}
		v, err := value.FromGo(arg)
		if err != nil {
			return nil, fmt.Errorf("const: %w", err)
		}
		return ast.Const(v), nil
	case "var":
		name, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("var: expected a name")
		}
		return targetPath(name)
	case "attr":
		f, err := fieldsOf(kind, arg)
		if err != nil {
			return nil, err
		}
		base := f.expr("of")
		key := f.name("key")
		if f.err != nil {
			return nil, f.err
		}
		return ast.Attr(base, key), nil
	case "eq", "lt", "or", "add":
		left, right, err := pair(kind, arg)
		if err != nil {
			return nil, err
		}
		switch kind {
		case "eq":
			return ast.Eq(left, right), nil
		case "lt":
			return ast.Lt(left, right), nil
		case "or":
			return ast.Or(left, right), nil
		default:
			return ast.Add(left, right), nil
		}
	case "not":
		operand, err := decodeExpr(arg)
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return ast.Not(operand), nil
	default:
		return nil, fmt.Errorf("unknown expression %q", kind)
	}
}

func pair(kind string, arg any) (ast.Expression, ast.Expression, error) {
	items, ok := arg.([]any)
	if !ok || len(items) != 2 {
		return nil, nil, fmt.Errorf("%s: expected two operands", kind)
	}
	left, err := decodeExpr(items[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", kind, err)
	}
	right, err := decodeExpr(items[1])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", kind, err)
	}
	return left, right, nil
}

// single unpacks a map holding exactly one key.
func single(raw any) (string, any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("expected a single-key map, got %T", raw)
	}
	if len(m) != 1 {
		keys := make([]string, 0, len(m))
		for key := range m {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return "", nil, fmt.Errorf("expected a single key, got %v", keys)
	}
	for key, v := range m {
		return key, v, nil
	}
	return "", nil, nil
}
