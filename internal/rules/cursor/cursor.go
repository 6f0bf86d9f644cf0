// Package cursor tracks a resumable position inside one statement list.
package cursor

import (
	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
	"github.com/JayLeung362573/373-sub000/internal/rules/ast"
)

// Cursor is an index into a statement list plus optional continuation state
// attached to the statement at that index.
type Cursor struct {
	stmts []ast.Statement
	index int
	ctx   any
}

// New returns a cursor positioned on the first statement. An empty list is
// rejected.
func New(stmts []ast.Statement) (*Cursor, error) {
	if len(stmts) == 0 {
		return nil, apperrors.New(apperrors.CodeRulesInvalidIteratorState, "cursor over empty statement list")
	}
	return &Cursor{stmts: stmts}, nil
}

// Current returns the statement at the cursor, or false past the end.
func (c *Cursor) Current() (ast.Statement, bool) {
	if c.index >= len(c.stmts) {
		return nil, false
	}
	return c.stmts[c.index], true
}

// Done reports whether the cursor has advanced past its last statement.
func (c *Cursor) Done() bool { return c.index >= len(c.stmts) }

// SetContext attaches ctx to the current statement.
func (c *Cursor) SetContext(ctx any) error {
	if c.Done() {
		return apperrors.New(apperrors.CodeRulesInvalidIteratorState, "set context past the end of the statement list")
	}
	c.ctx = ctx
	return nil
}

// Context returns the context attached to the current statement when it has
// type T.
func Context[T any](c *Cursor) (T, bool) {
	ctx, ok := c.ctx.(T)
	return ctx, ok
}

// Next advances to the following statement and drops the attached context.
func (c *Cursor) Next() error {
	if c.Done() {
		return apperrors.New(apperrors.CodeRulesInvalidIteratorState, "advance past the end of the statement list")
	}
	c.index++
	c.ctx = nil
	return nil
}
