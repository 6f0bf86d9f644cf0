package interpreter

import (
	"fmt"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
	"github.com/JayLeung362573/373-sub000/internal/rules/ast"
	"github.com/JayLeung362573/373-sub000/internal/rules/value"
	"github.com/JayLeung362573/373-sub000/internal/rules/vars"
)

// operand is the result of visiting an expression: a value, and for
// variables and attributes a handle to where that value lives.
type operand struct {
	val value.Value
	ref *vars.Ref
}

// evaluator turns expressions into operands against one store.
type evaluator struct {
	store *vars.Store
}

// evaluate returns the value of expr, either a fresh copy or a live reference.
func (e evaluator) evaluate(expr ast.Expression) (value.Value, error) {
	op, err := ast.VisitExpression[operand](expr, e)
	if err != nil {
		return nil, err
	}
	return op.val, nil
}

// resolve returns a handle into live state. Only variables and attribute
// chains resolve.
func (e evaluator) resolve(expr ast.Expression) (vars.Ref, error) {
	switch expr.(type) {
	case *ast.Variable, *ast.Attribute:
	default:
		return vars.Ref{}, apperrors.Newf(apperrors.CodeRulesInvalidTarget, "%T does not refer to stored state", expr)
	}
	op, err := ast.VisitExpression[operand](expr, e)
	if err != nil {
		return vars.Ref{}, err
	}
	return *op.ref, nil
}

// resolveList resolves expr and narrows it to a live list.
func (e evaluator) resolveList(expr ast.Expression) (*value.List, error) {
	ref, err := e.resolve(expr)
	if err != nil {
		return nil, err
	}
	v, err := ref.Load()
	if err != nil {
		return nil, err
	}
	return value.AsList(v)
}

func (e evaluator) VisitConstant(c *ast.Constant) (operand, error) {
	if c.Value == nil {
		return operand{}, apperrors.New(apperrors.CodeRulesTypeMismatch, "constant without a value")
	}
	return operand{val: c.Value.Clone()}, nil
}

func (e evaluator) VisitVariable(v *ast.Variable) (operand, error) {
	ref := e.store.Ref(v.Name)
	val, err := ref.Load()
	if err != nil {
		return operand{}, err
	}
	return operand{val: val, ref: &ref}, nil
}

func (e evaluator) VisitAttribute(a *ast.Attribute) (operand, error) {
	base, err := e.resolve(a.Base)
	if err != nil {
		return operand{}, err
	}
	container, err := base.Load()
	if err != nil {
		return operand{}, err
	}
	if _, err := value.AsMap(container); err != nil {
		return operand{}, err
	}
	ref := base.Attribute(a.Key)
	val, err := ref.Load()
	if err != nil {
		return operand{}, err
	}
	return operand{val: val, ref: &ref}, nil
}

func (e evaluator) VisitComparison(c *ast.Comparison) (operand, error) {
	left, err := e.evaluate(c.Left)
	if err != nil {
		return operand{}, err
	}
	right, err := e.evaluate(c.Right)
	if err != nil {
		return operand{}, err
	}
	switch c.Op {
	case ast.OpEqual:
		return operand{val: value.Boolean(value.Equal(left, right))}, nil
	case ast.OpLess:
		less, ok := value.Less(left, right)
		if !ok {
			return operand{}, apperrors.WithMetadata(
				apperrors.CodeRulesTypeMismatch,
				fmt.Sprintf("cannot order %s against %s", left.Kind(), right.Kind()),
				map[string]string{"Expected": left.Kind().String(), "Actual": right.Kind().String()},
			)
		}
		return operand{val: value.Boolean(less)}, nil
	default:
		return operand{}, fmt.Errorf("unsupported comparison operator %d", c.Op)
	}
}

func (e evaluator) VisitLogicalOperation(l *ast.LogicalOperation) (operand, error) {
	// Both sides are evaluated before either is inspected.
	left, err := e.evaluate(l.Left)
	if err != nil {
		return operand{}, err
	}
	right, err := e.evaluate(l.Right)
	if err != nil {
		return operand{}, err
	}
	lb, err := value.AsBoolean(left)
	if err != nil {
		return operand{}, err
	}
	rb, err := value.AsBoolean(right)
	if err != nil {
		return operand{}, err
	}
	switch l.Op {
	case ast.OpOr:
		return operand{val: lb || rb}, nil
	default:
		return operand{}, fmt.Errorf("unsupported logical operator %d", l.Op)
	}
}

func (e evaluator) VisitUnaryOperation(u *ast.UnaryOperation) (operand, error) {
	v, err := e.evaluate(u.Operand)
	if err != nil {
		return operand{}, err
	}
	b, err := value.AsBoolean(v)
	if err != nil {
		return operand{}, err
	}
	switch u.Op {
	case ast.OpNot:
		return operand{val: !b}, nil
	default:
		return operand{}, fmt.Errorf("unsupported unary operator %d", u.Op)
	}
}

func (e evaluator) VisitArithmetic(a *ast.Arithmetic) (operand, error) {
	left, err := e.evaluate(a.Left)
	if err != nil {
		return operand{}, err
	}
	right, err := e.evaluate(a.Right)
	if err != nil {
		return operand{}, err
	}
	li, err := value.AsInteger(left)
	if err != nil {
		return operand{}, err
	}
	ri, err := value.AsInteger(right)
	if err != nil {
		return operand{}, err
	}
	switch a.Op {
	case ast.OpAdd:
		return operand{val: li + ri}, nil
	default:
		return operand{}, fmt.Errorf("unsupported arithmetic operator %d", a.Op)
	}
}
