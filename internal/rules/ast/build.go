package ast

import "github.com/JayLeung362573/373-sub000/internal/rules/value"

// Const wraps v in a Constant.
func Const(v value.Value) *Constant { return &Constant{Value: v} }

// Str is shorthand for a String constant.
func Str(s string) *Constant { return Const(value.String(s)) }

// Int is shorthand for an Integer constant.
func Int(i int64) *Constant { return Const(value.Integer(i)) }

// Bool is shorthand for a Boolean constant.
func Bool(b bool) *Constant { return Const(value.Boolean(b)) }

// Var references a variable.
func Var(name string) *Variable { return &Variable{Name: name} }

// Attr builds the attribute chain base.k1.k2...
func Attr(base Expression, keys ...string) Expression {
	out := base
	for _, key := range keys {
		out = &Attribute{Base: out, Key: key}
	}
	return out
}

// Eq compares two expressions for structural equality.
func Eq(left, right Expression) *Comparison {
	return &Comparison{Left: left, Right: right, Op: OpEqual}
}

// Lt compares two expressions for ordering.
func Lt(left, right Expression) *Comparison {
	return &Comparison{Left: left, Right: right, Op: OpLess}
}

// Or combines two boolean expressions.
func Or(left, right Expression) *LogicalOperation {
	return &LogicalOperation{Left: left, Right: right, Op: OpOr}
}

// Not negates a boolean expression.
func Not(operand Expression) *UnaryOperation {
	return &UnaryOperation{Operand: operand, Op: OpNot}
}

// Add sums two integer expressions.
func Add(left, right Expression) *Arithmetic {
	return &Arithmetic{Left: left, Right: right, Op: OpAdd}
}

// Assign builds an assignment statement.
func Assign(target, v Expression) *Assignment {
	return &Assignment{Target: target, Value: v}
}
