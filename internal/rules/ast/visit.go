package ast

import "fmt"

// ExpressionVisitor handles every expression kind.
type ExpressionVisitor[R any] interface {
	VisitConstant(*Constant) (R, error)
	VisitVariable(*Variable) (R, error)
	VisitAttribute(*Attribute) (R, error)
	VisitComparison(*Comparison) (R, error)
	VisitLogicalOperation(*LogicalOperation) (R, error)
	VisitUnaryOperation(*UnaryOperation) (R, error)
	VisitArithmetic(*Arithmetic) (R, error)
}

// StatementVisitor handles every statement kind.
type StatementVisitor[R any] interface {
	VisitAssignment(*Assignment) (R, error)
	VisitExtend(*Extend) (R, error)
	VisitReverse(*Reverse) (R, error)
	VisitShuffle(*Shuffle) (R, error)
	VisitDiscard(*Discard) (R, error)
	VisitSort(*Sort) (R, error)
	VisitMatch(*Match) (R, error)
	VisitForLoop(*ForLoop) (R, error)
	VisitInputText(*InputText) (R, error)
	VisitInputChoice(*InputChoice) (R, error)
	VisitInputRange(*InputRange) (R, error)
	VisitInputVote(*InputVote) (R, error)
	VisitAnnounce(*Announce) (R, error)
}

// VisitExpression dispatches e to the matching visitor method.
func VisitExpression[R any](e Expression, v ExpressionVisitor[R]) (R, error) {
	switch n := e.(type) {
	case *Constant:
		return v.VisitConstant(n)
	case *Variable:
		return v.VisitVariable(n)
	case *Attribute:
		return v.VisitAttribute(n)
	case *Comparison:
		return v.VisitComparison(n)
	case *LogicalOperation:
		return v.VisitLogicalOperation(n)
	case *UnaryOperation:
		return v.VisitUnaryOperation(n)
	case *Arithmetic:
		return v.VisitArithmetic(n)
	}
	var zero R
	return zero, fmt.Errorf("unsupported expression %T", e)
}

// VisitStatement dispatches s to the matching visitor method.
func VisitStatement[R any](s Statement, v StatementVisitor[R]) (R, error) {
	switch n := s.(type) {
	case *Assignment:
		return v.VisitAssignment(n)
	case *Extend:
		return v.VisitExtend(n)
	case *Reverse:
		return v.VisitReverse(n)
	case *Shuffle:
		return v.VisitShuffle(n)
	case *Discard:
		return v.VisitDiscard(n)
	case *Sort:
		return v.VisitSort(n)
	case *Match:
		return v.VisitMatch(n)
	case *ForLoop:
		return v.VisitForLoop(n)
	case *InputText:
		return v.VisitInputText(n)
	case *InputChoice:
		return v.VisitInputChoice(n)
	case *InputRange:
		return v.VisitInputRange(n)
	case *InputVote:
		return v.VisitInputVote(n)
	case *Announce:
		return v.VisitAnnounce(n)
	}
	var zero R
	return zero, fmt.Errorf("unsupported statement %T", s)
}
