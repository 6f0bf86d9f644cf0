package ast

import (
	"fmt"
	"testing"
)

type nameVisitor struct{}

func (nameVisitor) VisitConstant(*Constant) (string, error)                 { return "constant", nil }
func (nameVisitor) VisitVariable(*Variable) (string, error)                 { return "variable", nil }
func (nameVisitor) VisitAttribute(*Attribute) (string, error)               { return "attribute", nil }
func (nameVisitor) VisitComparison(*Comparison) (string, error)             { return "comparison", nil }
func (nameVisitor) VisitLogicalOperation(*LogicalOperation) (string, error) { return "logical", nil }
func (nameVisitor) VisitUnaryOperation(*UnaryOperation) (string, error)     { return "unary", nil }
func (nameVisitor) VisitArithmetic(*Arithmetic) (string, error)             { return "arithmetic", nil }
func (nameVisitor) VisitAssignment(*Assignment) (string, error)             { return "assignment", nil }
func (nameVisitor) VisitExtend(*Extend) (string, error)                     { return "extend", nil }
func (nameVisitor) VisitReverse(*Reverse) (string, error)                   { return "reverse", nil }
func (nameVisitor) VisitShuffle(*Shuffle) (string, error)                   { return "shuffle", nil }
func (nameVisitor) VisitDiscard(*Discard) (string, error)                   { return "discard", nil }
func (nameVisitor) VisitSort(*Sort) (string, error)                         { return "sort", nil }
func (nameVisitor) VisitMatch(*Match) (string, error)                       { return "match", nil }
func (nameVisitor) VisitForLoop(*ForLoop) (string, error)                   { return "for", nil }
func (nameVisitor) VisitInputText(*InputText) (string, error)               { return "input_text", nil }
func (nameVisitor) VisitInputChoice(*InputChoice) (string, error)           { return "input_choice", nil }
func (nameVisitor) VisitInputRange(*InputRange) (string, error)             { return "input_range", nil }
func (nameVisitor) VisitInputVote(*InputVote) (string, error)               { return "input_vote", nil }
func (nameVisitor) VisitAnnounce(*Announce) (string, error)                 { return "announce", nil }

func TestVisitExpressionDispatchesEveryKind(t *testing.T) {
	exprs := map[string]Expression{
		"constant":   Int(1),
		"variable":   Var("x"),
		"attribute":  Attr(Var("x"), "a"),
		"comparison": Eq(Int(1), Int(1)),
		"logical":    Or(Bool(true), Bool(false)),
		"unary":      Not(Bool(true)),
		"arithmetic": Add(Int(1), Int(2)),
	}
	for want, expr := range exprs {
		got, err := VisitExpression[string](expr, nameVisitor{})
		if err != nil {
			t.Fatalf("visit %s: %v", want, err)
		}
		if got != want {
			t.Fatalf("visit = %q, want %q", got, want)
		}
	}
}

func TestVisitStatementDispatchesEveryKind(t *testing.T) {
	stmts := map[string]Statement{
		"assignment":   Assign(Var("x"), Int(1)),
		"extend":       &Extend{Target: Var("x"), Source: Var("y")},
		"reverse":      &Reverse{Target: Var("x")},
		"shuffle":      &Shuffle{Target: Var("x")},
		"discard":      &Discard{Target: Var("x"), Amount: Int(1)},
		"sort":         &Sort{Target: Var("x")},
		"match":        &Match{Target: Var("x")},
		"for":          &ForLoop{Var: "i", List: Var("x")},
		"input_text":   &InputText{},
		"input_choice": &InputChoice{},
		"input_range":  &InputRange{},
		"input_vote":   &InputVote{},
		"announce":     &Announce{Message: Str("hi")},
	}
	for want, stmt := range stmts {
		got, err := VisitStatement[string](stmt, nameVisitor{})
		if err != nil {
			t.Fatalf("visit %s: %v", want, err)
		}
		if got != want {
			t.Fatalf("visit = %q, want %q", got, want)
		}
	}
}

func TestAttrBuildsChain(t *testing.T) {
	expr := Attr(Var("game"), "board", "cells")
	outer, ok := expr.(*Attribute)
	if !ok || outer.Key != "cells" {
		t.Fatalf("outer = %#v", expr)
	}
	inner, ok := outer.Base.(*Attribute)
	if !ok || inner.Key != "board" {
		t.Fatalf("inner = %#v", outer.Base)
	}
	if got := fmt.Sprint(inner.Base.(*Variable).Name); got != "game" {
		t.Fatalf("root = %q, want game", got)
	}
}
