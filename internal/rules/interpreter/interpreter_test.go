package interpreter

import (
	"math/rand/v2"
	"testing"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
	"github.com/JayLeung362573/373-sub000/internal/rules/ast"
	"github.com/JayLeung362573/373-sub000/internal/rules/input"
	"github.com/JayLeung362573/373-sub000/internal/rules/value"
)

func player(id string) value.Value {
	return value.NewMap(map[string]value.Value{"id": value.String(id)})
}

func ints(values ...int64) *value.List {
	out := value.NewList()
	for _, v := range values {
		out.Append(value.Integer(v))
	}
	return out
}

func newInterpreter(t *testing.T, program ast.Program, opts ...Option) *Interpreter {
	t.Helper()
	in, err := New(program, opts...)
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}
	return in
}

func execute(t *testing.T, in *Interpreter, want Status) {
	t.Helper()
	got, err := in.Execute()
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != want {
		t.Fatalf("status = %v, want %v", got, want)
	}
}

func load(t *testing.T, in *Interpreter, name string) value.Value {
	t.Helper()
	v, err := in.Variables().Load(name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return v
}

func wantCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if apperrors.CodeOf(err) != code {
		t.Fatalf("error = %v, want code %s", err, code)
	}
}

func TestNewRejectsEmptyProgram(t *testing.T) {
	_, err := New(nil)
	wantCode(t, err, apperrors.CodeRulesInvalidIteratorState)
}

func TestWholeVariableAssignmentCopies(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		ast.Assign(ast.Var("x"), ast.Str("100")),
		ast.Assign(ast.Var("y"), ast.Var("x")),
		ast.Assign(ast.Var("x"), ast.Str("c")),
	})
	execute(t, in, StatusDone)

	if got := load(t, in, "y"); !value.Equal(got, value.String("100")) {
		t.Fatalf("y = %v, want 100", got)
	}
	if got := load(t, in, "x"); !value.Equal(got, value.String("c")) {
		t.Fatalf("x = %v, want c", got)
	}
}

func TestListAssignmentCopies(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		ast.Assign(ast.Var("a"), ast.Const(ints(1, 2))),
		ast.Assign(ast.Var("b"), ast.Var("a")),
		&ast.Reverse{Target: ast.Var("a")},
	})
	execute(t, in, StatusDone)

	if got := load(t, in, "b"); !value.Equal(got, ints(1, 2)) {
		t.Fatalf("b = %v, want [1, 2]", got)
	}
	if got := load(t, in, "a"); !value.Equal(got, ints(2, 1)) {
		t.Fatalf("a = %v, want [2, 1]", got)
	}
}

func TestAttributeAssignmentMutatesInPlace(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		ast.Assign(ast.Var("m"), ast.Const(value.NewMap(nil))),
		ast.Assign(ast.Attr(ast.Var("m"), "a"), ast.Str("1")),
	})
	execute(t, in, StatusDone)

	m, err := value.AsMap(load(t, in, "m"))
	if err != nil {
		t.Fatalf("as map: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("len = %d, want 1", m.Len())
	}
	if got, _ := m.Get("a"); !value.Equal(got, value.String("1")) {
		t.Fatalf("m.a = %v, want 1", got)
	}
}

func TestNestedAttributeAssignment(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		ast.Assign(ast.Attr(ast.Var("game"), "board", "size"), ast.Int(9)),
	}, WithVariables(map[string]value.Value{
		"game": value.NewMap(map[string]value.Value{"board": value.NewMap(nil)}),
	}))
	execute(t, in, StatusDone)

	got, err := in.Variables().Ref("game", "board", "size").Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !value.Equal(got, value.Integer(9)) {
		t.Fatalf("size = %v, want 9", got)
	}
}

func TestAssignmentIntoSelfCopies(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		ast.Assign(ast.Var("m"), ast.Const(value.NewMap(nil))),
		ast.Assign(ast.Attr(ast.Var("m"), "self"), ast.Var("m")),
		ast.Assign(ast.Attr(ast.Var("m"), "n"), ast.Int(1)),
	})
	execute(t, in, StatusDone)

	inner, err := in.Variables().Ref("m", "self").Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if inner.(*value.Map).Len() != 0 {
		t.Fatalf("m.self = %v, want empty", inner)
	}
}

func TestListStatements(t *testing.T) {
	tests := []struct {
		name string
		stmt ast.Statement
		want *value.List
	}{
		{name: "discard past size", stmt: &ast.Discard{Target: ast.Var("l"), Amount: ast.Int(5)}, want: ints()},
		{name: "discard negative", stmt: &ast.Discard{Target: ast.Var("l"), Amount: ast.Int(-1)}, want: ints(1, 2)},
		{name: "discard zero", stmt: &ast.Discard{Target: ast.Var("l"), Amount: ast.Int(0)}, want: ints(1, 2)},
		{name: "discard one", stmt: &ast.Discard{Target: ast.Var("l"), Amount: ast.Int(1)}, want: ints(2)},
		{name: "extend", stmt: &ast.Extend{Target: ast.Var("l"), Source: ast.Const(ints(3))}, want: ints(1, 2, 3)},
		{name: "extend self", stmt: &ast.Extend{Target: ast.Var("l"), Source: ast.Var("l")}, want: ints(1, 2, 1, 2)},
		{name: "reverse", stmt: &ast.Reverse{Target: ast.Var("l")}, want: ints(2, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newInterpreter(t, ast.Program{tt.stmt}, WithVariables(map[string]value.Value{"l": ints(1, 2)}))
			execute(t, in, StatusDone)
			if got := load(t, in, "l"); !value.Equal(got, tt.want) {
				t.Fatalf("l = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListStatementTypeErrors(t *testing.T) {
	tests := []struct {
		name string
		stmt ast.Statement
		code apperrors.Code
	}{
		{name: "discard string amount", stmt: &ast.Discard{Target: ast.Var("l"), Amount: ast.Str("1")}, code: apperrors.CodeRulesTypeMismatch},
		{name: "extend with scalar", stmt: &ast.Extend{Target: ast.Var("l"), Source: ast.Int(1)}, code: apperrors.CodeRulesTypeMismatch},
		{name: "reverse scalar", stmt: &ast.Reverse{Target: ast.Var("s")}, code: apperrors.CodeRulesTypeMismatch},
		{name: "shuffle constant", stmt: &ast.Shuffle{Target: ast.Const(ints(1))}, code: apperrors.CodeRulesInvalidTarget},
		{name: "reverse undefined", stmt: &ast.Reverse{Target: ast.Var("nope")}, code: apperrors.CodeRulesUndefinedVariable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newInterpreter(t, ast.Program{tt.stmt}, WithVariables(map[string]value.Value{
				"l": ints(1, 2),
				"s": value.String("x"),
			}))
			_, err := in.Execute()
			wantCode(t, err, tt.code)
		})
	}
}

func TestSortFailureLeavesListUntouched(t *testing.T) {
	mixed := value.NewList(value.String("a"), value.Integer(1))
	in := newInterpreter(t, ast.Program{&ast.Sort{Target: ast.Var("l")}}, WithVariables(map[string]value.Value{"l": mixed}))

	_, err := in.Execute()
	wantCode(t, err, apperrors.CodeRulesTypeMismatch)
	if got := load(t, in, "l"); !value.Equal(got, mixed) {
		t.Fatalf("l = %v, want %v", got, mixed)
	}
}

func TestSortByKey(t *testing.T) {
	card := func(rank int64, name string) value.Value {
		return value.NewMap(map[string]value.Value{"rank": value.Integer(rank), "name": value.String(name)})
	}
	hand := value.NewList(card(3, "c"), card(1, "a"), card(2, "b"))
	in := newInterpreter(t, ast.Program{
		&ast.Sort{Target: ast.Var("hand"), Key: "rank"},
		&ast.Sort{Target: ast.Var("nums")},
	}, WithVariables(map[string]value.Value{"hand": hand, "nums": ints(3, 1, 2)}))
	execute(t, in, StatusDone)

	want := value.NewList(card(1, "a"), card(2, "b"), card(3, "c"))
	if got := load(t, in, "hand"); !value.Equal(got, want) {
		t.Fatalf("hand = %v, want %v", got, want)
	}
	if got := load(t, in, "nums"); !value.Equal(got, ints(1, 2, 3)) {
		t.Fatalf("nums = %v", got)
	}
}

func TestSortByMissingKeyFails(t *testing.T) {
	hand := value.NewList(
		value.NewMap(map[string]value.Value{"rank": value.Integer(2)}),
		value.NewMap(nil),
	)
	in := newInterpreter(t, ast.Program{&ast.Sort{Target: ast.Var("hand"), Key: "rank"}},
		WithVariables(map[string]value.Value{"hand": hand}))

	_, err := in.Execute()
	wantCode(t, err, apperrors.CodeRulesMissingAttribute)
	if got := load(t, in, "hand"); !value.Equal(got, hand) {
		t.Fatalf("hand = %v, want unchanged", got)
	}
}

func TestShuffleUsesInjectedSource(t *testing.T) {
	run := func() value.Value {
		in := newInterpreter(t, ast.Program{&ast.Shuffle{Target: ast.Var("deck")}},
			WithRand(rand.New(rand.NewPCG(7, 11))),
			WithVariables(map[string]value.Value{"deck": ints(1, 2, 3, 4, 5, 6, 7, 8)}))
		execute(t, in, StatusDone)
		return load(t, in, "deck")
	}
	first, second := run(), run()
	if !value.Equal(first, second) {
		t.Fatalf("seeded shuffles differ: %v vs %v", first, second)
	}
	if first.(*value.List).Len() != 8 {
		t.Fatalf("deck = %v", first)
	}
}

func TestMatchFirstCandidateWins(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		&ast.Match{
			Target: ast.Bool(true),
			Candidates: []ast.Candidate{
				{Guard: ast.Eq(ast.Str("1"), ast.Str("1")), Body: []ast.Statement{ast.Assign(ast.Var("winner"), ast.Str("first"))}},
				{Guard: ast.Eq(ast.Str("1"), ast.Str("1")), Body: []ast.Statement{ast.Assign(ast.Var("winner"), ast.Str("second"))}},
			},
		},
	})
	execute(t, in, StatusDone)

	if got := load(t, in, "winner"); !value.Equal(got, value.String("first")) {
		t.Fatalf("winner = %v, want first", got)
	}
}

func TestMatchDefaultAndNoMatch(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		&ast.Match{
			Target: ast.Int(3),
			Candidates: []ast.Candidate{
				{Guard: ast.Int(1), Body: []ast.Statement{ast.Assign(ast.Var("a"), ast.Str("one"))}},
				{Body: []ast.Statement{ast.Assign(ast.Var("a"), ast.Str("default"))}},
			},
		},
		&ast.Match{
			Target:     ast.Int(3),
			Candidates: []ast.Candidate{{Guard: ast.Int(4), Body: []ast.Statement{ast.Assign(ast.Var("b"), ast.Int(1))}}},
		},
		&ast.Match{
			Target:     ast.Int(3),
			Candidates: []ast.Candidate{{Guard: ast.Int(3)}},
		},
		ast.Assign(ast.Var("after"), ast.Bool(true)),
	})
	execute(t, in, StatusDone)

	if got := load(t, in, "a"); !value.Equal(got, value.String("default")) {
		t.Fatalf("a = %v, want default", got)
	}
	if in.Variables().Has("b") {
		t.Fatal("non-matching candidate ran")
	}
	if !in.Variables().Has("after") {
		t.Fatal("statement after match did not run")
	}
}

func TestForLoopSuspendsAndResumesSameIteration(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		ast.Assign(ast.Var("sum"), ast.Int(0)),
		&ast.ForLoop{
			Var:  "x",
			List: ast.Const(ints(10, 20, 20)),
			Body: []ast.Statement{
				ast.Assign(ast.Var("sum"), ast.Add(ast.Var("sum"), ast.Var("x"))),
				&ast.InputText{Player: ast.Var("p"), Target: ast.Var("answer"), Prompt: ast.Str("ready?")},
				ast.Assign(ast.Var("last"), ast.Var("x")),
			},
		},
	}, WithVariables(map[string]value.Value{"p": player("p1")}))

	execute(t, in, StatusNeedsIO)
	if !in.NeedsIO() || in.Done() {
		t.Fatalf("needs io = %v, done = %v", in.NeedsIO(), in.Done())
	}
	if got := load(t, in, "sum"); !value.Equal(got, value.Integer(10)) {
		t.Fatalf("sum = %v, want 10", got)
	}
	if in.Variables().Has("last") {
		t.Fatal("statement after the input ran before the answer arrived")
	}
	if in.Depth() != 2 {
		t.Fatalf("depth = %d, want 2", in.Depth())
	}

	requests := in.ConsumeOutGameMessages()
	if len(requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(requests))
	}
	if requests[0].Key() != (input.Key{PlayerID: "p1", Prompt: "ready?"}) {
		t.Fatalf("request key = %+v", requests[0].Key())
	}

	in.SetInGameMessages([]input.Response{input.TextInput{PlayerID: "p1", Prompt: "ready?", Input: "yes"}})
	execute(t, in, StatusDone)

	if got := load(t, in, "sum"); !value.Equal(got, value.Integer(50)) {
		t.Fatalf("sum = %v, want 50", got)
	}
	if got := load(t, in, "last"); !value.Equal(got, value.Integer(20)) {
		t.Fatalf("last = %v, want 20", got)
	}
	if got := load(t, in, "answer"); !value.Equal(got, value.String("yes")) {
		t.Fatalf("answer = %v, want yes", got)
	}
	if in.Variables().Has("x") {
		t.Fatal("loop variable leaked")
	}
}

func TestForLoopSnapshotsList(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		ast.Assign(ast.Var("count"), ast.Int(0)),
		&ast.ForLoop{
			Var:  "x",
			List: ast.Var("l"),
			Body: []ast.Statement{
				&ast.Extend{Target: ast.Var("l"), Source: ast.Const(ints(9))},
				ast.Assign(ast.Var("count"), ast.Add(ast.Var("count"), ast.Int(1))),
			},
		},
	}, WithVariables(map[string]value.Value{"l": ints(1, 2)}))
	execute(t, in, StatusDone)

	if got := load(t, in, "count"); !value.Equal(got, value.Integer(2)) {
		t.Fatalf("count = %v, want 2", got)
	}
	if got := load(t, in, "l"); !value.Equal(got, ints(1, 2, 9, 9)) {
		t.Fatalf("l = %v", got)
	}
}

func TestForLoopOverEmptyListOrBody(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		&ast.ForLoop{Var: "x", List: ast.Const(ints()), Body: []ast.Statement{ast.Assign(ast.Var("ran"), ast.Bool(true))}},
		&ast.ForLoop{Var: "y", List: ast.Const(ints(1, 2))},
		ast.Assign(ast.Var("after"), ast.Bool(true)),
	})
	execute(t, in, StatusDone)

	if in.Variables().Has("ran") || in.Variables().Has("y") {
		t.Fatalf("unexpected variables %v", in.Variables().Names())
	}
	if !in.Variables().Has("after") {
		t.Fatal("statement after loops did not run")
	}
}

func TestNestedMatchInsideLoopResumes(t *testing.T) {
	rounds := value.NewList(
		value.NewMap(map[string]value.Value{"prompt": value.String("first roll")}),
		value.NewMap(map[string]value.Value{"prompt": value.String("second roll")}),
	)
	in := newInterpreter(t, ast.Program{
		ast.Assign(ast.Var("total"), ast.Int(0)),
		&ast.ForLoop{
			Var:  "round",
			List: ast.Var("rounds"),
			Body: []ast.Statement{
				&ast.Match{
					Target: ast.Bool(true),
					Candidates: []ast.Candidate{{
						Guard: ast.Not(ast.Bool(false)),
						Body: []ast.Statement{
							&ast.InputRange{
								Player: ast.Var("p"),
								Target: ast.Var("roll"),
								Prompt: ast.Attr(ast.Var("round"), "prompt"),
								Min:    ast.Int(1),
								Max:    ast.Int(6),
							},
							ast.Assign(ast.Var("total"), ast.Add(ast.Var("total"), ast.Var("roll"))),
						},
					}},
				},
			},
		},
		&ast.Announce{Message: ast.Var("total")},
	}, WithVariables(map[string]value.Value{"p": player("p1"), "rounds": rounds}))

	execute(t, in, StatusNeedsIO)
	if in.Depth() != 3 {
		t.Fatalf("depth = %d, want 3", in.Depth())
	}
	reqs := in.ConsumeOutGameMessages()
	if len(reqs) != 1 || reqs[0].Key().Prompt != "first roll" {
		t.Fatalf("requests = %+v", reqs)
	}
	if r, ok := reqs[0].(input.GetRangeInput); !ok || r.Min != 1 || r.Max != 6 {
		t.Fatalf("request = %#v", reqs[0])
	}

	// Without an answer the interpreter stays put and asks nothing new.
	execute(t, in, StatusNeedsIO)
	if got := in.ConsumeOutGameMessages(); len(got) != 0 {
		t.Fatalf("duplicate requests = %+v", got)
	}

	in.SetInGameMessages([]input.Response{input.RangeInput{PlayerID: "p1", Prompt: "first roll", Value: "3"}})
	execute(t, in, StatusNeedsIO)
	reqs = in.ConsumeOutGameMessages()
	if len(reqs) != 1 || reqs[0].Key().Prompt != "second roll" {
		t.Fatalf("requests = %+v", reqs)
	}

	in.SetInGameMessages([]input.Response{input.RangeInput{PlayerID: "p1", Prompt: "second roll", Value: "4"}})
	execute(t, in, StatusDone)
	if got := load(t, in, "total"); !value.Equal(got, value.Integer(7)) {
		t.Fatalf("total = %v, want 7", got)
	}
	if out := in.PopOutputs(); len(out) != 1 || out[0] != "7" {
		t.Fatalf("outputs = %v", out)
	}
	if in.Depth() != 0 {
		t.Fatalf("depth = %d, want 0", in.Depth())
	}
}

func TestInputChoiceAndVote(t *testing.T) {
	suits := value.NewList(value.String("hearts"), value.String("spades"))
	in := newInterpreter(t, ast.Program{
		&ast.InputChoice{Player: ast.Var("p"), Target: ast.Attr(ast.Var("state"), "suit"), Prompt: ast.Str("suit"), Choices: ast.Var("suits")},
		&ast.InputVote{Player: ast.Var("q"), Target: ast.Var("vote"), Prompt: ast.Str("suit vote"), Choices: ast.Var("suits")},
	}, WithVariables(map[string]value.Value{
		"p":     player("p1"),
		"q":     player("p2"),
		"suits": suits,
		"state": value.NewMap(nil),
	}))
	in.SetInGameMessages([]input.Response{
		input.ChoiceInput{PlayerID: "p1", Prompt: "suit", Choice: "spades"},
		input.VoteInput{PlayerID: "p2", Prompt: "suit vote", Vote: "hearts"},
	})
	execute(t, in, StatusDone)

	got, err := in.Variables().Ref("state", "suit").Load()
	if err != nil || !value.Equal(got, value.String("spades")) {
		t.Fatalf("state.suit = %v, %v", got, err)
	}
	if got := load(t, in, "vote"); !value.Equal(got, value.String("hearts")) {
		t.Fatalf("vote = %v", got)
	}
}

func TestInputRangeOutOfBoundsFails(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		&ast.InputRange{Player: ast.Var("p"), Target: ast.Var("bid"), Prompt: ast.Str("bid"), Min: ast.Int(0), Max: ast.Int(3)},
	}, WithVariables(map[string]value.Value{"p": player("p1")}))
	in.SetInGameMessages([]input.Response{input.RangeInput{PlayerID: "p1", Prompt: "bid", Value: "4"}})

	_, err := in.Execute()
	wantCode(t, err, apperrors.CodeRulesArgumentValidation)
	if in.Variables().Has("bid") {
		t.Fatal("rejected answer was stored")
	}
}

func TestInputRequiresPlayerID(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		&ast.InputText{Player: ast.Var("p"), Target: ast.Var("name"), Prompt: ast.Str("name")},
	}, WithVariables(map[string]value.Value{"p": value.NewMap(nil)}))

	_, err := in.Execute()
	wantCode(t, err, apperrors.CodeRulesMissingAttribute)
}

func TestExpressionErrors(t *testing.T) {
	tests := []struct {
		name string
		stmt ast.Statement
		code apperrors.Code
	}{
		{name: "undefined variable", stmt: ast.Assign(ast.Var("x"), ast.Var("missing")), code: apperrors.CodeRulesUndefinedVariable},
		{name: "missing attribute", stmt: ast.Assign(ast.Var("x"), ast.Attr(ast.Var("m"), "nope")), code: apperrors.CodeRulesMissingAttribute},
		{name: "attribute of scalar", stmt: ast.Assign(ast.Var("x"), ast.Attr(ast.Var("n"), "a")), code: apperrors.CodeRulesTypeMismatch},
		{name: "attribute of constant", stmt: ast.Assign(ast.Var("x"), ast.Attr(ast.Const(value.NewMap(nil)), "a")), code: apperrors.CodeRulesInvalidTarget},
		{name: "assign to constant", stmt: ast.Assign(ast.Int(1), ast.Int(2)), code: apperrors.CodeRulesInvalidAssignmentTarget},
		{name: "less across kinds", stmt: ast.Assign(ast.Var("x"), ast.Lt(ast.Int(1), ast.Str("1"))), code: apperrors.CodeRulesTypeMismatch},
		{name: "less on lists", stmt: ast.Assign(ast.Var("x"), ast.Lt(ast.Const(ints()), ast.Const(ints()))), code: apperrors.CodeRulesTypeMismatch},
		{name: "or on integers", stmt: ast.Assign(ast.Var("x"), ast.Or(ast.Int(1), ast.Bool(true))), code: apperrors.CodeRulesTypeMismatch},
		{name: "or evaluates both sides", stmt: ast.Assign(ast.Var("x"), ast.Or(ast.Bool(true), ast.Var("missing"))), code: apperrors.CodeRulesUndefinedVariable},
		{name: "not on string", stmt: ast.Assign(ast.Var("x"), ast.Not(ast.Str("yes"))), code: apperrors.CodeRulesTypeMismatch},
		{name: "add strings", stmt: ast.Assign(ast.Var("x"), ast.Add(ast.Str("a"), ast.Int(1))), code: apperrors.CodeRulesTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newInterpreter(t, ast.Program{tt.stmt}, WithVariables(map[string]value.Value{
				"m": value.NewMap(nil),
				"n": value.Integer(1),
			}))
			_, err := in.Execute()
			wantCode(t, err, tt.code)
		})
	}
}

func TestExpressionValues(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expression
		want value.Value
	}{
		{name: "equal lists", expr: ast.Eq(ast.Const(ints(1, 2)), ast.Const(ints(1, 2))), want: value.Boolean(true)},
		{name: "equal across kinds", expr: ast.Eq(ast.Int(1), ast.Str("1")), want: value.Boolean(false)},
		{name: "less strings", expr: ast.Lt(ast.Str("a"), ast.Str("b")), want: value.Boolean(true)},
		{name: "less booleans", expr: ast.Lt(ast.Bool(false), ast.Bool(true)), want: value.Boolean(true)},
		{name: "or", expr: ast.Or(ast.Bool(false), ast.Bool(true)), want: value.Boolean(true)},
		{name: "not", expr: ast.Not(ast.Bool(true)), want: value.Boolean(false)},
		{name: "add", expr: ast.Add(ast.Int(2), ast.Int(40)), want: value.Integer(42)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newInterpreter(t, ast.Program{ast.Assign(ast.Var("x"), tt.expr)})
			execute(t, in, StatusDone)
			if got := load(t, in, "x"); !value.Equal(got, tt.want) {
				t.Fatalf("x = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecuteAfterDoneFails(t *testing.T) {
	in := newInterpreter(t, ast.Program{ast.Assign(ast.Var("x"), ast.Int(1))})
	execute(t, in, StatusDone)

	_, err := in.Execute()
	wantCode(t, err, apperrors.CodeRulesInvalidIteratorState)
}

func TestAnnounceRendersValues(t *testing.T) {
	in := newInterpreter(t, ast.Program{
		&ast.Announce{Message: ast.Str("welcome")},
		&ast.Announce{Message: ast.Const(ints(1, 2))},
	})
	execute(t, in, StatusDone)

	out := in.PopOutputs()
	if len(out) != 2 || out[0] != "welcome" || out[1] != "[1, 2]" {
		t.Fatalf("outputs = %q", out)
	}
}
