package source

import (
	"fmt"
	"math"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/JayLeung362573/373-sub000/internal/rules/ast"
	"github.com/JayLeung362573/373-sub000/internal/rules/value"
)

const (
	blockTypeName = "rules_block"
	matchTypeName = "rules_match"
)

// block collects the statements of one statement list. The value returned by
// Rules.new is the top-level block.
type block struct {
	name  string
	stmts []ast.Statement
}

// matchArms collects the candidates declared inside a match callback.
type matchArms struct {
	candidates []ast.Candidate
}

// LoadLua runs a rules script held in memory. name is used in error messages
// and as the default ruleset name.
func LoadLua(name, src string) (*Ruleset, error) {
	state := newLuaState()
	if err := lua.LoadBuffer(state, src, name, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	return runScript(state, name)
}

// LoadLuaFile runs the rules script at path.
func LoadLuaFile(path string) (*Ruleset, error) {
	state := newLuaState()
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	return runScript(state, path)
}

func runScript(state *lua.State, filename string) (*Ruleset, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("rules script must return Rules")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	root, ok := ud.(*block)
	if !ok || root == nil {
		return nil, fmt.Errorf("rules script returned invalid Rules")
	}
	name := strings.TrimSpace(root.name)
	if name == "" {
		name = NameOf(filename)
	}
	return &Ruleset{Name: name, Program: ast.Program(root.stmts)}, nil
}

func newLuaState() *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerType(state, blockTypeName, blockMethods)
	registerType(state, matchTypeName, matchMethods)

	state.NewTable()
	lua.SetFunctions(state, rulesConstructor, 0)
	state.SetGlobal("Rules")

	state.NewTable()
	lua.SetFunctions(state, expressionHelpers, 0)
	state.SetGlobal("R")
	return state
}

func registerType(state *lua.State, name string, methods []lua.RegistryFunction) {
	lua.NewMetaTable(state, name)
	state.NewTable()
	lua.SetFunctions(state, methods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

var rulesConstructor = []lua.RegistryFunction{
	{Name: "new", Function: rulesNew},
}

func rulesNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	state.PushUserData(&block{name: name})
	lua.SetMetaTableNamed(state, blockTypeName)
	return 1
}

var blockMethods = []lua.RegistryFunction{
	{Name: "assign", Function: blockAssign},
	{Name: "extend", Function: blockExtend},
	{Name: "reverse", Function: blockReverse},
	{Name: "shuffle", Function: blockShuffle},
	{Name: "discard", Function: blockDiscard},
	{Name: "sort", Function: blockSort},
	{Name: "match", Function: blockMatch},
	{Name: "for_each", Function: blockForEach},
	{Name: "input_text", Function: blockInputText},
	{Name: "input_choice", Function: blockInputChoice},
	{Name: "input_range", Function: blockInputRange},
	{Name: "input_vote", Function: blockInputVote},
	{Name: "announce", Function: blockAnnounce},
}

var matchMethods = []lua.RegistryFunction{
	{Name: "when", Function: matchWhen},
	{Name: "otherwise", Function: matchOtherwise},
}

func blockAssign(state *lua.State) int {
	b := checkBlock(state)
	b.add(&ast.Assignment{Target: checkTarget(state, 2), Value: checkExpr(state, 3)})
	return 0
}

func blockExtend(state *lua.State) int {
	b := checkBlock(state)
	b.add(&ast.Extend{Target: checkTarget(state, 2), Source: checkExpr(state, 3)})
	return 0
}

func blockReverse(state *lua.State) int {
	b := checkBlock(state)
	b.add(&ast.Reverse{Target: checkTarget(state, 2)})
	return 0
}

func blockShuffle(state *lua.State) int {
	b := checkBlock(state)
	b.add(&ast.Shuffle{Target: checkTarget(state, 2)})
	return 0
}

func blockDiscard(state *lua.State) int {
	b := checkBlock(state)
	b.add(&ast.Discard{Target: checkTarget(state, 2), Amount: checkExpr(state, 3)})
	return 0
}

func blockSort(state *lua.State) int {
	b := checkBlock(state)
	b.add(&ast.Sort{Target: checkTarget(state, 2), Key: lua.OptString(state, 3, "")})
	return 0
}

func blockMatch(state *lua.State) int {
	b := checkBlock(state)
	target := checkExpr(state, 2)
	lua.CheckType(state, 3, lua.TypeFunction)

	arms := &matchArms{}
	state.PushValue(3)
	state.PushUserData(arms)
	lua.SetMetaTableNamed(state, matchTypeName)
	state.Call(1, 0)

	b.add(&ast.Match{Target: target, Candidates: arms.candidates})
	return 0
}

func blockForEach(state *lua.State) int {
	b := checkBlock(state)
	name := lua.CheckString(state, 2)
	list := checkExpr(state, 3)
	body := runBody(state, 4)
	b.add(&ast.ForLoop{Var: name, List: list, Body: body})
	return 0
}

func blockInputText(state *lua.State) int {
	b := checkBlock(state)
	lua.CheckType(state, 2, lua.TypeTable)
	b.add(&ast.InputText{
		Player: fieldExpr(state, 2, "player"),
		Target: fieldTarget(state, 2, "target"),
		Prompt: fieldExpr(state, 2, "prompt"),
	})
	return 0
}

func blockInputChoice(state *lua.State) int {
	b := checkBlock(state)
	lua.CheckType(state, 2, lua.TypeTable)
	b.add(&ast.InputChoice{
		Player:  fieldExpr(state, 2, "player"),
		Target:  fieldTarget(state, 2, "target"),
		Prompt:  fieldExpr(state, 2, "prompt"),
		Choices: fieldExpr(state, 2, "choices"),
	})
	return 0
}

func blockInputRange(state *lua.State) int {
	b := checkBlock(state)
	lua.CheckType(state, 2, lua.TypeTable)
	b.add(&ast.InputRange{
		Player: fieldExpr(state, 2, "player"),
		Target: fieldTarget(state, 2, "target"),
		Prompt: fieldExpr(state, 2, "prompt"),
		Min:    fieldExpr(state, 2, "min"),
		Max:    fieldExpr(state, 2, "max"),
	})
	return 0
}

func blockInputVote(state *lua.State) int {
	b := checkBlock(state)
	lua.CheckType(state, 2, lua.TypeTable)
	b.add(&ast.InputVote{
		Player:  fieldExpr(state, 2, "player"),
		Target:  fieldTarget(state, 2, "target"),
		Prompt:  fieldExpr(state, 2, "prompt"),
		Choices: fieldExpr(state, 2, "choices"),
	})
	return 0
}

func blockAnnounce(state *lua.State) int {
	b := checkBlock(state)
	b.add(&ast.Announce{Message: checkExpr(state, 2)})
	return 0
}

func matchWhen(state *lua.State) int {
	arms := checkMatch(state)
	guard := checkExpr(state, 2)
	body := runBody(state, 3)
	arms.candidates = append(arms.candidates, ast.Candidate{Guard: guard, Body: body})
	return 0
}

func matchOtherwise(state *lua.State) int {
	arms := checkMatch(state)
	body := runBody(state, 2)
	arms.candidates = append(arms.candidates, ast.Candidate{Body: body})
	return 0
}

var expressionHelpers = []lua.RegistryFunction{
	{Name: "const", Function: exprConst},
	{Name: "list", Function: exprList},
	{Name: "var", Function: exprVar},
	{Name: "attr", Function: exprAttr},
	{Name: "eq", Function: exprEq},
	{Name: "lt", Function: exprLt},
	{Name: "or_", Function: exprOr},
	{Name: "not_", Function: exprNot},
	{Name: "add", Function: exprAdd},
}

func exprConst(state *lua.State) int {
	state.PushUserData(ast.Const(checkValue(state, 1)))
	return 1
}

func exprList(state *lua.State) int {
	items := make([]value.Value, 0, state.Top())
	for i := 1; i <= state.Top(); i++ {
		items = append(items, checkValue(state, i))
	}
	state.PushUserData(ast.Const(value.NewList(items...)))
	return 1
}

func exprVar(state *lua.State) int {
	state.PushUserData(checkTargetPath(state, 1))
	return 1
}

func exprAttr(state *lua.State) int {
	base := checkExpr(state, 1)
	keys := make([]string, 0, state.Top())
	for i := 2; i <= state.Top(); i++ {
		keys = append(keys, lua.CheckString(state, i))
	}
	if len(keys) == 0 {
		lua.ArgumentError(state, 2, "attribute key expected")
	}
	state.PushUserData(ast.Attr(base, keys...))
	return 1
}

func exprEq(state *lua.State) int {
	state.PushUserData(ast.Eq(checkExpr(state, 1), checkExpr(state, 2)))
	return 1
}

func exprLt(state *lua.State) int {
	state.PushUserData(ast.Lt(checkExpr(state, 1), checkExpr(state, 2)))
	return 1
}

func exprOr(state *lua.State) int {
	state.PushUserData(ast.Or(checkExpr(state, 1), checkExpr(state, 2)))
	return 1
}

func exprNot(state *lua.State) int {
	state.PushUserData(ast.Not(checkExpr(state, 1)))
	return 1
}

func exprAdd(state *lua.State) int {
	state.PushUserData(ast.Add(checkExpr(state, 1), checkExpr(state, 2)))
	return 1
}

func (b *block) add(stmt ast.Statement) {
	b.stmts = append(b.stmts, stmt)
}

func checkBlock(state *lua.State) *block {
	ud := lua.CheckUserData(state, 1, blockTypeName)
	if b, ok := ud.(*block); ok && b != nil {
		return b
	}
	lua.ArgumentError(state, 1, "rules block expected")
	return nil
}

func checkMatch(state *lua.State) *matchArms {
	ud := lua.CheckUserData(state, 1, matchTypeName)
	if arms, ok := ud.(*matchArms); ok && arms != nil {
		return arms
	}
	lua.ArgumentError(state, 1, "match expected")
	return nil
}

// runBody calls the Lua function at index with a fresh block and returns the
// statements it added.
func runBody(state *lua.State, index int) []ast.Statement {
	lua.CheckType(state, index, lua.TypeFunction)
	child := &block{}
	state.PushValue(index)
	state.PushUserData(child)
	lua.SetMetaTableNamed(state, blockTypeName)
	state.Call(1, 0)
	return child.stmts
}

func checkExpr(state *lua.State, index int) ast.Expression {
	expr, err := toExpr(state, index)
	if err != nil {
		lua.ArgumentError(state, index, err.Error())
		return nil
	}
	return expr
}

func checkTarget(state *lua.State, index int) ast.Expression {
	if state.TypeOf(index) == lua.TypeString {
		return checkTargetPath(state, index)
	}
	return checkExpr(state, index)
}

func checkTargetPath(state *lua.State, index int) ast.Expression {
	expr, err := targetPath(lua.CheckString(state, index))
	if err != nil {
		lua.ArgumentError(state, index, err.Error())
		return nil
	}
	return expr
}

func checkValue(state *lua.State, index int) value.Value {
	raw, err := luaToGo(state, index)
	if err != nil {
		lua.ArgumentError(state, index, err.Error())
		return nil
	}
	v, err := value.FromGo(raw)
	if err != nil {
		lua.ArgumentError(state, index, err.Error())
		return nil
	}
	return v
}

func fieldExpr(state *lua.State, table int, name string) ast.Expression {
	state.Field(table, name)
	defer state.Pop(1)
	expr, err := toExpr(state, -1)
	if err != nil {
		lua.Errorf(state, "field %s: %s", name, err.Error())
		return nil
	}
	return expr
}

func fieldTarget(state *lua.State, table int, name string) ast.Expression {
	state.Field(table, name)
	defer state.Pop(1)
	if state.TypeOf(-1) == lua.TypeString {
		path, _ := state.ToString(-1)
		expr, err := targetPath(path)
		if err != nil {
			lua.Errorf(state, "field %s: %s", name, err.Error())
			return nil
		}
		return expr
	}
	expr, err := toExpr(state, -1)
	if err != nil {
		lua.Errorf(state, "field %s: %s", name, err.Error())
		return nil
	}
	return expr
}

// toExpr accepts an expression built by R or a plain Lua value, which
// becomes a constant.
func toExpr(state *lua.State, index int) (ast.Expression, error) {
	switch state.TypeOf(index) {
	case lua.TypeNone, lua.TypeNil:
		return nil, fmt.Errorf("expression expected")
	case lua.TypeUserData:
		if expr, ok := state.ToUserData(index).(ast.Expression); ok && expr != nil {
			return expr, nil
		}
		return nil, fmt.Errorf("expression expected")
	default:
		raw, err := luaToGo(state, index)
		if err != nil {
			return nil, err
		}
		v, err := value.FromGo(raw)
		if err != nil {
			return nil, err
		}
		return ast.Const(v), nil
	}
}

func luaToGo(state *lua.State, index int) (any, error) {
	switch state.TypeOf(index) {
	case lua.TypeString:
		s, _ := state.ToString(index)
		return s, nil
	case lua.TypeNumber:
		n, _ := state.ToNumber(index)
		return normalizeNumber(n)
	case lua.TypeBoolean:
		return state.ToBoolean(index), nil
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil, nil
	}
}

// tableToGo turns a sequence into a list and a string-keyed table into a
// map. Tables that are neither are rejected.
func tableToGo(state *lua.State, index int) (any, error) {
	index = state.AbsIndex(index)
	maxIndex, positional, named := 0, 0, 0
	state.PushNil()
	for state.Next(index) {
		switch state.TypeOf(-2) {
		case lua.TypeString:
			named++
		case lua.TypeNumber:
			idx, ok := state.ToInteger(-2)
			if n, _ := state.ToNumber(-2); !ok || idx <= 0 || float64(idx) != n {
				state.Pop(2)
				return nil, fmt.Errorf("table key %v is not a list index", n)
			}
			positional++
			if idx > maxIndex {
				maxIndex = idx
			}
		default:
			kind := state.TypeOf(-2).String()
			state.Pop(2)
			return nil, fmt.Errorf("table key of type %s is not supported", kind)
		}
		state.Pop(1)
	}

	switch {
	case positional > 0 && named > 0:
		return nil, fmt.Errorf("table mixes list and map keys")
	case positional > 0:
		if maxIndex != positional {
			return nil, fmt.Errorf("table list has holes")
		}
		out := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			item, err := luaToGo(state, -1)
			state.Pop(1)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out = append(out, item)
		}
		return out, nil
	}

	out := make(map[string]any, named)
	state.PushNil()
	for state.Next(index) {
		key, _ := state.ToString(-2)
		item, err := luaToGo(state, -1)
		if err != nil {
			state.Pop(2)
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		out[key] = item
		state.Pop(1)
	}
	return out, nil
}

func normalizeNumber(n float64) (any, error) {
	if math.Mod(n, 1) != 0 {
		return n, nil
	}
	if n >= 1<<63 || n < -(1<<63) {
		return nil, fmt.Errorf("number %v overflows an integer", n)
	}
	return int64(n), nil
}
