package interpreter

import (
	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
	"github.com/JayLeung362573/373-sub000/internal/rules/ast"
	"github.com/JayLeung362573/373-sub000/internal/rules/cursor"
	"github.com/JayLeung362573/373-sub000/internal/rules/value"
)

// outcome says what the driver does after a statement was visited.
type outcome int

const (
	// outcomeDone advances the current frame.
	outcomeDone outcome = iota
	// outcomePending stops the driver without moving any frame.
	outcomePending
	// outcomeEnter pushes the child frame carried by the step.
	outcomeEnter
)

type step struct {
	outcome outcome
	child   *cursor.Cursor
}

var (
	done    = step{outcome: outcomeDone}
	pending = step{outcome: outcomePending}
)

func enter(child *cursor.Cursor) step {
	return step{outcome: outcomeEnter, child: child}
}

// matchState is attached to a Match whose chosen body is running.
type matchState struct {
	candidate int
}

// loopState is attached to a ForLoop whose body is running.
type loopState struct {
	items *value.List
	index int
}

// executor runs single statements on behalf of an Interpreter.
type executor struct {
	in *Interpreter
}

func (x executor) VisitAssignment(a *ast.Assignment) (step, error) {
	v, err := x.in.eval.evaluate(a.Value)
	if err != nil {
		return step{}, err
	}
	if err := x.assign(a.Target, v); err != nil {
		return step{}, err
	}
	return done, nil
}

// assign stores a copy of v at target.
func (x executor) assign(target ast.Expression, v value.Value) error {
	switch t := target.(type) {
	case *ast.Variable:
		return x.in.store.Ref(t.Name).Replace(v.Clone())
	case *ast.Attribute:
		base, err := x.in.eval.resolve(t.Base)
		if err != nil {
			return err
		}
		return base.Attribute(t.Key).Replace(v.Clone())
	default:
		return apperrors.Newf(apperrors.CodeRulesInvalidAssignmentTarget, "cannot assign to %T", target)
	}
}

func (x executor) VisitExtend(e *ast.Extend) (step, error) {
	target, err := x.in.eval.resolveList(e.Target)
	if err != nil {
		return step{}, err
	}
	src, err := x.in.eval.evaluate(e.Source)
	if err != nil {
		return step{}, err
	}
	list, err := value.AsList(src)
	if err != nil {
		return step{}, err
	}
	target.Extend(list)
	return done, nil
}

func (x executor) VisitReverse(r *ast.Reverse) (step, error) {
	target, err := x.in.eval.resolveList(r.Target)
	if err != nil {
		return step{}, err
	}
	target.Reverse()
	return done, nil
}

func (x executor) VisitShuffle(s *ast.Shuffle) (step, error) {
	target, err := x.in.eval.resolveList(s.Target)
	if err != nil {
		return step{}, err
	}
	target.Shuffle(x.in.rand)
	return done, nil
}

func (x executor) VisitDiscard(d *ast.Discard) (step, error) {
	target, err := x.in.eval.resolveList(d.Target)
	if err != nil {
		return step{}, err
	}
	raw, err := x.in.eval.evaluate(d.Amount)
	if err != nil {
		return step{}, err
	}
	n, err := value.AsInteger(raw)
	if err != nil {
		return step{}, err
	}
	target.Discard(int64(n))
	return done, nil
}

func (x executor) VisitSort(s *ast.Sort) (step, error) {
	target, err := x.in.eval.resolveList(s.Target)
	if err != nil {
		return step{}, err
	}
	var sorted *value.List
	if s.Key == "" {
		sorted, err = value.Sorted(target)
	} else {
		sorted, err = value.SortedBy(target, s.Key)
	}
	if err != nil {
		return step{}, err
	}
	target.Replace(sorted)
	return done, nil
}

func (x executor) VisitMatch(m *ast.Match) (step, error) {
	target, err := x.in.eval.evaluate(m.Target)
	if err != nil {
		return step{}, err
	}
	for i, candidate := range m.Candidates {
		if candidate.Guard != nil {
			guard, err := x.in.eval.evaluate(candidate.Guard)
			if err != nil {
				return step{}, err
			}
			if !value.Equal(guard, target) {
				continue
			}
		}
		if len(candidate.Body) == 0 {
			return done, nil
		}
		body, err := cursor.New(candidate.Body)
		if err != nil {
			return step{}, err
		}
		if err := x.in.top().SetContext(&matchState{candidate: i}); err != nil {
			return step{}, err
		}
		return enter(body), nil
	}
	return done, nil
}

func (x executor) VisitForLoop(f *ast.ForLoop) (step, error) {
	raw, err := x.in.eval.evaluate(f.List)
	if err != nil {
		return step{}, err
	}
	list, err := value.AsList(raw)
	if err != nil {
		return step{}, err
	}
	if list.Len() == 0 {
		return done, nil
	}
	if len(f.Body) == 0 {
		// Every element would be bound and then unbound.
		x.in.store.Delete(f.Var)
		return done, nil
	}
	state := &loopState{items: list.Clone().(*value.List)}
	if err := x.in.top().SetContext(state); err != nil {
		return step{}, err
	}
	body, err := x.in.bindIteration(f, state)
	if err != nil {
		return step{}, err
	}
	return enter(body), nil
}

func (x executor) VisitInputText(s *ast.InputText) (step, error) {
	player, prompt, err := x.promptFor(s.Player, s.Prompt)
	if err != nil {
		return step{}, err
	}
	answer, ok, err := x.in.mediator.GetTextInput(player, prompt)
	return x.settle(s.Target, value.String(answer), ok, err)
}

func (x executor) VisitInputChoice(s *ast.InputChoice) (step, error) {
	player, prompt, err := x.promptFor(s.Player, s.Prompt)
	if err != nil {
		return step{}, err
	}
	choices, err := x.choices(s.Choices)
	if err != nil {
		return step{}, err
	}
	answer, ok, err := x.in.mediator.GetChoiceInput(player, prompt, choices)
	return x.settle(s.Target, value.String(answer), ok, err)
}

func (x executor) VisitInputRange(s *ast.InputRange) (step, error) {
	player, prompt, err := x.promptFor(s.Player, s.Prompt)
	if err != nil {
		return step{}, err
	}
	lo, err := x.integer(s.Min)
	if err != nil {
		return step{}, err
	}
	hi, err := x.integer(s.Max)
	if err != nil {
		return step{}, err
	}
	answer, ok, err := x.in.mediator.GetRangeInput(player, prompt, lo, hi)
	return x.settle(s.Target, value.Integer(answer), ok, err)
}

func (x executor) VisitInputVote(s *ast.InputVote) (step, error) {
	player, prompt, err := x.promptFor(s.Player, s.Prompt)
	if err != nil {
		return step{}, err
	}
	choices, err := x.choices(s.Choices)
	if err != nil {
		return step{}, err
	}
	answer, ok, err := x.in.mediator.GetVoteInput(player, prompt, choices)
	return x.settle(s.Target, value.String(answer), ok, err)
}

func (x executor) VisitAnnounce(a *ast.Announce) (step, error) {
	v, err := x.in.eval.evaluate(a.Message)
	if err != nil {
		return step{}, err
	}
	x.in.mediator.SendOutput(v.String())
	return done, nil
}

// promptFor evaluates the player's id attribute and the prompt text.
func (x executor) promptFor(playerExpr, promptExpr ast.Expression) (string, string, error) {
	player, err := x.in.eval.evaluate(playerExpr)
	if err != nil {
		return "", "", err
	}
	rawID, err := value.GetAttribute(player, "id")
	if err != nil {
		return "", "", err
	}
	id, err := value.AsString(rawID)
	if err != nil {
		return "", "", err
	}
	rawPrompt, err := x.in.eval.evaluate(promptExpr)
	if err != nil {
		return "", "", err
	}
	prompt, err := value.AsString(rawPrompt)
	if err != nil {
		return "", "", err
	}
	return string(id), string(prompt), nil
}

func (x executor) choices(expr ast.Expression) ([]string, error) {
	raw, err := x.in.eval.evaluate(expr)
	if err != nil {
		return nil, err
	}
	list, err := value.AsList(raw)
	if err != nil {
		return nil, err
	}
	return value.Strings(list)
}

func (x executor) integer(expr ast.Expression) (int64, error) {
	raw, err := x.in.eval.evaluate(expr)
	if err != nil {
		return 0, err
	}
	n, err := value.AsInteger(raw)
	return int64(n), err
}

// settle assigns an available answer to target, or suspends.
func (x executor) settle(target ast.Expression, answer value.Value, ok bool, err error) (step, error) {
	if err != nil {
		return step{}, err
	}
	if !ok {
		return pending, nil
	}
	return x.VisitAssignment(&ast.Assignment{Target: target, Value: &ast.Constant{Value: answer}})
}
