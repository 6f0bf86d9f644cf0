// Package interpreter executes a rules program against one variable store and
// one input mediator, suspending whenever a player's answer is missing.
//
// Suspension is plain data: a stack of cursors, one per active block. Execute
// advances the top cursor, pushes a cursor when a match or for-each enters its
// body, pops finished cursors, and returns as soon as an input statement has
// nothing to read, leaving every cursor where it was.
package interpreter

import (
	"fmt"
	"math/rand/v2"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
	"github.com/JayLeung362573/373-sub000/internal/rules/ast"
	"github.com/JayLeung362573/373-sub000/internal/rules/cursor"
	"github.com/JayLeung362573/373-sub000/internal/rules/input"
	"github.com/JayLeung362573/373-sub000/internal/rules/value"
	"github.com/JayLeung362573/373-sub000/internal/rules/vars"
)

// Status reports how an Execute call ended.
type Status int

const (
	// StatusRunning means Execute has not been called yet.
	StatusRunning Status = iota
	// StatusNeedsIO means an input statement is waiting for an answer.
	StatusNeedsIO
	// StatusDone means every statement has run.
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusNeedsIO:
		return "needs_io"
	case StatusDone:
		return "done"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithRand sets the source used by shuffle. Sessions pass a seeded source so
// a journal replays to the same state.
func WithRand(src *rand.Rand) Option {
	return func(in *Interpreter) {
		in.rand = src
	}
}

// WithVariables seeds the store before the first statement runs.
func WithVariables(initial map[string]value.Value) Option {
	return func(in *Interpreter) {
		for _, name := range value.SortedNames(initial) {
			in.store.Store(name, initial[name])
		}
	}
}

// Interpreter owns one program, store, and mediator. It is not safe for
// concurrent use; the owning session serializes calls.
type Interpreter struct {
	program  ast.Program
	store    *vars.Store
	mediator *input.Mediator
	eval     evaluator
	rand     *rand.Rand
	frames   []*cursor.Cursor
	status   Status
}

// New prepares program for execution. An empty program is rejected.
func New(program ast.Program, opts ...Option) (*Interpreter, error) {
	root, err := cursor.New(program)
	if err != nil {
		return nil, err
	}
	store := vars.New()
	in := &Interpreter{
		program:  program,
		store:    store,
		mediator: input.NewMediator(),
		eval:     evaluator{store: store},
		frames:   []*cursor.Cursor{root},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

// SetInGameMessages records player answers for the next Execute.
func (in *Interpreter) SetInGameMessages(responses []input.Response) {
	in.mediator.HandleIncomingMessages(responses)
}

// ConsumeOutGameMessages returns and clears the outstanding input requests.
func (in *Interpreter) ConsumeOutGameMessages() []input.Request {
	requests := in.mediator.PendingRequests()
	in.mediator.ClearPendingRequests()
	return requests
}

// PopOutputs drains the announcements produced so far.
func (in *Interpreter) PopOutputs() []string {
	return in.mediator.PopPendingOutputs()
}

// Variables exposes the store. Callers must not use it concurrently with
// Execute.
func (in *Interpreter) Variables() *vars.Store { return in.store }

// Status returns how the last Execute ended.
func (in *Interpreter) Status() Status { return in.status }

// NeedsIO reports whether the last Execute stopped on a missing answer.
func (in *Interpreter) NeedsIO() bool { return in.status == StatusNeedsIO }

// Done reports whether the program has finished.
func (in *Interpreter) Done() bool { return in.status == StatusDone }

// Depth returns the number of active blocks, the program itself included.
func (in *Interpreter) Depth() int { return len(in.frames) }

// Execute runs statements until one needs input or the program ends. An
// error aborts the call and leaves the interpreter where the failing
// statement was.
func (in *Interpreter) Execute() (Status, error) {
	if in.status == StatusDone {
		return in.status, apperrors.New(apperrors.CodeRulesInvalidIteratorState, "execute after the program finished")
	}
	run := executor{in: in}
	for {
		top := in.top()
		if top == nil {
			in.status = StatusDone
			return in.status, nil
		}
		stmt, ok := top.Current()
		if !ok {
			if err := in.leaveBlock(); err != nil {
				return in.status, err
			}
			continue
		}
		next, err := ast.VisitStatement[step](stmt, run)
		if err != nil {
			return in.status, err
		}
		switch next.outcome {
		case outcomePending:
			in.status = StatusNeedsIO
			return in.status, nil
		case outcomeEnter:
			in.frames = append(in.frames, next.child)
		default:
			if err := top.Next(); err != nil {
				return in.status, err
			}
		}
	}
}

func (in *Interpreter) top() *cursor.Cursor {
	if len(in.frames) == 0 {
		return nil
	}
	return in.frames[len(in.frames)-1]
}

// leaveBlock pops a finished frame and lets the statement that owns it decide
// whether to run its body again or move on.
func (in *Interpreter) leaveBlock() error {
	in.frames = in.frames[:len(in.frames)-1]
	parent := in.top()
	if parent == nil {
		return nil
	}
	stmt, ok := parent.Current()
	if !ok {
		return apperrors.New(apperrors.CodeRulesInvalidIteratorState, "finished block has no owning statement")
	}

	if _, ok := cursor.Context[*matchState](parent); ok {
		return parent.Next()
	}
	if state, ok := cursor.Context[*loopState](parent); ok {
		loop, isLoop := stmt.(*ast.ForLoop)
		if !isLoop {
			return apperrors.New(apperrors.CodeRulesInvalidIteratorState, "loop state attached to a non-loop statement")
		}
		state.index++
		if state.index < state.items.Len() {
			body, err := in.bindIteration(loop, state)
			if err != nil {
				return err
			}
			in.frames = append(in.frames, body)
			return nil
		}
		in.store.Delete(loop.Var)
		return parent.Next()
	}
	return apperrors.New(apperrors.CodeRulesInvalidIteratorState, "finished block has no continuation state")
}

// bindIteration binds the loop variable to the current element and returns a
// fresh cursor over the body.
func (in *Interpreter) bindIteration(loop *ast.ForLoop, state *loopState) (*cursor.Cursor, error) {
	in.store.Store(loop.Var, state.items.At(state.index))
	return cursor.New(loop.Body)
}
