// Package ast defines the statement and expression tree executed by the rules
// interpreter.
//
// Both node families are closed: the marker methods are unexported, so only
// this package can add node kinds. Consumers handle nodes by implementing
// StatementVisitor and ExpressionVisitor; adding a node kind adds a visitor
// method and breaks every consumer that does not handle it.
package ast

import "github.com/JayLeung362573/373-sub000/internal/rules/value"

// Program is the ordered top-level statement list of a ruleset.
type Program []Statement

// Expression is a node that yields a value or a reference.
type Expression interface {
	expression()
}

// Statement is a node executed for its effects.
type Statement interface {
	statement()
}

// CompareOp selects a comparison.
type CompareOp int

const (
	OpEqual CompareOp = iota
	OpLess
)

func (op CompareOp) String() string {
	switch op {
	case OpEqual:
		return "=="
	case OpLess:
		return "<"
	default:
		return "?"
	}
}

// LogicalOp selects a binary boolean operation.
type LogicalOp int

const (
	OpOr LogicalOp = iota
)

// UnaryOp selects a unary boolean operation.
type UnaryOp int

const (
	OpNot UnaryOp = iota
)

// ArithmeticOp selects an integer operation.
type ArithmeticOp int

const (
	OpAdd ArithmeticOp = iota
)

// Constant is a literal value. Each evaluation yields a fresh copy.
type Constant struct {
	Value value.Value
}

// Variable names an entry of the variable store.
type Variable struct {
	Name string
}

// Attribute reads Key from the map that Base refers to.
type Attribute struct {
	Base Expression
	Key  string
}

// Comparison compares two values.
type Comparison struct {
	Left  Expression
	Right Expression
	Op    CompareOp
}

// LogicalOperation combines two booleans. Both sides are always evaluated.
type LogicalOperation struct {
	Left  Expression
	Right Expression
	Op    LogicalOp
}

// UnaryOperation transforms one boolean.
type UnaryOperation struct {
	Operand Expression
	Op      UnaryOp
}

// Arithmetic combines two integers.
type Arithmetic struct {
	Left  Expression
	Right Expression
	Op    ArithmeticOp
}

func (*Constant) expression()         {}
func (*Variable) expression()         {}
func (*Attribute) expression()        {}
func (*Comparison) expression()       {}
func (*LogicalOperation) expression() {}
func (*UnaryOperation) expression()   {}
func (*Arithmetic) expression()       {}

// Assignment writes a copy of Value into Target. Target must be a Variable
// or an Attribute chain.
type Assignment struct {
	Target Expression
	Value  Expression
}

// Extend appends the elements of Source to the list Target refers to.
type Extend struct {
	Target Expression
	Source Expression
}

// Reverse reverses the list Target refers to.
type Reverse struct {
	Target Expression
}

// Shuffle permutes the list Target refers to.
type Shuffle struct {
	Target Expression
}

// Discard drops the first Amount elements of the list Target refers to.
type Discard struct {
	Target Expression
	Amount Expression
}

// Sort orders the list Target refers to. When Key is non-empty the elements
// must be maps and are ordered by that attribute.
type Sort struct {
	Target Expression
	Key    string
}

// Candidate is one arm of a Match. A nil Guard always matches.
type Candidate struct {
	Guard Expression
	Body  []Statement
}

// Match runs the body of the first candidate whose guard equals Target.
type Match struct {
	Target     Expression
	Candidates []Candidate
}

// ForLoop binds Var to each element of a snapshot of List and runs Body.
type ForLoop struct {
	Var  string
	List Expression
	Body []Statement
}

// InputText asks Player for free text and stores it in Target.
type InputText struct {
	Player Expression
	Target Expression
	Prompt Expression
}

// InputChoice asks Player to pick one of Choices.
type InputChoice struct {
	Player  Expression
	Target  Expression
	Prompt  Expression
	Choices Expression
}

// InputRange asks Player for an integer between Min and Max inclusive.
type InputRange struct {
	Player Expression
	Target Expression
	Prompt Expression
	Min    Expression
	Max    Expression
}

// InputVote asks Player to vote for one of Choices.
type InputVote struct {
	Player  Expression
	Target  Expression
	Prompt  Expression
	Choices Expression
}

// Announce sends a free-text message to every player.
type Announce struct {
	Message Expression
}

func (*Assignment) statement()  {}
func (*Extend) statement()      {}
func (*Reverse) statement()     {}
func (*Shuffle) statement()     {}
func (*Discard) statement()     {}
func (*Sort) statement()        {}
func (*Match) statement()       {}
func (*ForLoop) statement()     {}
func (*InputText) statement()   {}
func (*InputChoice) statement() {}
func (*InputRange) statement()  {}
func (*InputVote) statement()   {}
func (*Announce) statement()    {}
