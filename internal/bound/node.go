package bound

import (
	"iterlower/internal/symbols"
	"iterlower/internal/text"
)

// Node is an immutable node of a bound tree
type Node interface {
	Kind() Kind
	Syntax() *Syntax
	Span() text.Span
	WasCompilerGenerated() bool
}

// Statement is a node that executes for effect
type Statement interface {
	Node
	statementNode()
}

// Expression is a node that produces a value
type Expression interface {
	Node
	Type() *symbols.Type
	expressionNode()
}

// Block is a braced statement list with its own local scope
type Block struct {
	Origin
	Locals     []*symbols.Local
	Statements []Statement
}

// StatementList groups statements without introducing a scope. Lowering
// uses it where one statement expands into several.
type StatementList struct {
	Origin
	Statements []Statement
}

// SequencePoint marks a location a debugger may stop at. It has no effect.
type SequencePoint struct {
	Origin
	At text.Span
}

// NoOp is an empty statement
type NoOp struct {
	Origin
}

// LocalDeclaration declares a local, optionally initializing it
type LocalDeclaration struct {
	Origin
	Local *symbols.Local
	Init  Expression
}

// ExpressionStatement evaluates an expression and discards its value
type ExpressionStatement struct {
	Origin
	Expr Expression
}

// Return leaves the method. Expr is nil for void methods.
type Return struct {
	Origin
	Expr Expression
}

// YieldReturn produces the next element of a resumable method and suspends
type YieldReturn struct {
	Origin
	Expr Expression
}

// YieldBreak ends a resumable method
type YieldBreak struct {
	Origin
}

// Try is a protected region. Finally is nil when there is none.
type Try struct {
	Origin
	TryBlock *Block
	Catches  []*Catch
	Finally  *Block
}

// Catch is one handler of a Try. Local, when set, receives the exception.
type Catch struct {
	Origin
	Local *symbols.Local
	Body  *Block
}

// Throw raises Expr, or rethrows the exception being handled when Expr is nil
type Throw struct {
	Origin
	Expr Expression
}

// If is a two-way branch. Else is nil when absent.
type If struct {
	Origin
	Cond Expression
	Then Statement
	Else Statement
}

// While is a pre-tested loop. The binder assigns both labels.
type While struct {
	Origin
	Cond          Expression
	Body          Statement
	BreakLabel    *symbols.Label
	ContinueLabel *symbols.Label
}

// Break leaves the innermost loop
type Break struct {
	Origin
	Label *symbols.Label
}

// Continue starts the next iteration of the innermost loop
type Continue struct {
	Origin
	Label *symbols.Label
}

// LabelStatement defines a jump target
type LabelStatement struct {
	Origin
	Label *symbols.Label
}

// Goto jumps unconditionally
type Goto struct {
	Origin
	Label *symbols.Label
}

// ConditionalGoto jumps when Cond evaluates to JumpIfTrue
type ConditionalGoto struct {
	Origin
	Cond       Expression
	JumpIfTrue bool
	Label      *symbols.Label
}

// DispatchCase routes one integer value to a label
type DispatchCase struct {
	Value int
	Label *symbols.Label
}

// Dispatch jumps to the label of the case matching Expr, or to Default
type Dispatch struct {
	Origin
	Expr    Expression
	Cases   []DispatchCase
	Default *symbols.Label
}

func (*Block) Kind() Kind               { return KindBlock }
func (*StatementList) Kind() Kind       { return KindStatementList }
func (*SequencePoint) Kind() Kind       { return KindSequencePoint }
func (*NoOp) Kind() Kind                { return KindNoOp }
func (*LocalDeclaration) Kind() Kind    { return KindLocalDeclaration }
func (*ExpressionStatement) Kind() Kind { return KindExpressionStatement }
func (*Return) Kind() Kind              { return KindReturn }
func (*YieldReturn) Kind() Kind         { return KindYieldReturn }
func (*YieldBreak) Kind() Kind          { return KindYieldBreak }
func (*Try) Kind() Kind                 { return KindTry }
func (*Throw) Kind() Kind               { return KindThrow }
func (*If) Kind() Kind                  { return KindIf }
func (*While) Kind() Kind               { return KindWhile }
func (*Break) Kind() Kind               { return KindBreak }
func (*Continue) Kind() Kind            { return KindContinue }
func (*LabelStatement) Kind() Kind      { return KindLabel }
func (*Goto) Kind() Kind                { return KindGoto }
func (*ConditionalGoto) Kind() Kind     { return KindConditionalGoto }
func (*Dispatch) Kind() Kind            { return KindDispatch }

func (*Block) statementNode()               {}
func (*StatementList) statementNode()       {}
func (*SequencePoint) statementNode()       {}
func (*NoOp) statementNode()                {}
func (*LocalDeclaration) statementNode()    {}
func (*ExpressionStatement) statementNode() {}
func (*Return) statementNode()              {}
func (*YieldReturn) statementNode()         {}
func (*YieldBreak) statementNode()          {}
func (*Try) statementNode()                 {}
func (*Throw) statementNode()               {}
func (*If) statementNode()                  {}
func (*While) statementNode()               {}
func (*Break) statementNode()               {}
func (*Continue) statementNode()            {}
func (*LabelStatement) statementNode()      {}
func (*Goto) statementNode()                {}
func (*ConditionalGoto) statementNode()     {}
func (*Dispatch) statementNode()            {}

// Update returns b when nothing changed, otherwise a new block with the
// same origin
func (b *Block) Update(locals []*symbols.Local, statements []Statement) *Block {
	if sameLocals(b.Locals, locals) && sameStatements(b.Statements, statements) {
		return b
	}
	return &Block{Origin: b.Origin, Locals: locals, Statements: statements}
}

// NewBlock creates a compiler-generated block
func NewBlock(syntax *Syntax, statements ...Statement) *Block {
	return &Block{Origin: Generated(syntax), Statements: statements}
}

// NewList creates a compiler-generated statement list
func NewList(syntax *Syntax, statements ...Statement) *StatementList {
	return &StatementList{Origin: Generated(syntax), Statements: statements}
}

// NewGoto creates a compiler-generated jump
func NewGoto(syntax *Syntax, label *symbols.Label) *Goto {
	return &Goto{Origin: Generated(syntax), Label: label}
}

// NewLabel creates a compiler-generated label definition
func NewLabel(syntax *Syntax, label *symbols.Label) *LabelStatement {
	return &LabelStatement{Origin: Generated(syntax), Label: label}
}

// NewExpressionStatement creates a compiler-generated expression statement
func NewExpressionStatement(syntax *Syntax, expr Expression) *ExpressionStatement {
	return &ExpressionStatement{Origin: Generated(syntax), Expr: expr}
}

func sameLocals(a, b []*symbols.Local) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameStatements(a, b []Statement) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
