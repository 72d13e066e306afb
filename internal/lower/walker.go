package lower

import (
	"github.com/tliron/commonlog"

	"iterlower/internal/bound"
	diag "iterlower/internal/errors"
	"iterlower/internal/invariant"
	"iterlower/internal/symbols"
	"iterlower/internal/text"
)

var log = commonlog.GetLogger("iterlower.lower")

// Options control one lowering pass
type Options struct {
	GenerateDebugInfo bool
}

// Walker rewrites bound trees into the lowered target subset. One walker
// serves one method, including the bodies synthesized for it, so that
// generated label names stay distinct.
type Walker struct {
	opts   Options
	labels int
}

// NewWalker creates a walker
func NewWalker(opts Options) *Walker {
	return &Walker{opts: opts}
}

// Options returns the walker's options
func (w *Walker) Options() Options {
	return w.opts
}

// NewLabel creates a compiler label unique within the walker's method
func (w *Walker) NewLabel(prefix string) *symbols.Label {
	w.labels++
	return symbols.GeneratedLabel(prefix, w.labels)
}

// Block rewrites a block. The result is never nil.
func (w *Walker) Block(b *bound.Block) *bound.Block {
	invariant.Check(b != nil, diag.ErrorNilRewrite, text.Span{}, "block rewrite on nil block")

	if b.WasCompilerGenerated() || !w.opts.GenerateDebugInfo {
		return b.Update(b.Locals, w.Statements(b.Statements))
	}

	syntax := b.Syntax()
	invariant.Check(syntax.IsBlock(), diag.ErrorMalformedSyntax, b.Span(),
		"user block bound from %s syntax", syntaxKind(syntax))

	statements := make([]bound.Statement, 0, len(b.Statements)+2)
	statements = append(statements, sequencePoint(syntax, syntax.OpenBrace))
	statements = append(statements, w.Statements(b.Statements)...)
	if !syntax.IsOutermostBody() {
		statements = append(statements, sequencePoint(syntax, syntax.CloseBrace))
	}

	// Markers are now explicit, so later passes must not add them again.
	return &bound.Block{Origin: b.Origin.AsGenerated(), Locals: b.Locals, Statements: statements}
}

// Statements rewrites a statement list, dropping elided statements
func (w *Walker) Statements(list []bound.Statement) []bound.Statement {
	out := make([]bound.Statement, 0, len(list))
	for _, s := range list {
		if r := w.Statement(s); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Statement rewrites one statement. A nil result means the statement was
// elided.
func (w *Walker) Statement(s bound.Statement) bound.Statement {
	switch n := s.(type) {
	case *bound.Block:
		return w.Block(n)

	case *bound.StatementList:
		return &bound.StatementList{Origin: n.Origin, Statements: w.Statements(n.Statements)}

	case *bound.SequencePoint:
		return n

	case *bound.NoOp:
		if n.WasCompilerGenerated() || !w.opts.GenerateDebugInfo {
			return &bound.Block{Origin: n.Origin.AsGenerated()}
		}
		return &bound.Block{
			Origin:     n.Origin.AsGenerated(),
			Statements: []bound.Statement{sequencePoint(n.Syntax(), n.Span())},
		}

	case *bound.LocalDeclaration:
		if n.Init == nil {
			return nil
		}
		return &bound.ExpressionStatement{
			Origin: n.Origin,
			Expr: &bound.Assignment{
				Origin: n.Origin,
				Target: &bound.LocalRef{Origin: n.Origin, Local: n.Local},
				Value:  w.Expression(n.Init),
			},
		}

	case *bound.ExpressionStatement:
		return &bound.ExpressionStatement{Origin: n.Origin, Expr: w.Expression(n.Expr)}

	case *bound.Return:
		return &bound.Return{Origin: n.Origin, Expr: w.optional(n.Expr)}

	case *bound.YieldReturn:
		return &bound.YieldReturn{Origin: n.Origin, Expr: w.Expression(n.Expr)}

	case *bound.YieldBreak:
		return n

	case *bound.Try:
		return w.try(n)

	case *bound.Throw:
		return &bound.Throw{Origin: n.Origin, Expr: w.optional(n.Expr)}

	case *bound.If:
		return w.ifStatement(n)

	case *bound.While:
		return w.while(n)

	case *bound.Break:
		return &bound.Goto{Origin: n.Origin, Label: n.Label}

	case *bound.Continue:
		return &bound.Goto{Origin: n.Origin, Label: n.Label}

	case *bound.LabelStatement:
		return n

	case *bound.Goto:
		return n

	case *bound.ConditionalGoto:
		return &bound.ConditionalGoto{Origin: n.Origin, Cond: w.Expression(n.Cond), JumpIfTrue: n.JumpIfTrue, Label: n.Label}

	case *bound.Dispatch:
		return &bound.Dispatch{Origin: n.Origin, Expr: w.Expression(n.Expr), Cases: n.Cases, Default: n.Default}
	}

	return w.unhandled(s)
}

// try splits try/catch/finally into a try/finally around a try/catch
func (w *Walker) try(n *bound.Try) bound.Statement {
	tryBlock := w.Block(n.TryBlock)

	var catches []*bound.Catch
	for _, c := range n.Catches {
		catches = append(catches, &bound.Catch{Origin: c.Origin, Local: c.Local, Body: w.Block(c.Body)})
	}

	var finally *bound.Block
	if n.Finally != nil {
		finally = w.Block(n.Finally)
	}

	if len(catches) > 0 && finally != nil {
		inner := &bound.Try{Origin: n.Origin.AsGenerated(), TryBlock: tryBlock, Catches: catches}
		return &bound.Try{
			Origin:   n.Origin,
			TryBlock: bound.NewBlock(n.Syntax(), inner),
			Finally:  finally,
		}
	}
	return &bound.Try{Origin: n.Origin, TryBlock: tryBlock, Catches: catches, Finally: finally}
}

//	if !cond goto else
//	then
//	goto end
//	else:
//	else
//	end:
func (w *Walker) ifStatement(n *bound.If) bound.Statement {
	syntax := n.Syntax()
	cond := w.Expression(n.Cond)
	then := w.Statement(n.Then)
	end := w.NewLabel("endif")

	if n.Else == nil {
		return statementList(n.Origin,
			&bound.ConditionalGoto{Origin: bound.Generated(syntax), Cond: cond, JumpIfTrue: false, Label: end},
			then,
			bound.NewLabel(syntax, end),
		)
	}

	elseLabel := w.NewLabel("else")
	return statementList(n.Origin,
		&bound.ConditionalGoto{Origin: bound.Generated(syntax), Cond: cond, JumpIfTrue: false, Label: elseLabel},
		then,
		bound.NewGoto(syntax, end),
		bound.NewLabel(syntax, elseLabel),
		w.Statement(n.Else),
		bound.NewLabel(syntax, end),
	)
}

//	continue:
//	if !cond goto break
//	body
//	goto continue
//	break:
func (w *Walker) while(n *bound.While) bound.Statement {
	syntax := n.Syntax()
	invariant.Check(n.BreakLabel != nil && n.ContinueLabel != nil, diag.ErrorMalformedSyntax, n.Span(),
		"loop without binder-assigned labels")

	return statementList(n.Origin,
		bound.NewLabel(syntax, n.ContinueLabel),
		&bound.ConditionalGoto{Origin: bound.Generated(syntax), Cond: w.Expression(n.Cond), JumpIfTrue: false, Label: n.BreakLabel},
		w.Statement(n.Body),
		bound.NewGoto(syntax, n.ContinueLabel),
		bound.NewLabel(syntax, n.BreakLabel),
	)
}

// Expression rewrites an expression. The result is never nil.
func (w *Walker) Expression(e bound.Expression) bound.Expression {
	switch n := e.(type) {
	case *bound.Literal, *bound.LocalRef, *bound.ParameterRef, *bound.This:
		return n

	case *bound.FieldRef:
		return &bound.FieldRef{Origin: n.Origin, Receiver: w.Expression(n.Receiver), Field: n.Field}

	case *bound.Assignment:
		return &bound.Assignment{Origin: n.Origin, Target: w.Expression(n.Target), Value: w.Expression(n.Value)}

	case *bound.Binary:
		return &bound.Binary{Origin: n.Origin, Op: n.Op, Left: w.Expression(n.Left), Right: w.Expression(n.Right)}

	case *bound.Unary:
		return &bound.Unary{Origin: n.Origin, Op: n.Op, Operand: w.Expression(n.Operand)}

	case *bound.Call:
		args := make([]bound.Expression, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = w.Expression(a)
		}
		return &bound.Call{Origin: n.Origin, Receiver: w.optional(n.Receiver), Method: n.Method, Arguments: args}
	}

	if e == nil {
		invariant.Fail(diag.ErrorNilRewrite, text.Span{}, "missing required expression")
	}
	w.unhandled(e)
	return nil
}

func (w *Walker) optional(e bound.Expression) bound.Expression {
	if e == nil {
		return nil
	}
	return w.Expression(e)
}

func (w *Walker) unhandled(n bound.Node) bound.Statement {
	invariant.Fail(diag.ErrorUnhandledKind, n.Span(), "no rewrite rule for %s node %T", n.Kind(), n)
	return nil
}

func statementList(origin bound.Origin, statements ...bound.Statement) *bound.StatementList {
	out := make([]bound.Statement, 0, len(statements))
	for _, s := range statements {
		if s != nil {
			out = append(out, s)
		}
	}
	return &bound.StatementList{Origin: origin, Statements: out}
}

func sequencePoint(syntax *bound.Syntax, at text.Span) *bound.SequencePoint {
	return &bound.SequencePoint{Origin: bound.Generated(syntax), At: at}
}

func syntaxKind(s *bound.Syntax) string {
	if s == nil {
		return "missing"
	}
	return s.Kind.String()
}
