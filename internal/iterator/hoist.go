package iterator

import (
	"iterlower/internal/bound"
	diag "iterlower/internal/errors"
	"iterlower/internal/invariant"
	"iterlower/internal/symbols"
)

// hoister moves locals and parameters into fields of the state machine.
// Values live across suspension points, so no stack slot can hold them.
// Catch variables stay local: a handler never contains a suspension point.
type hoister struct {
	members *symbols.MemberBuilder
	locals  map[*symbols.Local]*symbols.Field
	params  []*symbols.Field
}

func newHoister(members *symbols.MemberBuilder, params []*symbols.Parameter) *hoister {
	h := &hoister{
		members: members,
		locals:  make(map[*symbols.Local]*symbols.Field),
		params:  make([]*symbols.Field, len(params)),
	}
	for i, p := range params {
		h.params[i] = h.field("$param."+p.Name, p.Type)
	}
	return h
}

func (h *hoister) field(base string, typ *symbols.Type) *symbols.Field {
	f := symbols.NewField(h.members.Owner(), h.members.UniqueName(base), typ, true)
	h.members.Add(f)
	return f
}

func (h *hoister) parameterFields() []*symbols.Field {
	return h.params
}

func (h *hoister) localField(l *symbols.Local) *symbols.Field {
	if f, ok := h.locals[l]; ok {
		return f
	}
	f := h.field("$local."+l.Name, l.Type)
	h.locals[l] = f
	return f
}

func (h *hoister) block(b *bound.Block) *bound.Block {
	for _, l := range b.Locals {
		h.localField(l)
	}
	return &bound.Block{Origin: b.Origin, Statements: h.statements(b.Statements)}
}

func (h *hoister) statements(list []bound.Statement) []bound.Statement {
	out := make([]bound.Statement, len(list))
	for i, s := range list {
		out[i] = h.statement(s)
	}
	return out
}

func (h *hoister) statement(s bound.Statement) bound.Statement {
	switch n := s.(type) {
	case *bound.Block:
		return h.block(n)
	case *bound.StatementList:
		return &bound.StatementList{Origin: n.Origin, Statements: h.statements(n.Statements)}
	case *bound.ExpressionStatement:
		return &bound.ExpressionStatement{Origin: n.Origin, Expr: h.expression(n.Expr)}
	case *bound.Return:
		return &bound.Return{Origin: n.Origin, Expr: h.optional(n.Expr)}
	case *bound.YieldReturn:
		return &bound.YieldReturn{Origin: n.Origin, Expr: h.expression(n.Expr)}
	case *bound.Throw:
		return &bound.Throw{Origin: n.Origin, Expr: h.optional(n.Expr)}
	case *bound.ConditionalGoto:
		return &bound.ConditionalGoto{Origin: n.Origin, Cond: h.expression(n.Cond), JumpIfTrue: n.JumpIfTrue, Label: n.Label}
	case *bound.Dispatch:
		return &bound.Dispatch{Origin: n.Origin, Expr: h.expression(n.Expr), Cases: n.Cases, Default: n.Default}
	case *bound.Try:
		var finally *bound.Block
		if n.Finally != nil {
			finally = h.block(n.Finally)
		}
		catches := make([]*bound.Catch, len(n.Catches))
		for i, c := range n.Catches {
			catches[i] = &bound.Catch{Origin: c.Origin, Local: c.Local, Body: h.block(c.Body)}
		}
		return &bound.Try{Origin: n.Origin, TryBlock: h.block(n.TryBlock), Catches: catches, Finally: finally}
	case *bound.SequencePoint, *bound.YieldBreak, *bound.LabelStatement, *bound.Goto:
		return n
	}
	invariant.Fail(diag.ErrorNotLowered, s.Span(), "%s reached state machine rewriting", s.Kind())
	return nil
}

func (h *hoister) optional(e bound.Expression) bound.Expression {
	if e == nil {
		return nil
	}
	return h.expression(e)
}

func (h *hoister) expression(e bound.Expression) bound.Expression {
	switch n := e.(type) {
	case *bound.LocalRef:
		if f, ok := h.locals[n.Local]; ok {
			return &bound.FieldRef{Origin: n.Origin, Receiver: bound.NewThis(n.Syntax(), f.Containing), Field: f}
		}
		return n
	case *bound.ParameterRef:
		invariant.Check(n.Parameter.Ordinal >= 0 && n.Parameter.Ordinal < len(h.params), diag.ErrorUnreachable, n.Span(),
			"parameter %s has no hoisted field", n.Parameter.Name)
		f := h.params[n.Parameter.Ordinal]
		return &bound.FieldRef{Origin: n.Origin, Receiver: bound.NewThis(n.Syntax(), f.Containing), Field: f}
	case *bound.Literal, *bound.This:
		return n
	case *bound.FieldRef:
		return &bound.FieldRef{Origin: n.Origin, Receiver: h.expression(n.Receiver), Field: n.Field}
	case *bound.Assignment:
		return &bound.Assignment{Origin: n.Origin, Target: h.expression(n.Target), Value: h.expression(n.Value)}
	case *bound.Binary:
		return &bound.Binary{Origin: n.Origin, Op: n.Op, Left: h.expression(n.Left), Right: h.expression(n.Right)}
	case *bound.Unary:
		return &bound.Unary{Origin: n.Origin, Op: n.Op, Operand: h.expression(n.Operand)}
	case *bound.Call:
		args := make([]bound.Expression, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = h.expression(a)
		}
		return &bound.Call{Origin: n.Origin, Receiver: h.optional(n.Receiver), Method: n.Method, Arguments: args}
	}
	invariant.Fail(diag.ErrorUnhandledKind, e.Span(), "no hoisting rule for %T", e)
	return nil
}
