package iterator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iterlower/internal/bound"
	diag "iterlower/internal/errors"
	"iterlower/internal/invariant"
	"iterlower/internal/iterator"
	"iterlower/internal/symbols"
	"iterlower/internal/text"
)

type region struct {
	syntax  *bound.Syntax
	members *symbols.MemberBuilder
	state   *symbols.Field
	cleanup bound.Statement
}

func newRegion() *region {
	owner := symbols.NewStateMachineType("M")
	members := symbols.NewMemberBuilder(owner)
	state := symbols.NewField(owner, "$state", symbols.Int, true)
	members.Add(state)

	syntax := bound.NewSyntax(bound.SyntaxStatement, text.Span{}, nil)
	return &region{
		syntax:  syntax,
		members: members,
		state:   state,
		cleanup: bound.NewStaticCall(syntax, symbols.NewHostMethod("Cleanup", symbols.Void)),
	}
}

func (r *region) try(body ...bound.Statement) *bound.Try {
	return &bound.Try{
		Origin:   bound.FromSyntax(r.syntax),
		TryBlock: bound.NewBlock(r.syntax, body...),
		Finally:  bound.NewBlock(r.syntax, r.cleanup),
	}
}

func (r *region) yield() bound.Statement {
	return &bound.YieldReturn{Origin: bound.FromSyntax(r.syntax), Expr: bound.NewInt(r.syntax, 1)}
}

func TestExtract(t *testing.T) {
	r := newRegion()
	try := r.try(r.yield())

	method, call := iterator.Extract(try, r.members, r.state, -3, "$finally1")

	require.NotNil(t, method)
	assert.Equal(t, "$finally1", method.Symbol.Name)
	assert.Equal(t, symbols.SynthesizedFinally, method.Symbol.Synthesized)
	assert.Equal(t, symbols.Private, method.Symbol.Accessibility)
	assert.Same(t, r.members.Owner(), method.Symbol.Containing)

	// state reset, then the original statements, in order
	require.Len(t, method.Body.Statements, 2)
	reset := method.Body.Statements[0].(*bound.ExpressionStatement).Expr.(*bound.Assignment)
	assert.Same(t, r.state, reset.Target.(*bound.FieldRef).Field)
	assert.Equal(t, -3, reset.Value.(*bound.Literal).Value)
	assert.Same(t, r.cleanup, method.Body.Statements[1])

	invocation := call.(*bound.ExpressionStatement).Expr.(*bound.Call)
	assert.Same(t, method.Symbol, invocation.Method)
	assert.IsType(t, &bound.This{}, invocation.Receiver)

	assert.Equal(t, 2, r.members.Len())
}

func TestExtractTwiceCreatesDistinctMethods(t *testing.T) {
	r := newRegion()
	try := r.try(r.yield())

	first, _ := iterator.Extract(try, r.members, r.state, -1, r.members.UniqueName("$finally1"))
	second, _ := iterator.Extract(try, r.members, r.state, -1, r.members.UniqueName("$finally1"))

	assert.NotEqual(t, first.Symbol.Name, second.Symbol.Name)
	assert.Equal(t, bound.Print(first.Body), bound.Print(second.Body))
}

func TestExtractRejectsRegionWithoutSuspension(t *testing.T) {
	r := newRegion()
	try := r.try(r.cleanup)

	err := invariant.Capture(func() { iterator.Extract(try, r.members, r.state, -1, "$finally1") })
	v, ok := invariant.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.ErrorSpuriousExtraction, v.Code)
	assert.Equal(t, 1, r.members.Len(), "nothing added")
}

func TestExtractRejectsTryWithoutFinally(t *testing.T) {
	r := newRegion()
	try := r.try(r.yield())
	try.Finally = nil
	try.Catches = []*bound.Catch{{Origin: bound.Generated(r.syntax), Body: bound.NewBlock(r.syntax)}}

	err := invariant.Capture(func() { iterator.Extract(try, r.members, r.state, -1, "$finally1") })
	v, ok := invariant.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.ErrorSpuriousExtraction, v.Code)
}

func TestExtractIntoFrozenType(t *testing.T) {
	r := newRegion()
	r.members.Freeze()

	err := invariant.Capture(func() { iterator.Extract(r.try(r.yield()), r.members, r.state, -1, "$finally1") })
	v, ok := invariant.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.ErrorFrozenType, v.Code)
}
