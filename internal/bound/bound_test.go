package bound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iterlower/internal/symbols"
	"iterlower/internal/text"
)

func call(name string) *ExpressionStatement {
	return NewStaticCall(nil, symbols.NewHostMethod(name, symbols.Void))
}

func TestKindNamesCoverEveryKind(t *testing.T) {
	for _, k := range AllKinds() {
		assert.NotEmpty(t, kindNames[k], "kind %d has no name", int(k))
		assert.NotContains(t, k.String(), "Kind(")
	}
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestKindClassification(t *testing.T) {
	assert.False(t, KindBlock.IsExpression())
	assert.False(t, KindDispatch.IsExpression())
	assert.True(t, KindLiteral.IsExpression())
	assert.True(t, KindCall.IsExpression())

	assert.True(t, KindGoto.IsLowered())
	assert.True(t, KindTry.IsLowered())
	assert.False(t, KindWhile.IsLowered())
	assert.False(t, KindYieldReturn.IsLowered())
	assert.False(t, Kind(-1).IsLowered())
}

func TestSyntaxOutermostBody(t *testing.T) {
	method := NewSyntax(SyntaxMethodDeclaration, text.Span{}, nil)
	body := NewBlockSyntax(text.Span{}, text.Span{}, text.Span{}, method)
	inner := NewBlockSyntax(text.Span{}, text.Span{}, text.Span{}, NewSyntax(SyntaxStatement, text.Span{}, body))

	assert.True(t, body.IsOutermostBody())
	assert.False(t, inner.IsOutermostBody())

	lambda := NewSyntax(SyntaxAnonymousFunction, text.Span{}, nil)
	assert.True(t, NewBlockSyntax(text.Span{}, text.Span{}, text.Span{}, lambda).IsOutermostBody())

	var none *Syntax
	assert.False(t, none.IsBlock())
	assert.False(t, none.IsOutermostBody())
}

func TestOriginGenerated(t *testing.T) {
	syn := NewSyntax(SyntaxStatement, text.Span{Start: text.Position{Line: 3}, End: text.Position{Line: 3}}, nil)
	o := FromSyntax(syn)
	assert.False(t, o.WasCompilerGenerated())
	assert.True(t, o.AsGenerated().WasCompilerGenerated())
	assert.Equal(t, syn.Span, o.AsGenerated().Span())
	assert.True(t, Origin{}.Span().IsZero())
}

func TestBlockUpdateSharesUnchanged(t *testing.T) {
	a, b := call("A"), call("B")
	blk := NewBlock(nil, a, b)

	assert.Same(t, blk, blk.Update(nil, []Statement{a, b}))

	changed := blk.Update(nil, []Statement{b})
	assert.NotSame(t, blk, changed)
	assert.Equal(t, blk.Origin, changed.Origin)
	assert.Len(t, blk.Statements, 2, "original must not be mutated")
}

func TestChildrenAndContainsYield(t *testing.T) {
	local := symbols.NewLocal("x", symbols.Int, text.Span{})
	yield := &YieldReturn{Expr: &LocalRef{Local: local}}
	tryStmt := &Try{
		TryBlock: NewBlock(nil, yield),
		Finally:  NewBlock(nil, call("Cleanup")),
	}

	children := Children(tryStmt)
	require.Len(t, children, 2)
	assert.Same(t, tryStmt.TryBlock, children[0])
	assert.Same(t, tryStmt.Finally, children[1])

	assert.True(t, ContainsYield(tryStmt))
	assert.False(t, ContainsYield(tryStmt.Finally))
	assert.False(t, ContainsYield(&YieldBreak{}))

	noFinally := &Try{TryBlock: NewBlock(nil)}
	assert.Len(t, Children(noFinally), 1)
}

func TestCount(t *testing.T) {
	body := NewBlock(nil,
		&SequencePoint{},
		call("A"),
		&If{Cond: NewBool(nil, true), Then: NewBlock(nil, &SequencePoint{})},
	)
	assert.Equal(t, 2, Count(body, KindSequencePoint))
	assert.Equal(t, 3, Count(body, KindBlock)+Count(body, KindIf))
}

func TestExpressionTypes(t *testing.T) {
	one := NewInt(nil, 1)
	assert.Same(t, symbols.Int, (&Binary{Op: OpAdd, Left: one, Right: one}).Type())
	assert.Same(t, symbols.Bool, (&Binary{Op: OpLt, Left: one, Right: one}).Type())
	assert.Same(t, symbols.Bool, (&Unary{Op: OpNot, Operand: NewBool(nil, true)}).Type())
	assert.Same(t, symbols.Int, (&Unary{Op: OpNeg, Operand: one}).Type())

	op, ok := BinaryOpBySymbol("<=")
	require.True(t, ok)
	assert.Equal(t, OpLe, op)
	_, ok = BinaryOpBySymbol("<>")
	assert.False(t, ok)
}

func TestPrint(t *testing.T) {
	sm := symbols.NewStateMachineType("Numbers")
	state := symbols.NewField(sm, "$state", symbols.Int, true)
	done := symbols.GeneratedLabel("exit", 1)

	body := NewBlock(nil,
		NewAssign(nil, NewFieldAccess(nil, state), NewInt(nil, -1)),
		&ConditionalGoto{Cond: &Binary{Op: OpEq, Left: NewFieldAccess(nil, state), Right: NewInt(nil, 0)}, JumpIfTrue: true, Label: done},
		&Try{TryBlock: NewBlock(nil, call("A")), Finally: NewBlock(nil, call("B"))},
		NewLabel(nil, done),
		&Return{Expr: NewBool(nil, false)},
	)

	expected := `{
  this.$state = -1;
  if ((this.$state == 0)) goto $exit1;
  try {
    A();
  }
  finally {
    B();
  }
$exit1:
  return false;
}
`
	assert.Equal(t, expected, Print(body))
}

func TestPrintMethod(t *testing.T) {
	owner := symbols.NewClass("C")
	m := symbols.NewIteratorMethod(owner, "Numbers", symbols.Int, []*symbols.Parameter{{Name: "n", Type: symbols.Int}})
	out := PrintMethod(NewMethod(m, NewBlock(nil, &YieldBreak{})))
	assert.Equal(t, "public iterator int Numbers(int n)\n{\n  yield break;\n}\n", out)
}
