package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iterlower/internal/bound"
	diag "iterlower/internal/errors"
	"iterlower/internal/invariant"
	"iterlower/internal/symbols"
	"iterlower/internal/text"
)

func TestLowerPlainMethod(t *testing.T) {
	m := readMethod(t, `
class C {
  int Sum(int n) {
    var total int = 0;
    while (n > 0) { total = total + n; n = n - 1; }
    return total;
  }
}`, "Sum")

	result, err := Method(m, debug)
	require.NoError(t, err)
	assert.Nil(t, result.StateMachine)
	require.Len(t, result.Methods(), 1)
	assert.Same(t, m.Symbol, result.Method.Symbol)
	assert.Zero(t, bound.Count(result.Method.Body, bound.KindWhile))
}

func TestLowerIteratorMethod(t *testing.T) {
	m := readMethod(t, `
class C {
  iterator int Numbers(int n) {
    var i int = 0;
    try {
      while (i < n) { yield return i; i = i + 1; }
    } finally {
      Done();
    }
  }
}`, "Numbers")

	result, err := Method(m, debug)
	require.NoError(t, err)
	require.NotNil(t, result.StateMachine)
	assert.Nil(t, result.Method.Body)

	sm := result.StateMachine
	assert.True(t, sm.Type.IsFrozen())
	assert.Equal(t, "Numbers$iterator", sm.Type.Name)
	require.Len(t, sm.Finally, 1)
	assert.Len(t, result.Methods(), 3)

	for _, method := range result.Methods() {
		assert.NoError(t, Verify(method.Body, false), method.Symbol.Name)
		assert.Zero(t, bound.Count(method.Body, bound.KindYieldReturn))
	}

	// hoisted state lives on the type
	for _, name := range []string{"$state", "$current", "$param.n", "$local.i"} {
		assert.NotNil(t, sm.Type.Field(name), name)
	}
	assert.NotNil(t, sm.Type.Method("$finally1"))
}

func TestLowerReportsViolations(t *testing.T) {
	m := readMethod(t, `
class C {
  iterator int Bad() {
    try {
      yield return 1;
    } catch {
      Log();
    }
  }
}`, "Bad")

	_, err := Method(m, Options{})
	v, ok := invariant.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.ErrorYieldInCatchRegion, v.Code)
}

func TestLowerRejectsReturnInIterator(t *testing.T) {
	m := readMethod(t, `
class C {
  iterator int Bad() {
    yield return 1;
    return 2;
  }
}`, "Bad")

	_, err := Method(m, Options{})
	v, ok := invariant.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.ErrorReturnInIterator, v.Code)
}

func TestVerify(t *testing.T) {
	syntax := bound.NewSyntax(bound.SyntaxStatement, text.Span{}, nil)
	origin := bound.Generated(syntax)
	label := symbols.NewLabel("l")
	one := bound.NewInt(syntax, 1)

	tests := []struct {
		name       string
		body       *bound.Block
		allowYield bool
		code       string
	}{
		{
			name: "lowered body",
			body: bound.NewBlock(syntax,
				&bound.LabelStatement{Origin: origin, Label: label},
				&bound.ConditionalGoto{Origin: origin, Cond: bound.NewBool(syntax, true), Label: label},
			),
		},
		{
			name: "if survives",
			body: bound.NewBlock(syntax, &bound.If{Origin: origin, Cond: bound.NewBool(syntax, true), Then: bound.NewBlock(syntax)}),
			code: diag.ErrorNotLowered,
		},
		{
			name: "yield rejected",
			body: bound.NewBlock(syntax, &bound.YieldReturn{Origin: origin, Expr: one}),
			code: diag.ErrorNotLowered,
		},
		{
			name:       "yield accepted",
			body:       bound.NewBlock(syntax, &bound.YieldReturn{Origin: origin, Expr: one}, &bound.YieldBreak{Origin: origin}),
			allowYield: true,
		},
		{
			name: "try with catch and finally",
			body: bound.NewBlock(syntax, &bound.Try{
				Origin:   origin,
				TryBlock: bound.NewBlock(syntax),
				Catches:  []*bound.Catch{{Origin: origin, Body: bound.NewBlock(syntax)}},
				Finally:  bound.NewBlock(syntax),
			}),
			code: diag.ErrorNotLowered,
		},
		{
			name: "dangling goto",
			body: bound.NewBlock(syntax, bound.NewGoto(syntax, label)),
			code: diag.ErrorDanglingLabel,
		},
		{
			name: "dangling dispatch",
			body: bound.NewBlock(syntax,
				&bound.LabelStatement{Origin: origin, Label: label},
				&bound.Dispatch{Origin: origin, Expr: one, Cases: []bound.DispatchCase{{Value: 1, Label: symbols.NewLabel("m")}}, Default: label},
			),
			code: diag.ErrorDanglingLabel,
		},
		{
			name: "label defined twice",
			body: bound.NewBlock(syntax,
				&bound.LabelStatement{Origin: origin, Label: label},
				&bound.LabelStatement{Origin: origin, Label: label},
			),
			code: diag.ErrorDanglingLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.body, tt.allowYield)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			v, ok := invariant.As(err)
			require.True(t, ok, "expected a violation, got %v", err)
			assert.Equal(t, tt.code, v.Code)
		})
	}
}
