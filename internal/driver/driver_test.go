package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iterlower/internal/boundtext"
	diag "iterlower/internal/errors"
	"iterlower/internal/eval"
	"iterlower/internal/invariant"
	"iterlower/internal/lower"
)

func lowerFixture(t *testing.T, path string, cfg Config) *Output {
	t.Helper()
	out, _, err := LowerFile(context.Background(), path, cfg)
	require.NoError(t, err)
	return out
}

func TestLowerAllMethodsConcurrently(t *testing.T) {
	for _, concurrency := range []int{0, 1, 4} {
		out := lowerFixture(t, "../../testdata/loops.bound", Config{Concurrency: concurrency})
		require.Len(t, out.Results, len(out.Program.Methods))
		for i, r := range out.Results {
			require.NotNil(t, r, out.Program.Methods[i].Symbol.Name)
		}
		assert.NotNil(t, out.Result("Count").StateMachine)
		assert.Nil(t, out.Result("Sum").StateMachine)
		assert.Nil(t, out.Result("Missing"))
	}
}

func TestLowerMatchesSequentialLowering(t *testing.T) {
	program, _, err := boundtext.ReadFile("../../testdata/scenarios.bound")
	require.NoError(t, err)

	out, err := Lower(context.Background(), program, Config{Lower: lower.Options{GenerateDebugInfo: true}})
	require.NoError(t, err)

	// 3 iterators with MoveNext and Dispose, 3 finally methods, 1 plain method
	assert.Len(t, out.Methods(), 3*2+3+1)
}

func TestLowerCollectsEveryFailure(t *testing.T) {
	program, err := boundtext.Read("bad.bound", `
class Bad {
  iterator int A() { try { yield return 1; } catch { } }
  iterator int B() { yield return 1; return 2; }
  void Good() { }
}`)
	require.NoError(t, err)

	out, err := Lower(context.Background(), program, Config{})
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 2)

	codes := map[string]bool{}
	for _, e := range merr.Errors {
		v, ok := invariant.As(e)
		require.True(t, ok)
		codes[v.Code] = true
	}
	assert.True(t, codes[diag.ErrorYieldInCatchRegion])
	assert.True(t, codes[diag.ErrorReturnInIterator])

	assert.Nil(t, out.Result("A"))
	assert.NotNil(t, out.Result("Good"))
}

func TestLowerCancelled(t *testing.T) {
	program, _, err := boundtext.ReadFile("../../testdata/loops.bound")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Lower(ctx, program, Config{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunIterator(t *testing.T) {
	out := lowerFixture(t, "../../testdata/loops.bound", Config{})

	trace, err := Run(context.Background(), out, "Count", RunConfig{Args: []any{3}})
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1, 2}, trace.Items)
	assert.Equal(t, []string{"Log(count done)"}, trace.HostCalls)
	assert.False(t, trace.Disposed)
	require.NotNil(t, trace.FinalState)
	assert.Equal(t, -2, *trace.FinalState)
}

func TestRunDisposeAfter(t *testing.T) {
	out := lowerFixture(t, "../../testdata/scenarios.bound", Config{})

	trace, err := Run(context.Background(), out, "Nested", RunConfig{DisposeAfter: 1})
	require.NoError(t, err)
	assert.Equal(t, []any{1}, trace.Items)
	assert.True(t, trace.Disposed)
	assert.Equal(t, []string{"InnerCleanup()", "OuterCleanup()"}, trace.HostCalls)
}

func TestRunPlainMethod(t *testing.T) {
	out := lowerFixture(t, "../../testdata/loops.bound", Config{})

	trace, err := Run(context.Background(), out, "Sum", RunConfig{Args: []any{4}})
	require.NoError(t, err)
	assert.Equal(t, []any{10}, trace.Items)
	assert.Nil(t, trace.FinalState)
}

func TestRunHostOverride(t *testing.T) {
	out := lowerFixture(t, "../../testdata/loops.bound", Config{})
	stop := func(args []any) (any, error) { return args[0].(int) == 1, nil }

	trace, err := Run(context.Background(), out, "Search", RunConfig{
		Args:  []any{10},
		Hosts: map[string]eval.HostFunc{"Stop": stop},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1}, trace.Items)
	assert.Equal(t, "Log(stopped)", trace.HostCalls[len(trace.HostCalls)-1])
}

func TestRunRecordsErrors(t *testing.T) {
	out := lowerFixture(t, "../../testdata/loops.bound", Config{})

	trace, err := Run(context.Background(), out, "Guarded", RunConfig{Args: []any{0}})
	require.Error(t, err)
	assert.Equal(t, err.Error(), trace.Error)
	assert.Equal(t, []any{"a"}, trace.Items)
	assert.Contains(t, trace.HostCalls, "Log(cleanup)")

	_, err = Run(context.Background(), out, "Nope", RunConfig{})
	assert.Error(t, err)
}

func TestParseArgs(t *testing.T) {
	out := lowerFixture(t, "../../testdata/loops.bound", Config{})
	method := out.Program.Method("Count").Symbol

	args, err := ParseArgs(method, []string{"7"})
	require.NoError(t, err)
	assert.Equal(t, []any{7}, args)

	_, err = ParseArgs(method, []string{"seven"})
	assert.Error(t, err)
	_, err = ParseArgs(method, nil)
	assert.Error(t, err)
}
