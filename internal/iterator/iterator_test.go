package iterator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iterlower/internal/bound"
	"iterlower/internal/boundtext"
	"iterlower/internal/eval"
	"iterlower/internal/iterator"
	"iterlower/internal/lower"
)

// host records every host call in order
type host struct {
	calls []string
	fail  map[string]error
	stop  func(int) bool
}

func newHost() *host {
	return &host{fail: make(map[string]error)}
}

func (h *host) funcs() map[string]eval.HostFunc {
	record := func(name string) eval.HostFunc {
		return func(args []any) (any, error) {
			h.calls = append(h.calls, name)
			return nil, h.fail[name]
		}
	}
	return map[string]eval.HostFunc{
		"Boom":             record("Boom"),
		"Cleanup":          record("Cleanup"),
		"InnerCleanup":     record("InnerCleanup"),
		"OuterCleanup":     record("OuterCleanup"),
		"NoSuspensionHere": record("NoSuspensionHere"),
		"Log": func(args []any) (any, error) {
			h.calls = append(h.calls, fmt.Sprint(args...))
			return nil, nil
		},
		"Stop": func(args []any) (any, error) {
			return h.stop != nil && h.stop(args[0].(int)), nil
		},
	}
}

func (h *host) count(name string) int {
	n := 0
	for _, c := range h.calls {
		if c == name {
			n++
		}
	}
	return n
}

func lowerFixture(t *testing.T, path, name string, opts lower.Options) *iterator.StateMachine {
	t.Helper()
	program, _, err := boundtext.ReadFile(path)
	require.NoError(t, err)
	m := program.Method(name)
	require.NotNil(t, m, name)

	result, err := lower.Method(m, opts)
	require.NoError(t, err)
	require.NotNil(t, result.StateMachine)
	return result.StateMachine
}

func scenario(t *testing.T, name string) *iterator.StateMachine {
	return lowerFixture(t, "../../testdata/scenarios.bound", name, lower.Options{GenerateDebugInfo: true})
}

func start(t *testing.T, sm *iterator.StateMachine, h *host, args ...any) *eval.Enumerator {
	t.Helper()
	e, err := eval.New(h.funcs()).Start(sm, args...)
	require.NoError(t, err)
	return e
}

func TestSingleRegionCompletion(t *testing.T) {
	sm := scenario(t, "Single")
	require.Len(t, sm.Finally, 1)
	assert.Equal(t, 1, bound.Count(sm.Finally[0].Body, bound.KindExpressionStatement)-1,
		"one user statement after the state reset")

	h := newHost()
	e := start(t, sm, h)

	ok, err := e.MoveNext()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, e.Current())
	assert.Equal(t, 1, e.State())
	assert.Empty(t, h.calls)

	ok, err = e.MoveNext()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"Cleanup"}, h.calls)
	assert.Equal(t, iterator.StateFinished, e.State())

	require.NoError(t, e.Dispose())
	assert.Equal(t, 1, h.count("Cleanup"))
}

func TestSingleRegionDispose(t *testing.T) {
	sm := scenario(t, "Single")
	h := newHost()
	e := start(t, sm, h)

	ok, err := e.MoveNext()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, e.Dispose())
	assert.Equal(t, []string{"Cleanup"}, h.calls)
	assert.Equal(t, iterator.StateFinished, e.State())

	require.NoError(t, e.Dispose())
	assert.Equal(t, 1, h.count("Cleanup"))
}

func TestDisposeBeforeStart(t *testing.T) {
	sm := scenario(t, "Single")
	h := newHost()
	e := start(t, sm, h)

	require.NoError(t, e.Dispose())
	assert.Empty(t, h.calls)
	assert.Equal(t, iterator.StateFinished, e.State())
}

func TestResumeAfterDisposeIsInvalid(t *testing.T) {
	sm := scenario(t, "Single")
	h := newHost()
	e := start(t, sm, h)

	_, err := e.MoveNext()
	require.NoError(t, err)
	require.NoError(t, e.Dispose())

	_, err = e.MoveNext()
	assert.True(t, errors.Is(err, eval.ErrInvalidResumption))
	assert.Equal(t, 1, h.count("Cleanup"))
}

func TestNestedRegionsDisposeInnerFirst(t *testing.T) {
	sm := scenario(t, "Nested")
	require.Len(t, sm.Finally, 2)

	h := newHost()
	e := start(t, sm, h)

	ok, err := e.MoveNext()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, e.Dispose())
	assert.Equal(t, []string{"InnerCleanup", "OuterCleanup"}, h.calls)

	require.NoError(t, e.Dispose())
	assert.Len(t, h.calls, 2)
}

func TestNestedRegionsCompleteInnerFirst(t *testing.T) {
	sm := scenario(t, "Nested")
	h := newHost()
	e := start(t, sm, h)

	items, err := e.Collect(0)
	require.NoError(t, err)
	assert.Equal(t, []any{1}, items)
	assert.Equal(t, []string{"InnerCleanup", "OuterCleanup"}, h.calls)
}

func TestRegionWithoutSuspensionKeepsFinallyInline(t *testing.T) {
	sm := scenario(t, "Unrelated")
	assert.Empty(t, sm.Finally)

	var inline *bound.Try
	bound.Inspect(sm.MoveNext.Body, func(n bound.Node) bool {
		if try, ok := n.(*bound.Try); ok && try.Finally != nil && bound.Count(try.Finally, bound.KindCall) > 0 {
			inline = try
		}
		return true
	})
	require.NotNil(t, inline, "finally stays in MoveNext")
	assert.Contains(t, bound.Print(inline.Finally), "Cleanup()")

	h := newHost()
	e := start(t, sm, h)
	items, err := e.Collect(0)
	require.NoError(t, err)
	assert.Equal(t, []any{1}, items)
	assert.Equal(t, []string{"NoSuspensionHere", "Cleanup"}, h.calls)
}

func TestFinalliesInRegionOrder(t *testing.T) {
	sm := scenario(t, "Nested")
	require.Len(t, sm.Finally, 2)

	assert.Equal(t, "$finally1", sm.Finally[0].Symbol.Name)
	assert.Contains(t, bound.Print(sm.Finally[0].Body), "OuterCleanup()")
	assert.Contains(t, bound.Print(sm.Finally[1].Body), "InnerCleanup()")

	// the inner finally returns to the outer region's state
	assert.Contains(t, bound.Print(sm.Finally[1].Body), "this.$state = -3;")
	assert.Contains(t, bound.Print(sm.Finally[0].Body), "this.$state = -1;")
}

func loops(t *testing.T, name string) *iterator.StateMachine {
	return lowerFixture(t, "../../testdata/loops.bound", name, lower.Options{})
}

func TestLoopInsideRegion(t *testing.T) {
	sm := loops(t, "Count")
	h := newHost()
	e := start(t, sm, h, 3)

	items, err := e.Collect(0)
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1, 2}, items)
	assert.Equal(t, []string{"count done"}, h.calls)
}

func TestAbandonedLoop(t *testing.T) {
	sm := loops(t, "Count")
	h := newHost()
	e := start(t, sm, h, 10)

	items, err := e.Collect(2)
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1}, items)
	assert.Empty(t, h.calls)

	require.NoError(t, e.Dispose())
	assert.Equal(t, []string{"count done"}, h.calls)
}

func TestBreakLeavesEveryRegion(t *testing.T) {
	sm := loops(t, "Search")
	h := newHost()
	h.stop = func(i int) bool { return i == 2 }
	e := start(t, sm, h, 100)

	items, err := e.Collect(0)
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1, 2}, items)
	assert.Equal(t, []string{
		"inner", "outer",
		"inner", "outer",
		"inner", "outer",
		"stopped",
	}, h.calls)
}

func TestYieldBreakLeavesEveryRegion(t *testing.T) {
	sm := loops(t, "Search")
	h := newHost()
	e := start(t, sm, h, 1)

	items, err := e.Collect(0)
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1}, items)
	assert.Equal(t, []string{"inner", "outer", "inner", "outer"}, h.calls)
	assert.Equal(t, iterator.StateFinished, e.State())
}

func TestDisposeInsideLoopRegions(t *testing.T) {
	sm := loops(t, "Search")
	h := newHost()
	e := start(t, sm, h, 100)

	items, err := e.Collect(2)
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1}, items)

	require.NoError(t, e.Dispose())
	assert.Equal(t, []string{"inner", "outer", "inner", "outer"}, h.calls)
}

func TestFaultRunsCleanup(t *testing.T) {
	sm := loops(t, "Guarded")
	h := newHost()
	e := start(t, sm, h, 0)

	ok, err := e.MoveNext()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", e.Current())

	_, err = e.MoveNext()
	var exc *eval.Exception
	require.True(t, errors.As(err, &exc), "got %v", err)
	assert.Equal(t, "boom", exc.Value)
	assert.Equal(t, []string{"before", "cleanup"}, h.calls)
	assert.Equal(t, iterator.StateFinished, e.State())

	require.NoError(t, e.Dispose())
	assert.Equal(t, 1, h.count("cleanup"))
}

func TestGuardedCompletes(t *testing.T) {
	sm := loops(t, "Guarded")
	h := newHost()
	e := start(t, sm, h, 1)

	items, err := e.Collect(0)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, items)
	assert.Equal(t, []string{"before", "cleanup"}, h.calls)
}

func TestFailingFinallyStillRunsOuter(t *testing.T) {
	sm := scenario(t, "Nested")
	h := newHost()
	innerErr := errors.New("inner failed")
	h.fail["InnerCleanup"] = innerErr
	e := start(t, sm, h)

	_, err := e.MoveNext()
	require.NoError(t, err)

	err = e.Dispose()
	assert.ErrorIs(t, err, innerErr)
	assert.Equal(t, []string{"InnerCleanup", "OuterCleanup"}, h.calls)
	assert.Equal(t, iterator.StateFinished, e.State())
}

func TestFailingFinalliesAreAggregated(t *testing.T) {
	sm := scenario(t, "Nested")
	h := newHost()
	innerErr := errors.New("inner failed")
	outerErr := errors.New("outer failed")
	h.fail["InnerCleanup"] = innerErr
	h.fail["OuterCleanup"] = outerErr
	e := start(t, sm, h)

	_, err := e.MoveNext()
	require.NoError(t, err)

	err = e.Dispose()
	assert.ErrorIs(t, err, innerErr)
	assert.ErrorIs(t, err, outerErr)
	assert.Equal(t, []string{"InnerCleanup", "OuterCleanup"}, h.calls)
}

func TestFaultWithFailingCleanupKeepsBoth(t *testing.T) {
	program, err := boundtext.Read("fault.bound", `
class Fault {
  extern void Boom();
  extern void Cleanup();

  iterator int G() {
    try {
      yield return 1;
      Boom();
    } finally {
      Cleanup();
    }
  }
}`)
	require.NoError(t, err)
	result, err := lower.Method(program.Method("G"), lower.Options{})
	require.NoError(t, err)

	h := newHost()
	boomErr := errors.New("boom")
	cleanupErr := errors.New("cleanup failed")
	h.fail["Boom"] = boomErr
	h.fail["Cleanup"] = cleanupErr
	e := start(t, result.StateMachine, h)

	ok, err := e.MoveNext()
	require.NoError(t, err)
	require.True(t, ok)

	_, err = e.MoveNext()
	assert.ErrorIs(t, err, boomErr)
	assert.ErrorIs(t, err, cleanupErr)
	assert.Equal(t, []string{"Boom", "Cleanup"}, h.calls)
	assert.Equal(t, iterator.StateFinished, e.State())
}

func TestStartChecksArguments(t *testing.T) {
	sm := loops(t, "Count")
	_, err := eval.New(nil).Start(sm)
	assert.Error(t, err)
}
