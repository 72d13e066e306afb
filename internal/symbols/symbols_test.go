package symbols

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diag "iterlower/internal/errors"
	"iterlower/internal/invariant"
)

func TestMemberBuilderFreeze(t *testing.T) {
	sm := NewStateMachineType("Numbers")
	assert.Equal(t, "Numbers$iterator", sm.Name)

	b := NewMemberBuilder(sm)
	state := NewField(sm, "$state", Int, true)
	b.Add(state)
	b.Add(NewFinallyMethod(sm, "$finally1"))

	assert.Nil(t, sm.Members(), "members are invisible until frozen")
	assert.Equal(t, 2, b.Len())

	members := b.Freeze()
	require.Len(t, members, 2)
	assert.True(t, sm.IsFrozen())
	assert.Same(t, state, sm.Field("$state"))
	assert.NotNil(t, sm.Method("$finally1"))
	assert.Nil(t, sm.Method("$state"))

	assert.Equal(t, members, b.Freeze(), "freezing twice is harmless")
}

func TestMemberBuilderAddAfterFreeze(t *testing.T) {
	sm := NewStateMachineType("Numbers")
	b := NewMemberBuilder(sm)
	b.Freeze()

	err := invariant.Capture(func() {
		b.Add(NewField(sm, "$late", Int, true))
	})
	v, ok := invariant.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.ErrorFrozenType, v.Code)
}

func TestMemberBuilderRejectsForeignMember(t *testing.T) {
	a := NewStateMachineType("A")
	other := NewStateMachineType("B")
	err := invariant.Capture(func() {
		NewMemberBuilder(a).Add(NewField(other, "$state", Int, true))
	})
	assert.Error(t, err)
}

func TestUniqueName(t *testing.T) {
	sm := NewStateMachineType("Numbers")
	b := NewMemberBuilder(sm)

	assert.Equal(t, "$local.x", b.UniqueName("$local.x"))
	b.Add(NewField(sm, "$local.x", Int, true))
	assert.Equal(t, "$local.x$2", b.UniqueName("$local.x"))
	b.Add(NewField(sm, "$local.x$2", Int, true))
	assert.Equal(t, "$local.x$3", b.UniqueName("$local.x"))
}

func TestMemberBuilderConcurrentAdds(t *testing.T) {
	sm := NewStateMachineType("Numbers")
	b := NewMemberBuilder(sm)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Add(NewFinallyMethod(sm, "$finally"))
		}()
	}
	wg.Wait()
	assert.Len(t, b.Freeze(), 32)
}

func TestFinallyMethodContract(t *testing.T) {
	sm := NewStateMachineType("Numbers")
	m := NewFinallyMethod(sm, "$finally1")

	assert.Equal(t, Private, m.Accessibility)
	assert.True(t, m.ReturnsVoid())
	assert.Empty(t, m.Parameters)
	assert.Zero(t, m.Arity())
	assert.True(t, m.HasThis())
	assert.False(t, m.IsStatic)
	assert.False(t, m.IsVirtual)
	assert.False(t, m.IsOverride)
	assert.False(t, m.IsAbstract)
	assert.False(t, m.IsSealed)
	assert.False(t, m.IsExtern)
	assert.False(t, m.IsMetadataVirtual)
	assert.False(t, m.IsMetadataNewSlot)
	assert.False(t, m.IsMetadataFinal)
	assert.False(t, m.HasSecurity)
	assert.False(t, m.HasCustomAttrs)
	assert.True(t, m.GenerateDebugInfo)
	assert.True(t, m.InliningCandidate)
	assert.Equal(t, MethodKindOrdinary, m.Kind)
	assert.Equal(t, SynthesizedFinally, m.Synthesized)
	assert.Same(t, sm, m.Containing)
	assert.Equal(t, "Numbers$iterator.$finally1", m.String())
}

func TestEntryPointMethods(t *testing.T) {
	sm := NewStateMachineType("Numbers")

	moveNext := NewMoveNextMethod(sm)
	assert.Same(t, Bool, moveNext.ReturnType)
	assert.Equal(t, Public, moveNext.Accessibility)
	assert.True(t, moveNext.IsMetadataVirtual)

	dispose := NewDisposeMethod(sm)
	assert.True(t, dispose.ReturnsVoid())
	assert.True(t, dispose.HasThis())

	assert.True(t, InvalidResumption.IsStatic)
	assert.Equal(t, MethodKindHost, InvalidResumption.Kind)
}

func TestSpecialTypeByName(t *testing.T) {
	for _, name := range []string{"void", "bool", "int", "string", "object"} {
		typ, ok := SpecialTypeByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, typ.Name)
		assert.True(t, typ.IsFrozen())
	}
	_, ok := SpecialTypeByName("float")
	assert.False(t, ok)
}

func TestGeneratedLabel(t *testing.T) {
	l := GeneratedLabel("resume", 2)
	assert.Equal(t, "$resume2", l.Name)
	assert.True(t, l.Synthesized)
	assert.False(t, NewLabel("top").Synthesized)
}
