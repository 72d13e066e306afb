// Package iterator rewrites resumable methods into state machines.
//
// A resumable method body becomes the MoveNext method of a synthesized
// state machine type. Every try/finally region that encloses a suspension
// point has its finally block extracted into a private method of that
// type, called on every exit from the region and from Dispose, so that
// cleanup runs exactly once whether the method completes, is abandoned,
// or faults.
//
// The $state field encodes where the machine is:
//
//	 0        created, not yet started
//	-1        running outside every extracted region
//	-2        finished: completed, faulted or disposed
//	-3, -4..  running inside extracted region 1, 2..
//	 1, 2..   suspended at suspension point 1, 2..
package iterator

import (
	"github.com/tliron/commonlog"

	"iterlower/internal/bound"
	"iterlower/internal/symbols"
)

var log = commonlog.GetLogger("iterlower.iterator")

const (
	StateCreated  = 0
	StateRunning  = -1
	StateFinished = -2

	firstFrameState = -3
)

// Lowerer is the generic rewriting the builder runs over the bodies it
// synthesizes
type Lowerer interface {
	Block(b *bound.Block) *bound.Block
	NewLabel(prefix string) *symbols.Label
}

// StateMachine is the result of rewriting one resumable method
type StateMachine struct {
	Iterator *symbols.Method
	Type     *symbols.Type

	State   *symbols.Field
	Current *symbols.Field

	// Parameters holds the field each parameter is copied into, by ordinal
	Parameters []*symbols.Field

	MoveNext *bound.Method
	Dispose  *bound.Method
	Finally  []*bound.Method
}

// Methods returns every method body of the state machine: MoveNext,
// Dispose, then the finally methods in region order
func (sm *StateMachine) Methods() []*bound.Method {
	methods := []*bound.Method{sm.MoveNext, sm.Dispose}
	return append(methods, sm.Finally...)
}

// Method returns the body of the named method, or nil
func (sm *StateMachine) Method(name string) *bound.Method {
	for _, m := range sm.Methods() {
		if m.Symbol.Name == name {
			return m
		}
	}
	return nil
}

// Rewrite turns the lowered body of a resumable method into a state
// machine whose members are added through members. The body must already
// have been through the generic lowering rules; suspension points are
// the only statements left to rewrite. Invariant violations panic and are
// recovered by the caller.
func Rewrite(method *bound.Method, body *bound.Block, members *symbols.MemberBuilder, w Lowerer) *StateMachine {
	b := newBuilder(method, members, w)
	log.Debugf("rewriting %s into %s", method.Symbol, members.Owner().Name)

	b.validate(body)
	hoisted := b.hoister.block(body)
	b.analyze(hoisted)

	moveNext := b.moveNext(hoisted)
	dispose := b.dispose()

	sm := &StateMachine{
		Iterator:   method.Symbol,
		Type:       members.Owner(),
		State:      b.state,
		Current:    b.current,
		Parameters: b.hoister.parameterFields(),
		MoveNext:   bound.NewMethod(b.moveNextSymbol, w.Block(moveNext)),
		Dispose:    bound.NewMethod(b.disposeSymbol, w.Block(dispose)),
	}
	for _, f := range b.frames {
		sm.Finally = append(sm.Finally, bound.NewMethod(f.method.Symbol, w.Block(f.method.Body)))
	}

	log.Debugf("%s: %d suspension points, %d extracted finally regions",
		method.Symbol, b.yields, len(b.frames))
	return sm
}
