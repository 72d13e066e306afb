// Package lower rewrites bound method bodies into the reduced form code
// generation consumes.
//
// The walker handles every node kind generically. Resumable methods are
// handed on to the iterator package, which turns them into state machines
// and runs the walker again over the bodies it synthesizes.
package lower

import (
	"fmt"

	"iterlower/internal/bound"
	"iterlower/internal/invariant"
	"iterlower/internal/iterator"
	"iterlower/internal/symbols"
)

// Result is the output of lowering one method
type Result struct {
	// Method is the lowered method. A resumable method has no body of its
	// own: code generation instantiates StateMachine in its place.
	Method *bound.Method

	StateMachine *iterator.StateMachine
}

// Methods returns every lowered body the result produced
func (r *Result) Methods() []*bound.Method {
	if r.StateMachine != nil {
		return r.StateMachine.Methods()
	}
	return []*bound.Method{r.Method}
}

// Method lowers one bound method. Internal defects come back as an
// *invariant.Violation and stop lowering of this method only.
func Method(m *bound.Method, opts Options) (result *Result, err error) {
	defer invariant.Recover(&err)

	w := NewWalker(opts)
	body := w.Block(m.Body)

	if !m.Symbol.IsIterator {
		if err := Verify(body, false); err != nil {
			return nil, err
		}
		log.Debugf("lowered %s", m.Symbol)
		return &Result{Method: bound.NewMethod(m.Symbol, body)}, nil
	}

	if err := Verify(body, true); err != nil {
		return nil, err
	}

	owner := symbols.NewStateMachineType(m.Symbol.Name, m.Symbol.Locations...)
	members := symbols.NewMemberBuilder(owner)
	sm := iterator.Rewrite(m, body, members, w)
	members.Freeze()

	for _, synthesized := range sm.Methods() {
		if err := Verify(synthesized.Body, false); err != nil {
			return nil, fmt.Errorf("%s: %w", synthesized.Symbol, err)
		}
	}

	log.Debugf("lowered %s into %s with %d members", m.Symbol, owner.Name, len(owner.Members()))
	return &Result{Method: bound.NewMethod(m.Symbol, nil), StateMachine: sm}, nil
}
