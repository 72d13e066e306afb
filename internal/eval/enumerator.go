package eval

import (
	"fmt"

	"iterlower/internal/iterator"
)

// Enumerator drives one state machine instance through the iteration
// protocol
type Enumerator struct {
	m   *Machine
	sm  *iterator.StateMachine
	obj *Object
}

// Start loads the state machine's methods and creates an instance in the
// created state with its parameters copied in
func (m *Machine) Start(sm *iterator.StateMachine, args ...any) (*Enumerator, error) {
	if len(args) != len(sm.Parameters) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", sm.Iterator, len(sm.Parameters), len(args))
	}
	m.Load(sm.Methods()...)

	obj := NewObject(sm.Type)
	obj.Set(sm.State, iterator.StateCreated)
	for i, f := range sm.Parameters {
		obj.Set(f, args[i])
	}
	return &Enumerator{m: m, sm: sm, obj: obj}, nil
}

// MoveNext advances to the next element. It reports false once the
// method has finished.
func (e *Enumerator) MoveNext() (bool, error) {
	v, err := e.m.Call(e.sm.MoveNext.Symbol, e.obj)
	if err != nil {
		return false, err
	}
	return asBool(v)
}

// Current returns the element produced by the last successful MoveNext
func (e *Enumerator) Current() any {
	return e.obj.Get(e.sm.Current)
}

// Dispose runs the cleanup of every region the machine is inside
func (e *Enumerator) Dispose() error {
	_, err := e.m.Call(e.sm.Dispose.Symbol, e.obj)
	return err
}

// State returns the raw $state value
func (e *Enumerator) State() int {
	n, _ := asInt(e.obj.Get(e.sm.State))
	return n
}

// Collect runs the enumerator to completion and returns every element.
// It stops early after limit elements when limit is positive, leaving the
// enumerator suspended.
func (e *Enumerator) Collect(limit int) ([]any, error) {
	var out []any
	for limit <= 0 || len(out) < limit {
		ok, err := e.MoveNext()
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, e.Current())
	}
	return out, nil
}
