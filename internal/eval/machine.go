// Package eval executes lowered bound trees.
//
// It plays the part of the runtime a lowered tree is compiled for, so that
// the behaviour of generated state machines can be checked end to end:
// which finally blocks run, in what order, and how often. Bodies are
// flattened into instructions with try regions; a jump or return that
// leaves a region runs the region's finally first, and an exception walks
// the regions from the innermost outwards.
//
// When a finally raises while another exception is already propagating,
// both are kept: the errors are aggregated with go-multierror and
// unwinding continues with the aggregate, so outer finally blocks still
// run.
package eval

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/tliron/commonlog"

	"iterlower/internal/bound"
	"iterlower/internal/symbols"
)

var log = commonlog.GetLogger("iterlower.eval")

// ErrInvalidResumption is raised when a finished state machine is resumed
var ErrInvalidResumption = errors.New("iterator resumed after it finished")

const maxCallDepth = 256

// HostFunc implements a host method
type HostFunc func(args []any) (any, error)

// Exception is the error a throw statement raises
type Exception struct {
	Value any
}

func (e *Exception) Error() string {
	return fmt.Sprintf("exception: %v", e.Value)
}

// Object is an instance of a type, holding its field values
type Object struct {
	Type   *symbols.Type
	fields map[*symbols.Field]any
}

// NewObject creates an instance with every field at its zero value
func NewObject(t *symbols.Type) *Object {
	return &Object{Type: t, fields: make(map[*symbols.Field]any)}
}

// Get returns the value of a field
func (o *Object) Get(f *symbols.Field) any {
	if v, ok := o.fields[f]; ok {
		return v
	}
	return zero(f.Type)
}

// Set stores the value of a field
func (o *Object) Set(f *symbols.Field, v any) {
	o.fields[f] = v
}

// Machine executes method bodies
type Machine struct {
	hosts    map[string]HostFunc
	bodies   map[*symbols.Method]*bound.Method
	programs map[*symbols.Method]*program
	depth    int
}

// New creates a machine with the given host methods. The runtime helper
// generated resumption checks call is always available.
func New(hosts map[string]HostFunc) *Machine {
	m := &Machine{
		hosts:    make(map[string]HostFunc),
		bodies:   make(map[*symbols.Method]*bound.Method),
		programs: make(map[*symbols.Method]*program),
	}
	for name, fn := range hosts {
		m.hosts[name] = fn
	}
	m.hosts[symbols.InvalidResumption.Name] = func([]any) (any, error) {
		return nil, ErrInvalidResumption
	}
	return m
}

// Load makes method bodies callable
func (m *Machine) Load(methods ...*bound.Method) {
	for _, method := range methods {
		m.bodies[method.Symbol] = method
		delete(m.programs, method.Symbol)
	}
}

// Call invokes a loaded method
func (m *Machine) Call(method *symbols.Method, this *Object, args ...any) (any, error) {
	p, err := m.program(method)
	if err != nil {
		return nil, err
	}
	if m.depth >= maxCallDepth {
		return nil, fmt.Errorf("call depth exceeded calling %s", method)
	}
	m.depth++
	defer func() { m.depth-- }()

	a := &activation{
		m:      m,
		p:      p,
		this:   this,
		args:   args,
		locals: make(map[*symbols.Local]any),
	}
	value, _, err := a.run(0, scope{0, len(p.code)})
	return value, err
}

func (m *Machine) program(method *symbols.Method) (*program, error) {
	if p, ok := m.programs[method]; ok {
		return p, nil
	}
	body, ok := m.bodies[method]
	if !ok {
		return nil, fmt.Errorf("no body loaded for %s", method)
	}
	p, err := linearize(body)
	if err != nil {
		return nil, err
	}
	m.programs[method] = p
	return p, nil
}

type scope struct {
	start, end int
}

type activation struct {
	m      *Machine
	p      *program
	this   *Object
	args   []any
	locals map[*symbols.Local]any
	caught []caughtException
}

// caughtException is an exception held by the catch body that handles it
type caughtException struct {
	exc        error
	start, end int
}

func (c caughtException) covers(pc int) bool {
	return c.start <= pc && pc < c.end
}

// run executes from pc until the code returns, until it reaches the
// endfinally closing s, or until an exception escapes every region in s.
func (a *activation) run(pc int, s scope) (value any, returned bool, err error) {
	for {
		if pc < s.start || pc >= s.end {
			return nil, false, fmt.Errorf("%s: control left its region at %d", a.p.method, pc)
		}
		in := &a.p.code[pc]

		switch in.op {
		case opMark, opEnterCatch:
			pc++

		case opExec:
			if _, err := a.eval(in.expr); err != nil {
				pc, err = a.raise(pc, err, s)
				if err != nil {
					return nil, false, err
				}
				continue
			}
			pc++

		case opJump:
			if pc, err = a.transfer(pc, in.target, s); err != nil {
				return nil, false, err
			}

		case opCondJump:
			v, err := a.eval(in.expr)
			if err == nil {
				var cond bool
				if cond, err = asBool(v); err == nil {
					if cond != in.jumpIfTrue {
						pc++
						continue
					}
					if pc, err = a.transfer(pc, in.target, s); err != nil {
						return nil, false, err
					}
					continue
				}
			}
			if pc, err = a.raise(pc, err, s); err != nil {
				return nil, false, err
			}

		case opDispatch:
			v, err := a.eval(in.expr)
			if err == nil {
				var n int
				if n, err = asInt(v); err == nil {
					target := in.target
					for _, c := range in.cases {
						if c.Value == n {
							target = a.p.labels[c.Label]
							break
						}
					}
					if pc, err = a.transfer(pc, target, s); err != nil {
						return nil, false, err
					}
					continue
				}
			}
			if pc, err = a.raise(pc, err, s); err != nil {
				return nil, false, err
			}

		case opReturn:
			var v any
			if in.expr != nil {
				if v, err = a.eval(in.expr); err != nil {
					if pc, err = a.raise(pc, err, s); err != nil {
						return nil, false, err
					}
					continue
				}
			}
			next, err := a.transfer(pc, -1, s)
			if err != nil {
				return nil, false, err
			}
			if next >= 0 {
				// a finally raised and a handler caught it
				pc = next
				continue
			}
			return v, true, nil

		case opThrow:
			v, err := a.eval(in.expr)
			if err == nil {
				err = &Exception{Value: v}
			}
			if pc, err = a.raise(pc, err, s); err != nil {
				return nil, false, err
			}

		case opRethrow:
			if len(a.caught) == 0 {
				return nil, false, fmt.Errorf("%s: rethrow outside of a catch block", a.p.method)
			}
			exc := a.caught[len(a.caught)-1].exc
			a.caught = a.caught[:len(a.caught)-1]
			if pc, err = a.raise(pc, exc, s); err != nil {
				return nil, false, err
			}

		case opEndCatch:
			if len(a.caught) > 0 {
				a.caught = a.caught[:len(a.caught)-1]
			}
			pc++

		case opEndFinally:
			return nil, false, nil

		default:
			return nil, false, fmt.Errorf("%s: bad instruction %d", a.p.method, in.op)
		}
	}
}

// regionsAt returns the regions in s whose try range covers pc, innermost
// first
func (a *activation) regionsAt(pc int, s scope) []*region {
	var out []*region
	for _, r := range a.p.regions {
		if r.covers(pc) && s.start <= r.tryStart && r.tryEnd <= s.end {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].tryEnd-out[i].tryStart < out[j].tryEnd-out[j].tryStart
	})
	return out
}

// transfer moves control from pc to target, running the finally of every
// region left on the way. A target of -1 leaves every region.
func (a *activation) transfer(pc, target int, s scope) (int, error) {
	regions := a.regionsAt(pc, s)
	for i, r := range regions {
		if target >= 0 && r.covers(target) {
			break
		}
		if !r.hasFinally() {
			continue
		}
		if err := a.finally(r); err != nil {
			return a.unwind(pc, err, regions[i+1:], s)
		}
	}
	a.leave(pc, target, s)
	return target, nil
}

// raise propagates exc from pc. It returns the handler that caught it, or
// the exception when nothing in s did.
func (a *activation) raise(pc int, exc error, s scope) (int, error) {
	return a.unwind(pc, exc, a.regionsAt(pc, s), s)
}

func (a *activation) unwind(pc int, exc error, regions []*region, s scope) (int, error) {
	for _, r := range regions {
		if len(r.handlers) > 0 {
			h := r.handlers[0]
			a.leave(pc, h.start+1, s)
			a.caught = append(a.caught, caughtException{exc: exc, start: h.start + 1, end: h.end})
			if local := a.p.code[h.start].local; local != nil {
				a.locals[local] = exceptionValue(exc)
			}
			return h.start + 1, nil
		}
		if r.hasFinally() {
			if err := a.finally(r); err != nil {
				log.Debugf("%s: finally raised during unwind: %s", a.p.method, err)
				exc = multierror.Append(exc, err)
			}
		}
	}
	a.leave(pc, -1, s)
	return -1, exc
}

// leave drops the exceptions held by the catch bodies in s that control
// exits when moving from pc to target. A target of -1 exits all of them.
func (a *activation) leave(pc, target int, s scope) {
	for n := len(a.caught); n > 0; n-- {
		c := a.caught[n-1]
		if !c.covers(pc) || c.covers(target) || c.start < s.start || c.end > s.end {
			return
		}
		a.caught = a.caught[:n-1]
	}
}

func (a *activation) finally(r *region) error {
	_, returned, err := a.run(r.finallyStart, scope{r.finallyStart, r.finallyEnd})
	if err != nil {
		return err
	}
	if returned {
		return fmt.Errorf("%s: return from a finally block", a.p.method)
	}
	return nil
}

func exceptionValue(err error) any {
	var exc *Exception
	if errors.As(err, &exc) {
		return exc.Value
	}
	return err.Error()
}
