package eval

import (
	"fmt"

	"iterlower/internal/bound"
	"iterlower/internal/symbols"
)

type opcode int

const (
	opExec opcode = iota
	opJump
	opCondJump
	opDispatch
	opReturn
	opThrow
	opRethrow
	opEnterCatch
	opEndCatch
	opEndFinally
	opMark
)

type instr struct {
	op         opcode
	node       bound.Node
	expr       bound.Expression
	label      *symbols.Label
	target     int
	jumpIfTrue bool
	cases      []bound.DispatchCase
	local      *symbols.Local
}

// region is one try statement. The try range includes the jump that
// completes it normally, so that jump leaves the region like any other.
type region struct {
	tryStart, tryEnd int
	handlers         []handler

	finallyStart, finallyEnd int
}

// handler is one catch block; [start, end) is its body up to the
// endcatch
type handler struct {
	start, end int
}

func (r *region) hasFinally() bool {
	return r.finallyStart >= 0
}

func (r *region) covers(pc int) bool {
	return r.tryStart <= pc && pc < r.tryEnd
}

// program is a method body flattened into instructions
type program struct {
	method  *symbols.Method
	code    []instr
	labels  map[*symbols.Label]int
	regions []*region
}

// linearize flattens a lowered body. Blocks and statement lists dissolve,
// labels become instruction indexes and every try becomes a region.
func linearize(m *bound.Method) (*program, error) {
	l := &linearizer{
		p: &program{
			method: m.Symbol,
			labels: make(map[*symbols.Label]int),
		},
	}
	if m.Body == nil {
		return nil, fmt.Errorf("%s has no body", m.Symbol)
	}
	if err := l.emit(m.Body); err != nil {
		return nil, err
	}
	l.add(instr{op: opReturn, node: m.Body})

	for i := range l.p.code {
		in := &l.p.code[i]
		if in.label == nil {
			continue
		}
		target, ok := l.p.labels[in.label]
		if !ok {
			return nil, fmt.Errorf("%s: jump to undefined label %s", m.Symbol, in.label)
		}
		in.target = target
	}
	for i := range l.p.code {
		in := &l.p.code[i]
		if in.op != opDispatch {
			continue
		}
		for _, c := range in.cases {
			if _, ok := l.p.labels[c.Label]; !ok {
				return nil, fmt.Errorf("%s: dispatch to undefined label %s", m.Symbol, c.Label)
			}
		}
	}
	return l.p, nil
}

type linearizer struct {
	p *program
}

func (l *linearizer) add(in instr) int {
	l.p.code = append(l.p.code, in)
	return len(l.p.code) - 1
}

func (l *linearizer) here() int {
	return len(l.p.code)
}

func (l *linearizer) emit(s bound.Statement) error {
	switch n := s.(type) {
	case *bound.Block:
		return l.emitAll(n.Statements)
	case *bound.StatementList:
		return l.emitAll(n.Statements)
	case *bound.SequencePoint:
		l.add(instr{op: opMark, node: n})
	case *bound.ExpressionStatement:
		l.add(instr{op: opExec, node: n, expr: n.Expr})
	case *bound.Return:
		l.add(instr{op: opReturn, node: n, expr: n.Expr})
	case *bound.Throw:
		if n.Expr == nil {
			l.add(instr{op: opRethrow, node: n})
		} else {
			l.add(instr{op: opThrow, node: n, expr: n.Expr})
		}
	case *bound.LabelStatement:
		if _, dup := l.p.labels[n.Label]; dup {
			return fmt.Errorf("label %s defined twice", n.Label)
		}
		l.p.labels[n.Label] = l.here()
	case *bound.Goto:
		l.add(instr{op: opJump, node: n, label: n.Label})
	case *bound.ConditionalGoto:
		l.add(instr{op: opCondJump, node: n, expr: n.Cond, jumpIfTrue: n.JumpIfTrue, label: n.Label})
	case *bound.Dispatch:
		l.add(instr{op: opDispatch, node: n, expr: n.Expr, cases: n.Cases, label: n.Default})
	case *bound.Try:
		return l.emitTry(n)
	default:
		return fmt.Errorf("cannot execute %s: not in lowered form", s.Kind())
	}
	return nil
}

func (l *linearizer) emitAll(list []bound.Statement) error {
	for _, s := range list {
		if err := l.emit(s); err != nil {
			return err
		}
	}
	return nil
}

//	tryStart:  try block
//	           jump after        (still inside the region)
//	tryEnd:    catch handlers, each ending in jump after
//	           finally, ending in endfinally
//	after:
func (l *linearizer) emitTry(n *bound.Try) error {
	r := &region{tryStart: l.here(), finallyStart: -1, finallyEnd: -1}
	l.p.regions = append(l.p.regions, r)

	if err := l.emit(n.TryBlock); err != nil {
		return err
	}
	exits := []int{l.add(instr{op: opJump, node: n})}
	r.tryEnd = l.here()

	for _, c := range n.Catches {
		r.handlers = append(r.handlers, handler{start: l.here()})
		l.add(instr{op: opEnterCatch, node: c.Body, local: c.Local})
		if err := l.emit(c.Body); err != nil {
			return err
		}
		r.handlers[len(r.handlers)-1].end = l.here()
		l.add(instr{op: opEndCatch, node: c.Body})
		exits = append(exits, l.add(instr{op: opJump, node: n}))
	}

	if n.Finally != nil {
		r.finallyStart = l.here()
		if err := l.emit(n.Finally); err != nil {
			return err
		}
		l.add(instr{op: opEndFinally, node: n.Finally})
		r.finallyEnd = l.here()
	}

	after := l.here()
	for _, i := range exits {
		l.p.code[i].target = after
	}
	return nil
}
