package iterator

import (
	"iterlower/internal/bound"
	diag "iterlower/internal/errors"
	"iterlower/internal/invariant"
	"iterlower/internal/symbols"
)

type builder struct {
	method  *bound.Method
	syntax  *bound.Syntax
	members *symbols.MemberBuilder
	w       Lowerer
	hoister *hoister

	state          *symbols.Field
	current        *symbols.Field
	moveNextSymbol *symbols.Method
	disposeSymbol  *symbols.Method

	root       *frame
	frames     []*frame
	frameOf    map[*bound.Try]*frame
	labelFrame map[*symbols.Label]*frame

	yields     int
	yieldState map[*bound.YieldReturn]int
	resume     map[int]*symbols.Label
	exit       *symbols.Label
}

func newBuilder(method *bound.Method, members *symbols.MemberBuilder, w Lowerer) *builder {
	sym := method.Symbol
	invariant.Check(sym.IsIterator, diag.ErrorUnreachable, method.Body.Span(), "%s is not resumable", sym)

	owner := members.Owner()
	b := &builder{
		method:     method,
		syntax:     method.Body.Syntax(),
		members:    members,
		w:          w,
		root:       &frame{state: StateRunning},
		frameOf:    make(map[*bound.Try]*frame),
		labelFrame: make(map[*symbols.Label]*frame),
		yieldState: make(map[*bound.YieldReturn]int),
		resume:     make(map[int]*symbols.Label),
		exit:       w.NewLabel("exit"),
	}

	b.state = symbols.NewField(owner, "$state", symbols.Int, true)
	members.Add(b.state)
	elementType := sym.ElementType
	if elementType == nil {
		elementType = symbols.Object
	}
	b.current = symbols.NewField(owner, "$current", elementType, true)
	members.Add(b.current)

	b.hoister = newHoister(members, sym.Parameters)

	b.moveNextSymbol = symbols.NewMoveNextMethod(owner)
	members.Add(b.moveNextSymbol)
	b.disposeSymbol = symbols.NewDisposeMethod(owner)
	members.Add(b.disposeSymbol)
	return b
}

func (b *builder) stateRef() *bound.FieldRef {
	return bound.NewFieldAccess(b.syntax, b.state)
}

func (b *builder) setState(value int) bound.Statement {
	return bound.NewAssign(b.syntax, b.stateRef(), bound.NewInt(b.syntax, value))
}

func (b *builder) returnBool(value bool) bound.Statement {
	return &bound.Return{Origin: bound.Generated(b.syntax), Expr: bound.NewBool(b.syntax, value)}
}

// moveNext assembles
//
//	try {
//	  dispatch $state { 0: start, N: resumeN or region entry } default invalid
//	invalid:
//	  $invalidResumption(); return false
//	start:
//	  $state = -1
//	  body
//	exit:
//	  $state = -2; return false
//	} catch { try { Dispose(); } finally { throw; } }
func (b *builder) moveNext(body *bound.Block) *bound.Block {
	invalid := b.w.NewLabel("invalid")
	start := b.w.NewLabel("start")

	rewritten := b.block(body, b.root)

	cases := []bound.DispatchCase{{Value: StateCreated, Label: start}}
	cases = append(cases, b.resumeCases(b.root)...)

	try := bound.NewBlock(b.syntax,
		&bound.Dispatch{Origin: bound.Generated(b.syntax), Expr: b.stateRef(), Cases: cases, Default: invalid},
		bound.NewLabel(b.syntax, invalid),
		bound.NewStaticCall(b.syntax, symbols.InvalidResumption),
		b.returnBool(false),
		bound.NewLabel(b.syntax, start),
		b.setState(StateRunning),
		rewritten,
		bound.NewLabel(b.syntax, b.exit),
		b.setState(StateFinished),
		b.returnBool(false),
	)

	// The rethrow sits in a finally so a failing Dispose is reported
	// together with the fault that triggered it.
	fault := &bound.Catch{
		Origin: bound.Generated(b.syntax),
		Body: bound.NewBlock(b.syntax, &bound.Try{
			Origin:   bound.Generated(b.syntax),
			TryBlock: bound.NewBlock(b.syntax, bound.NewInstanceCall(b.syntax, b.disposeSymbol)),
			Finally:  bound.NewBlock(b.syntax, &bound.Throw{Origin: bound.Generated(b.syntax)}),
		}),
	}
	return bound.NewBlock(b.syntax, &bound.Try{Origin: bound.Generated(b.syntax), TryBlock: try, Catches: []*bound.Catch{fault}})
}

// resumeCases routes every suspension state inside f: its own to their
// resume labels, those of nested regions to the region's entry
func (b *builder) resumeCases(f *frame) []bound.DispatchCase {
	var cases []bound.DispatchCase
	for _, state := range f.yields {
		cases = append(cases, bound.DispatchCase{Value: state, Label: b.resume[state]})
	}
	for _, c := range f.children {
		for _, state := range c.resumeStates() {
			cases = append(cases, bound.DispatchCase{Value: state, Label: c.entry})
		}
	}
	return cases
}

func (b *builder) block(n *bound.Block, f *frame) *bound.Block {
	return &bound.Block{Origin: n.Origin, Locals: n.Locals, Statements: b.statements(n.Statements, f)}
}

func (b *builder) statements(list []bound.Statement, f *frame) []bound.Statement {
	out := make([]bound.Statement, len(list))
	for i, s := range list {
		out[i] = b.statement(s, f)
	}
	return out
}

func (b *builder) statement(s bound.Statement, f *frame) bound.Statement {
	switch n := s.(type) {
	case *bound.Block:
		return b.block(n, f)

	case *bound.StatementList:
		return &bound.StatementList{Origin: n.Origin, Statements: b.statements(n.Statements, f)}

	case *bound.YieldReturn:
		return b.yield(n, f)

	case *bound.YieldBreak:
		return &bound.Goto{Origin: n.Origin.AsGenerated(), Label: b.jump(n, b.exit, f)}

	case *bound.Goto:
		return &bound.Goto{Origin: n.Origin, Label: b.jump(n, n.Label, f)}

	case *bound.ConditionalGoto:
		return &bound.ConditionalGoto{Origin: n.Origin, Cond: n.Cond, JumpIfTrue: n.JumpIfTrue, Label: b.jump(n, n.Label, f)}

	case *bound.Try:
		if inner, ok := b.frameOf[n]; ok {
			return b.region(n, inner)
		}
		catches := make([]*bound.Catch, len(n.Catches))
		for i, c := range n.Catches {
			catches[i] = &bound.Catch{Origin: c.Origin, Local: c.Local, Body: b.block(c.Body, f)}
		}
		var finally *bound.Block
		if n.Finally != nil {
			finally = b.block(n.Finally, f)
		}
		return &bound.Try{Origin: n.Origin, TryBlock: b.block(n.TryBlock, f), Catches: catches, Finally: finally}

	case *bound.SequencePoint, *bound.LabelStatement, *bound.ExpressionStatement, *bound.Throw, *bound.Dispatch:
		return n

	case *bound.Return:
		invariant.Fail(diag.ErrorReturnInIterator, n.Span(), "return statement in resumable method")
	}

	invariant.Fail(diag.ErrorNotLowered, s.Span(), "%s reached state machine rewriting", s.Kind())
	return nil
}

//	$current = e
//	$state = N
//	return true
//	resumeN:
//	$state = <state of the enclosing region>
func (b *builder) yield(n *bound.YieldReturn, f *frame) bound.Statement {
	state, ok := b.yieldState[n]
	invariant.Check(ok, diag.ErrorUnreachable, n.Span(), "suspension point missed by analysis")

	return &bound.StatementList{
		Origin: n.Origin.AsGenerated(),
		Statements: []bound.Statement{
			bound.NewAssign(n.Syntax(), bound.NewFieldAccess(n.Syntax(), b.current), n.Expr),
			b.setState(state),
			b.returnBool(true),
			bound.NewLabel(n.Syntax(), b.resume[state]),
			b.setState(f.state),
		},
	}
}

// region replaces a try/finally that encloses suspension points. The try
// itself disappears: exceptions reach the fault handler of MoveNext,
// which disposes, and every other exit calls the extracted finally.
//
//	$state = F
//	entryF:
//	{
//	  dispatch $state { resume states inside F } default bodyF
//	bodyF:
//	  try block
//	}
//	$finallyF()
//	goto afterF
//	proxy1: $finallyF(); goto target1
//	...
//	afterF:
func (b *builder) region(n *bound.Try, f *frame) bound.Statement {
	syntax := n.Syntax()
	body := b.w.NewLabel("body")

	inner := []bound.Statement{
		&bound.Dispatch{Origin: bound.Generated(syntax), Expr: b.stateRef(), Cases: b.resumeCases(f), Default: body},
		bound.NewLabel(syntax, body),
	}
	inner = append(inner, b.statements(n.TryBlock.Statements, f)...)

	out := []bound.Statement{
		b.setState(f.state),
		bound.NewLabel(syntax, f.entry),
		&bound.Block{Origin: n.TryBlock.Origin.AsGenerated(), Statements: inner},
		bound.NewInstanceCall(syntax, f.method.Symbol),
	}

	if len(f.routes) > 0 {
		after := b.w.NewLabel("after")
		out = append(out, bound.NewGoto(syntax, after))
		for _, r := range f.routes {
			out = append(out,
				bound.NewLabel(syntax, r.proxy),
				bound.NewInstanceCall(syntax, f.method.Symbol),
				bound.NewGoto(syntax, r.next),
			)
		}
		out = append(out, bound.NewLabel(syntax, after))
	}

	return &bound.StatementList{Origin: n.Origin.AsGenerated(), Statements: out}
}
