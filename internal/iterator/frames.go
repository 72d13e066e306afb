package iterator

import (
	"strconv"

	"iterlower/internal/bound"
	diag "iterlower/internal/errors"
	"iterlower/internal/invariant"
	"iterlower/internal/symbols"
)

// frame is a try/finally region with a suspension point in its try block.
// The root frame stands for the method body outside every region; it has
// no finally method.
type frame struct {
	index    int
	state    int
	parent   *frame
	children []*frame

	method *bound.Method
	entry  *symbols.Label

	// yields holds the suspension states directly inside this frame
	yields []int

	proxies map[*symbols.Label]*symbols.Label
	routes  []route
}

// route is a proxy: run the frame's finally, then jump to next
type route struct {
	proxy *symbols.Label
	next  *symbols.Label
}

func (f *frame) isRoot() bool {
	return f.parent == nil
}

func (f *frame) parentState() int {
	if f.parent == nil {
		return StateRunning
	}
	return f.parent.state
}

// resumeStates are the suspension states inside f or any nested frame
func (f *frame) resumeStates() []int {
	states := append([]int(nil), f.yields...)
	for _, c := range f.children {
		states = append(states, c.resumeStates()...)
	}
	return states
}

// liveStates are the states in which f's finally has not yet run: its
// own running state, the running states of nested frames, and every
// suspension state inside it.
func (f *frame) liveStates() []int {
	states := []int{f.state}
	states = append(states, f.yields...)
	for _, c := range f.children {
		states = append(states, c.liveStates()...)
	}
	return states
}

func (f *frame) isAncestorOf(g *frame) bool {
	for p := g; p != nil; p = p.parent {
		if p == f {
			return true
		}
	}
	return false
}

// validate rejects bodies the state machine cannot represent. The binder
// reports these to the user, so reaching one here is a compiler defect.
func (b *builder) validate(body *bound.Block) {
	bound.Inspect(body, func(n bound.Node) bool {
		switch n := n.(type) {
		case *bound.Return:
			invariant.Fail(diag.ErrorReturnInIterator, n.Span(), "return statement in resumable method %s", b.method.Symbol)
		case *bound.Try:
			for _, c := range n.Catches {
				invariant.Check(!bound.ContainsYield(c.Body), diag.ErrorYieldInHandler, c.Span(),
					"suspension point inside a catch block")
			}
			if n.Finally != nil {
				invariant.Check(!bound.ContainsYield(n.Finally), diag.ErrorYieldInHandler, n.Finally.Span(),
					"suspension point inside a finally block")
			}
			invariant.Check(len(n.Catches) == 0 || !bound.ContainsYield(n.TryBlock), diag.ErrorYieldInCatchRegion, n.Span(),
				"suspension point inside a try with catch blocks")
		}
		return true
	})
}

// analyze numbers suspension points and regions in source order, records
// which frame defines each label, and extracts every region's finally.
func (b *builder) analyze(body *bound.Block) {
	b.labelFrame[b.exit] = b.root
	b.scan(body, b.root)
}

func (b *builder) scan(n bound.Node, f *frame) {
	switch n := n.(type) {
	case *bound.YieldReturn:
		b.yields++
		state := b.yields
		b.yieldState[n] = state
		b.resume[state] = b.w.NewLabel("resume")
		f.yields = append(f.yields, state)
		return

	case *bound.LabelStatement:
		invariant.Check(b.labelFrame[n.Label] == nil, diag.ErrorDanglingLabel, n.Span(), "label %s defined twice", n.Label)
		b.labelFrame[n.Label] = f
		return

	case *bound.Try:
		if n.Finally != nil && bound.ContainsYield(n.TryBlock) {
			inner := b.newFrame(n, f)
			b.scan(n.TryBlock, inner)
			return
		}
	}

	for _, c := range bound.Children(n) {
		b.scan(c, f)
	}
}

func (b *builder) newFrame(region *bound.Try, parent *frame) *frame {
	index := len(b.frames) + 1
	f := &frame{
		index:   index,
		state:   firstFrameState - (index - 1),
		parent:  parent,
		entry:   b.w.NewLabel("region"),
		proxies: make(map[*symbols.Label]*symbols.Label),
	}
	parent.children = append(parent.children, f)
	b.frames = append(b.frames, f)
	b.frameOf[region] = f

	name := b.members.UniqueName("$finally" + strconv.Itoa(index))
	f.method, _ = Extract(region, b.members, b.state, f.parentState(), name)
	log.Debugf("region %d of %s: state %d, parent state %d", index, b.method.Symbol, f.state, f.parentState())
	return f
}

// jump returns the label a jump from inside f to target must use. A jump
// that leaves extracted regions goes through one proxy per region left,
// innermost first, each running its region's finally.
func (b *builder) jump(n bound.Node, target *symbols.Label, f *frame) *symbols.Label {
	g, ok := b.labelFrame[target]
	invariant.Check(ok, diag.ErrorDanglingLabel, n.Span(), "jump to undefined label %s", target)
	if g == f {
		return target
	}
	invariant.Check(g.isAncestorOf(f), diag.ErrorDanglingLabel, n.Span(),
		"jump to %s enters a protected region", target)
	return b.proxy(f, target, g)
}

func (b *builder) proxy(f *frame, target *symbols.Label, owner *frame) *symbols.Label {
	if p, ok := f.proxies[target]; ok {
		return p
	}
	next := target
	if f.parent != owner {
		next = b.proxy(f.parent, target, owner)
	}
	p := b.w.NewLabel("proxy")
	f.proxies[target] = p
	f.routes = append(f.routes, route{proxy: p, next: next})
	return p
}
