package iterator

import (
	"iterlower/internal/bound"
)

// dispose assembles
//
//	try {
//	  if $state in live(A) {
//	    try {
//	      if $state in live(B) { $finallyB() }
//	    } finally { $finallyA() }
//	  }
//	  ...
//	} finally { $state = -2 }
//
// Inner regions run before outer ones and an outer finally still runs
// when an inner one throws. Once $state is -2 no condition matches, so
// disposing twice does nothing.
func (b *builder) dispose() *bound.Block {
	var regions []bound.Statement
	for _, f := range b.root.children {
		regions = append(regions, b.disposeRegion(f))
	}

	return bound.NewBlock(b.syntax, &bound.Try{
		Origin:   bound.Generated(b.syntax),
		TryBlock: bound.NewBlock(b.syntax, regions...),
		Finally:  bound.NewBlock(b.syntax, b.setState(StateFinished)),
	})
}

func (b *builder) disposeRegion(f *frame) bound.Statement {
	call := bound.NewInstanceCall(b.syntax, f.method.Symbol)

	var then bound.Statement
	if len(f.children) == 0 {
		then = bound.NewBlock(b.syntax, call)
	} else {
		var nested []bound.Statement
		for _, c := range f.children {
			nested = append(nested, b.disposeRegion(c))
		}
		then = bound.NewBlock(b.syntax, &bound.Try{
			Origin:   bound.Generated(b.syntax),
			TryBlock: bound.NewBlock(b.syntax, nested...),
			Finally:  bound.NewBlock(b.syntax, call),
		})
	}

	return &bound.If{Origin: bound.Generated(b.syntax), Cond: b.stateIn(f.liveStates()), Then: then}
}

// stateIn builds $state == s1 || $state == s2 || ...
func (b *builder) stateIn(states []int) bound.Expression {
	var cond bound.Expression
	for _, s := range states {
		eq := &bound.Binary{
			Origin: bound.Generated(b.syntax),
			Op:     bound.OpEq,
			Left:   b.stateRef(),
			Right:  bound.NewInt(b.syntax, s),
		}
		if cond == nil {
			cond = eq
			continue
		}
		cond = &bound.Binary{Origin: bound.Generated(b.syntax), Op: bound.OpOr, Left: cond, Right: eq}
	}
	return cond
}
