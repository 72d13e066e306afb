package lower

import (
	"iterlower/internal/bound"
	diag "iterlower/internal/errors"
	"iterlower/internal/invariant"
	"iterlower/internal/symbols"
)

// Verify checks that a lowered body only uses the target subset: no
// high-level statements, no try with both handlers and a finally, and no
// jump to a label the body does not define. Suspension points are
// accepted only when allowYield is set. The first problem is returned as
// a violation.
func Verify(body bound.Node, allowYield bool) (err error) {
	defer invariant.Recover(&err)

	defined := make(map[*symbols.Label]bool)
	var targets []*bound.Goto
	var conditional []*bound.ConditionalGoto
	var dispatches []*bound.Dispatch

	bound.Inspect(body, func(n bound.Node) bool {
		kind := n.Kind()
		switch {
		case kind == bound.KindYieldReturn || kind == bound.KindYieldBreak:
			invariant.Check(allowYield, diag.ErrorNotLowered, n.Span(), "%s survived state machine rewriting", kind)
		case !kind.IsLowered():
			invariant.Fail(diag.ErrorNotLowered, n.Span(), "%s is not part of the lowered form", kind)
		}

		switch n := n.(type) {
		case *bound.Try:
			invariant.Check(len(n.Catches) == 0 || n.Finally == nil, diag.ErrorNotLowered, n.Span(),
				"try with both catch blocks and a finally")
			invariant.Check(len(n.Catches) > 0 || n.Finally != nil, diag.ErrorNotLowered, n.Span(),
				"try without handlers")
		case *bound.LabelStatement:
			invariant.Check(!defined[n.Label], diag.ErrorDanglingLabel, n.Span(), "label %s defined twice", n.Label)
			defined[n.Label] = true
		case *bound.Goto:
			targets = append(targets, n)
		case *bound.ConditionalGoto:
			conditional = append(conditional, n)
		case *bound.Dispatch:
			dispatches = append(dispatches, n)
		}
		return true
	})

	check := func(n bound.Node, label *symbols.Label) {
		invariant.Check(label != nil && defined[label], diag.ErrorDanglingLabel, n.Span(),
			"jump to undefined label %v", label)
	}
	for _, g := range targets {
		check(g, g.Label)
	}
	for _, g := range conditional {
		check(g, g.Label)
	}
	for _, d := range dispatches {
		for _, c := range d.Cases {
			check(d, c.Label)
		}
		check(d, d.Default)
	}
	return nil
}
