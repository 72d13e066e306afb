package iterator

import (
	"iterlower/internal/bound"
	diag "iterlower/internal/errors"
	"iterlower/internal/invariant"
	"iterlower/internal/symbols"
)

// Extract moves the finally block of region into a new private method of
// the state machine type and returns the method with one statement that
// calls it.
//
// The method body first resets $state to parentState, the state of the
// enclosing region, so that whichever exit path runs it first is the only
// one that does. The finally statements follow unchanged and in order.
// region must contain a suspension point in its try block; anything else
// keeps its finally inline and reaching here is a violation.
func Extract(region *bound.Try, members *symbols.MemberBuilder, state *symbols.Field, parentState int, name string) (*bound.Method, bound.Statement) {
	invariant.Check(region.Finally != nil, diag.ErrorSpuriousExtraction, region.Span(),
		"try without finally routed to extraction")
	invariant.Check(bound.ContainsYield(region.TryBlock), diag.ErrorSpuriousExtraction, region.Span(),
		"try without suspension points routed to extraction")

	sym := symbols.NewFinallyMethod(members.Owner(), name)
	members.Add(sym)

	syntax := region.Finally.Syntax()
	statements := make([]bound.Statement, 0, len(region.Finally.Statements)+1)
	statements = append(statements, bound.NewAssign(syntax, bound.NewFieldAccess(syntax, state), bound.NewInt(syntax, parentState)))
	statements = append(statements, region.Finally.Statements...)

	body := &bound.Block{Origin: region.Finally.Origin, Statements: statements}
	log.Debugf("extracted finally of %s into %s", region.Span(), sym)
	return bound.NewMethod(sym, body), bound.NewInstanceCall(region.Syntax(), sym)
}
