package bound

import "iterlower/internal/invariant"

// Children returns the direct child nodes of n in evaluation order. Nil
// children are omitted. Catch handlers contribute their bodies.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if !isNil(c) {
			out = append(out, c)
		}
	}

	switch n := n.(type) {
	case *Block:
		for _, s := range n.Statements {
			add(s)
		}
	case *StatementList:
		for _, s := range n.Statements {
			add(s)
		}
	case *SequencePoint, *NoOp, *YieldBreak, *Break, *Continue, *LabelStatement, *Goto:
	case *LocalDeclaration:
		add(n.Init)
	case *ExpressionStatement:
		add(n.Expr)
	case *Return:
		add(n.Expr)
	case *YieldReturn:
		add(n.Expr)
	case *Try:
		add(n.TryBlock)
		for _, c := range n.Catches {
			add(c.Body)
		}
		add(n.Finally)
	case *Throw:
		add(n.Expr)
	case *If:
		add(n.Cond)
		add(n.Then)
		add(n.Else)
	case *While:
		add(n.Cond)
		add(n.Body)
	case *ConditionalGoto:
		add(n.Cond)
	case *Dispatch:
		add(n.Expr)

	case *Literal, *LocalRef, *ParameterRef, *This:
	case *FieldRef:
		add(n.Receiver)
	case *Assignment:
		add(n.Target)
		add(n.Value)
	case *Binary:
		add(n.Left)
		add(n.Right)
	case *Unary:
		add(n.Operand)
	case *Call:
		add(n.Receiver)
		for _, a := range n.Arguments {
			add(a)
		}
	default:
		invariant.Unreachable("unhandled node kind %T", n)
	}
	return out
}

// Inspect traverses the tree rooted at n depth-first. When fn returns
// false the children of that node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if isNil(n) || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, fn)
	}
}

// Any reports whether some node of the tree satisfies pred
func Any(n Node, pred func(Node) bool) bool {
	found := false
	Inspect(n, func(c Node) bool {
		if found {
			return false
		}
		if pred(c) {
			found = true
			return false
		}
		return true
	})
	return found
}

// ContainsYield reports whether a suspension point occurs anywhere in n
func ContainsYield(n Node) bool {
	return Any(n, func(c Node) bool { return c.Kind() == KindYieldReturn })
}

// Count returns the number of nodes of kind k in the tree rooted at n
func Count(n Node, k Kind) int {
	count := 0
	Inspect(n, func(c Node) bool {
		if c.Kind() == k {
			count++
		}
		return true
	})
	return count
}

// isNil catches typed nil pointers stored in interfaces
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	b, ok := n.(*Block)
	return ok && b == nil
}
