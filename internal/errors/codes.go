package errors

// Error codes for the iterlower toolchain.
//
// Error code ranges:
// E0100-E0199: Bound-tree fixture errors (syntax and name resolution in .bound files)
// E0900-E0999: Internal compiler errors (invariant violations inside the lowering pass)

const (
	// E0100: Fixture syntax errors
	ErrorFixtureSyntax = "E0100"

	// E0101: Undefined local or parameter in a fixture
	ErrorUndefinedName = "E0101"

	// E0102: break/continue outside of a loop
	ErrorNoEnclosingLoop = "E0102"

	// E0103: goto to a label that is never declared
	ErrorUndefinedLabel = "E0103"

	// E0104: label declared twice in one method
	ErrorDuplicateLabel = "E0104"

	// E0105: local declared twice in one block
	ErrorDuplicateLocal = "E0105"

	// E0900: Code path that must never execute
	ErrorUnreachable = "E0900"

	// E0901: Node kind the rewriter has no rule for
	ErrorUnhandledKind = "E0901"

	// E0902: Node whose syntax provenance does not match its kind
	ErrorMalformedSyntax = "E0902"

	// E0903: try region without suspension points routed to the finally extractor
	ErrorSpuriousExtraction = "E0903"

	// E0904: Rewrite produced nil where a node is required
	ErrorNilRewrite = "E0904"

	// E0905: Suspension point inside a try that has catch blocks
	ErrorYieldInCatchRegion = "E0905"

	// E0906: Suspension point inside a finally or catch block
	ErrorYieldInHandler = "E0906"

	// E0907: Plain return inside a resumable method
	ErrorReturnInIterator = "E0907"

	// E0908: Node outside the lowered target subset
	ErrorNotLowered = "E0908"

	// E0909: Member added to a frozen type
	ErrorFrozenType = "E0909"

	// E0910: Jump to a label that does not exist in the method
	ErrorDanglingLabel = "E0910"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorFixtureSyntax:
		return "The bound-tree fixture could not be parsed"
	case ErrorUndefinedName:
		return "Identifier does not name a local or parameter in scope"
	case ErrorNoEnclosingLoop:
		return "break or continue used outside of a while loop"
	case ErrorUndefinedLabel:
		return "goto targets a label that is not declared in the method"
	case ErrorDuplicateLabel:
		return "Label declared more than once in the same method"
	case ErrorDuplicateLocal:
		return "Local declared more than once in the same block"
	case ErrorUnreachable:
		return "The compiler reached a code path that must never execute"
	case ErrorUnhandledKind:
		return "The lowering pass has no rewrite rule for this node kind"
	case ErrorMalformedSyntax:
		return "Node syntax does not match the node kind"
	case ErrorSpuriousExtraction:
		return "A try region without suspension points was routed to finally extraction"
	case ErrorNilRewrite:
		return "A rewrite produced nil where a node is required"
	case ErrorYieldInCatchRegion:
		return "A suspension point occurs inside a try block that has catch clauses"
	case ErrorYieldInHandler:
		return "A suspension point occurs inside a finally or catch block"
	case ErrorReturnInIterator:
		return "A resumable method contains a value-returning return statement"
	case ErrorNotLowered:
		return "A node outside the lowered target subset reached code generation"
	case ErrorFrozenType:
		return "A member was added to a type after its member list was frozen"
	case ErrorDanglingLabel:
		return "A jump targets a label that is not defined in the method body"
	default:
		return "Unknown error code"
	}
}

// IsInternalError reports whether the code belongs to the internal compiler error range
func IsInternalError(code string) bool {
	return len(code) == 5 && code >= "E0900" && code <= "E0999"
}
