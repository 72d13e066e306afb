package bound

import "strconv"

// Kind tags every bound node. The set is closed: rewriters switch over it
// exhaustively and tests enumerate AllKinds so a new kind cannot be added
// without every rewrite site handling it.
type Kind int

const (
	// Statements
	KindBlock Kind = iota
	KindStatementList
	KindSequencePoint
	KindNoOp
	KindLocalDeclaration
	KindExpressionStatement
	KindReturn
	KindYieldReturn
	KindYieldBreak
	KindTry
	KindThrow
	KindIf
	KindWhile
	KindBreak
	KindContinue
	KindLabel
	KindGoto
	KindConditionalGoto
	KindDispatch

	// Expressions
	KindLiteral
	KindLocalRef
	KindParameterRef
	KindFieldRef
	KindThis
	KindAssignment
	KindBinary
	KindUnary
	KindCall

	kindCount
)

var kindNames = [...]string{
	KindBlock:               "Block",
	KindStatementList:       "StatementList",
	KindSequencePoint:       "SequencePoint",
	KindNoOp:                "NoOp",
	KindLocalDeclaration:    "LocalDeclaration",
	KindExpressionStatement: "ExpressionStatement",
	KindReturn:              "Return",
	KindYieldReturn:         "YieldReturn",
	KindYieldBreak:          "YieldBreak",
	KindTry:                 "Try",
	KindThrow:               "Throw",
	KindIf:                  "If",
	KindWhile:               "While",
	KindBreak:               "Break",
	KindContinue:            "Continue",
	KindLabel:               "Label",
	KindGoto:                "Goto",
	KindConditionalGoto:     "ConditionalGoto",
	KindDispatch:            "Dispatch",
	KindLiteral:             "Literal",
	KindLocalRef:            "LocalRef",
	KindParameterRef:        "ParameterRef",
	KindFieldRef:            "FieldRef",
	KindThis:                "This",
	KindAssignment:          "Assignment",
	KindBinary:              "Binary",
	KindUnary:               "Unary",
	KindCall:                "Call",
}

func (k Kind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// AllKinds returns every node kind in declaration order
func AllKinds() []Kind {
	kinds := make([]Kind, kindCount)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

// IsExpression reports whether nodes of this kind are expressions
func (k Kind) IsExpression() bool {
	return k >= KindLiteral && k < kindCount
}

// IsLowered reports whether the kind belongs to the target subset code
// generation accepts.
func (k Kind) IsLowered() bool {
	switch k {
	case KindNoOp, KindLocalDeclaration, KindIf, KindWhile, KindBreak, KindContinue,
		KindYieldReturn, KindYieldBreak:
		return false
	}
	return k >= 0 && k < kindCount
}
