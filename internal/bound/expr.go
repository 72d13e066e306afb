package bound

import "iterlower/internal/symbols"

// BinaryOp is a binary operator
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var binaryOpSymbols = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAnd: "&&", OpOr: "||",
}

func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(binaryOpSymbols) {
		return binaryOpSymbols[op]
	}
	return "?"
}

// IsComparison reports whether the operator produces a bool from its operands
func (op BinaryOp) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

// IsLogical reports whether the operator short-circuits
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// BinaryOpBySymbol resolves an operator token
func BinaryOpBySymbol(symbol string) (BinaryOp, bool) {
	for op, s := range binaryOpSymbols {
		if s == symbol {
			return BinaryOp(op), true
		}
	}
	return 0, false
}

// UnaryOp is a unary operator
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
)

func (op UnaryOp) String() string {
	if op == OpNot {
		return "!"
	}
	return "-"
}

// Literal is a constant: int, bool, string, or nil for the null object
type Literal struct {
	Origin
	Value any
	Typ   *symbols.Type
}

// LocalRef reads or writes a local
type LocalRef struct {
	Origin
	Local *symbols.Local
}

// ParameterRef reads or writes a parameter
type ParameterRef struct {
	Origin
	Parameter *symbols.Parameter
}

// FieldRef reads or writes a field of Receiver
type FieldRef struct {
	Origin
	Receiver Expression
	Field    *symbols.Field
}

// This is the instance a method operates on
type This struct {
	Origin
	Typ *symbols.Type
}

// Assignment stores Value into Target and produces the stored value
type Assignment struct {
	Origin
	Target Expression
	Value  Expression
}

// Binary applies a binary operator
type Binary struct {
	Origin
	Op    BinaryOp
	Left  Expression
	Right Expression
}

// Unary applies a unary operator
type Unary struct {
	Origin
	Op      UnaryOp
	Operand Expression
}

// Call invokes Method. Receiver is nil for static and host methods.
type Call struct {
	Origin
	Receiver  Expression
	Method    *symbols.Method
	Arguments []Expression
}

func (*Literal) Kind() Kind      { return KindLiteral }
func (*LocalRef) Kind() Kind     { return KindLocalRef }
func (*ParameterRef) Kind() Kind { return KindParameterRef }
func (*FieldRef) Kind() Kind     { return KindFieldRef }
func (*This) Kind() Kind         { return KindThis }
func (*Assignment) Kind() Kind   { return KindAssignment }
func (*Binary) Kind() Kind       { return KindBinary }
func (*Unary) Kind() Kind        { return KindUnary }
func (*Call) Kind() Kind         { return KindCall }

func (*Literal) expressionNode()      {}
func (*LocalRef) expressionNode()     {}
func (*ParameterRef) expressionNode() {}
func (*FieldRef) expressionNode()     {}
func (*This) expressionNode()         {}
func (*Assignment) expressionNode()   {}
func (*Binary) expressionNode()       {}
func (*Unary) expressionNode()        {}
func (*Call) expressionNode()         {}

func (l *Literal) Type() *symbols.Type      { return l.Typ }
func (l *LocalRef) Type() *symbols.Type     { return l.Local.Type }
func (p *ParameterRef) Type() *symbols.Type { return p.Parameter.Type }
func (f *FieldRef) Type() *symbols.Type     { return f.Field.Type }
func (t *This) Type() *symbols.Type         { return t.Typ }
func (a *Assignment) Type() *symbols.Type   { return a.Target.Type() }
func (c *Call) Type() *symbols.Type         { return c.Method.ReturnType }

func (b *Binary) Type() *symbols.Type {
	if b.Op.IsComparison() || b.Op.IsLogical() {
		return symbols.Bool
	}
	return b.Left.Type()
}

func (u *Unary) Type() *symbols.Type {
	if u.Op == OpNot {
		return symbols.Bool
	}
	return u.Operand.Type()
}

// NewThis creates a generated reference to the instance of typ
func NewThis(syntax *Syntax, typ *symbols.Type) *This {
	return &This{Origin: Generated(syntax), Typ: typ}
}

// NewInt creates a generated integer literal
func NewInt(syntax *Syntax, value int) *Literal {
	return &Literal{Origin: Generated(syntax), Value: value, Typ: symbols.Int}
}

// NewBool creates a generated boolean literal
func NewBool(syntax *Syntax, value bool) *Literal {
	return &Literal{Origin: Generated(syntax), Value: value, Typ: symbols.Bool}
}

// NewFieldAccess creates this.field
func NewFieldAccess(syntax *Syntax, field *symbols.Field) *FieldRef {
	return &FieldRef{
		Origin:   Generated(syntax),
		Receiver: NewThis(syntax, field.Containing),
		Field:    field,
	}
}

// NewAssign creates a generated assignment statement target = value
func NewAssign(syntax *Syntax, target, value Expression) *ExpressionStatement {
	return NewExpressionStatement(syntax, &Assignment{Origin: Generated(syntax), Target: target, Value: value})
}

// NewInstanceCall creates a generated call statement this.method()
func NewInstanceCall(syntax *Syntax, method *symbols.Method) *ExpressionStatement {
	return NewExpressionStatement(syntax, &Call{
		Origin:   Generated(syntax),
		Receiver: NewThis(syntax, method.Containing),
		Method:   method,
	})
}

// NewStaticCall creates a generated call statement of a static or host method
func NewStaticCall(syntax *Syntax, method *symbols.Method, args ...Expression) *ExpressionStatement {
	return NewExpressionStatement(syntax, &Call{Origin: Generated(syntax), Method: method, Arguments: args})
}
