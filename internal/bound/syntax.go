package bound

import "iterlower/internal/text"

// SyntaxKind classifies the syntax a bound node was produced from
type SyntaxKind int

const (
	SyntaxNone SyntaxKind = iota
	SyntaxMethodDeclaration
	SyntaxAnonymousFunction
	SyntaxBlock
	SyntaxStatement
	SyntaxExpression
)

var syntaxKindNames = [...]string{
	SyntaxNone:              "none",
	SyntaxMethodDeclaration: "method-declaration",
	SyntaxAnonymousFunction: "anonymous-function",
	SyntaxBlock:             "block",
	SyntaxStatement:         "statement",
	SyntaxExpression:        "expression",
}

func (k SyntaxKind) String() string {
	if k >= 0 && int(k) < len(syntaxKindNames) {
		return syntaxKindNames[k]
	}
	return "unknown"
}

// Syntax is the provenance of a bound node. Only the pieces lowering
// needs survive binding: the node's span, the brace tokens of block
// syntax, and the parent chain used to recognise method bodies.
type Syntax struct {
	Kind       SyntaxKind
	Span       text.Span
	OpenBrace  text.Span
	CloseBrace text.Span
	Parent     *Syntax
}

// IsBlock reports whether the syntax is a braced block
func (s *Syntax) IsBlock() bool {
	return s != nil && s.Kind == SyntaxBlock
}

// IsFunctionLike reports whether the syntax declares a method or an
// anonymous function, whose outermost body cannot be exited by falling
// through its closing brace.
func (s *Syntax) IsFunctionLike() bool {
	return s != nil && (s.Kind == SyntaxMethodDeclaration || s.Kind == SyntaxAnonymousFunction)
}

// IsOutermostBody reports whether the syntax is the body block of a
// function-like construct
func (s *Syntax) IsOutermostBody() bool {
	return s.IsBlock() && s.Parent.IsFunctionLike()
}

// NewBlockSyntax creates block syntax with its brace spans
func NewBlockSyntax(span, open, close text.Span, parent *Syntax) *Syntax {
	return &Syntax{Kind: SyntaxBlock, Span: span, OpenBrace: open, CloseBrace: close, Parent: parent}
}

// NewSyntax creates non-block syntax
func NewSyntax(kind SyntaxKind, span text.Span, parent *Syntax) *Syntax {
	return &Syntax{Kind: kind, Span: span, Parent: parent}
}

// Origin records where a node came from. Node structs embed it.
type Origin struct {
	From      *Syntax
	Generated bool
}

// FromSyntax is the origin of a node bound from user source
func FromSyntax(syntax *Syntax) Origin {
	return Origin{From: syntax}
}

// Generated is the origin of a node the compiler created. The syntax, when
// present, is only used to attribute diagnostics.
func Generated(syntax *Syntax) Origin {
	return Origin{From: syntax, Generated: true}
}

// Syntax returns the node's syntax, which may be nil for generated nodes
func (o Origin) Syntax() *Syntax { return o.From }

// WasCompilerGenerated reports whether the node has no user source of its own
func (o Origin) WasCompilerGenerated() bool { return o.Generated }

// Span returns the node's source span, or the zero span
func (o Origin) Span() text.Span {
	if o.From == nil {
		return text.Span{}
	}
	return o.From.Span
}

// AsGenerated returns the same provenance marked as compiler generated
func (o Origin) AsGenerated() Origin {
	return Origin{From: o.From, Generated: true}
}
