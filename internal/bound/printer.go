package bound

import (
	"fmt"
	"strconv"
	"strings"

	"iterlower/internal/symbols"
)

// Printer renders bound trees as indented pseudo-source
type Printer struct {
	indent int
	output strings.Builder

	// Spans prints the span of every sequence point
	Spans bool
}

// NewPrinter creates a new bound tree printer
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the string representation of a statement or expression
func Print(n Node) string {
	p := NewPrinter()
	p.Node(n)
	return p.String()
}

// PrintMethod returns the string representation of a method and its body
func PrintMethod(m *Method) string {
	p := NewPrinter()
	p.Method(m)
	return p.String()
}

func (p *Printer) String() string {
	return p.output.String()
}

// Helper methods

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

// Method prints a method header followed by its body
func (p *Printer) Method(m *Method) {
	sym := m.Symbol
	var params []string
	for _, param := range sym.Parameters {
		params = append(params, fmt.Sprintf("%s %s", param.Type, param.Name))
	}
	header := fmt.Sprintf("%s %s %s(%s)", sym.Accessibility, returnTypeName(sym), sym.Name, strings.Join(params, ", "))
	if sym.IsIterator {
		header = fmt.Sprintf("%s iterator %s %s(%s)", sym.Accessibility, sym.ElementType, sym.Name, strings.Join(params, ", "))
	}
	p.writeLine("%s", header)
	if m.Body == nil {
		p.writeLine("{}")
		return
	}
	p.Node(m.Body)
}

func returnTypeName(m *symbols.Method) string {
	if m.ReturnType == nil {
		return "void"
	}
	return m.ReturnType.Name
}

// Node prints one node. Expressions print on a single line.
func (p *Printer) Node(n Node) {
	if isNil(n) {
		p.writeLine("<nil>")
		return
	}
	if e, ok := n.(Expression); ok {
		p.writeLine("%s", FormatExpression(e))
		return
	}
	p.statement(n.(Statement))
}

func (p *Printer) block(open string, statements []Statement) {
	p.writeLine("%s{", open)
	p.indent++
	for _, s := range statements {
		p.statement(s)
	}
	p.indent--
	p.writeLine("}")
}

func (p *Printer) statement(s Statement) {
	switch s := s.(type) {
	case *Block:
		if s == nil {
			p.writeLine("<nil>")
			return
		}
		open := ""
		if len(s.Locals) > 0 {
			var names []string
			for _, l := range s.Locals {
				names = append(names, l.Name)
			}
			open = "locals(" + strings.Join(names, ", ") + ") "
		}
		p.block(open, s.Statements)
	case *StatementList:
		for _, st := range s.Statements {
			p.statement(st)
		}
	case *SequencePoint:
		if p.Spans {
			p.writeLine("#sequence-point %s", s.At)
		} else {
			p.writeLine("#sequence-point")
		}
	case *NoOp:
		p.writeLine(";")
	case *LocalDeclaration:
		if s.Init != nil {
			p.writeLine("var %s %s = %s;", s.Local.Name, s.Local.Type, FormatExpression(s.Init))
		} else {
			p.writeLine("var %s %s;", s.Local.Name, s.Local.Type)
		}
	case *ExpressionStatement:
		p.writeLine("%s;", FormatExpression(s.Expr))
	case *Return:
		if s.Expr != nil {
			p.writeLine("return %s;", FormatExpression(s.Expr))
		} else {
			p.writeLine("return;")
		}
	case *YieldReturn:
		p.writeLine("yield return %s;", FormatExpression(s.Expr))
	case *YieldBreak:
		p.writeLine("yield break;")
	case *Try:
		p.block("try ", s.TryBlock.Statements)
		for _, c := range s.Catches {
			if c.Local != nil {
				p.block(fmt.Sprintf("catch (%s) ", c.Local.Name), c.Body.Statements)
			} else {
				p.block("catch ", c.Body.Statements)
			}
		}
		if s.Finally != nil {
			p.block("finally ", s.Finally.Statements)
		}
	case *Throw:
		if s.Expr != nil {
			p.writeLine("throw %s;", FormatExpression(s.Expr))
		} else {
			p.writeLine("throw;")
		}
	case *If:
		p.writeLine("if (%s)", FormatExpression(s.Cond))
		p.nested(s.Then)
		if s.Else != nil {
			p.writeLine("else")
			p.nested(s.Else)
		}
	case *While:
		p.writeLine("while (%s)", FormatExpression(s.Cond))
		p.nested(s.Body)
	case *Break:
		p.writeLine("break;")
	case *Continue:
		p.writeLine("continue;")
	case *LabelStatement:
		p.indent--
		p.writeLine("%s:", s.Label.Name)
		p.indent++
	case *Goto:
		p.writeLine("goto %s;", s.Label.Name)
	case *ConditionalGoto:
		if s.JumpIfTrue {
			p.writeLine("if (%s) goto %s;", FormatExpression(s.Cond), s.Label.Name)
		} else {
			p.writeLine("if !(%s) goto %s;", FormatExpression(s.Cond), s.Label.Name)
		}
	case *Dispatch:
		var cases []string
		for _, c := range s.Cases {
			cases = append(cases, fmt.Sprintf("%d: %s", c.Value, c.Label.Name))
		}
		p.writeLine("dispatch (%s) { %s } default %s;", FormatExpression(s.Expr), strings.Join(cases, ", "), s.Default.Name)
	default:
		p.writeLine("<unknown %T>", s)
	}
}

// nested prints a statement one level deeper unless it is a block
func (p *Printer) nested(s Statement) {
	if _, ok := s.(*Block); ok {
		p.statement(s)
		return
	}
	p.indent++
	p.statement(s)
	p.indent--
}

// FormatExpression renders an expression on one line
func FormatExpression(e Expression) string {
	if e == nil {
		return "<nil>"
	}
	switch e := e.(type) {
	case *Literal:
		switch v := e.Value.(type) {
		case nil:
			return "null"
		case string:
			return strconv.Quote(v)
		default:
			return fmt.Sprint(v)
		}
	case *LocalRef:
		return e.Local.Name
	case *ParameterRef:
		return e.Parameter.Name
	case *FieldRef:
		if _, ok := e.Receiver.(*This); ok {
			return "this." + e.Field.Name
		}
		return FormatExpression(e.Receiver) + "." + e.Field.Name
	case *This:
		return "this"
	case *Assignment:
		return FormatExpression(e.Target) + " = " + FormatExpression(e.Value)
	case *Binary:
		return "(" + FormatExpression(e.Left) + " " + e.Op.String() + " " + FormatExpression(e.Right) + ")"
	case *Unary:
		return e.Op.String() + FormatExpression(e.Operand)
	case *Call:
		args := make([]string, len(e.Arguments))
		for i, a := range e.Arguments {
			args[i] = FormatExpression(a)
		}
		callee := e.Method.Name
		if e.Receiver != nil {
			callee = FormatExpression(e.Receiver) + "." + callee
		}
		return callee + "(" + strings.Join(args, ", ") + ")"
	}
	return fmt.Sprintf("<unknown %T>", e)
}
