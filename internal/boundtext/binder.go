package boundtext

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/hashicorp/go-multierror"

	"iterlower/internal/bound"
	diag "iterlower/internal/errors"
	"iterlower/internal/symbols"
	"iterlower/internal/text"
)

type binder struct {
	class *symbols.Type
	hosts map[string]*symbols.Method
	errs  *multierror.Error

	// per method
	method *symbols.Method
	params map[string]*symbols.Parameter
	scopes []map[string]*symbols.Local
	loops     []*loop
	loopCount int
	labels    map[string]*labelInfo
}

type loop struct {
	breakLabel    *symbols.Label
	continueLabel *symbols.Label
}

type labelInfo struct {
	label   *symbols.Label
	defined bool
	usedAt  lexer.Position
}

func newBinder(file *File) *binder {
	return &binder{
		class: symbols.NewClass(file.Name, charSpan(file.Pos)),
		hosts: make(map[string]*symbols.Method),
	}
}

func (b *binder) errorf(code string, pos lexer.Position, format string, args ...any) {
	b.report(diag.NewFixtureError(code, fmt.Sprintf(format, args...), position(pos)).Build())
}

func (b *binder) report(err diag.CompilerError) {
	b.errs = multierror.Append(b.errs, err)
}

func (b *binder) resolveType(name string, pos lexer.Position) *symbols.Type {
	t, ok := symbols.SpecialTypeByName(name)
	if !ok {
		b.errorf(diag.ErrorUndefinedName, pos, "unknown type '%s'", name)
		return symbols.Object
	}
	return t
}

func (b *binder) bind(file *File) *Program {
	program := &Program{Class: b.class, Hosts: b.hosts}

	for _, ext := range file.Externs {
		b.hosts[ext.Name] = symbols.NewHostMethod(ext.Name, b.resolveType(ext.Return, ext.Pos))
	}
	for _, def := range file.Methods {
		program.Methods = append(program.Methods, b.bindMethod(def))
	}
	return program
}

func (b *binder) bindMethod(def *MethodDef) *bound.Method {
	var params []*symbols.Parameter
	b.params = make(map[string]*symbols.Parameter)
	for i, p := range def.Params {
		param := &symbols.Parameter{Name: p.Name, Type: b.resolveType(p.Type, p.Pos), Ordinal: i}
		params = append(params, param)
		b.params[p.Name] = param
	}

	declaration := charSpan(def.Pos)
	if def.Iterator {
		b.method = symbols.NewIteratorMethod(b.class, def.Name, b.resolveType(def.Return, def.Pos), params, declaration)
	} else {
		b.method = symbols.NewUserMethod(b.class, def.Name, b.resolveType(def.Return, def.Pos), params, declaration)
	}

	b.scopes = nil
	b.loops = nil
	b.loopCount = 0
	b.labels = make(map[string]*labelInfo)

	kind := bound.SyntaxMethodDeclaration
	if def.Attribute != nil && def.Attribute.Name == "lambda" {
		kind = bound.SyntaxAnonymousFunction
	}
	methodSyntax := bound.NewSyntax(kind, text.NewSpan(position(def.Pos), charSpan(def.Body.Close.Pos).End), nil)
	body := b.bindBlock(def.Body, methodSyntax, false)

	for name, info := range b.labels {
		if !info.defined {
			b.report(diag.UndefinedLabel(name, position(info.usedAt)))
		}
	}
	return bound.NewMethod(b.method, body)
}

func (b *binder) bindBlock(blk *Block, parent *bound.Syntax, generated bool) *bound.Block {
	closing := charSpan(blk.Close.Pos)
	syntax := bound.NewBlockSyntax(text.NewSpan(position(blk.Pos), closing.End), charSpan(blk.Pos), closing, parent)

	b.scopes = append(b.scopes, make(map[string]*symbols.Local))
	var locals []*symbols.Local
	var statements []bound.Statement
	for _, st := range blk.Statements {
		s, local := b.bindStatement(st, syntax)
		if local != nil {
			locals = append(locals, local)
		}
		if s != nil {
			statements = append(statements, s)
		}
	}
	b.scopes = b.scopes[:len(b.scopes)-1]

	origin := bound.FromSyntax(syntax)
	if generated {
		origin = bound.Generated(syntax)
	}
	return &bound.Block{Origin: origin, Locals: locals, Statements: statements}
}

// bindStatement binds one statement. A var statement also returns the
// local it declares in the enclosing block.
func (b *binder) bindStatement(st *Statement, parent *bound.Syntax) (bound.Statement, *symbols.Local) {
	syntax := bound.NewSyntax(bound.SyntaxStatement, span(st.Pos, st.EndPos), parent)
	origin := bound.FromSyntax(syntax)

	switch {
	case st.Synthesized != nil:
		return b.bindBlock(st.Synthesized, syntax, true), nil

	case st.Block != nil:
		return b.bindBlock(st.Block, parent, false), nil

	case st.NoOp:
		return &bound.NoOp{Origin: origin}, nil

	case st.Var != nil:
		local := symbols.NewLocal(st.Var.Name, b.resolveType(st.Var.Type, st.Pos), syntax.Span)
		var init bound.Expression
		if st.Var.Init != nil {
			init = b.bindExpr(st.Var.Init, syntax)
		}
		scope := b.scopes[len(b.scopes)-1]
		if _, dup := scope[local.Name]; dup {
			b.errorf(diag.ErrorDuplicateLocal, st.Pos, "'%s' is already declared in this block", local.Name)
		}
		scope[local.Name] = local
		return &bound.LocalDeclaration{Origin: origin, Local: local, Init: init}, local

	case st.YieldReturn != nil:
		return &bound.YieldReturn{Origin: origin, Expr: b.bindExpr(st.YieldReturn, syntax)}, nil

	case st.YieldBreak:
		return &bound.YieldBreak{Origin: origin}, nil

	case st.Return != nil:
		var value bound.Expression
		if st.Return.Value != nil {
			value = b.bindExpr(st.Return.Value, syntax)
		}
		return &bound.Return{Origin: origin, Expr: value}, nil

	case st.Try != nil:
		return b.bindTry(st.Try, syntax, origin), nil

	case st.Throw != nil:
		var value bound.Expression
		if st.Throw.Value != nil {
			value = b.bindExpr(st.Throw.Value, syntax)
		}
		return &bound.Throw{Origin: origin, Expr: value}, nil

	case st.If != nil:
		n := &bound.If{Origin: origin, Cond: b.bindExpr(st.If.Cond, syntax)}
		n.Then = b.bindEmbedded(st.If.Then, syntax)
		if st.If.Else != nil {
			n.Else = b.bindEmbedded(st.If.Else, syntax)
		}
		return n, nil

	case st.While != nil:
		b.loopCount++
		l := &loop{
			breakLabel:    symbols.GeneratedLabel("break", b.loopCount),
			continueLabel: symbols.GeneratedLabel("continue", b.loopCount),
		}
		cond := b.bindExpr(st.While.Cond, syntax)
		b.loops = append(b.loops, l)
		body := b.bindEmbedded(st.While.Body, syntax)
		b.loops = b.loops[:len(b.loops)-1]
		return &bound.While{Origin: origin, Cond: cond, Body: body, BreakLabel: l.breakLabel, ContinueLabel: l.continueLabel}, nil

	case st.Break, st.Continue:
		if len(b.loops) == 0 {
			b.errorf(diag.ErrorNoEnclosingLoop, st.Pos, "no enclosing loop out of which to break or continue")
			return nil, nil
		}
		l := b.loops[len(b.loops)-1]
		if st.Break {
			return &bound.Break{Origin: origin, Label: l.breakLabel}, nil
		}
		return &bound.Continue{Origin: origin, Label: l.continueLabel}, nil

	case st.Goto != nil:
		info := b.label(*st.Goto)
		if !info.defined && info.usedAt.Line == 0 {
			info.usedAt = st.Pos
		}
		return &bound.Goto{Origin: origin, Label: info.label}, nil

	case st.Label != nil:
		info := b.label(*st.Label)
		if info.defined {
			b.errorf(diag.ErrorDuplicateLabel, st.Pos, "label '%s' is already declared", *st.Label)
		}
		info.defined = true
		return &bound.LabelStatement{Origin: origin, Label: info.label}, nil

	case st.Assign != nil:
		target := b.lookup(st.Assign.Target, st.Assign.Pos, syntax)
		return &bound.ExpressionStatement{
			Origin: origin,
			Expr:   &bound.Assignment{Origin: origin, Target: target, Value: b.bindExpr(st.Assign.Value, syntax)},
		}, nil

	case st.Expr != nil:
		return &bound.ExpressionStatement{Origin: origin, Expr: b.bindExpr(st.Expr, syntax)}, nil
	}

	b.errorf(diag.ErrorFixtureSyntax, st.Pos, "empty statement")
	return nil, nil
}

// bindEmbedded binds the statement of an if or while. A var statement
// there gets its own scope.
func (b *binder) bindEmbedded(st *Statement, parent *bound.Syntax) bound.Statement {
	b.scopes = append(b.scopes, make(map[string]*symbols.Local))
	defer func() { b.scopes = b.scopes[:len(b.scopes)-1] }()

	s, local := b.bindStatement(st, parent)
	if local != nil {
		return &bound.Block{Origin: bound.Generated(parent), Locals: []*symbols.Local{local}, Statements: []bound.Statement{s}}
	}
	if s == nil {
		return &bound.Block{Origin: bound.Generated(parent)}
	}
	return s
}

func (b *binder) bindTry(t *TryStmt, syntax *bound.Syntax, origin bound.Origin) *bound.Try {
	n := &bound.Try{Origin: origin, TryBlock: b.bindBlock(t.Body, syntax, false)}
	for _, c := range t.Catches {
		catch := &bound.Catch{Origin: bound.FromSyntax(bound.NewSyntax(bound.SyntaxStatement, charSpan(c.Pos), syntax))}
		if c.Local != nil {
			catch.Local = symbols.NewLocal(*c.Local, symbols.Object, charSpan(c.Pos))
			b.scopes = append(b.scopes, map[string]*symbols.Local{*c.Local: catch.Local})
		}
		catch.Body = b.bindBlock(c.Body, syntax, false)
		if c.Local != nil {
			b.scopes = b.scopes[:len(b.scopes)-1]
		}
		n.Catches = append(n.Catches, catch)
	}
	if t.Finally != nil {
		n.Finally = b.bindBlock(t.Finally, syntax, false)
	}
	if len(n.Catches) == 0 && n.Finally == nil {
		b.errorf(diag.ErrorFixtureSyntax, t.Body.Pos, "try without catch or finally")
	}
	return n
}

func (b *binder) label(name string) *labelInfo {
	info, ok := b.labels[name]
	if !ok {
		info = &labelInfo{label: symbols.NewLabel(name)}
		b.labels[name] = info
	}
	return info
}

func (b *binder) lookup(name string, pos lexer.Position, syntax *bound.Syntax) bound.Expression {
	origin := bound.FromSyntax(syntax)
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if l, ok := b.scopes[i][name]; ok {
			return &bound.LocalRef{Origin: origin, Local: l}
		}
	}
	if p, ok := b.params[name]; ok {
		return &bound.ParameterRef{Origin: origin, Parameter: p}
	}
	b.report(diag.UndefinedName(name, position(pos)))
	return &bound.Literal{Origin: origin, Typ: symbols.Object}
}

// bindExpr resolves an expression, applying operator precedence to the
// flat operator list the grammar produces
func (b *binder) bindExpr(e *Expr, parent *bound.Syntax) bound.Expression {
	bin := e.Binary
	operands := []bound.Expression{b.bindUnary(bin.Left, parent)}
	var ops []bound.BinaryOp
	for _, op := range bin.Ops {
		resolved, ok := bound.BinaryOpBySymbol(op.Operator)
		if !ok {
			b.errorf(diag.ErrorFixtureSyntax, op.Pos, "unknown operator '%s'", op.Operator)
		}
		ops = append(ops, resolved)
		operands = append(operands, b.bindUnary(op.Right, parent))
	}

	p := &precedenceClimber{operands: operands, ops: ops, origin: bound.FromSyntax(parent)}
	return p.parse(0)
}

func (b *binder) bindUnary(u *UnaryExpr, parent *bound.Syntax) bound.Expression {
	value := b.bindPrimary(u.Value, parent)
	if u.Operator == nil {
		return value
	}
	op := bound.OpNeg
	if *u.Operator == "!" {
		op = bound.OpNot
	}
	return &bound.Unary{Origin: bound.FromSyntax(parent), Op: op, Operand: value}
}

func (b *binder) bindPrimary(p *PrimaryExpr, parent *bound.Syntax) bound.Expression {
	syntax := bound.NewSyntax(bound.SyntaxExpression, span(p.Pos, p.EndPos), parent)
	origin := bound.FromSyntax(syntax)

	switch {
	case p.Call != nil:
		var args []bound.Expression
		for _, a := range p.Call.Args {
			args = append(args, b.bindExpr(a, syntax))
		}
		return &bound.Call{Origin: origin, Method: b.host(p.Call.Name), Arguments: args}
	case p.Number != nil:
		n, err := strconv.Atoi(*p.Number)
		if err != nil {
			b.errorf(diag.ErrorFixtureSyntax, p.Pos, "invalid integer %s", *p.Number)
		}
		return &bound.Literal{Origin: origin, Value: n, Typ: symbols.Int}
	case p.String != nil:
		// quotes are kept by the lexer so a string never matches an operator
		value, err := strconv.Unquote(*p.String)
		if err != nil {
			b.errorf(diag.ErrorFixtureSyntax, p.Pos, "invalid string %s", *p.String)
		}
		return &bound.Literal{Origin: origin, Value: value, Typ: symbols.String}
	case p.Bool != nil:
		return &bound.Literal{Origin: origin, Value: *p.Bool == "true", Typ: symbols.Bool}
	case p.Null:
		return &bound.Literal{Origin: origin, Typ: symbols.Object}
	case p.Ident != nil:
		return b.lookup(*p.Ident, p.Pos, syntax)
	case p.Parens != nil:
		return b.bindExpr(p.Parens, syntax)
	}
	b.errorf(diag.ErrorFixtureSyntax, p.Pos, "empty expression")
	return &bound.Literal{Origin: origin, Typ: symbols.Object}
}

// host resolves a call target. Undeclared host methods return object.
func (b *binder) host(name string) *symbols.Method {
	if m, ok := b.hosts[name]; ok {
		return m
	}
	m := symbols.NewHostMethod(name, symbols.Object)
	b.hosts[name] = m
	return m
}

var binaryPrecedence = map[bound.BinaryOp]int{
	bound.OpOr:  1,
	bound.OpAnd: 2,
	bound.OpEq:  3, bound.OpNe: 3,
	bound.OpLt: 4, bound.OpLe: 4, bound.OpGt: 4, bound.OpGe: 4,
	bound.OpAdd: 5, bound.OpSub: 5,
	bound.OpMul: 6, bound.OpDiv: 6, bound.OpMod: 6,
}

type precedenceClimber struct {
	operands []bound.Expression
	ops      []bound.BinaryOp
	pos      int
	origin   bound.Origin
}

// parse folds operands[pos:] into a tree, consuming operators that bind
// tighter than minPrec. All operators are left associative.
func (p *precedenceClimber) parse(minPrec int) bound.Expression {
	left := p.operands[p.pos]
	for p.pos < len(p.ops) {
		op := p.ops[p.pos]
		prec := binaryPrecedence[op]
		if prec <= minPrec {
			break
		}
		p.pos++
		right := p.parse(prec)
		left = &bound.Binary{Origin: p.origin, Op: op, Left: left, Right: right}
	}
	return left
}
