package boundtext

import "github.com/alecthomas/participle/v2/lexer"

// File is a .bound fixture: one class holding host declarations and methods
type File struct {
	Pos     lexer.Position
	Name    string       `"class" @Ident "{"`
	Externs []*Extern    `@@*`
	Methods []*MethodDef `@@* "}"`
}

// Extern declares a host method. Parameters are documentation only: host
// calls are not checked against them.
type Extern struct {
	Pos    lexer.Position
	Return string   `"extern" @Ident`
	Name   string   `@Ident "("`
	Params []*Param `[ @@ { "," @@ } ] ")" ";"`
}

type MethodDef struct {
	Pos       lexer.Position
	Attribute *Attribute `@@?`
	Iterator  bool       `[ @"iterator" ]`
	Return    string     `@Ident`
	Name      string     `@Ident "("`
	Params    []*Param   `[ @@ { "," @@ } ] ")"`
	Body      *Block     `@@`
}

type Attribute struct {
	Name string `"#" "[" @("lambda") "]"`
}

type Param struct {
	Pos  lexer.Position
	Type string `@Ident`
	Name string `@Ident`
}

type Block struct {
	Pos        lexer.Position
	Statements []*Statement `"{" @@*`
	Close      *CloseBrace  `@@`
}

type CloseBrace struct {
	Pos   lexer.Position
	Brace string `@"}"`
}

type Statement struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Synthesized *Block      `  "synthesized" @@`
	Block       *Block      `| @@`
	NoOp        bool        `| @";"`
	Var         *VarStmt    `| @@`
	YieldReturn *Expr       `| "yield" "return" @@ ";"`
	YieldBreak  bool        `| "yield" @"break" ";"`
	Return      *ReturnStmt `| @@`
	Try         *TryStmt    `| @@`
	Throw       *ThrowStmt  `| @@`
	If          *IfStmt     `| @@`
	While       *WhileStmt  `| @@`
	Break       bool        `| @"break" ";"`
	Continue    bool        `| @"continue" ";"`
	Goto        *string     `| "goto" @Ident ";"`
	Label       *string     `| @Ident ":"`
	Assign      *AssignStmt `| @@`
	Expr        *Expr       `| @@ ";"`
}

type VarStmt struct {
	Name string `"var" @Ident`
	Type string `@Ident`
	Init *Expr  `[ "=" @@ ] ";"`
}

type ReturnStmt struct {
	Value *Expr `"return" [ @@ ] ";"`
}

type TryStmt struct {
	Body    *Block       `"try" @@`
	Catches []*CatchPart `@@*`
	Finally *Block       `[ "finally" @@ ]`
}

type CatchPart struct {
	Pos   lexer.Position
	Local *string `"catch" [ "(" @Ident ")" ]`
	Body  *Block  `@@`
}

type ThrowStmt struct {
	Value *Expr `"throw" [ @@ ] ";"`
}

type IfStmt struct {
	Cond *Expr      `"if" "(" @@ ")"`
	Then *Statement `@@`
	Else *Statement `[ "else" @@ ]`
}

type WhileStmt struct {
	Cond *Expr      `"while" "(" @@ ")"`
	Body *Statement `@@`
}

type AssignStmt struct {
	Pos    lexer.Position
	Target string `@Ident "="`
	Value  *Expr  `@@ ";"`
}

type Expr struct {
	Binary *BinaryExpr `@@`
}

type BinaryExpr struct {
	Left *UnaryExpr `@@`
	Ops  []*BinOp   `{ @@ }`
}

type BinOp struct {
	Pos      lexer.Position
	Operator string     `@("||" | "&&" | "==" | "!=" | "<=" | ">=" | "<" | ">" | "+" | "-" | "*" | "/" | "%")`
	Right    *UnaryExpr `@@`
}

type UnaryExpr struct {
	Pos      lexer.Position
	Operator *string      `[ @("!" | "-") ]`
	Value    *PrimaryExpr `@@`
}

type PrimaryExpr struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Call   *CallExpr `  @@`
	Number *string   `| @Integer`
	String *string   `| @String`
	Bool   *string   `| @("true" | "false")`
	Null   bool      `| @"null"`
	Ident  *string   `| @Ident`
	Parens *Expr     `| "(" @@ ")"`
}

type CallExpr struct {
	Name string  `@Ident`
	Args []*Expr `"(" [ @@ { "," @@ } ] ")"`
}
