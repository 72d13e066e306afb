// Package boundtext reads bound trees from .bound fixture files.
//
// A fixture stands in for the binder: it is parsed with participle and
// resolved into symbols and bound nodes with syntax provenance, so that
// lowering can be driven from readable text in tests and from the
// command line.
//
//	class Numbers {
//	  extern bool More();
//
//	  iterator int Count(int n) {
//	    var i int = 0;
//	    try {
//	      while (i < n) { yield return i; i = i + 1; }
//	    } finally {
//	      Cleanup();
//	    }
//	  }
//	}
package boundtext

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/hashicorp/go-multierror"

	"iterlower/internal/bound"
	diag "iterlower/internal/errors"
	"iterlower/internal/symbols"
	"iterlower/internal/text"
)

var parser = participle.MustBuild[File](
	participle.Lexer(BoundLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)

// Program is a bound fixture: a class, the host methods it may call and
// its bound methods in declaration order
type Program struct {
	Class   *symbols.Type
	Hosts   map[string]*symbols.Method
	Methods []*bound.Method
}

// Method returns the named method, or nil
func (p *Program) Method(name string) *bound.Method {
	for _, m := range p.Methods {
		if m.Symbol.Name == name {
			return m
		}
	}
	return nil
}

// ReadFile reads and binds a fixture file
func ReadFile(path string) (*Program, string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	program, err := Read(path, string(source))
	return program, string(source), err
}

// Read parses and binds fixture source. Errors are CompilerErrors, several
// of them combined into a *multierror.Error.
func Read(filename, source string) (*Program, error) {
	file, err := parser.ParseString(filename, source)
	if err != nil {
		return nil, syntaxError(err)
	}

	b := newBinder(file)
	program := b.bind(file)
	if b.errs != nil {
		return nil, b.errs.ErrorOrNil()
	}
	return program, nil
}

// Diagnostics flattens an error returned by Read into compiler errors
func Diagnostics(err error) []diag.CompilerError {
	var out []diag.CompilerError
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			out = append(out, Diagnostics(e)...)
		}
		return out
	}
	var ce diag.CompilerError
	if errors.As(err, &ce) {
		return append(out, ce)
	}
	return nil
}

func syntaxError(err error) error {
	var pe participle.Error
	if !errors.As(err, &pe) {
		return err
	}
	return diag.NewFixtureError(diag.ErrorFixtureSyntax, pe.Message(), position(pe.Position())).Build()
}

func position(p lexer.Position) text.Position {
	return text.Position{Filename: p.Filename, Offset: p.Offset, Line: p.Line, Column: p.Column}
}

func span(start, end lexer.Position) text.Span {
	return text.NewSpan(position(start), position(end))
}

// charSpan is the span of the single-character token starting at start
func charSpan(start lexer.Position) text.Span {
	end := start
	end.Offset++
	end.Column++
	return span(start, end)
}
