package errors

import (
	"fmt"

	"iterlower/internal/text"
)

// DiagnosticBuilder provides a fluent interface for creating compiler errors
type DiagnosticBuilder struct {
	err CompilerError
}

// NewFixtureError creates a builder for an error found while reading a bound-tree fixture
func NewFixtureError(code, message string, pos text.Position) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		err: CompilerError{
			Level:    Error,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

// NewInternalError creates a builder for an internal compiler error.
// Internal errors describe defects in the compiler, never in the user's program.
func NewInternalError(code, message string, span text.Span) *DiagnosticBuilder {
	return &DiagnosticBuilder{
		err: CompilerError{
			Level:    Internal,
			Code:     code,
			Message:  message,
			Position: span.Start,
			Length:   max(1, span.Len()),
		},
	}
}

// WithLength sets the length of the error span
func (b *DiagnosticBuilder) WithLength(length int) *DiagnosticBuilder {
	b.err.Length = length
	return b
}

// WithNote adds a note to the error
func (b *DiagnosticBuilder) WithNote(note string) *DiagnosticBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp adds help text to the error
func (b *DiagnosticBuilder) WithHelp(help string) *DiagnosticBuilder {
	b.err.HelpText = help
	return b
}

// Build returns the completed compiler error
func (b *DiagnosticBuilder) Build() CompilerError {
	return b.err
}

// UndefinedName creates an error for an identifier that resolves to nothing
func UndefinedName(name string, pos text.Position) CompilerError {
	return NewFixtureError(ErrorUndefinedName, fmt.Sprintf("undefined name '%s'", name), pos).
		WithLength(len(name)).
		WithHelp("declare it with 'var' in an enclosing block or as a method parameter").
		Build()
}

// UndefinedLabel creates an error for a goto whose label is never declared
func UndefinedLabel(name string, pos text.Position) CompilerError {
	return NewFixtureError(ErrorUndefinedLabel, fmt.Sprintf("label '%s' is not declared", name), pos).
		WithLength(len(name)).
		Build()
}
