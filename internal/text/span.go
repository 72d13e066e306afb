package text

import "fmt"

// Position tracks location information for diagnostics and debug info
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

// Span is a half-open range [Start, End) in the source
type Span struct {
	Start Position
	End   Position
}

// NewSpan creates a Span from start and end positions
func NewSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// IsZero reports whether the span carries no location at all
func (s Span) IsZero() bool {
	return s == Span{}
}

// Contains checks if a position is within this span
func (s Span) Contains(pos Position) bool {
	return s.Start.Offset <= pos.Offset && pos.Offset < s.End.Offset
}

// String returns a human-readable representation of the span
func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s:%d:%d-%d", s.Start.Filename, s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", s.Start.Filename, s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}
