// Package invariant signals internal compiler defects.
//
// A Violation is never a user error: the input to the lowering pass is a
// fully bound tree, so any condition reported here means the compiler
// itself is wrong. Violations are raised with Fail/Check/Unreachable deep
// inside recursive rewriters and converted back into an ordinary error
// return at the pass boundary with Recover, which halts lowering of the
// affected body only.
package invariant

import (
	"errors"
	"fmt"

	diag "iterlower/internal/errors"
	"iterlower/internal/text"
)

// Violation describes a broken compiler invariant
type Violation struct {
	Code    string
	Message string
	Span    text.Span
}

func (v *Violation) Error() string {
	if v.Span.IsZero() {
		return fmt.Sprintf("internal compiler error[%s]: %s", v.Code, v.Message)
	}
	return fmt.Sprintf("internal compiler error[%s]: %s (at %s)", v.Code, v.Message, v.Span)
}

// Diagnostic converts the violation into a reportable compiler error
func (v *Violation) Diagnostic() diag.CompilerError {
	return diag.NewInternalError(v.Code, v.Message, v.Span).
		WithNote(diag.GetErrorDescription(v.Code)).
		WithHelp("this is a defect in the compiler, not in the program being compiled").
		Build()
}

// Fail raises a violation. It does not return.
func Fail(code string, span text.Span, format string, args ...any) {
	panic(&Violation{Code: code, Message: fmt.Sprintf(format, args...), Span: span})
}

// Check raises a violation when cond is false
func Check(cond bool, code string, span text.Span, format string, args ...any) {
	if !cond {
		Fail(code, span, format, args...)
	}
}

// Unreachable raises a violation for a code path that must never execute
func Unreachable(format string, args ...any) {
	Fail(diag.ErrorUnreachable, text.Span{}, format, args...)
}

// Recover converts a raised violation into *errp. Panics that are not
// violations keep unwinding.
//
//	func Lower(...) (result *Node, err error) {
//	    defer invariant.Recover(&err)
//	    ...
//	}
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if v, ok := r.(*Violation); ok {
		*errp = v
		return
	}
	panic(r)
}

// As extracts a violation from err
func As(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Capture runs fn and returns the violation it raised, if any
func Capture(fn func()) (err error) {
	defer Recover(&err)
	fn()
	return nil
}
