package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"

	diag "iterlower/internal/errors"
	"iterlower/internal/invariant"
)

// errFailed reports that diagnostics were already printed
var errFailed = errors.New("failed")

// report prints every error carried by err against the source it came from,
// followed by a one-line summary
func report(w io.Writer, path, source string, err error, start time.Time) error {
	duration := formatDuration(time.Since(start))
	if err == nil {
		color.New(color.FgGreen).Fprintf(w, "Successfully processed %s in %s\n", path, duration)
		return nil
	}

	reporter := diag.NewErrorReporter(path, source)
	for _, e := range flatten(err) {
		if ce, ok := diagnostic(e); ok {
			fmt.Fprint(w, reporter.FormatError(ce))
		} else {
			fmt.Fprintf(w, "%s: %v\n\n", color.RedString("error"), e)
		}
	}
	color.New(color.FgRed).Fprintf(w, "Compilation failed after %s\n", duration)
	return errFailed
}

func flatten(err error) []error {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.Errors
	}
	return []error{err}
}

func diagnostic(err error) (diag.CompilerError, bool) {
	if v, ok := invariant.As(err); ok {
		return v.Diagnostic(), true
	}
	var ce diag.CompilerError
	if errors.As(err, &ce) {
		return ce, true
	}
	return diag.CompilerError{}, false
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
