// Package driver lowers whole fixture programs and runs the resulting
// state machines.
package driver

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"iterlower/internal/bound"
	"iterlower/internal/boundtext"
	"iterlower/internal/lower"
)

var log = commonlog.GetLogger("iterlower.driver")

// Config controls a driver run
type Config struct {
	Lower lower.Options

	// Concurrency bounds how many bodies are lowered at once. Zero means
	// one per CPU.
	Concurrency int
}

// Output holds one result per method, in declaration order. A method that
// failed to lower has a nil result.
type Output struct {
	Program *boundtext.Program
	Results []*lower.Result
}

// Result returns the result for the named method, or nil
func (o *Output) Result(name string) *lower.Result {
	for i, m := range o.Program.Methods {
		if m.Symbol.Name == name {
			return o.Results[i]
		}
	}
	return nil
}

// Methods returns every lowered body in declaration order
func (o *Output) Methods() []*bound.Method {
	var out []*bound.Method
	for _, r := range o.Results {
		if r != nil {
			out = append(out, r.Methods()...)
		}
	}
	return out
}

// Lower lowers every method of program. Bodies are independent, so they
// are lowered concurrently; a failing body does not stop the others and
// every failure is returned in one *multierror.Error. Bodies not yet
// started when ctx is cancelled are skipped.
func Lower(ctx context.Context, program *boundtext.Program, cfg Config) (*Output, error) {
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	out := &Output{Program: program, Results: make([]*lower.Result, len(program.Methods))}
	errs := make([]error, len(program.Methods))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, m := range program.Methods {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := lower.Method(m, cfg.Lower)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", m.Symbol, err)
				return nil
			}
			out.Results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}

	var merr *multierror.Error
	failed := 0
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
			failed++
		}
	}
	log.Infof("lowered %d of %d methods of %s", len(program.Methods)-failed, len(program.Methods), program.Class.Name)
	return out, merr.ErrorOrNil()
}

// LowerFile reads a fixture file and lowers it
func LowerFile(ctx context.Context, path string, cfg Config) (*Output, string, error) {
	program, source, err := boundtext.ReadFile(path)
	if err != nil {
		return nil, source, err
	}
	out, err := Lower(ctx, program, cfg)
	return out, source, err
}
