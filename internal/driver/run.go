package driver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"iterlower/internal/eval"
	"iterlower/internal/iterator"
	"iterlower/internal/symbols"
)

// RunConfig controls the execution of one lowered method
type RunConfig struct {
	Args []any

	// DisposeAfter disposes the enumerator once it has produced this many
	// elements. Zero runs it to completion.
	DisposeAfter int

	// Hosts overrides the recording host methods by name
	Hosts map[string]eval.HostFunc
}

// Trace is what one run observed
type Trace struct {
	Method     string   `json:"method"`
	Items      []any    `json:"items"`
	HostCalls  []string `json:"hostCalls"`
	Disposed   bool     `json:"disposed"`
	FinalState *int     `json:"finalState,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func (t *Trace) hosts(program map[string]*symbols.Method) map[string]eval.HostFunc {
	hosts := make(map[string]eval.HostFunc, len(program))
	for name, m := range program {
		returnType := m.ReturnType
		hosts[name] = func(args []any) (any, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = fmt.Sprint(a)
			}
			t.HostCalls = append(t.HostCalls, name+"("+strings.Join(parts, ", ")+")")
			return zeroOf(returnType), nil
		}
	}
	return hosts
}

// Run executes the named method of a lowered program through the
// evaluator, recording host calls. A resumable method is enumerated; any
// other method is called once and its return value becomes the only item.
// Execution errors are recorded in the trace and also returned.
func Run(ctx context.Context, out *Output, name string, cfg RunConfig) (*Trace, error) {
	result := out.Result(name)
	if result == nil {
		return nil, fmt.Errorf("no lowered method %s", name)
	}

	trace := &Trace{Method: name, Items: []any{}, HostCalls: []string{}}
	hosts := trace.hosts(out.Program.Hosts)
	for n, fn := range cfg.Hosts {
		hosts[n] = fn
	}
	m := eval.New(hosts)
	for _, r := range out.Results {
		if r != nil {
			m.Load(r.Methods()...)
		}
	}

	err := run(ctx, m, result.StateMachine, result.Method.Symbol, cfg, trace)
	if err != nil {
		trace.Error = err.Error()
	}
	log.Infof("ran %s: %d items, %d host calls", name, len(trace.Items), len(trace.HostCalls))
	return trace, err
}

func run(ctx context.Context, m *eval.Machine, sm *iterator.StateMachine, method *symbols.Method, cfg RunConfig, trace *Trace) error {
	if sm == nil {
		if len(cfg.Args) != len(method.Parameters) {
			return fmt.Errorf("%s expects %d arguments, got %d", method, len(method.Parameters), len(cfg.Args))
		}
		v, err := m.Call(method, nil, cfg.Args...)
		if err != nil {
			return err
		}
		trace.Items = append(trace.Items, v)
		return nil
	}

	e, err := m.Start(sm, cfg.Args...)
	if err != nil {
		return err
	}
	defer func() {
		state := e.State()
		trace.FinalState = &state
	}()

	for {
		if err := ctx.Err(); err != nil {
			// abandon the enumerator the way a caller would
			return multierror.Append(err, e.Dispose()).ErrorOrNil()
		}
		if cfg.DisposeAfter > 0 && len(trace.Items) >= cfg.DisposeAfter {
			trace.Disposed = true
			return e.Dispose()
		}
		ok, err := e.MoveNext()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		trace.Items = append(trace.Items, e.Current())
	}
}

// ParseArgs converts command line arguments to the parameter types of a
// method
func ParseArgs(method *symbols.Method, raw []string) ([]any, error) {
	if len(raw) != len(method.Parameters) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", method, len(method.Parameters), len(raw))
	}
	args := make([]any, len(raw))
	for i, p := range method.Parameters {
		switch p.Type {
		case symbols.Int:
			n, err := strconv.Atoi(raw[i])
			if err != nil {
				return nil, fmt.Errorf("argument %s: %w", p.Name, err)
			}
			args[i] = n
		case symbols.Bool:
			b, err := strconv.ParseBool(raw[i])
			if err != nil {
				return nil, fmt.Errorf("argument %s: %w", p.Name, err)
			}
			args[i] = b
		default:
			args[i] = raw[i]
		}
	}
	return args, nil
}

func zeroOf(t *symbols.Type) any {
	switch t {
	case symbols.Int:
		return 0
	case symbols.Bool:
		return false
	case symbols.String:
		return ""
	}
	return nil
}
