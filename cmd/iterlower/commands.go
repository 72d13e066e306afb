package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"iterlower/internal/bound"
	"iterlower/internal/driver"
	"iterlower/internal/symbols"
)

func newLowerCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "lower <file>",
		Short: "Lower every method of a bound-tree file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			path := args[0]

			out, source, err := driver.LowerFile(cmd.Context(), path, driverConfig(v))
			if out != nil {
				if perr := printLowered(cmd.OutOrStdout(), v, out); perr != nil {
					return perr
				}
			}
			return report(cmd.ErrOrStderr(), path, source, err, start)
		},
	}
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file> <method> [args...]",
		Short: "Lower a bound-tree file and execute one method",
		Long: `Lower a bound-tree file and execute one method through the evaluator.
A resumable method is enumerated to completion, or disposed early with
--dispose-after. Host methods record their calls and return zero values.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			path, name := args[0], args[1]

			out, source, err := driver.LowerFile(cmd.Context(), path, driverConfig(v))
			if err != nil {
				return report(cmd.ErrOrStderr(), path, source, err, start)
			}
			method := out.Program.Method(name)
			if method == nil {
				return fmt.Errorf("no method %s in %s", name, path)
			}
			runArgs, err := driver.ParseArgs(method.Symbol, args[2:])
			if err != nil {
				return err
			}

			trace, err := driver.Run(cmd.Context(), out, name, driver.RunConfig{
				Args:         runArgs,
				DisposeAfter: v.GetInt("dispose-after"),
			})
			if trace != nil {
				if perr := printTrace(cmd.OutOrStdout(), v, trace); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	cmd.Flags().Int("dispose-after", 0, "dispose the enumerator after this many elements")
	_ = v.BindPFlag("dispose-after", cmd.Flags().Lookup("dispose-after"))
	return cmd
}

type loweredMethod struct {
	Method       string `json:"method"`
	StateMachine string `json:"stateMachine,omitempty"`
	Body         string `json:"body"`
}

func printLowered(w io.Writer, v *viper.Viper, out *driver.Output) error {
	var methods []loweredMethod
	for _, r := range out.Results {
		if r == nil {
			continue
		}
		for _, m := range r.Methods() {
			lm := loweredMethod{Method: r.Method.Symbol.String(), Body: bound.PrintMethod(m)}
			if r.StateMachine != nil {
				lm.StateMachine = r.StateMachine.Type.Name
			}
			methods = append(methods, lm)
		}
	}

	switch format := v.GetString("format"); format {
	case "json":
		return writeJSON(w, v, methods)
	case "text":
		for _, r := range out.Results {
			if r == nil || r.StateMachine == nil {
				continue
			}
			fmt.Fprintln(w, describeType(r.StateMachine.Type))
		}
		for _, m := range methods {
			fmt.Fprintln(w, m.Body)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// describeType renders a state machine type as a one-line declaration
func describeType(t *symbols.Type) string {
	var members []string
	for _, m := range t.Members() {
		switch m := m.(type) {
		case *symbols.Field:
			members = append(members, fmt.Sprintf("%s %s", m.Type, m.Name))
		case *symbols.Method:
			members = append(members, m.Name+"()")
		}
	}
	return fmt.Sprintf("// class %s { %s }", t.Name, strings.Join(members, "; "))
}

func printTrace(w io.Writer, v *viper.Viper, trace *driver.Trace) error {
	switch format := v.GetString("format"); format {
	case "json":
		return writeJSON(w, v, trace)
	case "text":
		items := make([]string, len(trace.Items))
		for i, item := range trace.Items {
			items[i] = fmt.Sprint(item)
		}
		fmt.Fprintf(w, "items: [%s]\n", strings.Join(items, ", "))
		for _, call := range trace.HostCalls {
			fmt.Fprintf(w, "call: %s\n", call)
		}
		if trace.Disposed {
			fmt.Fprintln(w, "disposed")
		}
		if trace.FinalState != nil {
			fmt.Fprintf(w, "state: %d\n", *trace.FinalState)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeJSON(w io.Writer, v *viper.Viper, value any) error {
	var data []byte
	var err error
	if v.GetBool("no-color") {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = prettyjson.Marshal(value)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
