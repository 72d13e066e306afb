// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"iterlower/internal/driver"
	"iterlower/internal/lower"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if err != errFailed {
			fmt.Fprintf(os.Stderr, "%s: %v\n", color.RedString("error"), err)
		}
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Every flag can also be set from the
// environment (ITERLOWER_DEBUG_INFO=false) or from a --config file.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ITERLOWER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "iterlower",
		Short:         "Lower resumable iterator methods into state machines",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if path := v.GetString("config"); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read config: %w", err)
				}
			}
			if v.GetBool("no-color") {
				color.NoColor = true
			}
			commonlog.Configure(v.GetInt("verbosity"), nil)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.Bool("debug-info", true, "emit sequence-point markers for user blocks")
	flags.Int("concurrency", 0, "methods lowered at once (0 = one per CPU)")
	flags.StringP("format", "f", "text", "output format: text or json")
	flags.Bool("no-color", false, "disable colored output")
	flags.CountP("verbosity", "v", "log verbosity (repeat for more)")
	_ = v.BindPFlags(flags)

	root.AddCommand(newLowerCmd(v), newRunCmd(v))
	return root
}

func driverConfig(v *viper.Viper) driver.Config {
	return driver.Config{
		Lower:       lower.Options{GenerateDebugInfo: v.GetBool("debug-info")},
		Concurrency: v.GetInt("concurrency"),
	}
}
