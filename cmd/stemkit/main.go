// Package main provides the stemkit binary: Portuguese stemming from the
// command line and over HTTP.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "stemkit"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Rule-based Portuguese stemming toolkit",
		Long: `stemkit reduces Portuguese words to their stems with rule-based
algorithms: orengo (RSLP), savoy (light) and porter ship built in, and
further algorithms are loaded from YAML, JSON or XML rule files.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVarP(&opts.algorithm, "algorithm", "a", "", "Algorithm to use (default from config)")
	flags.StringSliceVar(&opts.rulesDirs, "rules-dir", nil, "Directory of rule files (repeatable)")
	flags.BoolVar(&opts.noBuiltin, "no-builtin", false, "Do not register the built-in profiles")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format (text, json)")

	cmd.AddCommand(
		stemCmd(opts),
		algorithmsCmd(opts),
		explainCmd(opts),
		validateCmd(),
		bundleCmd(),
		compareCmd(opts),
		serveCmd(opts),
		hashTokenCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}
