package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnohosten/ptstem/pkg/ruledef"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check rule files without registering them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				_, profile, err := ruledef.LoadFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s (%s: %d steps, %d rules, %d exceptions)\n",
					path, profile.Name(), profile.StepCount(), profile.RuleCount(), profile.Exceptions().Len())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d rule files invalid", failed, len(args))
			}
			return nil
		},
	}
}
