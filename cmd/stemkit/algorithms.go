package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func algorithmsCmd(opts *globalOptions) *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "algorithms",
		Short: "List registered algorithms",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			if !details {
				for _, name := range a.toolkit.ListAlgorithms() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTEPS\tRULES\tEXCEPTIONS\tDEFAULT")
			for _, name := range a.toolkit.ListAlgorithms() {
				profile, err := a.registry.Resolve(name)
				if err != nil {
					return err
				}
				def := ""
				if name == cfg.Stemming.DefaultAlgorithm {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n",
					name, profile.StepCount(), profile.RuleCount(), profile.Exceptions().Len(), def)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "Load every profile and show its size")
	return cmd
}
