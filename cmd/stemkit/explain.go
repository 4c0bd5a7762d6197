package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func explainCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "explain <word>",
		Short: "Show what every step does to a word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			exp, err := a.toolkit.Explain(args[0], cfg.Stemming.DefaultAlgorithm)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(exp)
			}

			fmt.Fprintf(out, "algorithm: %s\ninput:     %s\n", exp.Algorithm, exp.Input)
			switch {
			case exp.Ignored:
				fmt.Fprintln(out, "ignored:   word is on the ignore list")
			case exp.Exception:
				fmt.Fprintln(out, "exception: resolved by the exception table")
			}

			if len(exp.Steps) > 0 {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "STEP\tINPUT\tOUTPUT\tSUFFIX")
				for _, st := range exp.Steps {
					suffix := "-"
					if st.Matched {
						suffix = st.Suffix
						if suffix == "" {
							suffix = "(catch-all)"
						}
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", st.Step, st.Input, st.Output, suffix)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}

			if exp.DiacriticsRemoved {
				fmt.Fprintln(out, "diacritics removed from the stem")
			}
			fmt.Fprintf(out, "stem:      %s\n", exp.Stem)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the trace as JSON")
	return cmd
}
