package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mnohosten/ptstem/pkg/reference"
	"github.com/mnohosten/ptstem/pkg/text"
)

func compareCmd(opts *globalOptions) *cobra.Command {
	var (
		wordsFile string
		fold      bool
		maxShown  int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "compare [word...]",
		Short: "Compare an algorithm against the Snowball Portuguese stemmer",
		RunE: func(cmd *cobra.Command, args []string) error {
			words := append([]string(nil), args...)
			if wordsFile != "" {
				list, err := text.LoadWordList(wordsFile)
				if err != nil {
					return err
				}
				words = append(words, list...)
			}
			if len(words) == 0 {
				return fmt.Errorf("no words to compare: pass words or --words")
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			report, err := reference.Compare(a.toolkit, cfg.Stemming.DefaultAlgorithm, words,
				reference.Options{FoldDiacritics: fold, MaxDisagreements: maxShown})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintln(out, report.String())
			if len(report.Disagreements) == 0 {
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "WORD\t%s\tSNOWBALL\n", report.Algorithm)
			for _, d := range report.Disagreements {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Word, d.Stem, d.Reference)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&wordsFile, "words", "", "File with one word per line")
	cmd.Flags().BoolVar(&fold, "fold-diacritics", false, "Ignore diacritics when comparing stems")
	cmd.Flags().IntVar(&maxShown, "max", 50, "Maximum disagreements to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
