package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnohosten/ptstem/pkg/stemmer"
)

func stemCmd(opts *globalOptions) *cobra.Command {
	var (
		asJSON bool
		phrase bool
	)

	cmd := &cobra.Command{
		Use:   "stem [word...]",
		Short: "Stem words",
		Long: `Stem prints the stem of every word given as an argument. With no
arguments it reads one word per line from standard input; empty lines are
skipped. With --phrase each argument or line is split on whitespace.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			algorithm := cfg.Stemming.DefaultAlgorithm
			out := cmd.OutOrStdout()

			emit := func(input string) error {
				words := []string{input}
				if phrase {
					words = strings.Fields(input)
				}
				for _, word := range words {
					stem, err := a.toolkit.Stem(word, algorithm)
					if err != nil {
						return err
					}
					if err := printStem(out, word, stem, asJSON); err != nil {
						return err
					}
				}
				return nil
			}

			if len(args) > 0 {
				for _, arg := range args {
					if err := emit(arg); err != nil {
						return err
					}
				}
				return nil
			}

			// Interactive mode: one word per line
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := scanner.Text()
				if strings.TrimSpace(line) == "" {
					continue
				}
				if err := emit(line); err != nil {
					var empty *stemmer.EmptyInputError
					if errors.As(err, &empty) {
						continue
					}
					return err
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per word")
	cmd.Flags().BoolVar(&phrase, "phrase", false, "Split input on whitespace and stem every token")
	return cmd
}

func printStem(w io.Writer, word, stem string, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(map[string]string{"word": word, "stem": stem})
	}
	_, err := fmt.Fprintln(w, stem)
	return err
}
