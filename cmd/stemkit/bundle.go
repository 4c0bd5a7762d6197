package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mnohosten/ptstem/pkg/compression"
	"github.com/mnohosten/ptstem/pkg/ruledef"
)

func bundleCmd() *cobra.Command {
	var (
		output   string
		format   string
		compress string
	)

	cmd := &cobra.Command{
		Use:   "bundle <rule-file>",
		Short: "Validate a rule file and re-encode it, optionally compressed",
		Long: `Bundle loads and validates a rule file, then writes it in the chosen
format and compression. Without -o the output lands next to the input as
<name><format extension><compression extension>, e.g. orengo.json.zst.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]

			doc, profile, err := ruledef.LoadFile(input)
			if err != nil {
				return err
			}
			if doc.Name == "" {
				doc.Name = profile.Name()
			}

			f, err := ruledef.ParseFormat(format)
			if err != nil {
				return err
			}
			alg, err := compression.ParseAlgorithm(compress)
			if err != nil {
				return err
			}

			data, err := ruledef.Encode(doc, f)
			if err != nil {
				return err
			}
			encoded := data
			if alg != compression.AlgorithmNone {
				c, err := compression.NewCompressor(compression.ConfigFor(alg))
				if err != nil {
					return err
				}
				defer c.Close()
				if encoded, err = c.Compress(data); err != nil {
					return err
				}
			}

			if output == "" {
				output = filepath.Join(filepath.Dir(input), profile.Name()+f.Extension()+alg.Extension())
			}
			if sameFile(input, output) {
				return fmt.Errorf("refusing to overwrite input file %s", input)
			}
			if err := os.WriteFile(output, encoded, 0644); err != nil {
				return fmt.Errorf("failed to write bundle: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes", output, len(encoded))
			if alg != compression.AlgorithmNone {
				fmt.Fprintf(cmd.OutOrStdout(), ", %s ratio %.2f, %.1f%% saved",
					alg, compression.CompressionRatio(len(data), len(encoded)),
					compression.SpaceSavings(len(data), len(encoded)))
			}
			fmt.Fprintln(cmd.OutOrStdout(), ")")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path")
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format (yaml, json, xml)")
	cmd.Flags().StringVar(&compress, "compress", "none", "Compression (none, snappy, zstd, gzip, zlib)")
	return cmd
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
