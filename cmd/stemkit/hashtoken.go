package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnohosten/ptstem/pkg/auth"
)

func hashTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Hash an admin token for server.admin_token_hash",
		Long: `Hash-token prints the hash to put in server.admin_token_hash. Without
an argument a random token is generated and printed first; keep it, it
cannot be recovered from the hash.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				var err error
				if token, err = auth.GenerateToken(); err != nil {
					return err
				}
				fmt.Fprintf(out, "token: %s\n", token)
			}

			hash, err := auth.HashToken(token)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "hash:  %s\n", hash)
			return nil
		},
	}
}
