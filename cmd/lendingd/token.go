package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/lending-workflow-go/lending/api"
)

type tokenOptions struct {
	*rootOptions
	user string
	ttl  time.Duration
}

func newTokenCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &tokenOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an identity cookie value for local testing",
		Example: `  lendingd token --user alice
  curl --cookie "lending_session=$(lendingd token --user alice)" localhost:8080/transactions/inbox`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			ttl := opts.ttl
			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}

			token, err := api.IssueToken(cfg.Auth.JWTSecret, opts.user, ttl, time.Now())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)

			return err
		},
	}

	cmd.Flags().StringVar(&opts.user, "user", "", "member id to put into the token (required)")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "token lifetime, defaults to auth.tokenTtl")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
