package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sonvt1710/graylog2-server/internal/app"
	"github.com/sonvt1710/graylog2-server/internal/client"
	"github.com/sonvt1710/graylog2-server/internal/shares"
)

const (
	envServer = "SHARECTL_SERVER"
	envToken  = "SHARECTL_TOKEN"
)

type rootOptions struct {
	server  string
	token   string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "sharectl",
		Short:         "Inspect and edit who can access an entity",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr(envServer, "http://localhost:8000"), "Base URL of the sharing server")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv(envToken), "Access token (see the login command)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout(), "Timeout of each request")

	rootCmd.AddCommand(
		newLoginCmd(opts),
		newShowCmd(opts),
		newGrantCmd(opts),
		newRevokeCmd(opts),
	)
	return rootCmd
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Print an access token for the given user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			token, err := c.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password of the user")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [entity-grn]",
		Short: "Show the current shares of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := opts.session(args[0])
			if err != nil {
				return err
			}
			state, err := session.Open(cmd.Context())
			if err != nil {
				return err
			}
			return renderState(cmd.OutOrStdout(), state)
		},
	}
}

func newGrantCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "grant [entity-grn] [grantee-grn] [capability]",
		Short: "Give a grantee a capability on an entity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.edit(cmd, args[0], dryRun, func(s *client.Session) (*shares.EntityShareState, error) {
				return s.Select(cmd.Context(), args[1], args[2])
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Evaluate the change without applying it")
	return cmd
}

func newRevokeCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "revoke [entity-grn] [grantee-grn]",
		Short: "Remove a grantee from an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.edit(cmd, args[0], dryRun, func(s *client.Session) (*shares.EntityShareState, error) {
				return s.Remove(cmd.Context(), args[1])
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Evaluate the change without applying it")
	return cmd
}

// edit opens a session, applies change and submits unless dryRun is set or the server
// rejected the selection.
func (o *rootOptions) edit(cmd *cobra.Command, entity string, dryRun bool, change func(*client.Session) (*shares.EntityShareState, error)) error {
	session, err := o.session(entity)
	if err != nil {
		return err
	}
	if _, err := session.Open(cmd.Context()); err != nil {
		return err
	}

	state, err := change(session)
	if err != nil {
		return err
	}
	if dryRun || !session.CanSubmit() {
		if err := renderState(cmd.OutOrStdout(), state); err != nil {
			return err
		}
		if !session.CanSubmit() {
			return client.ErrValidationFailed
		}
		return nil
	}

	state, err = session.Submit(cmd.Context())
	if state != nil {
		if renderErr := renderState(cmd.OutOrStdout(), state); renderErr != nil {
			return errors.Join(err, renderErr)
		}
	}
	return err
}

func (o *rootOptions) client() (*client.Client, error) {
	return client.New(o.server, client.WithToken(o.token), client.WithTimeout(o.timeout))
}

func (o *rootOptions) session(entity string) (*client.Session, error) {
	if strings.TrimSpace(o.token) == "" {
		return nil, fmt.Errorf("an access token is required; pass --token or set %s", envToken)
	}
	c, err := o.client()
	if err != nil {
		return nil, err
	}
	return client.NewSession(c, entity)
}

// defaultTimeout reads sharing.client_timeout from the shared configuration.
func defaultTimeout() time.Duration {
	cfg, err := app.LoadConfig()
	if err != nil || cfg.Sharing.ClientTimeout <= 0 {
		return client.DefaultTimeout
	}
	return cfg.Sharing.ClientTimeout
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
