package cli

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newTokenCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens",
	}

	var username string

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access token without a password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag(cmd, "username"); err != nil {
				return err
			}

			a, err := s.open()
			if err != nil {
				return err
			}

			result, err := a.Auth.IssueToken(cmd.Context(), username)
			if err != nil {
				return err
			}

			pterm.Info.Printf("Token for %s (%s) expires %s\n", result.User.Username, result.User.Role, result.ExpiresAt.Format(time.RFC3339))
			pterm.Println(result.AccessToken)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&username, "username", "", "user the token identifies")

	var token string

	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an access token before it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag(cmd, "token"); err != nil {
				return err
			}

			a, err := s.open()
			if err != nil {
				return err
			}

			if err := a.Auth.Logout(cmd.Context(), token); err != nil {
				return err
			}
			pterm.Success.Println("Token revoked")
			return nil
		},
	}
	revokeCmd.Flags().StringVar(&token, "token", "", "access token to revoke")

	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete revocations of tokens that have expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.open()
			if err != nil {
				return err
			}

			removed, err := a.Auth.PruneRevokedTokens(cmd.Context())
			if err != nil {
				return err
			}
			pterm.Success.Printf("Pruned %d expired revocations\n", removed)
			return nil
		},
	}

	cmd.AddCommand(issueCmd, revokeCmd, pruneCmd)
	return cmd
}
