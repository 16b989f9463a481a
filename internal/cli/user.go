package cli

import (
	"context"
	"fmt"

	"pettycash/internal/models"
	"pettycash/internal/services"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newUserCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage ledger users",
	}

	var input services.RegisterUserInput
	var role string

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a member or approver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag(cmd, "username"); err != nil {
				return err
			}

			input.Role = models.Role(role)
			if !input.Role.Valid() {
				return fmt.Errorf("invalid role %q, expected %q or %q", role, models.RoleMember, models.RoleApprover)
			}
			if input.DisplayName == "" {
				input.DisplayName = input.Username
			}
			if input.Password == "" {
				password, err := promptPassword(fmt.Sprintf("Password for %s", input.Username))
				if err != nil {
					return err
				}
				input.Password = password
			}

			a, err := s.open()
			if err != nil {
				return err
			}

			user, err := a.Auth.RegisterUser(cmd.Context(), input)
			if err != nil {
				return err
			}

			pterm.DefaultTable.WithData(pterm.TableData{
				{"ID", user.ID.String()},
				{"Username", user.Username},
				{"Name", user.DisplayName},
				{"Role", string(user.Role)},
			}).Render()
			pterm.Success.Println("User created")
			return nil
		},
	}

	addCmd.Flags().StringVar(&input.Username, "username", "", "login name")
	addCmd.Flags().StringVar(&input.DisplayName, "name", "", "display name, defaults to the username")
	addCmd.Flags().StringVar(&input.Password, "password", "", "password, prompted for when omitted")
	addCmd.Flags().StringVar(&role, "role", string(models.RoleMember), "member or approver")

	cmd.AddCommand(addCmd)
	return cmd
}

// actingUser resolves the --as flag into the user the operation runs as.
func actingUser(ctx context.Context, a interface {
	FindUser(context.Context, string) (*models.User, error)
}, username string) (*models.User, error) {
	if username == "" {
		return nil, fmt.Errorf("--as is required")
	}
	user, err := a.FindUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("cannot act as %q: %w", username, err)
	}
	return user, nil
}
