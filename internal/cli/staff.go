package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Manuloff/customer-retention/internal/service"
)

// StaffAddOptions holds flags for the staff add command.
type StaffAddOptions struct {
	*RootOptions
	UserID   int64
	Name     string
	Password string
}

// NewStaffCommand creates the staff command group.
func NewStaffCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff members",
	}
	cmd.AddCommand(newStaffAddCommand(rootOpts))
	return cmd
}

func newStaffAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StaffAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Grant the staff role to a chat user",
		Long: `Grant the staff role to a chat user, registering the user if needed.
Staff members receive escalated cases. A password enables HTTP login.

Example:
  retention staff add --id 123456 --name "Anna" --password s3cret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			auth := service.NewAuthService(rt.cfg.Auth, rt.store.Users())
			user, err := auth.AddStaff(cmd.Context(), opts.UserID, opts.Name, opts.Password)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				return json.NewEncoder(out).Encode(map[string]any{
					"id":           user.ID,
					"display_name": user.DisplayName,
					"role":         user.Role,
					"can_login":    user.PasswordHash != nil,
				})
			}
			fmt.Fprintf(out, "user %d (%s) is now staff\n", user.ID, user.DisplayName)
			return nil
		},
	}

	cmd.Flags().Int64Var(&opts.UserID, "id", 0, "channel user id (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password for HTTP login")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
