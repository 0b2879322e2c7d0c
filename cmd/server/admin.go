package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"alcyxob/fitness-content/internal/config"
	"alcyxob/fitness-content/internal/observability"
	"alcyxob/fitness-content/internal/service"
)

// newAdminCmd groups account commands run by operators. The first
// administrator can only be created this way; later ones may also be added
// over POST /api/v1/admin/register.
func newAdminCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	cmd.AddCommand(newAdminCreateCmd(configPath))
	return cmd
}

func newAdminCreateCmd(configPath *string) *cobra.Command {
	var in service.RegisterInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := observability.NewLogger(os.Stderr, cfg.Log.Level)
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			in.ConfirmPassword = in.Password
			_, user, err := a.services.Auth.RegisterAdmin(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created administrator %d <%s>\n", user.ID, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number, 10 to 12 digits")
	cmd.Flags().StringVar(&in.Password, "password", "", "password, at least 6 characters")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
