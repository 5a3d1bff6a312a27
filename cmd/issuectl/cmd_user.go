package main

import (
	"github.com/spf13/cobra"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}

	var in domain.UserInput
	var role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			in.Role = domain.Role(role)
			in.Active = true
			user, err := app.Users.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	create.Flags().StringVar(&in.Email, "email", "", "account email")
	create.Flags().StringVar(&in.Password, "password", "", "account password (min 8 characters)")
	create.Flags().StringVar(&role, "role", string(domain.RoleEmployee), "admin or employee")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	userCmd.AddCommand(create)
	return userCmd
}
