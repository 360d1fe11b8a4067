package cmd

import (
	"errors"
	"fmt"

	"caketime/entity"
	"caketime/repository"
	"caketime/services"
	"caketime/utils"

	"github.com/spf13/cobra"
)

func createAdminCmd() *cobra.Command {
	var name, email, password, phone, role string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin or staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || len(password) < 6 {
				return errors.New("--email and --password (min 6 characters) are required")
			}
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()

			auth := services.NewAuthService(
				repository.NewUserRepository(rt.db),
				repository.NewTokenRepository(rt.db),
				utils.NewCustomerTokens(rt.cfg.JWTSecret, rt.cfg.JWTTTL),
				utils.NewAdminTokens(rt.cfg.AdminJWTSecret, rt.cfg.AdminJWTTTL),
				rt.logger,
			)
			user, err := auth.CreateStaff(cmd.Context(), services.RegisterInput{
				Name: name, Email: email, Password: password, Phone: phone,
			}, entity.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (id %d)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Admin", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login e-mail")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&role, "role", string(entity.RoleAdmin), "admin or staff")
	return cmd
}
