package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/meditrack/internal/cli"
	"github.com/terraincognita07/meditrack/internal/config"
	"github.com/terraincognita07/meditrack/internal/db"
	"github.com/terraincognita07/meditrack/internal/security"
	"github.com/terraincognita07/meditrack/internal/services"
)

var resetEmail string

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a temporary password for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}

		database, err := db.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("database init failed: %w", err)
		}
		defer db.Close(database)

		repositories := db.NewRepositories(database)
		auth := services.NewAuthService(repositories.Users, security.NewPasswordHasher(cfg.PasswordPepper))
		return cli.RunResetPasswordCommand(auth, resetEmail, cmd.OutOrStdout())
	},
}

func init() {
	resetPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "email of the account to reset")
	_ = resetPasswordCmd.MarkFlagRequired("email")
}
