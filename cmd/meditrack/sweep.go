package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/meditrack/internal/config"
	"github.com/terraincognita07/meditrack/internal/db"
	"github.com/terraincognita07/meditrack/internal/services"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the retention sweep once",
	Long:  "Deletes intake records dated before today and notifications older than seven days, then exits.",
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
		retention := services.NewRetentionService(repositories.Intakes, repositories.Notifications, cfg.Location, logger)
		result, err := retention.Sweep(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d old intake records and %d expired notifications\n",
			result.DeletedIntakes, result.DeletedNotifications)
		return nil
	},
}
