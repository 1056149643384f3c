package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"textdesk-backend/internal/config"
	"textdesk-backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		pool, err := database.NewPostgresPool(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres connection failed: %w", err)
		}
		defer pool.Close()

		applied, err := database.RunMigrations(cmd.Context(), pool, cfg.MigrationsPath, logger)
		if err != nil {
			return err
		}
		logger.Info("Migrations complete", zap.Int("applied", applied), zap.String("path", cfg.MigrationsPath))
		return nil
	},
}
