package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/project-lifecycle-api/internal/config"
	"github.com/yukikurage/project-lifecycle-api/internal/database"
	"github.com/yukikurage/project-lifecycle-api/internal/logger"
	"github.com/yukikurage/project-lifecycle-api/internal/repository"
	"github.com/yukikurage/project-lifecycle-api/internal/services"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "grant <username>",
		Short: "Allow a user to assign departments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			zl, err := logger.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer zl.Sync()

			db, err := database.Connect(cfg, zl)
			if err != nil {
				return err
			}
			defer func() {
				if sqlDB, err := db.DB(); err == nil {
					if err := sqlDB.Close(); err != nil {
						zl.Warn("Failed to close database", zap.Error(err))
					}
				}
			}()

			// Granting never notifies, so no dispatcher is wired.
			users := services.NewUserService(repository.NewUserRepository(db), nil)
			user, err := users.GrantAdmin(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			zl.Info("Administrator granted", zap.Uint64("user_id", user.ID), zap.String("username", user.Username))
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now an administrator\n", user.Username)
			return nil
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
