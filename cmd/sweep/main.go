package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/project-lifecycle-api/internal/config"
	"github.com/yukikurage/project-lifecycle-api/internal/database"
	"github.com/yukikurage/project-lifecycle-api/internal/logger"
	"github.com/yukikurage/project-lifecycle-api/internal/mail"
	"github.com/yukikurage/project-lifecycle-api/internal/repository"
	"github.com/yukikurage/project-lifecycle-api/internal/scheduler"
	"github.com/yukikurage/project-lifecycle-api/internal/services"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a notification sweep once, outside the server's schedule",
	}

	rootCmd.AddCommand(sweepCmd("due-soon", "Notify assignees of tasks due within the horizon", (*scheduler.Sweeper).RunDueSoonSweep))
	rootCmd.AddCommand(sweepCmd("overdue", "Notify assignees of tasks past their due date", (*scheduler.Sweeper).RunOverdueSweep))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type sweepFunc func(*scheduler.Sweeper, context.Context) (scheduler.SweepResult, error)

func sweepCmd(use, short string, run sweepFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			sweeper, cleanup, err := newSweeper()
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := run(sweeper, cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: scanned=%d notified=%d skipped=%d failed=%d\n",
				result.Sweep, result.Scanned, result.Notified, result.Skipped, result.Failed)
			return nil
		},
	}

	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}

func newSweeper() (*scheduler.Sweeper, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	db, err := database.Connect(cfg, zl)
	if err != nil {
		return nil, nil, err
	}

	clock := services.SystemClock{}
	userRepo := repository.NewUserRepository(db)
	notifier := services.NewNotificationService(
		repository.NewNotificationRepository(db),
		userRepo,
		mail.New(cfg.Mail, zl),
		clock,
		zl,
		services.WithDedupWindow(cfg.Notification.DedupWindow),
	)

	sweeper := scheduler.NewSweeper(repository.NewTaskRepository(db), notifier, clock, cfg.Scheduler.DueSoonHorizon, zl)

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				zl.Warn("Failed to close database", zap.Error(err))
			}
		}
		_ = zl.Sync()
	}
	return sweeper, cleanup, nil
}
