package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/meetup-planner/app/internal/migrations"
	"github.com/meetup-planner/app/pkg/config"
	"github.com/meetup-planner/app/pkg/database"
)

func openDB(cmd *cobra.Command, cfg *config.Config) (*gorm.DB, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := database.Open(ctx, cfg.DatabaseURL, database.OptionsFor(cfg.AppEnv))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func upCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			db, err := openDB(cmd, cfg)
			if err != nil {
				return err
			}
			m := migrations.NewMigrator(db, migrations.All())

			if dryRun {
				statuses, err := m.Status()
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Pending migrations:")
				for _, s := range statuses {
					if !s.Applied {
						fmt.Fprintf(cmd.OutOrStdout(), "- %s (%s)\n", s.Name, s.Version)
					}
				}
				return nil
			}

			n, err := m.Up()
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", n)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "Show pending migrations without executing them")
	return cmd
}

func statusCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show status of all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd, cfg)
			if err != nil {
				return err
			}
			statuses, err := migrations.NewMigrator(db, migrations.All()).Status()
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-16s  %-30s  %-8s  %s\n", "Version", "Name", "Status", "Applied At")
			for _, s := range statuses {
				status, at := "Pending", ""
				if s.Applied {
					status = "Applied"
					if s.AppliedAt != nil {
						at = s.AppliedAt.Local().Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-16s  %-30s  %-8s  %s\n", s.Version, s.Name, status, at)
			}
			return nil
		},
	}
}
