package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/config"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the sqlite or postgres backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				dialect storage.Dialect
				dsn     string
			)
			switch a.cfg.DataBackend {
			case config.BackendSQLite:
				dialect, dsn = storage.SQLite, a.cfg.SQLiteDBPath
			case config.BackendPostgres:
				dialect, dsn = storage.Postgres, a.cfg.PostgresDSN
			default:
				return fmt.Errorf("migrate needs a SQL backend, DATA_BACKEND is %q", a.cfg.DataBackend)
			}

			if err := storage.RunMigrations(dialect, dsn); err != nil {
				return err
			}
			a.logger.Info("Migrations applied", "dialect", string(dialect))
			fmt.Fprintf(a.out, "%s schema is up to date\n", dialect)
			return nil
		},
	}
}

func seedCmd(a *app) *cobra.Command {
	var owner, file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import categories, income, expenses and settings from a JSON snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DataBackend == config.BackendMemory {
				return errors.New("seeding the memory backend has no lasting effect, use MEMORY_SEED_FILE instead")
			}
			snap, err := store.LoadSnapshot(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			be, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer be.Cleanup()

			stats, err := store.Import(ctx, be.Store, snap.ForOwner(owner))
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintf(a.out, "imported %d categories, %d income, %d expenses, %d settings for %s\n",
				stats.Categories, stats.Income, stats.Expenses, stats.Settings, owner)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id assigned to every imported record (required)")
	cmd.Flags().StringVar(&file, "file", "", "snapshot file (required)")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
