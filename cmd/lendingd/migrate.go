package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/lending-workflow-go/eventstore/postgresengine/migrations"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the schema of the postgres event store",
	}

	cmd.AddCommand(
		newMigrateStepCommand(opts, "up", "Apply all pending migrations", migrations.Up),
		newMigrateStepCommand(opts, "down", "Revert all migrations", migrations.Down),
		newMigrateVersionCommand(opts),
	)

	return cmd
}

func newMigrateStepCommand(opts *rootOptions, use, short string, step func(*sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			db, err := cfg.Storage.Postgres.OpenSQLDB(cmd.Context(), cfg.Storage.Postgres.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := step(db); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", use)

			return err
		},
	}
}

func newMigrateVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			db, err := cfg.Storage.Postgres.OpenSQLDB(cmd.Context(), cfg.Storage.Postgres.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			version, dirty, err := migrations.Version(db)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)

			return err
		},
	}
}
