package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	pgdb "github.com/alanyang/prodline/internal/adapter/postgres"
	"github.com/alanyang/prodline/internal/config"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return errors.New("migrate requires the postgres driver")
			}
			pool, err := pgdb.Connect(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := pgdb.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}
