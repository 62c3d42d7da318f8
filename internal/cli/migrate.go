package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Manuloff/customer-retention/internal/config"
	"github.com/Manuloff/customer-retention/internal/observability"
	"github.com/Manuloff/customer-retention/internal/persistence"
	"github.com/Manuloff/customer-retention/internal/repository/sqlite"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the record store schema",
		Long: `Apply the schema of the configured record store. Postgres migrations
run in name order and are recorded, so repeated runs are no-ops. The
SQLite schema is idempotent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := observability.NewLogger(cfg.Logger)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			out := cmd.OutOrStdout()
			if cfg.Store.Driver == config.DriverSQLite {
				store, err := sqlite.Open(cfg.SQLite.Path)
				if err != nil {
					return fmt.Errorf("open sqlite store: %w", err)
				}
				defer store.Close()
				fmt.Fprintf(out, "sqlite schema applied to %s\n", cfg.SQLite.Path)
				return nil
			}

			pool, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()
			if err := persistence.RunMigrations(cmd.Context(), pool, logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			names, err := persistence.MigrationNames()
			if err != nil {
				return err
			}
			logger.Info("migrations up to date", zap.Strings("migrations", names))
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}
