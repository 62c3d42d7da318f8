package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Manuloff/customer-retention/internal/config"
	"github.com/Manuloff/customer-retention/internal/observability"
	"github.com/Manuloff/customer-retention/internal/persistence"
	"github.com/Manuloff/customer-retention/internal/repository"
	"github.com/Manuloff/customer-retention/internal/repository/sqlite"
)

// environment bundles what every subcommand needs.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	store  repository.Store
}

func loadEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &environment{cfg: cfg, logger: logger, store: store}, nil
}

func (r *environment) Close() {
	if err := r.store.Close(); err != nil {
		r.logger.Warn("closing store", zap.Error(err))
	}
	_ = r.logger.Sync()
}

// openStore connects the configured backend. Postgres migrations run when
// enabled; the SQLite schema is applied on open.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("using sqlite store", zap.String("path", cfg.SQLite.Path))
		return store, nil
	default:
		pool, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return repository.NewPostgresStore(pool), nil
	}
}
