package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink/internal/store"
	"go.uber.org/zap"
)

// Migrate applies pending schema migrations for the configured store and
// returns how many ran. Stores without a schema report zero.
func Migrate(ctx context.Context, options *Options, logger *zap.Logger) (int, error) {
	if err := options.Validate(); err != nil {
		return 0, err
	}

	switch options.Store {
	case StorePostgres:
		pool, err := pgxpool.New(ctx, options.DatabaseURL)
		if err != nil {
			return 0, fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		return store.MigratePostgres(ctx, pool)
	case StoreSQLite:
		db, err := store.OpenSQLite(options.DBFile)
		if err != nil {
			return 0, err
		}
		defer func() { _ = db.Close() }()

		return store.MigrateSQLite(ctx, db)
	default:
		logger.Info("store has no schema to migrate", zap.String("store", options.Store))

		return 0, nil
	}
}
