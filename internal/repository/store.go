package repository

import (
	"context"
	"fmt"

	"snaplens/internal/models"
	"snaplens/pkg/config"
	"snaplens/pkg/postgres"
	"snaplens/pkg/sqlite"

	"go.uber.org/zap"
)

// Store is the item persistence surface shared by the PostgreSQL and SQLite backends.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, item *models.Item) error
	List(ctx context.Context, category *models.Category) ([]*models.Item, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Open connects the backend selected by cfg.Driver and creates its schema.
// The returned func releases the connection.
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (Store, func(), error) {
	var (
		store   Store
		closeFn func()
	)

	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		store, closeFn = NewItemRepository(pool, logger), pool.Close
	case config.DriverSQLite, "":
		db, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = NewSQLiteItemRepository(db, logger), func() { _ = db.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return store, closeFn, nil
}
