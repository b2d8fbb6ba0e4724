// Package storage opens the configured repository backend.
package storage

import (
	"context"
	"fmt"
	"sync"

	"finbox/internal/repository"
	"finbox/internal/repository/memory"
	"finbox/internal/repository/postgres"
	"finbox/internal/repository/sqlite"
	"finbox/pkg/config"
	pgpool "finbox/pkg/postgres"

	"go.uber.org/zap"
)

// Open connects to the backend named by cfg.Storage.Driver and makes sure
// its schema exists.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		pool, err := pgpool.NewPool(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return postgres.NewStore(pool, logger), nil
	case config.StorageDriverSQLite:
		return sqlite.Open(ctx, cfg.Storage.SQLitePath, logger)
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStorageDriver, cfg.Storage.Driver)
	}
}

// Provider opens the store once per process and hands out the same handle.
type Provider struct {
	cfg    *config.Config
	logger *zap.Logger

	once  sync.Once
	store repository.Store
	err   error
}

func NewProvider(cfg *config.Config, logger *zap.Logger) *Provider {
	return &Provider{cfg: cfg, logger: logger}
}

func (p *Provider) Store(ctx context.Context) (repository.Store, error) {
	p.once.Do(func() {
		p.store, p.err = Open(ctx, p.cfg, p.logger)
	})
	return p.store, p.err
}

// Close closes the store if it was opened.
func (p *Provider) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}
