package storage

import (
	"context"
	"testing"

	"finbox/internal/repository/memory"
	"finbox/internal/repository/sqlite"
	"finbox/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenByDriver(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, &config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverMemory}}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)

	store, err = Open(ctx, &config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverSQLite, SQLitePath: ":memory:"}}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, store)
	assert.NoError(t, store.Close())

	_, err = Open(ctx, &config.Config{Storage: config.StorageConfig{Driver: "mongo"}}, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrUnknownStorageDriver)
}

func TestProviderOpensOnce(t *testing.T) {
	p := NewProvider(&config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverMemory}}, zap.NewNop())

	first, err := p.Store(context.Background())
	require.NoError(t, err)
	second, err := p.Store(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.NoError(t, p.Close())
}
