package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"finbox/internal/repository"
	"finbox/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &repotest.StoreSuite{
		NewStore: func() repository.Store {
			store, err := Open(context.Background(), ":memory:", zap.NewNop())
			require.NoError(t, err)
			return store
		},
	})
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finbox.db")

	store, err := Open(context.Background(), path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(context.Background(), path, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dsn(":memory:"))
	assert.Equal(t, "file:x.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dsn("file:x.db?mode=rwc"))
}
