package postgres

import (
	"context"
	"os"
	"testing"

	"finbox/internal/repository"
	"finbox/internal/repository/repotest"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// Set FINBOX_TEST_POSTGRES_DSN to run against a disposable database.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("FINBOX_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FINBOX_TEST_POSTGRES_DSN not set")
	}

	suite.Run(t, &repotest.StoreSuite{
		NewStore: func() repository.Store {
			ctx := context.Background()
			pool, err := pgxpool.New(ctx, dsn)
			require.NoError(t, err)
			require.NoError(t, Migrate(ctx, pool))
			_, err = pool.Exec(ctx, "TRUNCATE transactions, accounts, users, identities")
			require.NoError(t, err)
			return NewStore(pool, zap.NewNop())
		},
	})
}
