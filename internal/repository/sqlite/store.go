// Package sqlite is the embedded storage backend for single-host deployments
// and local development.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"finbox/internal/repository"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Store struct {
	db           *sql.DB
	identities   *IdentityRepository
	users        *UserRepository
	accounts     *AccountRepository
	transactions *TransactionRepository
}

// Open opens the database at path, which may be ":memory:", and runs migrations.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// A single connection serialises writers and keeps ":memory:" databases alive.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("SQLite database opened", zap.String("path", path))

	return &Store{
		db:           conn,
		identities:   NewIdentityRepository(conn, logger),
		users:        NewUserRepository(conn, logger),
		accounts:     NewAccountRepository(conn, logger),
		transactions: NewTransactionRepository(conn, logger),
	}, nil
}

func (s *Store) Identities() repository.IdentityRepository { return s.identities }
func (s *Store) Users() repository.UserRepository { return s.users }
func (s *Store) Accounts() repository.AccountRepository { return s.accounts }
func (s *Store) Transactions() repository.TransactionRepository { return s.transactions }

func (s *Store) Close() error {
	return s.db.Close()
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", repository.ErrConflict, sqliteErr.Error())
		}
	}
	return err
}
