package postgres

import (
	"errors"
	"fmt"

	"finbox/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

// Store is the Postgres backend built on a shared pgx connection pool.
type Store struct {
	db           *pgxpool.Pool
	identities   *IdentityRepository
	users        *UserRepository
	accounts     *AccountRepository
	transactions *TransactionRepository
}

func NewStore(db *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{
		db:           db,
		identities:   NewIdentityRepository(db, logger),
		users:        NewUserRepository(db, logger),
		accounts:     NewAccountRepository(db, logger),
		transactions: NewTransactionRepository(db, logger),
	}
}

func (s *Store) Identities() repository.IdentityRepository { return s.identities }
func (s *Store) Users() repository.UserRepository { return s.users }
func (s *Store) Accounts() repository.AccountRepository { return s.accounts }
func (s *Store) Transactions() repository.TransactionRepository { return s.transactions }

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
