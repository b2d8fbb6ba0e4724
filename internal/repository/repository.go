package repository

import (
	"context"
	"errors"

	"finbox/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

type IdentityRepository interface {
	Create(ctx context.Context, identity *models.Identity) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByIdentityID(ctx context.Context, identityID string) (*models.User, error)
	// First returns the oldest user.
	First(ctx context.Context) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	// GetDefault returns the user's default account, or their oldest one.
	GetDefault(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type TransactionRepository interface {
	// ReplaceForAccount atomically deletes the account's transactions,
	// inserts the given ones and sets the account balance.
	ReplaceForAccount(ctx context.Context, accountID uuid.UUID, transactions []*models.Transaction, balance decimal.Decimal) error
	ListByAccountID(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.Transaction, error)
}

// Store is a storage backend. Implementations are safe for concurrent use.
type Store interface {
	Identities() IdentityRepository
	Users() UserRepository
	Accounts() AccountRepository
	Transactions() TransactionRepository
	Close() error
}
