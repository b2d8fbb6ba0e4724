// Package memory is a process-local storage backend for tests and demos.
// Nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"finbox/internal/models"
	"finbox/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu           sync.RWMutex
	identities   map[uuid.UUID]models.Identity
	users        map[uuid.UUID]models.User
	accounts     map[uuid.UUID]models.Account
	transactions map[uuid.UUID][]models.Transaction // by account id
}

func NewStore() *Store {
	return &Store{
		identities:   make(map[uuid.UUID]models.Identity),
		users:        make(map[uuid.UUID]models.User),
		accounts:     make(map[uuid.UUID]models.Account),
		transactions: make(map[uuid.UUID][]models.Transaction),
	}
}

func (s *Store) Identities() repository.IdentityRepository { return identityRepository{s} }
func (s *Store) Users() repository.UserRepository { return userRepository{s} }
func (s *Store) Accounts() repository.AccountRepository { return accountRepository{s} }
func (s *Store) Transactions() repository.TransactionRepository { return transactionRepository{s} }

func (s *Store) Close() error { return nil }

type identityRepository struct{ s *Store }

func (r identityRepository) Create(_ context.Context, identity *models.Identity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.identities[identity.ID]; ok {
		return repository.ErrConflict
	}
	for _, existing := range r.s.identities {
		if existing.Email == identity.Email {
			return repository.ErrConflict
		}
	}
	r.s.identities[identity.ID] = *identity
	return nil
}

func (r identityRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	identity, ok := r.s.identities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &identity, nil
}

func (r identityRepository) GetByEmail(_ context.Context, email string) (*models.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, identity := range r.s.identities {
		if identity.Email == email {
			return &identity, nil
		}
	}
	return nil, repository.ErrNotFound
}

type userRepository struct{ s *Store }

func (r userRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; ok {
		return repository.ErrConflict
	}
	for _, existing := range r.s.users {
		if existing.IdentityID == user.IdentityID {
			return repository.ErrConflict
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r userRepository) GetByIdentityID(_ context.Context, identityID string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if user.IdentityID == identityID {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepository) First(_ context.Context) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var first *models.User
	for _, user := range r.s.users {
		if first == nil || user.CreatedAt.Before(first.CreatedAt) {
			u := user
			first = &u
		}
	}
	if first == nil {
		return nil, repository.ErrNotFound
	}
	return first, nil
}

func (r userRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	for accountID, account := range r.s.accounts {
		if account.UserID == id {
			delete(r.s.accounts, accountID)
			delete(r.s.transactions, accountID)
		}
	}
	return nil
}

type accountRepository struct{ s *Store }

func (r accountRepository) Create(_ context.Context, account *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[account.ID]; ok {
		return repository.ErrConflict
	}
	if _, ok := r.s.users[account.UserID]; !ok {
		return repository.ErrNotFound
	}
	r.s.accounts[account.ID] = *account
	return nil
}

func (r accountRepository) GetDefault(_ context.Context, userID uuid.UUID) (*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var best *models.Account
	for _, account := range r.s.accounts {
		if account.UserID != userID {
			continue
		}
		if best == nil || betterDefault(account, *best) {
			a := account
			best = &a
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

// betterDefault orders accounts by is_default desc, created_at asc.
func betterDefault(a, b models.Account) bool {
	if a.IsDefault != b.IsDefault {
		return a.IsDefault
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func (r accountRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	account, ok := r.s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

type transactionRepository struct{ s *Store }

func (r transactionRepository) ReplaceForAccount(_ context.Context, accountID uuid.UUID, transactions []*models.Transaction, balance decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	account, ok := r.s.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}

	stored := make([]models.Transaction, 0, len(transactions))
	for _, t := range transactions {
		stored = append(stored, *t)
	}
	r.s.transactions[accountID] = stored

	account.Balance = balance
	account.UpdatedAt = time.Now()
	r.s.accounts[accountID] = account
	return nil
}

func (r transactionRepository) ListByAccountID(_ context.Context, accountID uuid.UUID, limit int) ([]*models.Transaction, error) {
	r.s.mu.RLock()
	stored := slices.Clone(r.s.transactions[accountID])
	r.s.mu.RUnlock()

	slices.SortStableFunc(stored, func(a, b models.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	if limit > 0 && len(stored) > limit {
		stored = stored[:limit]
	}

	result := make([]*models.Transaction, 0, len(stored))
	for i := range stored {
		result = append(result, &stored[i])
	}
	return result, nil
}
