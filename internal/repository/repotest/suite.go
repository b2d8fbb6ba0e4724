// Package repotest holds the behaviour every storage backend must share.
package repotest

import (
	"context"
	"time"

	"finbox/internal/models"
	"finbox/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// StoreSuite runs against a fresh store per test.
type StoreSuite struct {
	suite.Suite
	NewStore func() repository.Store

	store repository.Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore()
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *StoreSuite) newUser(identityID string, createdAt time.Time) *models.User {
	user := &models.User{
		ID:         uuid.New(),
		IdentityID: identityID,
		Email:      identityID + "@example.com",
		Name:       "User " + identityID,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	s.Require().NoError(s.store.Users().Create(s.ctx, user))
	return user
}

func (s *StoreSuite) newAccount(userID uuid.UUID, name string, isDefault bool, createdAt time.Time) *models.Account {
	account := &models.Account{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Balance:   decimal.Zero,
		Color:     "#3b82f6",
		IsDefault: isDefault,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	s.Require().NoError(s.store.Accounts().Create(s.ctx, account))
	return account
}

func (s *StoreSuite) TestIdentityLookup() {
	now := time.Now().Truncate(time.Second)
	identity := &models.Identity{
		ID:        uuid.New(),
		Email:     "ada@example.com",
		Name:      "Ada",
		Password:  "hash",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.store.Identities().Create(s.ctx, identity))

	byID, err := s.store.Identities().GetByID(s.ctx, identity.ID)
	s.Require().NoError(err)
	s.Equal("ada@example.com", byID.Email)
	s.Equal("hash", byID.Password)

	byEmail, err := s.store.Identities().GetByEmail(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(identity.ID, byEmail.ID)

	duplicate := *identity
	duplicate.ID = uuid.New()
	s.ErrorIs(s.store.Identities().Create(s.ctx, &duplicate), repository.ErrConflict)

	_, err = s.store.Identities().GetByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *StoreSuite) TestUserIdentityIsUnique() {
	now := time.Now().Truncate(time.Second)
	user := s.newUser("identity-1", now)

	found, err := s.store.Users().GetByIdentityID(s.ctx, "identity-1")
	s.Require().NoError(err)
	s.Equal(user.ID, found.ID)
	s.Equal(user.Email, found.Email)

	again := &models.User{ID: uuid.New(), IdentityID: "identity-1", Email: "x@example.com", CreatedAt: now, UpdatedAt: now}
	s.ErrorIs(s.store.Users().Create(s.ctx, again), repository.ErrConflict)

	_, err = s.store.Users().GetByIdentityID(s.ctx, "identity-2")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *StoreSuite) TestFirstUserIsOldest() {
	_, err := s.store.Users().First(s.ctx)
	s.ErrorIs(err, repository.ErrNotFound)

	now := time.Now().Truncate(time.Second)
	s.newUser("newer", now)
	oldest := s.newUser("older", now.Add(-time.Hour))

	first, err := s.store.Users().First(s.ctx)
	s.Require().NoError(err)
	s.Equal(oldest.ID, first.ID)
}

func (s *StoreSuite) TestDeleteUser() {
	user := s.newUser("identity-1", time.Now())

	s.Require().NoError(s.store.Users().Delete(s.ctx, user.ID))
	_, err := s.store.Users().GetByID(s.ctx, user.ID)
	s.ErrorIs(err, repository.ErrNotFound)

	s.ErrorIs(s.store.Users().Delete(s.ctx, user.ID), repository.ErrNotFound)
}

func (s *StoreSuite) TestDefaultAccountSelection() {
	now := time.Now().Truncate(time.Second)
	user := s.newUser("identity-1", now)

	_, err := s.store.Accounts().GetDefault(s.ctx, user.ID)
	s.ErrorIs(err, repository.ErrNotFound)

	oldest := s.newAccount(user.ID, "Cash", false, now.Add(-2*time.Hour))
	s.newAccount(user.ID, "Savings", false, now.Add(-time.Hour))

	account, err := s.store.Accounts().GetDefault(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(oldest.ID, account.ID)

	flagged := s.newAccount(user.ID, "Main", true, now)
	account, err = s.store.Accounts().GetDefault(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(flagged.ID, account.ID)
	s.True(account.IsDefault)
}

func (s *StoreSuite) TestReplaceTransactions() {
	now := time.Now().Truncate(time.Second)
	user := s.newUser("identity-1", now)
	account := s.newAccount(user.ID, "Default Account", true, now)

	build := func(n int) []*models.Transaction {
		txs := make([]*models.Transaction, 0, n)
		for i := range n {
			txs = append(txs, &models.Transaction{
				ID:          uuid.New(),
				Type:        models.TransactionTypeExpense,
				Amount:      decimal.RequireFromString("12.34"),
				Description: "Paid for groceries",
				Date:        now.AddDate(0, 0, -i),
				Category:    "groceries",
				Status:      models.TransactionStatusCompleted,
				UserID:      user.ID,
				AccountID:   account.ID,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		return txs
	}

	s.Require().NoError(s.store.Transactions().ReplaceForAccount(s.ctx, account.ID, build(150), decimal.RequireFromString("-1851")))
	s.Require().NoError(s.store.Transactions().ReplaceForAccount(s.ctx, account.ID, build(3), decimal.RequireFromString("-37.02")))

	listed, err := s.store.Transactions().ListByAccountID(s.ctx, account.ID, 0)
	s.Require().NoError(err)
	s.Len(listed, 3)
	s.True(listed[0].Date.After(listed[1].Date))
	s.True(decimal.RequireFromString("12.34").Equal(listed[0].Amount))
	s.Equal(models.TransactionTypeExpense, listed[0].Type)

	limited, err := s.store.Transactions().ListByAccountID(s.ctx, account.ID, 2)
	s.Require().NoError(err)
	s.Len(limited, 2)

	reloaded, err := s.store.Accounts().GetByID(s.ctx, account.ID)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("-37.02").Equal(reloaded.Balance), "balance %s", reloaded.Balance)
}

func (s *StoreSuite) TestReplaceTransactionsUnknownAccount() {
	err := s.store.Transactions().ReplaceForAccount(s.ctx, uuid.New(), nil, decimal.Zero)
	s.ErrorIs(err, repository.ErrNotFound)
}
