package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"finbox/internal/models"
	"finbox/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNoUsers means there is nobody to seed data for.
var ErrNoUsers = errors.New("no users found in the database")

const (
	seedDays          = 90
	seedIncomeChance  = 0.4
	defaultAccount    = "Default Account"
	defaultAccountHex = "#3b82f6"
)

type seedCategory struct {
	name     string
	min, max int64
}

var seedCategories = map[models.TransactionType][]seedCategory{
	models.TransactionTypeIncome: {
		{"salary", 5000, 8000},
		{"freelance", 1000, 3000},
		{"investments", 500, 2000},
		{"other-income", 100, 1000},
	},
	models.TransactionTypeExpense: {
		{"housing", 1000, 2000},
		{"transportation", 100, 500},
		{"groceries", 200, 600},
		{"utilities", 100, 300},
		{"entertainment", 50, 200},
		{"food", 50, 150},
		{"shopping", 100, 500},
		{"healthcare", 100, 1000},
		{"education", 200, 1000},
		{"travel", 500, 2000},
	},
}

type SeedResult struct {
	AccountID    uuid.UUID
	Transactions int
	Balance      decimal.Decimal
}

func (r *SeedResult) Message() string {
	return fmt.Sprintf("Created %d transactions for account %s", r.Transactions, r.AccountID)
}

// SeedService fills the first user's default account with sample history.
type SeedService struct {
	store  repository.Store
	rng    *rand.Rand
	now    func() time.Time
	logger *zap.Logger
}

func NewSeedService(store repository.Store, logger *zap.Logger) *SeedService {
	return &SeedService{
		store:  store,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:    time.Now,
		logger: logger,
	}
}

// WithRand makes generation deterministic.
func (s *SeedService) WithRand(rng *rand.Rand) *SeedService {
	s.rng = rng
	return s
}

func (s *SeedService) SeedTransactions(ctx context.Context) (*SeedResult, error) {
	user, err := s.store.Users().First(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoUsers
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	s.logger.Info("Seeding transactions", zap.String("user_id", user.ID.String()))

	account, err := s.defaultAccount(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	transactions, balance := s.generate(user.ID, account.ID)
	if err := s.store.Transactions().ReplaceForAccount(ctx, account.ID, transactions, balance); err != nil {
		return nil, fmt.Errorf("failed to store transactions: %w", err)
	}

	result := &SeedResult{
		AccountID:    account.ID,
		Transactions: len(transactions),
		Balance:      balance,
	}
	s.logger.Info(result.Message(), zap.String("balance", balance.StringFixed(2)))
	return result, nil
}

func (s *SeedService) defaultAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	account, err := s.store.Accounts().GetDefault(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	now := s.now()
	account = &models.Account{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      defaultAccount,
		Balance:   decimal.Zero,
		Color:     defaultAccountHex,
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Accounts().Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create default account: %w", err)
	}
	s.logger.Info("Default account created", zap.String("account_id", account.ID.String()))
	return account, nil
}

func (s *SeedService) generate(userID, accountID uuid.UUID) ([]*models.Transaction, decimal.Decimal) {
	now := s.now()
	balance := decimal.Zero
	var transactions []*models.Transaction

	for day := seedDays; day >= 0; day-- {
		date := now.AddDate(0, 0, -day)
		perDay := s.rng.IntN(3) + 1

		for range perDay {
			txType := models.TransactionTypeExpense
			verb := "Paid for"
			if s.rng.Float64() < seedIncomeChance {
				txType = models.TransactionTypeIncome
				verb = "Received"
			}

			categories := seedCategories[txType]
			category := categories[s.rng.IntN(len(categories))]
			amount := s.randomAmount(category.min, category.max)

			transactions = append(transactions, &models.Transaction{
				ID:          uuid.New(),
				Type:        txType,
				Amount:      amount,
				Description: verb + " " + category.name,
				Date:        date,
				Category:    category.name,
				Status:      models.TransactionStatusCompleted,
				UserID:      userID,
				AccountID:   accountID,
				CreatedAt:   date,
				UpdatedAt:   date,
			})

			if txType == models.TransactionTypeIncome {
				balance = balance.Add(amount)
			} else {
				balance = balance.Sub(amount)
			}
		}
	}

	return transactions, balance
}

// randomAmount returns a value in [lo, hi] with two decimal places.
func (s *SeedService) randomAmount(lo, hi int64) decimal.Decimal {
	cents := lo*100 + s.rng.Int64N((hi-lo)*100+1)
	return decimal.New(cents, -2)
}
