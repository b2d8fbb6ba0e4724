package postgres

import (
	"context"
	"fmt"
	"time"

	"finbox/internal/models"
	"finbox/internal/repository"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var transactionColumns = []string{"id", "type", "amount", "description", "date", "category", "status", "user_id", "account_id", "created_at", "updated_at"}

// insertBatchSize keeps a single INSERT well below Postgres' parameter limit.
const insertBatchSize = 500

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TransactionRepository) ReplaceForAccount(ctx context.Context, accountID uuid.UUID, transactions []*models.Transaction, balance decimal.Decimal) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		sql, args, err := squirrel.Delete("transactions").
			Where(squirrel.Eq{"account_id": accountID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("failed to clear transactions: %w", err)
		}

		for start := 0; start < len(transactions); start += insertBatchSize {
			end := min(start+insertBatchSize, len(transactions))
			if err := createBatch(ctx, tx, transactions[start:end]); err != nil {
				return fmt.Errorf("failed to insert transactions: %w", err)
			}
		}

		sql, args, err = squirrel.Update("accounts").
			Set("balance", balance).
			Set("updated_at", time.Now()).
			Where(squirrel.Eq{"id": accountID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func createBatch(ctx context.Context, tx pgx.Tx, transactions []*models.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	builder := squirrel.Insert("transactions").
		Columns(transactionColumns...).
		PlaceholderFormat(squirrel.Dollar)

	for _, t := range transactions {
		builder = builder.Values(t.ID, t.Type, t.Amount, t.Description, t.Date, t.Category, t.Status, t.UserID, t.AccountID, t.CreatedAt, t.UpdatedAt)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, sql, args...)
	return translateError(err)
}

func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.Transaction, error) {
	query := squirrel.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("date DESC").
		PlaceholderFormat(squirrel.Dollar)
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(
			&t.ID, &t.Type, &t.Amount, &t.Description, &t.Date, &t.Category, &t.Status, &t.UserID, &t.AccountID, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, &t)
	}

	return transactions, rows.Err()
}
