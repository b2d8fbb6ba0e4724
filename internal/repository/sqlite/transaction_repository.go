package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"finbox/internal/models"
	"finbox/internal/repository"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var transactionColumns = []string{"id", "type", "amount", "description", "date", "category", "status", "user_id", "account_id", "created_at", "updated_at"}

// insertBatchSize keeps a single INSERT below SQLite's host parameter limit.
const insertBatchSize = 80

type TransactionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTransactionRepository(db *sql.DB, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TransactionRepository) ReplaceForAccount(ctx context.Context, accountID uuid.UUID, transactions []*models.Transaction, balance decimal.Decimal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := squirrel.Delete("transactions").Where(squirrel.Eq{"account_id": accountID}).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}

	for start := 0; start < len(transactions); start += insertBatchSize {
		end := min(start+insertBatchSize, len(transactions))
		if err := createBatch(ctx, tx, transactions[start:end]); err != nil {
			return fmt.Errorf("failed to insert transactions: %w", err)
		}
	}

	query, args, err = squirrel.Update("accounts").
		Set("balance", balance).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}

	return tx.Commit()
}

func createBatch(ctx context.Context, tx *sql.Tx, transactions []*models.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	builder := squirrel.Insert("transactions").Columns(transactionColumns...)
	for _, t := range transactions {
		builder = builder.Values(t.ID, t.Type, t.Amount, t.Description, t.Date.UTC(), t.Category, t.Status, t.UserID, t.AccountID, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return translateError(err)
}

func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.Transaction, error) {
	builder := squirrel.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("date DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
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
