package postgres

import (
	"context"

	"finbox/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var accountColumns = []string{"id", "user_id", "name", "balance", "color", "is_default", "created_at", "updated_at"}

type AccountRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAccountRepository(db *pgxpool.Pool, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := squirrel.Insert("accounts").
		Columns(accountColumns...).
		Values(account.ID, account.UserID, account.Name, account.Balance, account.Color, account.IsDefault, account.CreatedAt, account.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translateError(err)
}

func (r *AccountRepository) GetDefault(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	return r.getOne(ctx, squirrel.Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("is_default DESC", "created_at ASC").
		Limit(1))
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.getOne(ctx, squirrel.Select(accountColumns...).From("accounts").Where(squirrel.Eq{"id": id}))
}

func (r *AccountRepository) getOne(ctx context.Context, query squirrel.SelectBuilder) (*models.Account, error) {
	sql, args, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	var account models.Account
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&account.ID, &account.UserID, &account.Name, &account.Balance, &account.Color, &account.IsDefault, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return &account, nil
}
