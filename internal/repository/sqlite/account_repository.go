package sqlite

import (
	"context"
	"database/sql"

	"finbox/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var accountColumns = []string{"id", "user_id", "name", "balance", "color", "is_default", "created_at", "updated_at"}

type AccountRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewAccountRepository(db *sql.DB, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query, args, err := squirrel.Insert("accounts").
		Columns(accountColumns...).
		Values(account.ID, account.UserID, account.Name, account.Balance, account.Color, account.IsDefault, account.CreatedAt.UTC(), account.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
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

func (r *AccountRepository) getOne(ctx context.Context, builder squirrel.SelectBuilder) (*models.Account, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var account models.Account
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&account.ID, &account.UserID, &account.Name, &account.Balance, &account.Color, &account.IsDefault, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return &account, nil
}
