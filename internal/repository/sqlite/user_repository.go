package sqlite

import (
	"context"
	"database/sql"

	"finbox/internal/models"
	"finbox/internal/repository"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var userColumns = []string{"id", "identity_id", "email", "name", "created_at", "updated_at"}

type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query, args, err := squirrel.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.IdentityID, user.Email, user.Name, user.CreatedAt.UTC(), user.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return translateError(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, squirrel.Select(userColumns...).From("users").Where(squirrel.Eq{"id": id}))
}

func (r *UserRepository) GetByIdentityID(ctx context.Context, identityID string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Select(userColumns...).From("users").Where(squirrel.Eq{"identity_id": identityID}))
}

func (r *UserRepository) First(ctx context.Context) (*models.User, error) {
	return r.getOne(ctx, squirrel.Select(userColumns...).From("users").OrderBy("created_at ASC", "rowid ASC").Limit(1))
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := squirrel.Delete("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, builder squirrel.SelectBuilder) (*models.User, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.IdentityID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return &user, nil
}
