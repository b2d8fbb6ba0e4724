package sqlite

import (
	"context"
	"database/sql"

	"finbox/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var identityColumns = []string{"id", "email", "name", "password_hash", "created_at", "updated_at"}

type IdentityRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewIdentityRepository(db *sql.DB, logger *zap.Logger) *IdentityRepository {
	return &IdentityRepository{
		db:     db,
		logger: logger,
	}
}

func (r *IdentityRepository) Create(ctx context.Context, identity *models.Identity) error {
	query, args, err := squirrel.Insert("identities").
		Columns(identityColumns...).
		Values(identity.ID, identity.Email, identity.Name, identity.Password, identity.CreatedAt.UTC(), identity.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return translateError(err)
}

func (r *IdentityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

func (r *IdentityRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.Identity, error) {
	query, args, err := squirrel.Select(identityColumns...).
		From("identities").
		Where(where).
		ToSql()
	if err != nil {
		return nil, err
	}

	var identity models.Identity
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&identity.ID, &identity.Email, &identity.Name, &identity.Password, &identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err)
	}

	return &identity, nil
}
