package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finbox/internal/models"
	"finbox/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService maps identity-provider identities onto internal users.
type UserService struct {
	users      repository.UserRepository
	identities repository.IdentityRepository
	logger     *zap.Logger
}

func NewUserService(store repository.Store, logger *zap.Logger) *UserService {
	return &UserService{
		users:      store.Users(),
		identities: store.Identities(),
		logger:     logger,
	}
}

// EnsureUser returns the user for identityID, creating it on first access.
func (s *UserService) EnsureUser(ctx context.Context, identityID string) (*models.User, error) {
	if identityID == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByIdentityID(ctx, identityID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	id, err := uuid.Parse(identityID)
	if err != nil {
		return nil, fmt.Errorf("%w: identity %q", ErrNotFound, identityID)
	}
	identity, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: identity %q", ErrNotFound, identityID)
		}
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	now := time.Now()
	user = &models.User{
		ID:         uuid.New(),
		IdentityID: identityID,
		Email:      identity.Email,
		Name:       identity.Name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// A concurrent request created it first.
			return s.users.GetByIdentityID(ctx, identityID)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", zap.String("user_id", user.ID.String()), zap.String("identity_id", identityID))
	return user, nil
}

// GetByID loads a user by internal id.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
