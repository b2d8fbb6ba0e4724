package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finbox/internal/models"
	"finbox/pkg/auth"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CredentialValidity is the human-readable lifetime reported to clients.
const CredentialValidity = "30 days"

type IssuedCredential struct {
	Token     string
	ExpiresIn string
	ExpiresAt time.Time
}

// TokenService issues and verifies desktop companion credentials.
type TokenService struct {
	users  *UserService
	signer *auth.CredentialSigner
	logger *zap.Logger
}

func NewTokenService(users *UserService, signer *auth.CredentialSigner, logger *zap.Logger) *TokenService {
	return &TokenService{
		users:  users,
		signer: signer,
		logger: logger,
	}
}

// Issue signs a credential for the user behind identityID, creating the user
// on first access.
func (s *TokenService) Issue(ctx context.Context, identityID string) (*IssuedCredential, error) {
	if identityID == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.users.EnsureUser(ctx, identityID)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Sign(user.ID.String(), user.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}

	s.logger.Info("Desktop credential issued", zap.String("user_id", user.ID.String()))
	return &IssuedCredential{
		Token:     token,
		ExpiresIn: CredentialValidity,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks an Authorization header value and returns the user it names.
func (s *TokenService) Verify(ctx context.Context, authorization string) (*models.User, error) {
	token, ok := strings.CutPrefix(authorization, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return nil, ErrMissingCredential
	}

	claims, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, fmt.Errorf("%w: token expired", ErrInvalidCredential)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed user id", ErrInvalidCredential)
	}

	return s.users.GetByID(ctx, userID)
}
