package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"finbox/internal/dto"
	"finbox/internal/models"
	"finbox/internal/repository"
	"finbox/pkg/auth"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPasswordLength = 8

// AuthService is the built-in identity provider behind web sessions.
type AuthService struct {
	identities repository.IdentityRepository
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

func NewAuthService(identities repository.IdentityRepository, jwtManager *auth.JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		identities: identities,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// CreateIdentity validates and stores a new identity.
func (s *AuthService) CreateIdentity(ctx context.Context, email, name, password string) (*models.Identity, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	identity := &models.Identity{
		ID:        uuid.New(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Password:  hashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.logger.Info("Identity registered", zap.String("identity_id", identity.ID.String()))
	return identity, nil
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	identity, err := s.CreateIdentity(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		return nil, err
	}
	return s.issue(identity)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	identity, err := s.identities.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPasswordHash(req.Password, identity.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(identity)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	identityID, err := uuid.Parse(claims.IdentityID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.issue(identity)
}

// TokenDuration is the lifetime of a session token.
func (s *AuthService) TokenDuration() time.Duration {
	return s.jwtManager.GetTokenDuration()
}

func (s *AuthService) issue(identity *models.Identity) (*dto.AuthResponse, error) {
	identityID := identity.ID.String()

	accessToken, err := s.jwtManager.GenerateToken(identityID, identity.Email, identity.Name)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(identityID)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.GetTokenDuration().Seconds()),
		User: dto.UserResponse{
			IdentityID: identityID,
			Email:      identity.Email,
			Name:       identity.Name,
		},
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
