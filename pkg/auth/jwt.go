package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Audiences keep session, refresh and desktop tokens from being swapped.
const (
	AudienceSession = "finbox-web"
	AudienceRefresh = "finbox-web-refresh"
	AudienceDesktop = "finbox-desktop"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// SessionClaims identify a web session by the identity provider's id.
type SessionClaims struct {
	IdentityID string `json:"identityId"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secretKey       []byte
	tokenDuration   time.Duration
	refreshDuration time.Duration
	now             func() time.Time
}

func NewJWTManager(secretKey string, tokenDuration, refreshDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:       []byte(secretKey),
		tokenDuration:   tokenDuration,
		refreshDuration: refreshDuration,
		now:             time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating tokens.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	m.now = now
	return m
}

func (m *JWTManager) GenerateToken(identityID, email, name string) (string, error) {
	claims := SessionClaims{
		IdentityID:       identityID,
		Email:            email,
		Name:             name,
		RegisteredClaims: registered(identityID, AudienceSession, m.now(), m.tokenDuration),
	}
	return sign(claims, m.secretKey)
}

func (m *JWTManager) GenerateRefreshToken(identityID string) (string, error) {
	claims := SessionClaims{
		IdentityID:       identityID,
		RegisteredClaims: registered(identityID, AudienceRefresh, m.now(), m.refreshDuration),
	}
	return sign(claims, m.secretKey)
}

// ValidateToken validates a session access token.
func (m *JWTManager) ValidateToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := parse(tokenString, claims, m.secretKey, AudienceSession, m.now); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *JWTManager) ValidateRefreshToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := parse(tokenString, claims, m.secretKey, AudienceRefresh, m.now); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *JWTManager) GetTokenDuration() time.Duration {
	return m.tokenDuration
}

func registered(subject, audience string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func sign(claims jwt.Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func parse(tokenString string, claims jwt.Claims, secret []byte, audience string, now func() time.Time) error {
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %w", ErrExpiredToken, err)
		}
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return nil
}
