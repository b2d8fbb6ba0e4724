package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialTTL is the fixed validity window of a desktop credential.
const CredentialTTL = 30 * 24 * time.Hour

// DesktopClaims bind a desktop credential to an internal user.
type DesktopClaims struct {
	UserID     string `json:"userId"`
	IdentityID string `json:"identityId"`
	jwt.RegisteredClaims
}

// CredentialSigner issues and parses stateless desktop credentials.
// There is no revocation list: a credential stays valid until it expires
// or the signing secret changes.
type CredentialSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCredentialSigner(secret string) *CredentialSigner {
	return &CredentialSigner{
		secret: []byte(secret),
		ttl:    CredentialTTL,
		now:    time.Now,
	}
}

func (s *CredentialSigner) WithClock(now func() time.Time) *CredentialSigner {
	s.now = now
	return s
}

// Sign returns a credential for the user and the moment it expires.
func (s *CredentialSigner) Sign(userID, identityID string) (string, time.Time, error) {
	issuedAt := s.now()
	claims := DesktopClaims{
		UserID:           userID,
		IdentityID:       identityID,
		RegisteredClaims: registered(userID, AudienceDesktop, issuedAt, s.ttl),
	}

	token, err := sign(claims, s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt.Time, nil
}

func (s *CredentialSigner) Parse(tokenString string) (*DesktopClaims, error) {
	claims := &DesktopClaims{}
	if err := parse(tokenString, claims, s.secret, AudienceDesktop, s.now); err != nil {
		return nil, err
	}
	return claims, nil
}
