package service

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"finbox/internal/models"
	"finbox/internal/repository"
	"finbox/internal/repository/memory"
	"finbox/pkg/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// countingStore counts user lookups by id.
type countingStore struct {
	*memory.Store
	lookups atomic.Int32
}

func (s *countingStore) Users() repository.UserRepository {
	return countingUsers{UserRepository: s.Store.Users(), lookups: &s.lookups}
}

type countingUsers struct {
	repository.UserRepository
	lookups *atomic.Int32
}

func (u countingUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u.lookups.Add(1)
	return u.UserRepository.GetByID(ctx, id)
}

type TokenServiceSuite struct {
	suite.Suite
	store    *countingStore
	now      time.Time
	svc      *TokenService
	identity *models.Identity
}

func (s *TokenServiceSuite) SetupTest() {
	s.store = &countingStore{Store: memory.NewStore()}
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	signer := auth.NewCredentialSigner("test-secret").WithClock(func() time.Time { return s.now })
	s.svc = NewTokenService(NewUserService(s.store, zap.NewNop()), signer, zap.NewNop())
	s.identity = newIdentity(s.T(), s.store.Store, "ada@example.com")
}

func (s *TokenServiceSuite) issue() *IssuedCredential {
	issued, err := s.svc.Issue(context.Background(), s.identity.ID.String())
	s.Require().NoError(err)
	return issued
}

func (s *TokenServiceSuite) TestIssueReportsThirtyDays() {
	issued := s.issue()
	s.Equal("30 days", issued.ExpiresIn)
	s.Equal(s.now.Add(30*24*time.Hour), issued.ExpiresAt)
	s.NotEmpty(issued.Token)
}

func (s *TokenServiceSuite) TestIssueWithoutSession() {
	_, err := s.svc.Issue(context.Background(), "")
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *TokenServiceSuite) TestIssueForUnknownIdentity() {
	_, err := s.svc.Issue(context.Background(), uuid.NewString())
	s.ErrorIs(err, ErrNotFound)
}

func (s *TokenServiceSuite) TestVerifyWithinValidityWindow() {
	issued := s.issue()
	issuedAt := s.now

	s.now = issuedAt.Add(29 * 24 * time.Hour)
	user, err := s.svc.Verify(context.Background(), "Bearer "+issued.Token)
	s.Require().NoError(err)
	s.Equal(s.identity.ID.String(), user.IdentityID)

	s.now = issuedAt.Add(31 * 24 * time.Hour)
	_, err = s.svc.Verify(context.Background(), "Bearer "+issued.Token)
	s.ErrorIs(err, ErrInvalidCredential)
}

func (s *TokenServiceSuite) TestVerifyMissingHeaderSkipsLookup() {
	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer    ", "token"} {
		_, err := s.svc.Verify(context.Background(), header)
		s.ErrorIs(err, ErrMissingCredential, "header %q", header)
	}
	s.Equal(int32(0), s.store.lookups.Load())
}

func (s *TokenServiceSuite) TestVerifyTamperedSignature() {
	token := s.issue().Token
	sigStart := strings.LastIndex(token, ".") + 1

	for i := sigStart; i < len(token); i++ {
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		_, err := s.svc.Verify(context.Background(), "Bearer "+tampered)
		s.ErrorIs(err, ErrInvalidCredential, "position %d", i)
	}
	s.Equal(int32(0), s.store.lookups.Load())
}

func (s *TokenServiceSuite) TestVerifyDeletedUser() {
	issued := s.issue()

	user, err := s.store.Users().GetByIdentityID(context.Background(), s.identity.ID.String())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Users().Delete(context.Background(), user.ID))

	_, err = s.svc.Verify(context.Background(), "Bearer "+issued.Token)
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *TokenServiceSuite) TestVerifyRejectsSessionToken() {
	s.issue()
	session, err := auth.NewJWTManager("test-secret", time.Hour, time.Hour).
		WithClock(func() time.Time { return s.now }).
		GenerateToken(s.identity.ID.String(), s.identity.Email, s.identity.Name)
	s.Require().NoError(err)

	_, err = s.svc.Verify(context.Background(), "Bearer "+session)
	s.ErrorIs(err, ErrInvalidCredential)
}

func TestTokenService(t *testing.T) {
	suite.Run(t, new(TokenServiceSuite))
}

func TestVerifyWithRotatedSecret(t *testing.T) {
	store := memory.NewStore()
	identity := newIdentity(t, store, "ada@example.com")
	users := NewUserService(store, zap.NewNop())

	old := NewTokenService(users, auth.NewCredentialSigner("old"), zap.NewNop())
	issued, err := old.Issue(context.Background(), identity.ID.String())
	require.NoError(t, err)

	rotated := NewTokenService(users, auth.NewCredentialSigner("new"), zap.NewNop())
	_, err = rotated.Verify(context.Background(), "Bearer "+issued.Token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
