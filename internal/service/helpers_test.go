package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"finbox/internal/llm"
	"finbox/internal/models"
	"finbox/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
	images  []llm.Image
}

func (f *fakeProvider) Name() string { return "Fake" }

func (f *fakeProvider) GenerateText(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

func (f *fakeProvider) DescribeImage(_ context.Context, prompt string, image llm.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.images = append(f.images, image)
	return f.answer, f.err
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func newIdentity(t *testing.T, store *memory.Store, email string) *models.Identity {
	t.Helper()
	now := time.Now()
	identity := &models.Identity{
		ID:        uuid.New(),
		Email:     email,
		Name:      "Test User",
		Password:  "hash",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.Identities().Create(context.Background(), identity))
	return identity
}
