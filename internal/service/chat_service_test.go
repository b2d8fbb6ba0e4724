package service

import (
	"context"
	"fmt"
	"testing"

	"finbox/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAskArithmeticStaysLocal(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"2 + 2 * 3", "Result: 8"},
		{"  (1 + 1) ^ 10 ", "Result: 1024"},
		{"10 % 4", "Result: 2"},
		{"2 / ", "Sorry, I couldn't compute that expression."},
		{"1 / 0", "Sorry, I couldn't compute that expression."},
		{"((", "Sorry, I couldn't compute that expression."},
		{"(9^999)^999", "Sorry, I couldn't compute that expression."},
		{"((9^999)^999)^20", "Sorry, I couldn't compute that expression."},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			provider := &fakeProvider{answer: "should not be used"}
			svc := NewChatService(provider, 0, zap.NewNop())

			answer, err := svc.Ask(context.Background(), tt.message)
			require.NoError(t, err)
			assert.Equal(t, tt.want, answer)
			assert.Equal(t, 0, provider.calls())
		})
	}
}

func TestAskWrapsQuestionInInstruction(t *testing.T) {
	provider := &fakeProvider{answer: "Compound interest is interest on interest."}
	svc := NewChatService(provider, 0, zap.NewNop())

	answer, err := svc.Ask(context.Background(), "What is compound interest?")
	require.NoError(t, err)
	assert.Equal(t, "Compound interest is interest on interest.", answer)

	require.Len(t, provider.prompts, 1)
	assert.Equal(t, financeBotInstruction+"\n\nUser question: What is compound interest?", provider.prompts[0])
}

func TestAskDegradedAnswers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"candidate error", &llm.CandidateError{Message: "blocked"}, "Error from AI: blocked"},
		{"api error", &llm.APIError{Message: "quota exceeded"}, "API Error: quota exceeded"},
		{"empty", llm.ErrEmptyResponse, "Sorry, I couldn't process that."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewChatService(&fakeProvider{err: tt.err}, 0, zap.NewNop())
			answer, err := svc.Ask(context.Background(), "how do I budget?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, answer)
		})
	}
}

func TestAskProviderErrors(t *testing.T) {
	svc := NewChatService(&fakeProvider{err: fmt.Errorf("%w: status 500", llm.ErrProvider)}, 0, zap.NewNop())
	_, err := svc.Ask(context.Background(), "how do I budget?")
	assert.ErrorIs(t, err, ErrExternalService)

	svc = NewChatService(llm.Unconfigured{Provider: "Gemini"}, 0, zap.NewNop())
	_, err = svc.Ask(context.Background(), "how do I budget?")
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "Gemini API key not set")
}

func TestAskBlankMessage(t *testing.T) {
	provider := &fakeProvider{}
	_, err := NewChatService(provider, 0, zap.NewNop()).Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, provider.calls())
}
