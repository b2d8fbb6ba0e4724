package llm

import (
	"context"
	"testing"

	"finbox/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("gemini without key still starts", func(t *testing.T) {
		cfg := &config.Config{LLM: config.LLMConfig{Provider: config.LLMProviderGemini}}
		provider, closeFn, err := FromConfig(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &Gemini{}, provider)
		assert.NoError(t, closeFn())

		_, err = provider.GenerateText(ctx, "hi")
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("gigachat without key is unconfigured", func(t *testing.T) {
		cfg := &config.Config{LLM: config.LLMConfig{Provider: config.LLMProviderGigaChat}}
		provider, closeFn, err := FromConfig(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, Unconfigured{Provider: "GigaChat"}, provider)
		assert.NoError(t, closeFn())
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := &config.Config{LLM: config.LLMConfig{Provider: "openai"}}
		_, _, err := FromConfig(ctx, cfg, zap.NewNop())
		assert.ErrorIs(t, err, config.ErrUnknownLLMProvider)
	})
}
