package llm

import (
	"context"
	"fmt"

	"finbox/pkg/config"

	"go.uber.org/zap"
)

// FromConfig builds the configured provider. A GigaChat provider without an
// API key is replaced by Unconfigured. The returned close func is never nil.
func FromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Provider, func() error, error) {
	noop := func() error { return nil }

	switch cfg.LLM.Provider {
	case config.LLMProviderGemini:
		if cfg.Gemini.APIKey == "" {
			logger.Warn("GEMINI_API_KEY is not set; receipt scanning and chat will report a configuration error")
		}
		return NewGemini(&cfg.Gemini, nil, logger), noop, nil
	case config.LLMProviderGigaChat:
		if cfg.GigaChat.APIKey == "" {
			logger.Warn("GIGACHAT_API_KEY is not set; receipt scanning and chat will report a configuration error")
			return Unconfigured{Provider: gigaChatModel}, noop, nil
		}
		g, err := NewGigaChat(ctx, &cfg.GigaChat, logger)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownLLMProvider, cfg.LLM.Provider)
	}
}
