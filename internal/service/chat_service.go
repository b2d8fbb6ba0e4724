package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finbox/internal/llm"
	"finbox/pkg/calc"

	"go.uber.org/zap"
)

const financeBotInstruction = "You are FinanceBot, an expert in finance and financial calculations. " +
	"Only answer questions related to finance, money, investments, interest, budgeting, and financial math. " +
	"If a question is not related to finance or calculations, politely refuse."

const (
	calcFailureAnswer   = "Sorry, I couldn't compute that expression."
	noAnswerFallback    = "Sorry, I couldn't process that."
	candidateErrorLabel = "Error from AI: "
	apiErrorLabel       = "API Error: "
)

// ChatService answers finance questions. Pure arithmetic is evaluated locally;
// everything else goes to the provider behind the FinanceBot instruction.
type ChatService struct {
	provider llm.Provider
	timeout  time.Duration
	logger   *zap.Logger
}

func NewChatService(provider llm.Provider, timeout time.Duration, logger *zap.Logger) *ChatService {
	return &ChatService{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

// buildPrompt wraps a user message in the FinanceBot instruction.
func buildPrompt(message string) string {
	return financeBotInstruction + "\n\nUser question: " + message
}

func (s *ChatService) Ask(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is required", ErrValidation)
	}

	if calc.IsArithmetic(message) {
		result, err := calc.Evaluate(message)
		if err != nil {
			s.logger.Debug("Expression evaluation failed", zap.Error(err))
			return calcFailureAnswer, nil
		}
		return "Result: " + result.String(), nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	answer, err := s.provider.GenerateText(ctx, buildPrompt(message))
	if err == nil {
		return answer, nil
	}

	var candidateErr *llm.CandidateError
	var apiErr *llm.APIError
	switch {
	case errors.As(err, &candidateErr):
		return candidateErrorLabel + candidateErr.Message, nil
	case errors.As(err, &apiErr):
		return apiErrorLabel + apiErr.Message, nil
	case errors.Is(err, llm.ErrEmptyResponse):
		return noAnswerFallback, nil
	}

	s.logger.Error("Chat provider request failed", zap.String("provider", s.provider.Name()), zap.Error(err))
	return "", providerError(err)
}
