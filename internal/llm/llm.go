// Package llm holds the clients for the generative-language providers that
// answer chat questions and read receipts.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey means the provider is selected but has no credentials.
	ErrMissingAPIKey = errors.New("API key not set")
	// ErrProvider covers transport failures, non-success statuses and bodies
	// that are not JSON.
	ErrProvider = errors.New("provider request failed")
	// ErrEmptyResponse means the provider answered without any usable text.
	ErrEmptyResponse = errors.New("provider returned no content")
)

// CandidateError is an error the provider attached to its first candidate.
type CandidateError struct {
	Message string
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("candidate error: %s", e.Message)
}

// APIError is an error object in an otherwise successful response body.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s", e.Message)
}

// Image is an inline image attachment.
type Image struct {
	MIMEType string
	Data     []byte
}

// Provider is a generative-language backend.
type Provider interface {
	// Name is used in user-facing configuration errors, e.g. "Gemini".
	Name() string
	// GenerateText sends a single-turn prompt and returns the first text answer.
	GenerateText(ctx context.Context, prompt string) (string, error)
	// DescribeImage sends a prompt together with an image.
	DescribeImage(ctx context.Context, prompt string, image Image) (string, error)
}

// Unconfigured stands in for a provider whose API key is missing, so the
// service can start and report the problem per request.
type Unconfigured struct {
	Provider string
}

func (u Unconfigured) Name() string { return u.Provider }

func (u Unconfigured) GenerateText(context.Context, string) (string, error) {
	return "", fmt.Errorf("%s %w", u.Provider, ErrMissingAPIKey)
}

func (u Unconfigured) DescribeImage(context.Context, string, Image) (string, error) {
	return "", fmt.Errorf("%s %w", u.Provider, ErrMissingAPIKey)
}
