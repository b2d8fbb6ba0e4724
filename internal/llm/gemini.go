package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"finbox/pkg/config"

	"go.uber.org/zap"
)

const maxResponseBytes = 4 << 20

// Gemini calls the generateContent REST endpoint.
type Gemini struct {
	apiKey      string
	baseURL     string
	chatModel   string
	visionModel string
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewGemini(cfg *config.GeminiConfig, httpClient *http.Client, logger *zap.Logger) *Gemini {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Gemini{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		chatModel:   cfg.ChatModel,
		visionModel: cfg.VisionModel,
		httpClient:  httpClient,
		logger:      logger,
	}
}

func (g *Gemini) Name() string { return "Gemini" }

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiError struct {
	Message string `json:"message"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		Error *geminiError `json:"error"`
	} `json:"candidates"`
	Error *geminiError `json:"error"`
}

func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, g.chatModel, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
}

func (g *Gemini) DescribeImage(ctx context.Context, prompt string, image Image) (string, error) {
	return g.generate(ctx, g.visionModel, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{
			{InlineData: &geminiInlineData{
				MIMEType: image.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(image.Data),
			}},
			{Text: prompt},
		}}},
	})
}

func (g *Gemini) generate(ctx context.Context, model string, payload geminiRequest) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%s %w", g.Name(), ErrMissingAPIKey)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to contact Gemini API: %w", ErrProvider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %w", ErrProvider, err)
	}

	var data geminiResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", fmt.Errorf("%w: Gemini API returned non-JSON: %s", ErrProvider, truncate(string(raw), 512))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := string(raw)
		if data.Error != nil && data.Error.Message != "" {
			message = data.Error.Message
		}
		g.logger.Warn("Gemini request failed",
			zap.String("model", model),
			zap.Int("status", resp.StatusCode),
		)
		return "", fmt.Errorf("%w: %s", ErrProvider, truncate(message, 512))
	}

	if len(data.Candidates) > 0 {
		candidate := data.Candidates[0]
		if candidate.Content != nil && len(candidate.Content.Parts) > 0 {
			return candidate.Content.Parts[0].Text, nil
		}
		if candidate.Error != nil {
			return "", &CandidateError{Message: candidate.Error.Message}
		}
	} else if data.Error != nil {
		return "", &APIError{Message: data.Error.Message}
	}

	return "", ErrEmptyResponse
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
