package llm

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"finbox/pkg/config"

	"github.com/Role1776/gigago"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	gigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	gigaChatBaseURL  = "https://gigachat.devices.sberbank.ru/api/v1"
	gigaChatModel    = "GigaChat"

	// tokenRefreshMargin renews the cached access token before it lapses.
	tokenRefreshMargin = time.Minute
)

// GigaChat answers text prompts through gigago and reads images through the
// files and chat/completions REST endpoints, which gigago does not cover.
type GigaChat struct {
	generate   func(ctx context.Context, prompt string) (string, error)
	closeFn    func()
	apiKey     string
	scope      string
	oauthURL   string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewGigaChat(ctx context.Context, cfg *config.GigaChatConfig, logger *zap.Logger) (*GigaChat, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(gigaChatModel)
	model.Temperature = 0.3

	httpClient := &http.Client{}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	g := newGigaChat(cfg, gigaChatOAuthURL, gigaChatBaseURL, httpClient, logger)
	g.closeFn = func() { client.Close() }
	g.generate = func(ctx context.Context, prompt string) (string, error) {
		resp, err := model.Generate(ctx, []gigago.Message{
			{Role: gigago.RoleUser, Content: prompt},
		})
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrProvider, err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	}

	logger.Info("Using GigaChat model", zap.String("model", gigaChatModel))
	return g, nil
}

func newGigaChat(cfg *config.GigaChatConfig, oauthURL, baseURL string, httpClient *http.Client, logger *zap.Logger) *GigaChat {
	return &GigaChat{
		apiKey:     cfg.APIKey,
		scope:      cfg.Scope,
		oauthURL:   oauthURL,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (g *GigaChat) Name() string { return gigaChatModel }

func (g *GigaChat) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt)
}

// DescribeImage uploads the image and asks the model about it.
func (g *GigaChat) DescribeImage(ctx context.Context, prompt string, image Image) (string, error) {
	fileID, err := g.uploadFile(ctx, image)
	if err != nil {
		return "", err
	}
	return g.completeWithAttachment(ctx, fileID, prompt)
}

func (g *GigaChat) Close() error {
	if g.closeFn != nil {
		g.closeFn()
	}
	return nil
}

// token returns the cached OAuth access token, fetching a new one when it is
// missing, about to expire or force is set.
func (g *GigaChat) token(ctx context.Context, force bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !force && g.accessToken != "" && time.Now().Add(tokenRefreshMargin).Before(g.expiresAt) {
		return g.accessToken, nil
	}

	formData := url.Values{}
	formData.Set("scope", g.scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.oauthURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}

	rqUID := uuid.New().String()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	// The API key is already the Base64 "client_id:secret" pair.
	req.Header.Set("Authorization", "Basic "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to get access token: %w", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		g.logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("rq_uid", rqUID),
		)
		return "", fmt.Errorf("%w: OAuth failed with status %d: %s", ErrProvider, resp.StatusCode, truncate(string(bodyBytes), 512))
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"` // unix milliseconds
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode OAuth response: %w", ErrProvider, err)
	}
	if oauthResp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in OAuth response", ErrProvider)
	}

	g.accessToken = oauthResp.AccessToken
	g.expiresAt = time.UnixMilli(oauthResp.ExpiresAt)
	if oauthResp.ExpiresAt == 0 {
		g.expiresAt = time.Now().Add(25 * time.Minute)
	}

	g.logger.Debug("GigaChat access token obtained", zap.Time("expires_at", g.expiresAt))
	return g.accessToken, nil
}

// do sends an authorized request built by newReq. A 401 means the cached
// token was revoked or expired early, so the request is repeated once with a
// freshly fetched token. Any other upstream failure is returned as is.
func (g *GigaChat) do(ctx context.Context, newReq func(token string) (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		token, err := g.token(ctx, attempt > 0)
		if err != nil {
			return nil, err
		}

		req, err := newReq(token)
		if err != nil {
			return nil, err
		}

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProvider, err)
		}
		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			g.logger.Info("GigaChat token rejected, refreshing")
			continue
		}
		return resp, nil
	}
}

func (g *GigaChat) uploadFile(ctx context.Context, image Image) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// "general" lets the file be referenced from chat completions.
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Type", image.MIMEType)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, "receipt"+extensionFor(image.MIMEType)))
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	resp, err := g.do(ctx, func(token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/files", bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		return "", fmt.Errorf("%w: upload failed with status %d: %s", ErrProvider, resp.StatusCode, truncate(string(bodyBytes), 512))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode upload response: %w", ErrProvider, err)
	}

	g.logger.Info("File uploaded to GigaChat", zap.String("file_id", uploadResp.ID))
	return uploadResp.ID, nil
}

type gigaChatMessage struct {
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

type gigaChatRequest struct {
	Model       string            `json:"model"`
	Messages    []gigaChatMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	Stream      bool              `json:"stream"`
}

func (g *GigaChat) completeWithAttachment(ctx context.Context, fileID, prompt string) (string, error) {
	payload, err := json.Marshal(gigaChatRequest{
		Model: gigaChatModel,
		Messages: []gigaChatMessage{
			{Role: "user", Content: prompt, Attachments: []string{fileID}},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := g.do(ctx, func(token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		return "", fmt.Errorf("%w: vision request failed with status %d: %s", ErrProvider, resp.StatusCode, truncate(string(bodyBytes), 512))
	}

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %w", ErrProvider, err)
	}
	if len(visionResp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return strings.TrimSpace(visionResp.Choices[0].Message.Content), nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
