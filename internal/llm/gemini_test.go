package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"finbox/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewGemini(&config.GeminiConfig{
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		ChatModel:   "chat-model",
		VisionModel: "vision-model",
	}, srv.Client(), zap.NewNop())
}

func TestGeminiGenerateText(t *testing.T) {
	var got geminiRequest
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/chat-model:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Compound interest grows."}]}}]}`)
	})

	answer, err := g.GenerateText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Compound interest grows.", answer)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)
	assert.Equal(t, "hello", got.Contents[0].Parts[0].Text)
}

func TestGeminiDescribeImageSendsInlineData(t *testing.T) {
	var got geminiRequest
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/vision-model:generateContent", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`)
	})

	_, err := g.DescribeImage(context.Background(), "read this", Image{MIMEType: "image/png", Data: []byte{1, 2, 3}})
	require.NoError(t, err)
	require.Len(t, got.Contents[0].Parts, 2)
	require.NotNil(t, got.Contents[0].Parts[0].InlineData)
	assert.Equal(t, "image/png", got.Contents[0].Parts[0].InlineData.MIMEType)
	assert.Equal(t, "AQID", got.Contents[0].Parts[0].InlineData.Data)
	assert.Equal(t, "read this", got.Contents[0].Parts[1].Text)
}

func TestGeminiResponses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantTarget any
		wantMsg    string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom"}}`, wantErr: ErrProvider, wantMsg: "boom"},
		{name: "non-json", status: http.StatusOK, body: `<html>`, wantErr: ErrProvider, wantMsg: "non-JSON"},
		{name: "non-json error status", status: http.StatusBadGateway, body: `bad gateway`, wantErr: ErrProvider},
		{name: "candidate error", status: http.StatusOK, body: `{"candidates":[{"error":{"message":"blocked"}}]}`, wantTarget: &CandidateError{}, wantMsg: "blocked"},
		{name: "api error", status: http.StatusOK, body: `{"error":{"message":"quota"}}`, wantTarget: &APIError{}, wantMsg: "quota"},
		{name: "no candidates", status: http.StatusOK, body: `{}`, wantErr: ErrEmptyResponse},
		{name: "candidate without parts", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[]}}]}`, wantErr: ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := g.GenerateText(context.Background(), "q")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			switch target := tt.wantTarget.(type) {
			case *CandidateError:
				require.ErrorAs(t, err, &target)
				assert.Equal(t, tt.wantMsg, target.Message)
			case *APIError:
				require.ErrorAs(t, err, &target)
				assert.Equal(t, tt.wantMsg, target.Message)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestGeminiMissingKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	g := NewGemini(&config.GeminiConfig{BaseURL: srv.URL}, srv.Client(), zap.NewNop())
	_, err := g.GenerateText(context.Background(), "q")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, "Gemini API key not set", err.Error())
	assert.False(t, called)
}

func TestUnconfigured(t *testing.T) {
	u := Unconfigured{Provider: "GigaChat"}
	_, err := u.GenerateText(context.Background(), "q")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	_, err = u.DescribeImage(context.Background(), "q", Image{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
