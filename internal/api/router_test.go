package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"finbox/internal/api/handlers"
	"finbox/internal/llm"
	"finbox/internal/repository/memory"
	"finbox/internal/service"
	"finbox/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type stubProvider struct {
	mu     sync.Mutex
	answer string
	err    error
	calls  int
}

func (p *stubProvider) Name() string { return "Stub" }

func (p *stubProvider) GenerateText(context.Context, string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.answer, p.err
}

func (p *stubProvider) DescribeImage(context.Context, string, llm.Image) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.answer, p.err
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type RouterSuite struct {
	suite.Suite
	provider *stubProvider
	store    *memory.Store
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.provider = &stubProvider{}
	s.store = memory.NewStore()
}

func (s *RouterSuite) newApp(enableSeed bool) *fiberApp {
	logger := zap.NewNop()
	jwtManager := auth.NewJWTManager("session-secret", time.Hour, 24*time.Hour)
	signer := auth.NewCredentialSigner("desktop-secret")

	authService := service.NewAuthService(s.store.Identities(), jwtManager, logger)
	userService := service.NewUserService(s.store, logger)
	tokenService := service.NewTokenService(userService, signer, logger)
	receiptService := service.NewReceiptService(s.provider, service.DefaultMaxReceiptBytes, time.Second, logger)
	chatService := service.NewChatService(s.provider, time.Second, logger)
	seedService := service.NewSeedService(s.store, logger)

	h := &Handlers{
		Auth:    handlers.NewAuthHandler(authService, userService, false, logger),
		Token:   handlers.NewTokenHandler(tokenService, logger),
		Receipt: handlers.NewReceiptHandler(receiptService, tokenService, logger),
		Chat:    handlers.NewChatHandler(chatService, logger),
		Seed:    handlers.NewSeedHandler(seedService, logger),
	}
	app := SetupRouter(h, Options{
		MaxReceiptBytes: receiptService.MaxBytes(),
		EnableSeed:      enableSeed,
	}, jwtManager, logger)
	return &fiberApp{t: s.T(), app: app}
}

type fiberApp struct {
	t   *testing.T
	app *fiber.App
}

func (a *fiberApp) do(req *http.Request) (int, map[string]any) {
	a.t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)

	body := map[string]any{}
	if len(raw) > 0 {
		require.NoError(a.t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp.StatusCode, body
}

func jsonRequest(method, target string, payload any) *http.Request {
	raw, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, target, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("receipt", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func (s *RouterSuite) register(app *fiberApp) string {
	status, body := app.do(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "ada@example.com",
		"name":     "Ada",
		"password": "correct-horse",
	}))
	s.Require().Equal(http.StatusCreated, status)
	return body["access_token"].(string)
}

func (s *RouterSuite) desktopToken(app *fiberApp) string {
	session := s.register(app)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/generate-token", nil)
	req.Header.Set("Authorization", "Bearer "+session)
	status, body := app.do(req)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(true, body["success"])
	s.Equal("30 days", body["expiresIn"])
	_, err := time.Parse(time.RFC3339, body["expiresAt"].(string))
	s.NoError(err)
	return body["token"].(string)
}

func (s *RouterSuite) TestHealth() {
	app := s.newApp(false)
	status, body := app.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, status)
	s.Equal("ok", body["status"])
}

func (s *RouterSuite) TestGenerateTokenRequiresSession() {
	app := s.newApp(false)
	status, body := app.do(httptest.NewRequest(http.MethodGet, "/api/auth/generate-token", nil))
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("Unauthorized", body["error"])
}

func (s *RouterSuite) TestDesktopCredentialFlow() {
	app := s.newApp(false)
	token := s.desktopToken(app)

	req := httptest.NewRequest(http.MethodGet, "/api/receipt-scanner", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	status, body := app.do(req)
	s.Equal(http.StatusOK, status)
	s.Equal("Token is valid", body["message"])

	req = httptest.NewRequest(http.MethodGet, "/api/receipt-scanner", nil)
	status, body = app.do(req)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("Missing or invalid Authorization header", body["error"])

	req = httptest.NewRequest(http.MethodGet, "/api/receipt-scanner", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	status, body = app.do(req)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("Invalid token", body["error"])
}

func (s *RouterSuite) TestDesktopScanChecksCredentialFirst() {
	app := s.newApp(false)
	status, _ := app.do(uploadRequest(s.T(), "/api/receipt-scanner", "", nil))
	s.Equal(http.StatusUnauthorized, status)
	s.Zero(s.provider.callCount())
}

func (s *RouterSuite) TestDesktopScanMissingFile() {
	app := s.newApp(false)
	token := s.desktopToken(app)

	req := uploadRequest(s.T(), "/api/receipt-scanner", "", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	status, body := app.do(req)
	s.Equal(http.StatusBadRequest, status)
	s.Equal("No receipt file provided", body["error"])
	s.Zero(s.provider.callCount())
}

func (s *RouterSuite) TestDesktopScanSuccess() {
	s.provider.answer = "```json\n{\"amount\": -12.345, \"date\": \"2025-03-14\", \"description\": \"Lunch\", \"merchantName\": \"Cafe\", \"category\": \"food\"}\n```"
	app := s.newApp(false)
	token := s.desktopToken(app)

	req := uploadRequest(s.T(), "/api/receipt-scanner", "receipt.png", pngHeader)
	req.Header.Set("Authorization", "Bearer "+token)
	status, body := app.do(req)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(true, body["success"])

	data := body["data"].(map[string]any)
	s.Equal("12.35", data["amount"])
	s.Equal("2025-03-14", data["date"])
	s.Equal("Cafe", data["merchantName"])
	s.Equal(1, s.provider.callCount())
}

func (s *RouterSuite) TestScanProviderFailure() {
	s.provider.err = llm.ErrProvider
	app := s.newApp(false)
	session := s.register(app)

	req := uploadRequest(s.T(), "/api/transactions/scan-receipt", "receipt.png", pngHeader)
	req.Header.Set("Authorization", "Bearer "+session)
	status, body := app.do(req)
	s.Equal(http.StatusInternalServerError, status)
	s.NotEmpty(body["error"])
}

func (s *RouterSuite) TestScanNotAReceipt() {
	s.provider.answer = "{}"
	app := s.newApp(false)
	session := s.register(app)

	req := uploadRequest(s.T(), "/api/transactions/scan-receipt", "cat.png", pngHeader)
	req.Header.Set("Authorization", "Bearer "+session)
	status, _ := app.do(req)
	s.Equal(http.StatusUnprocessableEntity, status)
}

func (s *RouterSuite) TestScanTooLarge() {
	app := s.newApp(false)
	session := s.register(app)

	big := append(append([]byte{}, pngHeader...), make([]byte, service.DefaultMaxReceiptBytes)...)
	req := uploadRequest(s.T(), "/api/transactions/scan-receipt", "big.png", big)
	req.Header.Set("Authorization", "Bearer "+session)
	status, _ := app.do(req)
	s.Equal(http.StatusRequestEntityTooLarge, status)
	s.Zero(s.provider.callCount())
}

func (s *RouterSuite) TestChat() {
	s.provider.answer = "Diversify."
	app := s.newApp(false)

	status, body := app.do(jsonRequest(http.MethodPost, "/api/finance-chatbot", map[string]string{"message": "2 + 2 * 3"}))
	s.Equal(http.StatusOK, status)
	s.Equal("Result: 8", body["answer"])
	s.Zero(s.provider.callCount())

	status, body = app.do(jsonRequest(http.MethodPost, "/api/finance-chatbot", map[string]string{"message": "How do I save?"}))
	s.Equal(http.StatusOK, status)
	s.Equal("Diversify.", body["answer"])

	status, _ = app.do(jsonRequest(http.MethodPost, "/api/finance-chatbot", map[string]string{"message": "  "}))
	s.Equal(http.StatusBadRequest, status)
}

func (s *RouterSuite) TestChatOversizedPowerIsRefused() {
	app := s.newApp(false)

	start := time.Now()
	status, body := app.do(jsonRequest(http.MethodPost, "/api/finance-chatbot", map[string]string{"message": "((9^999)^999)^20"}))
	s.Equal(http.StatusOK, status)
	s.Equal("Sorry, I couldn't compute that expression.", body["answer"])
	s.Less(time.Since(start), 5*time.Second)
	s.Zero(s.provider.callCount())
}

func (s *RouterSuite) TestChatDegradedAnswer() {
	s.provider.err = &llm.APIError{Message: "quota exceeded"}
	app := s.newApp(false)

	status, body := app.do(jsonRequest(http.MethodPost, "/api/finance-chatbot", map[string]string{"message": "Should I buy bonds?"}))
	s.Equal(http.StatusOK, status)
	s.True(strings.HasSuffix(body["answer"].(string), "quota exceeded"))
}

func (s *RouterSuite) TestSeed() {
	app := s.newApp(true)

	status, body := app.do(httptest.NewRequest(http.MethodGet, "/api/seed", nil))
	s.Equal(http.StatusInternalServerError, status)
	s.Equal(false, body["success"])
	s.Equal("No users found in the database. Please create a user first.", body["error"])

	session := s.register(app)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session)
	status, _ = app.do(req)
	s.Require().Equal(http.StatusOK, status)

	status, body = app.do(httptest.NewRequest(http.MethodGet, "/api/seed", nil))
	s.Equal(http.StatusOK, status)
	s.Equal(true, body["success"])
	s.Contains(body["message"], "Created")
}

func (s *RouterSuite) TestSeedDisabled() {
	app := s.newApp(false)
	resp, err := app.app.Test(httptest.NewRequest(http.MethodGet, "/api/seed", nil), -1)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestSwaggerIsServed(t *testing.T) {
	app := SetupRouter(&Handlers{}, Options{MaxReceiptBytes: 1 << 20}, auth.NewJWTManager("s", time.Hour, time.Hour), zap.NewNop())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOversizedBodyGetsJSONError(t *testing.T) {
	app := SetupRouter(&Handlers{}, Options{MaxReceiptBytes: 1024}, auth.NewJWTManager("s", time.Hour, time.Hour), zap.NewNop())
	assert.Equal(t, 1024+uploadOverhead, app.Config().BodyLimit)

	c := app.AcquireCtx(&fasthttp.RequestCtx{})
	defer app.ReleaseCtx(c)

	require.NoError(t, app.Config().ErrorHandler(c, fiber.ErrRequestEntityTooLarge))
	assert.Equal(t, http.StatusRequestEntityTooLarge, c.Response().StatusCode())

	var body map[string]string
	require.NoError(t, json.Unmarshal(c.Response().Body(), &body))
	assert.Equal(t, "file too large: maximum size is 1024 bytes", body["error"])
}

func TestErrorHandlerKeepsFiberStatus(t *testing.T) {
	app := SetupRouter(&Handlers{}, Options{MaxReceiptBytes: 1024}, auth.NewJWTManager("s", time.Hour, time.Hour), zap.NewNop())

	status, body := (&fiberApp{t: t, app: app}).do(httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Cannot GET /api/unknown", body["error"])
}
