package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finbox/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSessionApp(jwtManager *auth.JWTManager) *fiber.App {
	app := fiber.New()
	app.Get("/me", SessionAuth(jwtManager, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString(IdentityID(c))
	})
	return app
}

func TestSessionAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour, time.Hour)
	app := newSessionApp(jwtManager)

	token, err := jwtManager.GenerateToken("identity-1", "ada@example.com", "Ada")
	require.NoError(t, err)
	refresh, err := jwtManager.GenerateRefreshToken("identity-1")
	require.NoError(t, err)

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) }, fiber.StatusOK, "identity-1"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, fiber.StatusOK, "identity-1"},
		{"missing", func(r *http.Request) {}, fiber.StatusUnauthorized, ""},
		{"refresh token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+refresh) }, fiber.StatusUnauthorized, ""},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, fiber.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}
