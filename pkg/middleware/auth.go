package middleware

import (
	"strings"

	"finbox/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionCookie carries the web session token.
const SessionCookie = "finbox_session"

const (
	localIdentityID = "identityID"
	localEmail      = "email"
	localName       = "name"
)

// SessionAuth requires a valid web session from the session cookie or an
// Authorization: Bearer header.
func SessionAuth(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			token, _ = strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
			token = strings.TrimSpace(token)
		}
		if token == "" {
			logger.Debug("Missing session token", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Warn("Invalid session token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		c.Locals(localIdentityID, claims.IdentityID)
		c.Locals(localEmail, claims.Email)
		c.Locals(localName, claims.Name)

		return c.Next()
	}
}

// IdentityID returns the session identity set by SessionAuth, or "".
func IdentityID(c *fiber.Ctx) string {
	id, _ := c.Locals(localIdentityID).(string)
	return id
}
