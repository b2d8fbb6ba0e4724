package api

import (
	"errors"
	"fmt"
	"time"

	_ "finbox/docs"
	"finbox/internal/api/handlers"
	"finbox/pkg/auth"
	"finbox/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// uploadOverhead leaves room for multipart framing above the receipt limit,
// so oversized receipts get a 413 from the handler rather than a dropped
// connection.
const uploadOverhead = 1 << 20

type Handlers struct {
	Auth    *handlers.AuthHandler
	Token   *handlers.TokenHandler
	Receipt *handlers.ReceiptHandler
	Chat    *handlers.ChatHandler
	Seed    *handlers.SeedHandler
}

type Options struct {
	MaxReceiptBytes int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	// EnableSeed exposes GET /api/seed. Never set in production.
	EnableSeed bool
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

func SetupRouter(h *Handlers, opts Options, jwtManager *auth.JWTManager, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "finbox",
		BodyLimit:    int(opts.MaxReceiptBytes) + uploadOverhead,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		// Bodies over BodyLimit are rejected by fasthttp before routing and
		// reach this handler as fiber.ErrRequestEntityTooLarge.
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := err.Error()
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				message = e.Message
			}
			switch {
			case code == fiber.StatusRequestEntityTooLarge:
				message = fmt.Sprintf("file too large: maximum size is %d bytes", opts.MaxReceiptBytes)
			case code >= fiber.StatusInternalServerError:
				appLogger.Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error": message,
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	if opts.AccessLog {
		app.Use(logger.New())
	}

	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	session := middleware.SessionAuth(jwtManager, appLogger)

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/refresh", h.Auth.RefreshToken)
	authGroup.Post("/logout", h.Auth.Logout)
	authGroup.Get("/me", session, h.Auth.Me)
	authGroup.Get("/generate-token", session, h.Token.GenerateToken)

	// Desktop companion, authenticated by its own bearer credential
	api.Get("/receipt-scanner", h.Token.ValidateToken)
	api.Post("/receipt-scanner", h.Receipt.ScanDesktop)

	api.Post("/transactions/scan-receipt", session, h.Receipt.ScanSession)
	api.Post("/finance-chatbot", h.Chat.Ask)

	if opts.EnableSeed {
		api.Get("/seed", h.Seed.Seed)
	}

	return app
}
