package auth

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// AppOptions configures NewApp
type AppOptions struct {
	// Prefix the credential routes are mounted under, defaults to /auth
	Prefix string
	// LoginRateLimit is the max login requests per minute and client IP,
	// zero disables the limiter
	LoginRateLimit int
	Logger         Logger
}

// NewApp builds the fiber application serving the credential routes with
// the centralized error handler installed
func NewApp(service CredentialService, tokens TokenService, opts AppOptions) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = defLogger{}
	}
	if opts.Prefix == "" {
		opts.Prefix = "/auth"
	}

	errorHandler := NewErrorHandler(opts.Logger)

	app := fiber.New(fiber.Config{
		AppName:               "cfpnc-auth",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	controller := NewAuthController(service)
	controller.Logger = opts.Logger

	if tokens != nil {
		controller.WithTokenValidator(tokens, errorHandler)
	}

	if opts.LoginRateLimit > 0 {
		controller.LoginLimiter = limiter.New(limiter.Config{
			Max:        opts.LoginRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return NewAuthenticationError("Too many login attempts", http.StatusTooManyRequests)
			},
		})
	}

	controller.RegisterRoutes(app.Group(opts.Prefix))

	return app
}
