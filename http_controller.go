package auth

import (
	"context"

	"github.com/fahoumeabdelali/cfpnc-auth/middleware/jwtware"
	"github.com/gofiber/fiber/v2"
)

// CredentialService is what the HTTP controller needs from Auther
type CredentialService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*ForgotPasswordResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*MessageResponse, error)
	UpdatePassword(ctx context.Context, req UpdatePasswordRequest, numcin string) (*MessageResponse, error)
	PasswordUpdateScope() PasswordUpdateScope
}

var _ CredentialService = (*Auther)(nil)

type AuthControllerRoutes struct {
	Login          string
	ForgotPassword string
	Register       string
	UpdatePassword string
}

type AuthController struct {
	Logger     Logger
	Service    CredentialService
	Routes     *AuthControllerRoutes
	ContextKey string
	// Protect guards the password update route when the scope is self
	Protect fiber.Handler
	// LoginLimiter is an optional middleware placed in front of login
	LoginLimiter fiber.Handler
}

func NewAuthController(service CredentialService) *AuthController {
	return &AuthController{
		Logger:     defLogger{},
		Service:    service,
		ContextKey: "user",
		Routes: &AuthControllerRoutes{
			Login:          "/login",
			ForgotPassword: "/forgot-password",
			Register:       "/register",
			UpdatePassword: "/password",
		},
	}
}

// WithTokenValidator protects the password update route with the JWT
// middleware. errorHandler should be the app's centralized handler.
func (a *AuthController) WithTokenValidator(ts TokenService, errorHandler fiber.ErrorHandler) *AuthController {
	a.Protect = jwtware.New(jwtware.Config{
		ContextKey:     a.ContextKey,
		ErrorHandler:   errorHandler,
		TokenValidator: ClaimsValidator(ts),
	})
	return a
}

// RegisterRoutes mounts the credential routes on r
func (a *AuthController) RegisterRoutes(r fiber.Router) {
	if a.LoginLimiter != nil {
		r.Post(a.Routes.Login, a.LoginLimiter, a.LoginPost)
	} else {
		r.Post(a.Routes.Login, a.LoginPost)
	}

	r.Post(a.Routes.ForgotPassword, a.ForgotPasswordPost)
	r.Post(a.Routes.Register, a.RegistrationCreate)

	if a.Service.PasswordUpdateScope() == PasswordUpdateSelf && a.Protect != nil {
		r.Put(a.Routes.UpdatePassword, a.Protect, a.PasswordUpdate)
	} else {
		r.Put(a.Routes.UpdatePassword, a.PasswordUpdate)
	}
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := a.bind(c, payload); err != nil {
		return err
	}

	res, err := a.Service.Login(c.UserContext(), *payload)
	if err != nil {
		return err
	}

	return c.JSON(res)
}

func (a *AuthController) ForgotPasswordPost(c *fiber.Ctx) error {
	payload := new(ForgotPasswordRequest)
	if err := a.bind(c, payload); err != nil {
		return err
	}

	res, err := a.Service.ForgotPassword(c.UserContext(), *payload)
	if err != nil {
		return err
	}

	return c.JSON(res)
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegisterRequest)
	if err := a.bind(c, payload); err != nil {
		return err
	}

	res, err := a.Service.Register(c.UserContext(), *payload)
	if err != nil {
		return err
	}

	return c.JSON(res)
}

func (a *AuthController) PasswordUpdate(c *fiber.Ctx) error {
	payload := new(UpdatePasswordRequest)
	if err := a.bind(c, payload); err != nil {
		return err
	}

	ctx := c.UserContext()
	numcin := ""
	if claims, ok := jwtware.ClaimsFromContext(c, a.ContextKey); ok {
		numcin = claims.Identifier()
		if lc, ok := claims.(*LoginClaims); ok {
			ctx = WithClaimsContext(ctx, lc)
		}
	}

	res, err := a.Service.UpdatePassword(ctx, *payload, numcin)
	if err != nil {
		return err
	}

	return c.JSON(res)
}

func (a *AuthController) bind(c *fiber.Ctx, payload any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("parse payload", "path", c.Path(), "error", err)
		return ErrUnableToParseData
	}
	return nil
}

// ClaimsValidator adapts a TokenService to the JWT middleware
func ClaimsValidator(ts TokenService) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(raw string) (jwtware.AuthClaims, error) {
		claims, err := ts.Validate(raw)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}
