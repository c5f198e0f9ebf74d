package auth

import (
	"net/http"

	"github.com/fahoumeabdelali/cfpnc-auth/middleware/jwtware"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// ErrorResponse is the body rendered for every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      int    `json:"code"`
	TextCode  string `json:"text_code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorHandler returns the centralized error translator. Handlers
// never render errors themselves, they return them here.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		richErr := toRichError(err)

		code := richErr.Code
		if code == 0 {
			code = http.StatusInternalServerError
		}

		requestID := c.GetRespHeader(fiber.HeaderXRequestID)

		if code >= http.StatusInternalServerError {
			logger.Error(
				"request failed",
				"error", err,
				"path", c.Path(),
				"request_id", requestID,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		} else {
			logger.Debug(
				"request rejected",
				"error", richErr.Message,
				"text_code", richErr.TextCode,
				"path", c.Path(),
			)
		}

		message := richErr.Message
		if code >= http.StatusInternalServerError {
			message = "An unexpected server error occurred"
		}

		return c.Status(code).JSON(ErrorResponse{
			Error:     message,
			Code:      code,
			TextCode:  richErr.TextCode,
			RequestID: requestID,
		})
	}
}

func toRichError(err error) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewAuthenticationError(fiberErr.Message, fiberErr.Code)
	}

	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return ErrMissingToken
	}

	if errors.Is(err, jwtware.ErrAccessDenied) {
		return NewAuthenticationError(err.Error(), http.StatusForbidden)
	}

	return errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
		WithCode(http.StatusInternalServerError)
}
