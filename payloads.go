package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// LoginRequest is the login payload
type LoginRequest struct {
	NumCIN   string `json:"numcin" form:"numcin"`
	Password string `json:"password" form:"password"`
	Remember bool   `json:"remember" form:"remember"`
}

// Validate will validate the payload
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NumCIN, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Token       string   `json:"token"`
	NumCIN      string   `json:"numcin"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// ForgotPasswordRequest is the forgot password payload
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
	)
}

// ForgotPasswordResponse carries the user and a short lived access token
type ForgotPasswordResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	NumCIN          string `json:"numcin" form:"numcin"`
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
	Role            string `json:"role" form:"role"`
}

// Validate checks that every required field is present
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.ConfirmPassword, validation.Required),
		validation.Field(&r.Role, validation.Required),
	)
}

// ValidateFormat runs after Validate and checks the email shape and that
// both passwords match
func (r RegisterRequest) ValidateFormat() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.ConfirmPassword, validation.By(ValidateStringEquals(r.Password))),
	)
}

// UpdatePasswordRequest is the password update payload
type UpdatePasswordRequest struct {
	Password string `json:"password" form:"password"`
}

func (r UpdatePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
	)
}

// MessageResponse is the body of flows that only acknowledge
type MessageResponse struct {
	Message string `json:"message"`
}

func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
