package auth

import (
	"net/http"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeMissingCredentials = "MISSING_CREDENTIALS"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	TextCodeMissingData        = "MISSING_DATA"
	TextCodeEmailTaken         = "EMAIL_TAKEN"
	TextCodeRoleNotFound       = "ROLE_NOT_FOUND"
	TextCodePasswordsMismatch  = "PASSWORDS_MISMATCH"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeDataParseError     = "DATA_PARSE_ERROR"
)

// NewAuthenticationError builds the single error kind every flow returns:
// a message plus the HTTP status the caller should see.
func NewAuthenticationError(message string, status int) *errors.Error {
	return errors.New(message, categoryForStatus(status)).WithCode(status)
}

func categoryForStatus(status int) errors.Category {
	switch status {
	case http.StatusBadRequest:
		return errors.CategoryBadInput
	case http.StatusUnauthorized:
		return errors.CategoryAuth
	case http.StatusForbidden:
		return errors.CategoryAuthz
	case http.StatusNotFound:
		return errors.CategoryNotFound
	case http.StatusConflict:
		return errors.CategoryConflict
	case http.StatusTooManyRequests:
		return errors.CategoryRateLimit
	default:
		return errors.CategoryInternal
	}
}

// ErrBadCredentials login without numcin or password
var ErrBadCredentials = NewAuthenticationError("Bad numcin or password", http.StatusBadRequest).
	WithTextCode(TextCodeMissingCredentials)

// ErrAccountNotFound login for an unknown numcin
var ErrAccountNotFound = NewAuthenticationError("This account does not exist !", http.StatusNotFound).
	WithTextCode(TextCodeAccountNotFound)

// ErrMismatchedHashAndPassword wrong password
var ErrMismatchedHashAndPassword = NewAuthenticationError("Password wrong", http.StatusUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrBadEmail forgot password without email
var ErrBadEmail = NewAuthenticationError("Bad email", http.StatusBadRequest).
	WithTextCode(TextCodeMissingData)

// ErrEmailAccountNotFound forgot password for an unknown email
var ErrEmailAccountNotFound = NewAuthenticationError("This account does not exists !", http.StatusNotFound).
	WithTextCode(TextCodeAccountNotFound)

// ErrMissingData registration or password update with missing fields
var ErrMissingData = NewAuthenticationError("Missing Data", http.StatusBadRequest).
	WithTextCode(TextCodeMissingData)

// ErrPasswordsMismatch password and confirmation differ
var ErrPasswordsMismatch = NewAuthenticationError("Passwords do not match", http.StatusBadRequest).
	WithTextCode(TextCodePasswordsMismatch)

// ErrInvalidEmail registration with a malformed email
var ErrInvalidEmail = NewAuthenticationError("Invalid email", http.StatusBadRequest).
	WithTextCode(TextCodeMissingData)

var ErrEmailTaken = NewAuthenticationError("email already exists !", http.StatusConflict).
	WithTextCode(TextCodeEmailTaken)

var ErrRoleNotFound = NewAuthenticationError("This role does not exists !", http.StatusNotFound).
	WithTextCode(TextCodeRoleNotFound)

// ErrNoEmptyString hashing an empty password
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(http.StatusBadRequest).
	WithTextCode(TextCodeEmptyPassword)

var ErrTokenExpired = NewAuthenticationError("token is expired", http.StatusUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrMissingToken a protected flow was reached without a verified token
var ErrMissingToken = NewAuthenticationError("missing or malformed JWT", http.StatusUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

var ErrTokenMalformed = NewAuthenticationError("token is malformed", http.StatusUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrUnableToParseData request body could not be decoded
var ErrUnableToParseData = NewAuthenticationError("unable to parse data", http.StatusBadRequest).
	WithTextCode(TextCodeDataParseError)

// internalError wraps an unexpected collaborator failure so the
// centralized handler renders it as a 500
func internalError(err error, message string) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}
	return errors.Wrap(err, errors.CategoryInternal, message).WithCode(http.StatusInternalServerError)
}
