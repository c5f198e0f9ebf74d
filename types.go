package auth

import (
	"context"
	"log/slog"
	"time"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	// GetTokenExpiration login token lifetime, zero for no expiration
	GetTokenExpiration() time.Duration
	// GetExtendedTokenDuration login token lifetime when remember is set
	GetExtendedTokenDuration() time.Duration
	// GetResetTokenExpiration forgot password token lifetime
	GetResetTokenExpiration() time.Duration
	GetBcryptCost() int
	GetPasswordUpdateScope() PasswordUpdateScope
}

// PasswordUpdateScope selects which principals a password update touches
type PasswordUpdateScope = string

const (
	// PasswordUpdateAll writes the new hash to every principal
	PasswordUpdateAll PasswordUpdateScope = "all"
	// PasswordUpdateSelf writes the new hash to the authenticated principal
	PasswordUpdateSelf PasswordUpdateScope = "self"
)

// UserStore is the persistence the auth flows need
type UserStore interface {
	FindByNumCIN(ctx context.Context, numcin string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateAllPasswords(ctx context.Context, passwordHash string) (int64, error)
	UpdatePassword(ctx context.Context, numcin, passwordHash string) error
}

// PasswordAuthenticator hashes and compares passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	slog.Debug("AUTH "+msg, args...)
}

func (d defLogger) Info(msg string, args ...any) {
	slog.Info("AUTH "+msg, args...)
}

func (d defLogger) Warn(msg string, args ...any) {
	slog.Warn("AUTH "+msg, args...)
}

func (d defLogger) Error(msg string, args ...any) {
	slog.Error("AUTH "+msg, args...)
}

// NopLogger discards everything, handy in tests
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
