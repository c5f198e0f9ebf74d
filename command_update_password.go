package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

type UpdatePasswordMessage struct {
	UpdatePasswordRequest
	// NumCIN is the authenticated principal, only used by the self scope
	NumCIN string
}

func (e UpdatePasswordMessage) Type() string { return "user.password.update" }

// UpdatePasswordHandler hashes the new password once and stores it.
// With the all scope the same hash is written to every principal that has
// a numcin, matching how the legacy API behaved.
type UpdatePasswordHandler struct {
	users  UserStore
	hasher PasswordAuthenticator
	scope  PasswordUpdateScope
	logger Logger
}

func NewUpdatePasswordHandler(users UserStore, hasher PasswordAuthenticator, scope PasswordUpdateScope) *UpdatePasswordHandler {
	if scope == "" {
		scope = PasswordUpdateAll
	}
	return &UpdatePasswordHandler{
		users:  users,
		hasher: hasher,
		scope:  scope,
		logger: defLogger{},
	}
}

func (h *UpdatePasswordHandler) WithLogger(logger Logger) *UpdatePasswordHandler {
	h.logger = logger
	return h
}

// Scope returns the configured update scope
func (h *UpdatePasswordHandler) Scope() PasswordUpdateScope {
	return h.scope
}

func (h *UpdatePasswordHandler) Execute(ctx context.Context, event UpdatePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdatePasswordHandler) execute(ctx context.Context, event UpdatePasswordMessage) error {
	if err := event.Validate(); err != nil {
		return ErrMissingData
	}

	if h.scope == PasswordUpdateSelf && event.NumCIN == "" {
		return ErrMissingToken
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		return err
	}

	if h.scope == PasswordUpdateSelf {
		if err := h.users.UpdatePassword(ctx, event.NumCIN, hash); err != nil {
			if isNotFound(err) {
				return ErrAccountNotFound
			}
			return internalError(err, "failed to update password")
		}
		return nil
	}

	n, err := h.users.UpdateAllPasswords(ctx, hash)
	if err != nil {
		return internalError(err, "failed to update passwords")
	}

	h.logger.Warn("password update applied to every principal", "rows", n)

	return nil
}
