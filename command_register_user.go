package auth

import (
	"context"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	RegisterRequest
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates a user and links it to an existing role in
// a single transaction
type RegisterUserHandler struct {
	repo   RepositoryManager
	hasher PasswordAuthenticator
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager, hasher PasswordAuthenticator) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		hasher: hasher,
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	h.logger = logger
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return ErrMissingData
	}

	if err := event.ValidateFormat(); err != nil {
		if event.Password != event.ConfirmPassword {
			return ErrPasswordsMismatch
		}
		return ErrInvalidEmail
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := h.repo.Users().ExistsByEmailTx(ctx, tx, event.Email)
		if err != nil {
			return internalError(err, "failed to look up email")
		}
		if taken {
			h.logger.Info("register rejected, email taken", "email", event.Email)
			return ErrEmailTaken
		}

		role, err := h.repo.Roles().GetByNameTx(ctx, tx, event.Role)
		if err != nil {
			if isNotFound(err) {
				h.logger.Info("register rejected, unknown role", "role", event.Role)
				return ErrRoleNotFound
			}
			return internalError(err, "failed to look up role")
		}

		hash, err := h.hasher.HashPassword(event.Password)
		if err != nil {
			return err
		}

		user := &User{
			NumCIN:       event.NumCIN,
			Name:         event.Name,
			Email:        event.Email,
			PasswordHash: hash,
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user").
				WithCode(http.StatusConflict)
		}

		if err := h.repo.Users().AttachRoleTx(ctx, tx, user.ID, role.ID); err != nil {
			return internalError(err, "could not attach role to user")
		}

		return nil
	})

	if err != nil {
		return internalError(err, "user registration transaction failed")
	}

	return nil
}
