package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Auther runs the credential flows: login, forgot password, registration
// and password update
type Auther struct {
	users          UserStore
	hasher         PasswordAuthenticator
	tokenService   TokenService
	registerUser   *RegisterUserHandler
	updatePassword *UpdatePasswordHandler
	activity       ActivitySink
	logger         Logger
}

// NewAuthenticator returns a new Auther backed by repo
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	hasher := BcryptHasher{Cost: opts.GetBcryptCost()}
	logger := Logger(defLogger{})

	return &Auther{
		users:          repo.Users(),
		hasher:         hasher,
		tokenService:   NewTokenService(opts, logger),
		registerUser:   NewRegisterUserHandler(repo, hasher),
		updatePassword: NewUpdatePasswordHandler(repo.Users(), hasher, opts.GetPasswordUpdateScope()),
		activity:       noopActivitySink{},
		logger:         logger,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.registerUser.WithLogger(logger)
	s.updatePassword.WithLogger(logger)
	return s
}

// WithUserStore replaces the store used by login, forgot password and
// password update
func (s *Auther) WithUserStore(users UserStore) *Auther {
	s.users = users
	s.updatePassword.users = users
	return s
}

// WithActivitySink sets the sink that receives credential flow events
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activity = normalizeActivitySink(sink)
	return s
}

// WithTokenService replaces the token service
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	s.tokenService = ts
	return s
}

// TokenService returns the TokenService instance used by this Auther
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// PasswordUpdateScope returns the configured password update scope
func (s *Auther) PasswordUpdateScope() PasswordUpdateScope {
	return s.updatePassword.Scope()
}

// Login verifies numcin and password and issues a token carrying the
// principal's roles and flattened permissions
func (s *Auther) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, ErrBadCredentials
	}

	user, err := s.users.FindByNumCIN(ctx, req.NumCIN)
	if err != nil {
		if isNotFound(err) {
			s.logger.Info("Login unknown account", "numcin", req.NumCIN)
			s.record(ctx, ActivityEventLoginFailure, req.NumCIN, map[string]any{"reason": "account_not_found"})
			return nil, ErrAccountNotFound
		}
		s.logger.Error("Login lookup error", "error", err)
		return nil, internalError(err, "failed to retrieve user during login")
	}

	if err := s.hasher.ComparePasswordAndHash(req.Password, user.PasswordHash); err != nil {
		s.logger.Info("Login verify password failed", "numcin", req.NumCIN)
		s.record(ctx, ActivityEventLoginFailure, req.NumCIN, map[string]any{"reason": "password_mismatch"})
		return nil, err
	}

	bundle := DeriveClaims(user)

	token, err := s.tokenService.SignLogin(user, bundle, req.Remember)
	if err != nil {
		s.logger.Error("Login sign token error", "error", err)
		return nil, err
	}

	s.record(ctx, ActivityEventLoginSuccess, user.NumCIN, map[string]any{
		"remember": req.Remember,
		"roles":    bundle.Roles,
	})

	return &LoginResponse{
		Token:       token,
		NumCIN:      user.NumCIN,
		Roles:       bundle.Roles,
		Permissions: bundle.Permissions,
	}, nil
}

// ForgotPassword looks the user up by email and returns it with a short
// lived access token
func (s *Auther) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*ForgotPasswordResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, ErrBadEmail
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEmailAccountNotFound
		}
		s.logger.Error("ForgotPassword lookup error", "error", err)
		return nil, internalError(err, "failed to retrieve user for password reset")
	}

	token, err := s.tokenService.SignReset(user)
	if err != nil {
		return nil, err
	}

	s.record(ctx, ActivityEventPasswordForgot, user.NumCIN, map[string]any{"user_id": user.ID.String()})

	return &ForgotPasswordResponse{
		User:        user,
		AccessToken: token,
	}, nil
}

// Register creates a new user with the requested role
func (s *Auther) Register(ctx context.Context, req RegisterRequest) (*MessageResponse, error) {
	if err := s.registerUser.Execute(ctx, RegisterUserMessage{RegisterRequest: req}); err != nil {
		return nil, err
	}
	s.record(ctx, ActivityEventUserRegistered, req.NumCIN, map[string]any{"role": req.Role})
	return &MessageResponse{Message: "User Created"}, nil
}

// UpdatePassword stores a new password hash. numcin is the authenticated
// principal and is only required by the self scope.
func (s *Auther) UpdatePassword(ctx context.Context, req UpdatePasswordRequest, numcin string) (*MessageResponse, error) {
	msg := UpdatePasswordMessage{
		UpdatePasswordRequest: req,
		NumCIN:                numcin,
	}
	if err := s.updatePassword.Execute(ctx, msg); err != nil {
		return nil, err
	}
	s.record(ctx, ActivityEventPasswordsUpdated, numcin, map[string]any{"scope": s.updatePassword.Scope()})
	return &MessageResponse{Message: "User Updated"}, nil
}

// record forwards an event to the activity sink, failures are only logged
func (s *Auther) record(ctx context.Context, eventType ActivityEventType, numcin string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actorFromContext(ctx),
		NumCIN:     numcin,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink failed", "event", eventType, "error", err)
	}
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, sql.ErrNoRows) ||
		repository.IsRecordNotFound(err)
}
