package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

const (
	// AudienceLogin marks tokens issued by login, the only ones Validate accepts
	AudienceLogin = "login"
	// AudienceReset marks forgot password access tokens
	AudienceReset = "reset"
)

// TokenService signs and validates the tokens issued by the auth flows
type TokenService interface {
	SignLogin(user *User, bundle ClaimBundle, extended bool) (string, error)
	SignReset(user *User) (string, error)
	Validate(tokenString string) (*LoginClaims, error)
}

// TokenServiceImpl implements TokenService with HS256
type TokenServiceImpl struct {
	signingKey       []byte
	issuer           string
	loginDuration    time.Duration
	extendedDuration time.Duration
	resetDuration    time.Duration
	logger           Logger
	now              func() time.Time
}

// NewTokenService creates a TokenService from configuration. A zero
// duration means the token carries no exp claim.
func NewTokenService(cfg Config, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}

	extended := cfg.GetExtendedTokenDuration()
	if extended == 0 {
		extended = cfg.GetTokenExpiration()
	}

	return &TokenServiceImpl{
		signingKey:       []byte(cfg.GetSigningKey()),
		issuer:           cfg.GetIssuer(),
		loginDuration:    cfg.GetTokenExpiration(),
		extendedDuration: extended,
		resetDuration:    cfg.GetResetTokenExpiration(),
		logger:           logger,
		now:              time.Now,
	}
}

// SignLogin issues the login token carrying numcin, roles and permissions
func (ts *TokenServiceImpl) SignLogin(user *User, bundle ClaimBundle, extended bool) (string, error) {
	if user == nil {
		return "", errors.New("user must not be nil", errors.CategoryInternal)
	}

	ttl := ts.loginDuration
	if extended {
		ttl = ts.extendedDuration
	}

	claims := &LoginClaims{
		RegisteredClaims: ts.registered(user.NumCIN, AudienceLogin, ttl),
		NumCIN:           user.NumCIN,
		Roles:            bundle.Roles,
		Permissions:      bundle.Permissions,
	}

	return ts.sign(claims)
}

// SignReset issues the forgot password access token
func (ts *TokenServiceImpl) SignReset(user *User) (string, error) {
	if user == nil {
		return "", errors.New("user must not be nil", errors.CategoryInternal)
	}

	claims := &ResetClaims{
		RegisteredClaims: ts.registered(user.ID.String(), AudienceReset, ts.resetDuration),
		ID:               user.ID.String(),
		Name:             user.Name,
		Email:            user.Email,
		Roles:            user.RoleNames(),
	}

	return ts.sign(claims)
}

func (ts *TokenServiceImpl) registered(subject, audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := ts.now()
	rc := jwt.RegisteredClaims{
		Issuer:   ts.issuer,
		Subject:  subject,
		Audience: jwt.ClaimStrings{audience},
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		rc.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return rc
}

func (ts *TokenServiceImpl) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", internalError(err, "failed to sign JWT")
	}

	return signed, nil
}

// Validate parses a login token and returns its claims. Tokens of any
// other audience, reset tokens included, are rejected.
func (ts *TokenServiceImpl) Validate(tokenString string) (*LoginClaims, error) {
	parserOptions := []jwt.ParserOption{jwt.WithAudience(AudienceLogin)}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &LoginClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithCode(ErrTokenMalformed.Code).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*LoginClaims); ok && token.Valid && claims.NumCIN != "" {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode claims")
	return nil, ErrTokenMalformed
}
