package auth

import (
	"context"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the verified token claims in the given context
func WithClaimsContext(r context.Context, claims *LoginClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the token claims from the standard context
func GetClaims(ctx context.Context) (*LoginClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*LoginClaims)
	return raw, ok && raw != nil
}

// Can is a convenience function to check a permission directly from the
// standard context
func Can(ctx context.Context, permission string) bool {
	claims, ok := GetClaims(ctx)
	if !ok {
		return false
	}
	return claims.Can(permission)
}

// actorFromContext returns the numcin of the authenticated caller, empty
// for anonymous requests
func actorFromContext(ctx context.Context) string {
	if claims, ok := GetClaims(ctx); ok {
		return claims.Identifier()
	}
	return ""
}
