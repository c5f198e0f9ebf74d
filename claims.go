package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/lo"
)

// ClaimBundle holds the role and permission names derived for a single
// authentication event. It is never persisted.
type ClaimBundle struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// DeriveClaims collects the user's role names and the deduplicated union
// of every permission reachable through those roles. The user must have
// its roles and their permissions already loaded.
func DeriveClaims(user *User) ClaimBundle {
	if user == nil || len(user.Roles) == 0 {
		return ClaimBundle{
			Roles:       []string{},
			Permissions: []string{},
		}
	}

	perRole := lo.Map(user.Roles, func(r *Role, _ int) []string {
		return r.PermissionNames()
	})

	return ClaimBundle{
		Roles:       user.RoleNames(),
		Permissions: Unique(Flatten[string](perRole)),
	}
}

// HasRole reports whether name is one of the bundle roles
func (b ClaimBundle) HasRole(name string) bool {
	return lo.Contains(b.Roles, name)
}

// Can reports whether permission was granted by any role
func (b ClaimBundle) Can(permission string) bool {
	return lo.Contains(b.Permissions, permission)
}

// LoginClaims are embedded in the token returned by login
type LoginClaims struct {
	jwt.RegisteredClaims
	NumCIN      string   `json:"numcin"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Bundle returns the role and permission claims as a ClaimBundle
func (c *LoginClaims) Bundle() ClaimBundle {
	return ClaimBundle{
		Roles:       c.Roles,
		Permissions: c.Permissions,
	}
}

// Identifier returns the numcin the token was issued for
func (c *LoginClaims) Identifier() string {
	return c.NumCIN
}

// HasRole reports whether the token carries role
func (c *LoginClaims) HasRole(role string) bool {
	return c.Bundle().HasRole(role)
}

// Can reports whether the token carries permission
func (c *LoginClaims) Can(permission string) bool {
	return c.Bundle().Can(permission)
}

// Expires returns the expiration time, zero when the token never expires
func (c *LoginClaims) Expires() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// ResetClaims are embedded in the access token returned by forgot password
type ResetClaims struct {
	jwt.RegisteredClaims
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}
