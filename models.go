package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/uptrace/bun"
)

// User is the authenticating principal, identified by its national ID
// card number (numcin)
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	NumCIN        string     `bun:"numcin,nullzero,unique" json:"numcin,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Roles         []*Role    `bun:"m2m:user_roles,join:User=Role" json:"roles,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Role groups permissions, name is unique
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID     `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Name          string        `bun:"name,notnull,unique" json:"name"`
	Permissions   []*Permission `bun:"m2m:role_permissions,join:Role=Permission" json:"permissions,omitempty"`
}

// Permission is a named capability granted through roles
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:prm"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Name          string    `bun:"name,notnull,unique" json:"name"`
}

// UserToRole is the users <-> roles join table
type UserToRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id"`
	RoleID        uuid.UUID `bun:"role_id,pk,type:uuid"`
	Role          *Role     `bun:"rel:belongs-to,join:role_id=id"`
}

// RoleToPermission is the roles <-> permissions join table
type RoleToPermission struct {
	bun.BaseModel `bun:"table:role_permissions,alias:rp"`
	RoleID        uuid.UUID   `bun:"role_id,pk,type:uuid"`
	Role          *Role       `bun:"rel:belongs-to,join:role_id=id"`
	PermissionID  uuid.UUID   `bun:"permission_id,pk,type:uuid"`
	Permission    *Permission `bun:"rel:belongs-to,join:permission_id=id"`
}

var registeredDBs sync.Map

// RegisterModels registers the join models once per db, bun needs them
// before any m2m relation is queried
func RegisterModels(db *bun.DB) {
	if _, loaded := registeredDBs.LoadOrStore(db, struct{}{}); loaded {
		return
	}
	db.RegisterModel((*UserToRole)(nil), (*RoleToPermission)(nil))
}

// RoleNames returns the names of the user's roles in order
func (u *User) RoleNames() []string {
	if u == nil {
		return []string{}
	}
	return lo.FilterMap(u.Roles, func(r *Role, _ int) (string, bool) {
		if r == nil {
			return "", false
		}
		return r.Name, true
	})
}

// PermissionNames returns the names of the role's permissions in order
func (r *Role) PermissionNames() []string {
	if r == nil {
		return []string{}
	}
	return lo.FilterMap(r.Permissions, func(p *Permission, _ int) (string, bool) {
		if p == nil {
			return "", false
		}
		return p.Name, true
	})
}
