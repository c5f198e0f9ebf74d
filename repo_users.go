package auth

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/uptrace/bun"
)

// ErrUserNotFound is returned by the users store when no row matches
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithCode(http.StatusNotFound).
	WithTextCode(TextCodeAccountNotFound)

type Users interface {
	UserStore

	FindByNumCINTx(ctx context.Context, tx bun.IDB, numcin string) (*User, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	AttachRole(ctx context.Context, userID, roleID uuid.UUID) error
	AttachRoleTx(ctx context.Context, tx bun.IDB, userID, roleID uuid.UUID) error
	UpdateAllPasswordsTx(ctx context.Context, tx bun.IDB, passwordHash string) (int64, error)
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, numcin, passwordHash string) error
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) FindByNumCIN(ctx context.Context, numcin string) (*User, error) {
	return a.FindByNumCINTx(ctx, a.db, numcin)
}

// FindByNumCINTx loads the user with its roles and each role's permissions
func (a *users) FindByNumCINTx(ctx context.Context, tx bun.IDB, numcin string) (*User, error) {
	user := &User{}
	err := tx.NewSelect().
		Model(user).
		Relation("Roles").
		Where("?TableAlias.numcin = ?", numcin).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err)
	}

	if err := a.loadPermissions(ctx, tx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (a *users) loadPermissions(ctx context.Context, tx bun.IDB, user *User) error {
	if len(user.Roles) == 0 {
		return nil
	}

	ids := lo.Map(user.Roles, func(r *Role, _ int) uuid.UUID {
		return r.ID
	})

	roles := make([]*Role, 0, len(ids))
	err := tx.NewSelect().
		Model(&roles).
		Relation("Permissions").
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return err
	}

	// keep the order the roles were loaded in
	byID := lo.KeyBy(roles, func(r *Role) uuid.UUID {
		return r.ID
	})
	for i, r := range user.Roles {
		if full, ok := byID[r.ID]; ok {
			user.Roles[i] = full
		}
	}

	return nil
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

// FindByEmailTx loads the user with its roles, permissions are not loaded
func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	user := &User{}
	err := tx.NewSelect().
		Model(user).
		Relation("Roles").
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return user, nil
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.ExistsByEmailTx(ctx, a.db, email)
}

func (a *users) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Exists(ctx)
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

func (a *users) AttachRole(ctx context.Context, userID, roleID uuid.UUID) error {
	return a.AttachRoleTx(ctx, a.db, userID, roleID)
}

func (a *users) AttachRoleTx(ctx context.Context, tx bun.IDB, userID, roleID uuid.UUID) error {
	link := &UserToRole{
		UserID: userID,
		RoleID: roleID,
	}
	_, err := tx.NewInsert().
		Model(link).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return err
}

func (a *users) UpdateAllPasswords(ctx context.Context, passwordHash string) (int64, error) {
	return a.UpdateAllPasswordsTx(ctx, a.db, passwordHash)
}

// UpdateAllPasswordsTx writes the hash to every user that has a numcin
func (a *users) UpdateAllPasswordsTx(ctx context.Context, tx bun.IDB, passwordHash string) (int64, error) {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.numcin IS NOT NULL").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (a *users) UpdatePassword(ctx context.Context, numcin, passwordHash string) error {
	return a.UpdatePasswordTx(ctx, a.db, numcin, passwordHash)
}

func (a *users) UpdatePasswordTx(ctx context.Context, tx bun.IDB, numcin, passwordHash string) error {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.numcin = ?", numcin).
		Exec(ctx)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func notFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}
