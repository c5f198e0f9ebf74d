package auth

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateSchema creates the users, roles and permissions tables and their
// join tables when they do not exist yet
func CreateSchema(ctx context.Context, db *bun.DB) error {
	RegisterModels(db)

	if _, err := db.NewCreateTable().Model((*User)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}

	if _, err := db.NewCreateTable().Model((*Role)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}

	if _, err := db.NewCreateTable().Model((*Permission)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}

	if _, err := db.NewCreateTable().
		Model((*UserToRole)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		ForeignKey(`("role_id") REFERENCES "roles" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return err
	}

	if _, err := db.NewCreateTable().
		Model((*RoleToPermission)(nil)).
		IfNotExists().
		ForeignKey(`("role_id") REFERENCES "roles" ("id") ON DELETE CASCADE`).
		ForeignKey(`("permission_id") REFERENCES "permissions" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return err
	}

	return nil
}

// SeedRoles makes sure every role and permission in grants exists and
// that each role is linked to its permissions. It is idempotent.
func SeedRoles(ctx context.Context, db *bun.DB, grants map[string][]string) error {
	RegisterModels(db)

	names := make([]string, 0, len(grants))
	for name := range grants {
		names = append(names, name)
	}
	sort.Strings(names)

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, name := range names {
			role := &Role{}
			if err := getOrCreateNamed(ctx, tx, role, name, func(id uuid.UUID) any {
				return &Role{ID: id, Name: name}
			}); err != nil {
				return err
			}

			for _, pname := range grants[name] {
				perm := &Permission{}
				if err := getOrCreateNamed(ctx, tx, perm, pname, func(id uuid.UUID) any {
					return &Permission{ID: id, Name: pname}
				}); err != nil {
					return err
				}

				link := &RoleToPermission{RoleID: role.ID, PermissionID: perm.ID}
				if _, err := tx.NewInsert().Model(link).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func getOrCreateNamed(ctx context.Context, tx bun.IDB, dest any, name string, build func(uuid.UUID) any) error {
	if _, err := tx.NewInsert().
		Model(build(uuid.New())).
		On("CONFLICT DO NOTHING").
		Exec(ctx); err != nil {
		return err
	}

	return tx.NewSelect().
		Model(dest).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)
}
