// Package database opens the bun connection for the configured driver.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	auth "github.com/fahoumeabdelali/cfpnc-auth"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns a bun DB for driver ("sqlite" or "postgres") with the auth
// models registered. debug logs every query.
func Open(driver, dsn string, debug bool) (*bun.DB, error) {
	var db *bun.DB

	switch driver {
	case DriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, err
		}
		// sqlite does not handle concurrent writers
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())

		if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			_ = db.Close()
			return nil, err
		}
	case DriverPostgres:
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	auth.RegisterModels(db)

	return db, nil
}
