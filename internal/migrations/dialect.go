package migrations

import (
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// IsPostgreSQL reports whether the migration runs against Postgres, for
// statements that differ between the Postgres and SQLite schemas.
func IsPostgreSQL(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.PG
}
