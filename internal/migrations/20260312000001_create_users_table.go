package migrations

import (
	"context"
	"fmt"

	"github.com/classpulse/embedapi/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260312000001, down_20260312000001)
}

// up_20260312000001 creates the users table with a case-insensitive unique
// email index
func up_20260312000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating users table...")

	_, err := db.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	// Logins look users up by email; make the index case-insensitive so
	// Alice@example.com and alice@example.com cannot coexist.
	if IsPostgreSQL(db) {
		_, err = db.Exec(`
			CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (lower(email))
		`)
	} else {
		_, err = db.Exec(`
			CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_nocase ON users (email COLLATE NOCASE)
		`)
	}
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260312000001 drops the users table
func down_20260312000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping users table...")

	_, err := db.NewDropTable().
		Model((*models.User)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop users table: %w", err)
	}
	fmt.Println(" OK")

	return nil
}
