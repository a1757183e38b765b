package migrations

import (
	"context"
	"fmt"

	"github.com/classpulse/embedapi/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260312000002, down_20260312000002)
}

// up_20260312000002 creates the revoked_jti table for token revocation
func up_20260312000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating revoked_jti table...")

	_, err := db.NewCreateTable().
		Model((*models.RevokedJTI)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create revoked_jti table: %w", err)
	}

	// The sweeper deletes by exp; index it so cleanup stays cheap as the
	// table grows between sweeps.
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_revoked_jti_exp ON revoked_jti(exp)
	`)
	if err != nil {
		return fmt.Errorf("failed to create revoked_jti exp index: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260312000002 drops the revoked_jti table
func down_20260312000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping revoked_jti table...")

	_, err := db.NewDropTable().
		Model((*models.RevokedJTI)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop revoked_jti table: %w", err)
	}
	fmt.Println(" OK")

	return nil
}
