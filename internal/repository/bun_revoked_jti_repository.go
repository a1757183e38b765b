package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/classpulse/embedapi/internal/db/models"
)

// BunRevokedJTIRepository implements RevokedJTIRepository using Bun ORM
type BunRevokedJTIRepository struct {
	db *bun.DB
}

// NewBunRevokedJTIRepository creates a new Bun-based revoked JTI repository
func NewBunRevokedJTIRepository(db *bun.DB) *BunRevokedJTIRepository {
	return &BunRevokedJTIRepository{db: db}
}

// Create adds a JTI to the revocation denylist. Re-revoking the same JTI is
// a no-op rather than an error.
func (r *BunRevokedJTIRepository) Create(ctx context.Context, revokedJTI *models.RevokedJTI) error {
	_, err := r.db.NewInsert().
		Model(revokedJTI).
		On("CONFLICT (jti) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create revoked jti: %w", err)
	}
	return nil
}

// IsRevoked checks if a JTI exists in the revocation table
// Uses SELECT EXISTS pattern for efficient boolean check
func (r *BunRevokedJTIRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.RevokedJTI)(nil)).
		Where("jti = ?", jti).
		Exists(ctx)

	if err != nil {
		return false, fmt.Errorf("check revoked jti: %w", err)
	}

	return exists, nil
}

// DeleteExpired removes revoked JTIs where exp < now() - grace period.
// A revoked token past its own expiry can never become valid again, so the
// row is pure bloat.
func (r *BunRevokedJTIRepository) DeleteExpired(ctx context.Context, gracePeriod time.Duration) error {
	cutoffTime := time.Now().Add(-gracePeriod)

	_, err := r.db.NewDelete().
		Model((*models.RevokedJTI)(nil)).
		Where("exp < ?", cutoffTime).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete expired revoked jtis: %w", err)
	}
	return nil
}
