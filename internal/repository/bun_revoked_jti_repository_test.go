package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/embedapi/internal/db/models"
)

func TestBunRevokedJTIRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunRevokedJTIRepository(db)
	ctx := context.Background()

	t.Run("revoke and check", func(t *testing.T) {
		entry := &models.RevokedJTI{
			JTI:       "jti-1",
			Subject:   "user-1",
			Exp:       time.Now().Add(time.Hour),
			RevokedAt: time.Now(),
		}
		require.NoError(t, repo.Create(ctx, entry))

		revoked, err := repo.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = repo.IsRevoked(ctx, "jti-other")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		entry := &models.RevokedJTI{
			JTI:       "jti-2",
			Subject:   "user-1",
			Exp:       time.Now().Add(time.Hour),
			RevokedAt: time.Now(),
		}
		require.NoError(t, repo.Create(ctx, entry))
		require.NoError(t, repo.Create(ctx, entry))

		revoked, err := repo.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("delete expired sweeps only dead entries", func(t *testing.T) {
		expired := &models.RevokedJTI{
			JTI:       "jti-expired",
			Subject:   "user-2",
			Exp:       time.Now().Add(-2 * time.Hour),
			RevokedAt: time.Now().Add(-3 * time.Hour),
		}
		live := &models.RevokedJTI{
			JTI:       "jti-live",
			Subject:   "user-2",
			Exp:       time.Now().Add(time.Hour),
			RevokedAt: time.Now(),
		}
		require.NoError(t, repo.Create(ctx, expired))
		require.NoError(t, repo.Create(ctx, live))

		require.NoError(t, repo.DeleteExpired(ctx, time.Hour))

		revoked, err := repo.IsRevoked(ctx, "jti-expired")
		require.NoError(t, err)
		assert.False(t, revoked, "expired entry should be swept")

		revoked, err = repo.IsRevoked(ctx, "jti-live")
		require.NoError(t, err)
		assert.True(t, revoked, "live entry must survive the sweep")
	})
}
