package repository

import (
	"context"
	"time"

	"github.com/classpulse/embedapi/internal/db/models"
)

// UserRepository exposes persistence operations for portal accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id string) error
}

// RevokedJTIRepository exposes the persistent token revocation denylist.
type RevokedJTIRepository interface {
	Create(ctx context.Context, revokedJTI *models.RevokedJTI) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context, gracePeriod time.Duration) error
}
