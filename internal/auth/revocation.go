package auth

import (
	"context"
	"sync"
	"time"

	"github.com/classpulse/embedapi/internal/db/models"
	"github.com/classpulse/embedapi/internal/repository"
)

// Registry is the token revocation denylist. Revoke must be immediately
// effective: once it returns, no Validate call may accept the jti again.
// Implementations must be safe for concurrent use.
type Registry interface {
	Revoke(ctx context.Context, jti, subject string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRegistry is a mutex-protected in-process registry, keyed by jti and
// indexed by the token's natural expiry so entries never outlive the token
// they ban. Suitable for single-instance deployments; multi-instance
// deployments want the database-backed registry instead.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> token expiry

	// now is swappable for tests
	now func() time.Time
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke adds a jti to the registry. Idempotent.
func (r *MemoryRegistry) Revoke(_ context.Context, jti, _ string, exp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[jti] = exp
	return nil
}

// IsRevoked reports whether a jti is on the denylist. Entries past the
// token's own expiry read as not-revoked; the expiry check rejects such
// tokens regardless.
func (r *MemoryRegistry) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.RLock()
	exp, ok := r.entries[jti]
	r.mu.RUnlock()
	return ok && r.now().Before(exp), nil
}

// Sweep removes entries whose underlying token has expired. Run it
// periodically; without it the registry grows for the process lifetime.
func (r *MemoryRegistry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for jti, exp := range r.entries {
		if !now.Before(exp) {
			delete(r.entries, jti)
			removed++
		}
	}
	return removed
}

// Len reports the current number of entries. Exposed for the sweeper's
// logging and for tests.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// StoreRegistry is a Registry backed by the revoked_jti table, for
// deployments running more than one API instance against a shared database.
type StoreRegistry struct {
	repo repository.RevokedJTIRepository
}

// NewStoreRegistry wraps a RevokedJTIRepository as a Registry.
func NewStoreRegistry(repo repository.RevokedJTIRepository) *StoreRegistry {
	return &StoreRegistry{repo: repo}
}

// Revoke inserts the jti into the denylist table.
func (r *StoreRegistry) Revoke(ctx context.Context, jti, subject string, exp time.Time) error {
	return r.repo.Create(ctx, &models.RevokedJTI{
		JTI:       jti,
		Subject:   subject,
		Exp:       exp,
		RevokedAt: time.Now(),
	})
}

// IsRevoked checks the denylist table.
func (r *StoreRegistry) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return r.repo.IsRevoked(ctx, jti)
}
