package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User represents a portal account. Accounts are provisioned out of band
// (users CLI); the API only authenticates against them.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             string     `bun:"id,pk,type:uuid"`
	Email          string     `bun:"email,notnull,unique"`
	PasswordHash   string     `bun:"password_hash,notnull"` // bcrypt hash
	Role           string     `bun:"role,notnull"`          // portal role, e.g. "teacher" or "student"
	RegistrationID *string    `bun:"registration_id"`       // optional enrollment identifier
	CreatedAt      time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	LastLoginAt    *time.Time `bun:"last_login_at"`
	DisabledAt     *time.Time `bun:"disabled_at"`
}

// RevokedJTI tracks revoked JWT tokens by their JTI claim for denylist-based
// revocation. Rows past the token's own expiry are dead weight and are swept
// by DeleteExpired.
type RevokedJTI struct {
	bun.BaseModel `bun:"table:revoked_jti,alias:rjti"`

	JTI       string    `bun:"jti,pk"`                                       // JWT ID (jti claim from token)
	Subject   string    `bun:"subject,notnull"`                              // Subject (sub claim) of the revoked token
	Exp       time.Time `bun:"exp,notnull"`                                  // Token expiration time (for cleanup)
	RevokedAt time.Time `bun:"revoked_at,notnull,default:current_timestamp"` // When the token was revoked
}
