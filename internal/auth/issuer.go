package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/classpulse/embedapi/internal/config"
	"github.com/classpulse/embedapi/internal/repository"
)

// bcryptCost matches the cost used by the users CLI when hashing passwords.
const bcryptCost = 12

// Issuer authenticates users against their stored bcrypt hash and mints
// signed credentials on success.
type Issuer struct {
	users repository.UserRepository
	cfg   config.JWTConfig

	// dummyHash is compared against when the email lookup misses, so a
	// miss costs the same bcrypt work as a mismatch. Without it the
	// response latency would reveal whether the email exists.
	dummyHash []byte

	// now is swappable for tests
	now func() time.Time
}

// NewIssuer constructs an Issuer. The dummy hash is generated once up front;
// bcrypt at cost 12 is too expensive to redo per request.
func NewIssuer(users repository.UserRepository, cfg config.JWTConfig) (*Issuer, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &Issuer{
		users:     users,
		cfg:       cfg,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

// Issue verifies the presented password against the stored hash and returns
// a signed token asserting the user's identity and role, along with the
// claims it carries. Every failure mode surfaces as ErrInvalidCredentials;
// the distinction is logged internally only.
func (i *Issuer) Issue(ctx context.Context, email, password string) (string, *Claims, error) {
	user, err := i.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, fmt.Errorf("look up user: %w", err)
		}
		// Burn the same bcrypt work as the found path before failing.
		_ = bcrypt.CompareHashAndPassword(i.dummyHash, []byte(password))
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if user.DisabledAt != nil {
		log.Printf("login rejected for disabled account %s", user.ID)
		return "", nil, ErrInvalidCredentials
	}

	token, claims, err := i.mint(user.ID, user.Email, user.Role, user.RegistrationID)
	if err != nil {
		return "", nil, err
	}

	if err := i.users.TouchLastLogin(ctx, user.ID); err != nil {
		// Not worth failing the login over.
		log.Printf("warning: could not record last login for %s: %v", user.ID, err)
	}

	return token, claims, nil
}

// mint builds and signs the credential. Each token gets a fresh jti so it
// can be revoked independently of any other token held by the same user.
func (i *Issuer) mint(subject, email, role string, registrationID *string) (string, *Claims, error) {
	now := i.now()

	claims := &Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.TTL)),
		},
	}
	if registrationID != nil {
		claims.RegistrationID = *registrationID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// HashPassword hashes a plaintext password for storage. Used by the users
// CLI; the API itself never stores passwords.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
