package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/classpulse/embedapi/internal/config"
)

// Validator verifies presented credentials: signature first, then issuer,
// audience, and expiry, and finally the revocation denylist. The jti is
// only looked up in the registry after the signature has been verified,
// since claims from an unverified token are attacker-controlled input.
type Validator struct {
	registry Registry
	cfg      config.JWTConfig
	parser   *jwt.Parser
}

// NewValidator constructs a Validator bound to a signing config and a
// revocation registry.
func NewValidator(registry Registry, cfg config.JWTConfig) *Validator {
	return &Validator{
		registry: registry,
		cfg:      cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
		),
	}
}

// Validate checks a raw token string and returns its claims.
// Fails with ErrTokenInvalid, ErrTokenExpired, or ErrTokenRevoked.
func (v *Validator) Validate(ctx context.Context, raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrTokenInvalid
	}

	claims := new(Claims)
	_, err := v.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(v.cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	// Signature verified; the claims can be trusted from here on.
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti claim", ErrTokenInvalid)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrTokenInvalid)
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("%w: missing role claim", ErrTokenInvalid)
	}

	revoked, err := v.registry.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}
