package auth

import "errors"

var (
	// ErrInvalidCredentials is returned on login failure. It deliberately
	// covers both "unknown email" and "wrong password" so callers cannot
	// distinguish the two.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenInvalid is returned when a presented token fails signature,
	// issuer, audience, or structural checks.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired is returned when a presented token is past its exp claim.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked is returned when a token's jti is on the revocation denylist.
	ErrTokenRevoked = errors.New("token revoked")
)
