package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of the tokens embedapi issues. The registered claims
// carry sub, jti, iss, aud, iat, and exp; the custom fields mirror the
// identity attributes stored on the user record at issuance time.
type Claims struct {
	Email          string `json:"email"`
	Role           string `json:"role"`
	RegistrationID string `json:"registrationId,omitempty"`

	jwt.RegisteredClaims
}

// Identity is the validated caller identity handed to downstream handlers.
// It is immutable for the lifetime of a request.
type Identity struct {
	Subject        string `json:"subject"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	RegistrationID string `json:"registrationId,omitempty"`
}

// Identity projects the claim set into the request-scoped identity.
func (c *Claims) Identity() Identity {
	return Identity{
		Subject:        c.Subject,
		Email:          c.Email,
		Role:           c.Role,
		RegistrationID: c.RegistrationID,
	}
}
