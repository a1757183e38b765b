package auth

import "context"

type claimsContextKey struct{}

// SetClaimsContext stores the validated claim set on the request context.
// Only the authentication middleware should call this; everything after it
// in the pipeline may trust the stored claims.
func SetClaimsContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext retrieves the validated claim set from the context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok && claims != nil
}

// IdentityFromContext retrieves the authenticated caller identity from the
// context. Returns false when the request never passed validation.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return Identity{}, false
	}
	return claims.Identity(), true
}
