package auth

import "qms/internal/domain/models"

// TokenVerifier turns a bearer token into the caller's identity.
// Implementations return domain.ErrUnauthorized for any rejected token.
type TokenVerifier interface {
	VerifyToken(tokenString string) (models.Identity, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}
