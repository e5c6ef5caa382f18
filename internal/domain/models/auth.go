package models

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SupabaseClaims represents the JWT claims structure from Supabase Auth.
// See: https://supabase.com/docs/guides/auth/jwts
type SupabaseClaims struct {
	jwt.RegisteredClaims                        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string                 `json:"email"`
	AppMetadata          map[string]interface{} `json:"app_metadata"`
	UserMetadata         map[string]interface{} `json:"user_metadata"`
	Role                 string                 `json:"role"` // "authenticated" or "anon"
	SessionID            string                 `json:"session_id"`
	IsAnonymous          bool                   `json:"is_anonymous"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}

// DisplayName picks the friendliest name available in the token.
func (c *SupabaseClaims) DisplayName() string {
	for _, key := range []string{"full_name", "name"} {
		if v, ok := c.UserMetadata[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if c.Email != "" {
		return c.Email
	}
	return c.Subject
}

// Identity is the caller as supplied by the auth provider. Workflow
// operations trust it without further verification.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// IdentityFromClaims converts verified claims into an Identity.
func IdentityFromClaims(c *SupabaseClaims) Identity {
	return Identity{UserID: c.GetUserID(), Name: c.DisplayName()}
}
