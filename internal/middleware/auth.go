package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"qms/internal/auth"
	"qms/internal/domain"
	"qms/internal/httputil"
)

// Auth verifies the bearer token and puts the caller's identity on the
// request context. Paths in public skip verification.
func Auth(verifier auth.TokenVerifier, logger *slog.Logger, public ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(public))
	for _, p := range public {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				httputil.RespondProblem(w, http.StatusUnauthorized, domain.KindUnauthorized, "missing bearer token")
				return
			}

			identity, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("authentication failed",
					"path", r.URL.Path,
					"request_id", httputil.RequestID(r.Context()),
				)
				httputil.RespondProblem(w, http.StatusUnauthorized, domain.KindUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithIdentity(r, identity))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
