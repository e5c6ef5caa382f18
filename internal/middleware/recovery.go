package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"qms/internal/domain"
	"qms/internal/httputil"
)

// Recovery middleware recovers from panics and returns a 500 error
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"method", r.Method,
						"request_id", httputil.RequestID(r.Context()),
						"stack", string(debug.Stack()),
					)

					httputil.RespondProblem(w, http.StatusInternalServerError, domain.KindInternal, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
