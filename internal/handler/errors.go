package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"qms/internal/domain"
	"qms/internal/httputil"
)

// handleError converts domain errors to problem+json responses with a kind
func handleError(w http.ResponseWriter, err error) {
	var httpErr domain.HTTPError
	var storageErr *domain.StorageError

	status := http.StatusInternalServerError
	detail := "internal server error"

	switch {
	case errors.Is(err, domain.ErrValidation):
		status, detail = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, detail = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status, detail = http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		status, detail = http.StatusForbidden, err.Error()
	case errors.As(err, &storageErr):
		// Backend messages stay in the logs
		slog.Error("storage failure", "op", storageErr.Op, "error", storageErr.Err)
		status, detail = http.StatusServiceUnavailable, "storage unavailable: "+storageErr.Op
	case errors.As(err, &httpErr):
		status, detail = httpErr.StatusCode(), httpErr.Error()
	case errors.Is(err, domain.ErrConflict):
		status, detail = http.StatusConflict, err.Error()
	default:
		slog.Error("unhandled error", "error", err)
	}

	httputil.RespondProblem(w, status, domain.Kind(err), detail)
}

// HandleCreateConflict answers a duplicate create with the existing resource and 409.
// fetchFn receives the conflicting resource ID.
func HandleCreateConflict[T any](w http.ResponseWriter, err error, fetchFn func(id string) (*T, error)) {
	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) && conflictErr.ResourceID != "" {
		existing, fetchErr := fetchFn(conflictErr.ResourceID)
		if fetchErr != nil {
			handleError(w, err)
			return
		}

		httputil.RespondJSON(w, http.StatusConflict, existing)
		return
	}

	handleError(w, err)
}
