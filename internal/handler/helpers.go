package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"qms/internal/domain"
	"qms/internal/domain/models"
	qmsModels "qms/internal/domain/models/qms"
	"qms/internal/httputil"
)

// PathParam reads a required path value, writing a 400 when it is blank
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := strings.TrimSpace(r.PathValue(name))
	if value == "" {
		httputil.RespondProblem(w, http.StatusBadRequest, domain.KindValidation, label+" is required")
		return "", false
	}
	return value, true
}

// actor returns the authenticated caller, writing a 401 when there is none
func actor(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := httputil.GetIdentity(r)
	if !ok || id.UserID == "" {
		httputil.RespondProblem(w, http.StatusUnauthorized, domain.KindUnauthorized, "authentication required")
		return models.Identity{}, false
	}
	return id, true
}

// badRequest writes a validation problem
func badRequest(w http.ResponseWriter, detail string) {
	httputil.RespondProblem(w, http.StatusBadRequest, domain.KindValidation, detail)
}

// documentFilter reads the list filters shared by listing and search:
// product_id, supplier_id, assigned_to, unassigned and status.
func documentFilter(r *http.Request) (qmsModels.DocumentFilter, error) {
	q := r.URL.Query()
	productID, err := idFilter(r, "product_id")
	if err != nil {
		return qmsModels.DocumentFilter{}, err
	}
	supplierID, err := idFilter(r, "supplier_id")
	if err != nil {
		return qmsModels.DocumentFilter{}, err
	}
	filter := qmsModels.DocumentFilter{
		ProductID:      productID,
		SupplierID:     supplierID,
		AssignedUserID: httputil.QueryString(r, "assigned_to"),
		Unassigned:     q.Get("unassigned") == "true",
	}
	if raw := q.Get("status"); raw != "" {
		status := qmsModels.WorkflowStatus(strings.ToUpper(raw))
		if !status.IsValid() {
			return filter, domain.Validationf("unknown workflow status %q", raw)
		}
		filter.WorkflowStatus = &status
	}
	return filter, nil
}

// idFilter reads an optional UUID query parameter; blank counts as absent
func idFilter(r *http.Request, name string) (*string, error) {
	raw := httputil.QueryString(r, name)
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(*raw); err != nil {
		return nil, domain.Validationf("%s must be a UUID", name)
	}
	return raw, nil
}
