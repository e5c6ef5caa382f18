package handler

import (
	"context"
	"log/slog"
	"net/http"

	"qms/internal/domain/models"
	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/httputil"
)

// ReviewHandler handles reviewer assignment, decisions and the terminal
// lifecycle transitions
type ReviewHandler struct {
	workflow qmsSvc.WorkflowService
	logger   *slog.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(workflow qmsSvc.WorkflowService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		workflow: workflow,
		logger:   logger,
	}
}

// assignRequest distinguishes an absent association (keep) from null (clear)
type assignRequest struct {
	ReviewerIDs []string                `json:"reviewer_ids"`
	ProductID   httputil.OptionalString `json:"product_id"`
	SupplierID  httputil.OptionalString `json:"supplier_id"`
}

// Assign replaces the reviewers and optionally re-links product/supplier
// POST /api/documents/{id}/assign
func (h *ReviewHandler) Assign(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var body assignRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	doc, err := h.workflow.Assign(r.Context(), user, id, &qmsSvc.AssignRequest{
		ReviewerIDs: body.ReviewerIDs,
		ProductID:   body.ProductID.Update(),
		SupplierID:  body.SupplierID.Update(),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Decide applies a reviewer decision: approve, reject or edit
// POST /api/documents/{id}/approve
func (h *ReviewHandler) Decide(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var req qmsSvc.DecisionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	result, err := h.workflow.Decide(r.Context(), user, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// Complete closes an approved document
// POST /api/documents/{id}/complete
func (h *ReviewHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.workflow.Complete)
}

// Archive retires an editable document
// POST /api/documents/{id}/archive
func (h *ReviewHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.workflow.Archive)
}

func (h *ReviewHandler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, user models.Identity, id string) (*qmsModels.Document, error)) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	doc, err := apply(r.Context(), user, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// ListApprovals returns the decision history, oldest first
// GET /api/documents/{id}/approvals
func (h *ReviewHandler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	approvals, err := h.workflow.ListApprovals(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, approvals)
}
