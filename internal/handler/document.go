package handler

import (
	"log/slog"
	"net/http"

	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/httputil"
)

// DocumentHandler handles document CRUD, content saves and staged field edits
type DocumentHandler struct {
	workflow qmsSvc.WorkflowService
	edits    qmsSvc.EditBuffer
	logger   *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(workflow qmsSvc.WorkflowService, edits qmsSvc.EditBuffer, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		workflow: workflow,
		edits:    edits,
		logger:   logger,
	}
}

// CreateDocument creates a document from a template
// POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}

	var req qmsSvc.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	doc, err := h.workflow.CreateFromTemplate(r.Context(), user, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// ListDocuments lists documents ordered by title
// GET /api/documents?product_id=&supplier_id=&assigned_to=&unassigned=true&status=
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	filter, err := documentFilter(r)
	if err != nil {
		handleError(w, err)
		return
	}

	docs, err := h.workflow.List(r.Context(), filter)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// GetDocument retrieves a document by ID
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	doc, err := h.workflow.Get(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// SaveDocument replaces the content of an editable document. Pending field
// edits are discarded since the full save supersedes them.
// PUT /api/documents/{id}
func (h *DocumentHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var req qmsSvc.SaveContentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	doc, err := h.workflow.SaveContent(r.Context(), user, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}
	h.edits.Discard(id)

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument hard-deletes a document and everything attached to it
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	if err := h.workflow.Delete(r.Context(), user, id); err != nil {
		handleError(w, err)
		return
	}
	h.edits.Discard(id)

	w.WriteHeader(http.StatusNoContent)
}

// ListVersions returns the saved version snapshots
// GET /api/documents/{id}/versions
func (h *DocumentHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	versions, err := h.workflow.ListVersions(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, versions)
}

// stageFieldsRequest is the body of PATCH /api/documents/{id}/fields
type stageFieldsRequest struct {
	Edits []qmsSvc.FieldEdit `json:"edits"`
}

// StageFieldsResponse reports how many field edits await the next flush
type StageFieldsResponse struct {
	DocumentID string `json:"document_id"`
	Pending    int    `json:"pending"`
}

// StageFields buffers form-field edits for the next flush
// PATCH /api/documents/{id}/fields
func (h *DocumentHandler) StageFields(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var req stageFieldsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	pending, err := h.edits.Stage(r.Context(), user, id, req.Edits)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, StageFieldsResponse{DocumentID: id, Pending: pending})
}

// DiscardFields drops staged field edits
// DELETE /api/documents/{id}/fields
func (h *DocumentHandler) DiscardFields(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	h.edits.Discard(id)
	w.WriteHeader(http.StatusNoContent)
}

// FlushFields saves staged field edits now and returns the document
// POST /api/documents/{id}/flush
func (h *DocumentHandler) FlushFields(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	doc, err := h.edits.Flush(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}
