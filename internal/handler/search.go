package handler

import (
	"log/slog"
	"net/http"

	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/httputil"
)

// SearchHandler handles full-text search and AI-assisted questions
type SearchHandler struct {
	search qmsSvc.SearchService
	logger *slog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search qmsSvc.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		search: search,
		logger: logger,
	}
}

// SearchDocuments runs a full-text search
// GET /api/documents/search?q=&limit=&offset=&any=true plus the list filters
func (h *SearchHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := httputil.QueryInt(r, "limit", qmsModels.DefaultSearchLimit)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	offset, err := httputil.QueryInt(r, "offset", 0)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	filter, err := documentFilter(r)
	if err != nil {
		handleError(w, err)
		return
	}

	results, err := h.search.Search(r.Context(), &qmsModels.SearchOptions{
		Query:    q.Get("q"),
		Limit:    limit,
		Offset:   offset,
		Filter:   filter,
		MatchAny: q.Get("any") == "true",
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}

// askRequest is the body of POST /api/search/ask
type askRequest struct {
	Question   string  `json:"question"`
	ProductID  *string `json:"product_id,omitempty"`
	SupplierID *string `json:"supplier_id,omitempty"`
}

// Ask answers a question from the best matching documents
// POST /api/search/ask
func (h *SearchHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var body askRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	resp, err := h.search.Ask(r.Context(), &qmsSvc.AskRequest{
		Question: body.Question,
		Filter: qmsModels.DocumentFilter{
			ProductID:  body.ProductID,
			SupplierID: body.SupplierID,
		},
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}
