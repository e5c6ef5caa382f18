package handler

import (
	"net/http"
	"time"

	"qms/internal/httputil"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Documents *DocumentHandler
	Reviews   *ReviewHandler
	Files     *FileHandler
	Catalog   *CatalogHandler
	Search    *SearchHandler

	// AskLimit wraps the AI ask endpoint; nil leaves it unlimited
	AskLimit func(http.Handler) http.Handler
}

// HealthCheck is a simple health check endpoint
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// NewRouter registers all routes (Go 1.22+ method and wildcard patterns)
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", HealthCheck)

	// Template catalog
	mux.HandleFunc("GET /api/templates", h.Catalog.ListTemplates)
	mux.HandleFunc("GET /api/templates/schemas", h.Catalog.TemplateSchemas)
	mux.HandleFunc("GET /api/templates/{id}", h.Catalog.GetTemplate)

	// Documents
	mux.HandleFunc("POST /api/documents", h.Documents.CreateDocument)
	mux.HandleFunc("GET /api/documents", h.Documents.ListDocuments)
	mux.HandleFunc("GET /api/documents/search", h.Search.SearchDocuments) // More specific than {id}
	mux.HandleFunc("GET /api/documents/{id}", h.Documents.GetDocument)
	mux.HandleFunc("PUT /api/documents/{id}", h.Documents.SaveDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", h.Documents.DeleteDocument)
	mux.HandleFunc("GET /api/documents/{id}/versions", h.Documents.ListVersions)

	// Staged field edits
	mux.HandleFunc("PATCH /api/documents/{id}/fields", h.Documents.StageFields)
	mux.HandleFunc("DELETE /api/documents/{id}/fields", h.Documents.DiscardFields)
	mux.HandleFunc("POST /api/documents/{id}/flush", h.Documents.FlushFields)

	// Review workflow
	mux.HandleFunc("POST /api/documents/{id}/assign", h.Reviews.Assign)
	mux.HandleFunc("POST /api/documents/{id}/approve", h.Reviews.Decide)
	mux.HandleFunc("POST /api/documents/{id}/complete", h.Reviews.Complete)
	mux.HandleFunc("POST /api/documents/{id}/archive", h.Reviews.Archive)
	mux.HandleFunc("GET /api/documents/{id}/approvals", h.Reviews.ListApprovals)

	// Attachments
	mux.HandleFunc("POST /api/documents/{id}/files", h.Files.Upload)
	mux.HandleFunc("GET /api/documents/{id}/files", h.Files.ListFiles)
	mux.HandleFunc("GET /api/files/{id}/content", h.Files.Download)
	mux.HandleFunc("DELETE /api/files/{id}", h.Files.DeleteFile)

	// Products and suppliers
	mux.HandleFunc("GET /api/products", h.Catalog.ListProducts)
	mux.HandleFunc("POST /api/products", h.Catalog.CreateProduct)
	mux.HandleFunc("GET /api/products/{id}", h.Catalog.GetProduct)
	mux.HandleFunc("GET /api/suppliers", h.Catalog.ListSuppliers)
	mux.HandleFunc("POST /api/suppliers", h.Catalog.CreateSupplier)
	mux.HandleFunc("GET /api/suppliers/{id}", h.Catalog.GetSupplier)

	// Notifications
	mux.HandleFunc("GET /api/notifications", h.Catalog.ListNotifications)
	mux.HandleFunc("POST /api/notifications/{id}/read", h.Catalog.MarkNotificationRead)

	// AI-assisted search
	var ask http.Handler = http.HandlerFunc(h.Search.Ask)
	if h.AskLimit != nil {
		ask = h.AskLimit(ask)
	}
	mux.Handle("POST /api/search/ask", ask)

	return mux
}
