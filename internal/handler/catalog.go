package handler

import (
	"log/slog"
	"net/http"

	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/httputil"
)

// CatalogHandler serves templates, products, suppliers and notifications
type CatalogHandler struct {
	catalog qmsSvc.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog qmsSvc.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// ListTemplates lists the template catalog
// GET /api/templates?include_inactive=true
func (h *CatalogHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	templates, err := h.catalog.ListTemplates(r.Context(), includeInactive)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, templates)
}

// GetTemplate retrieves one template with its default content
// GET /api/templates/{id}
func (h *CatalogHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Template ID")
	if !ok {
		return
	}

	tmpl, err := h.catalog.GetTemplate(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tmpl)
}

// TemplateSchemas returns the form schema of every template type
// GET /api/templates/schemas
func (h *CatalogHandler) TemplateSchemas(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.catalog.TemplateSchemas())
}

// CreateProduct adds a product to the catalog
// POST /api/products
// Returns 201 if created, 409 with the existing product on a duplicate SKU
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req qmsSvc.CreateProductRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, err, func(id string) (*qmsModels.Product, error) {
			return h.catalog.GetProduct(r.Context(), id)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, product)
}

// ListProducts lists products by name
// GET /api/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, products)
}

// GetProduct retrieves a product
// GET /api/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Product ID")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, product)
}

// CreateSupplier registers a supplier
// POST /api/suppliers
func (h *CatalogHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req qmsSvc.CreateSupplierRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	supplier, err := h.catalog.CreateSupplier(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, supplier)
}

// ListSuppliers lists suppliers by name
// GET /api/suppliers
func (h *CatalogHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.catalog.ListSuppliers(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, suppliers)
}

// GetSupplier retrieves a supplier
// GET /api/suppliers/{id}
func (h *CatalogHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Supplier ID")
	if !ok {
		return
	}

	supplier, err := h.catalog.GetSupplier(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, supplier)
}

// ListNotifications returns the caller's notifications, newest first
// GET /api/notifications?unread=true
func (h *CatalogHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}

	notifications, err := h.catalog.ListNotifications(r.Context(), user, r.URL.Query().Get("unread") == "true")
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, notifications)
}

// MarkNotificationRead marks one of the caller's notifications as read
// POST /api/notifications/{id}/read
func (h *CatalogHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := PathParam(w, r, "id", "Notification ID")
	if !ok {
		return
	}

	if err := h.catalog.MarkNotificationRead(r.Context(), user, id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
