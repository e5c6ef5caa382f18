package qms

import (
	"context"

	"qms/internal/domain/models"
	"qms/internal/domain/models/qms"
)

// CatalogService serves templates, products, suppliers and a user's
// notifications
type CatalogService interface {
	ListTemplates(ctx context.Context, includeInactive bool) ([]qms.Template, error)
	GetTemplate(ctx context.Context, id string) (*qms.Template, error)

	// TemplateSchemas returns the field schema of every template type
	TemplateSchemas() []*qms.ContentSchema

	CreateProduct(ctx context.Context, req *CreateProductRequest) (*qms.Product, error)
	GetProduct(ctx context.Context, id string) (*qms.Product, error)
	ListProducts(ctx context.Context) ([]qms.Product, error)

	CreateSupplier(ctx context.Context, req *CreateSupplierRequest) (*qms.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*qms.Supplier, error)
	ListSuppliers(ctx context.Context) ([]qms.Supplier, error)

	ListNotifications(ctx context.Context, actor models.Identity, unreadOnly bool) ([]qms.Notification, error)
	MarkNotificationRead(ctx context.Context, actor models.Identity, id string) error
}

type CreateProductRequest struct {
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
}

type CreateSupplierRequest struct {
	Name         string             `json:"name"`
	ContactEmail string             `json:"contact_email"`
	Status       qms.SupplierStatus `json:"status"`
}
