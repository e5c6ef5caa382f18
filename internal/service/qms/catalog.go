package qms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"qms/internal/domain"
	"qms/internal/domain/models"
	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/templates"
)

// catalogService implements the CatalogService interface
type catalogService struct {
	stores   Stores
	registry *templates.Registry
	logger   *slog.Logger
}

// NewCatalogService creates the catalog service
func NewCatalogService(stores Stores, registry *templates.Registry, logger *slog.Logger) qmsSvc.CatalogService {
	return &catalogService{
		stores:   stores,
		registry: registry,
		logger:   logger,
	}
}

func (s *catalogService) ListTemplates(ctx context.Context, includeInactive bool) ([]qmsModels.Template, error) {
	return s.stores.Templates.List(ctx, !includeInactive)
}

func (s *catalogService) GetTemplate(ctx context.Context, id string) (*qmsModels.Template, error) {
	return s.stores.Templates.GetByID(ctx, id)
}

func (s *catalogService) TemplateSchemas() []*qmsModels.ContentSchema {
	return s.registry.List()
}

func (s *catalogService) CreateProduct(ctx context.Context, req *qmsSvc.CreateProductRequest) (*qmsModels.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	product := &qmsModels.Product{
		Name:        strings.TrimSpace(req.Name),
		SKU:         strings.TrimSpace(req.SKU),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.stores.Products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created", "product_id", product.ID, "sku", product.SKU)
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*qmsModels.Product, error) {
	return s.stores.Products.GetByID(ctx, id)
}

func (s *catalogService) ListProducts(ctx context.Context) ([]qmsModels.Product, error) {
	return s.stores.Products.List(ctx)
}

// CreateSupplier registers a supplier, PENDING unless a status is given
func (s *catalogService) CreateSupplier(ctx context.Context, req *qmsSvc.CreateSupplierRequest) (*qmsModels.Supplier, error) {
	if err := validateSupplierRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	status := req.Status
	if status == "" {
		status = qmsModels.SupplierPending
	}
	supplier := &qmsModels.Supplier{
		Name:         strings.TrimSpace(req.Name),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		Status:       status,
	}
	if err := s.stores.Suppliers.Create(ctx, supplier); err != nil {
		return nil, err
	}

	s.logger.Info("supplier created", "supplier_id", supplier.ID)
	return supplier, nil
}

func (s *catalogService) GetSupplier(ctx context.Context, id string) (*qmsModels.Supplier, error) {
	return s.stores.Suppliers.GetByID(ctx, id)
}

func (s *catalogService) ListSuppliers(ctx context.Context) ([]qmsModels.Supplier, error) {
	return s.stores.Suppliers.List(ctx)
}

func (s *catalogService) ListNotifications(ctx context.Context, actor models.Identity, unreadOnly bool) ([]qmsModels.Notification, error) {
	return s.stores.Notifications.ListByUser(ctx, actor.UserID, unreadOnly)
}

func (s *catalogService) MarkNotificationRead(ctx context.Context, actor models.Identity, id string) error {
	return s.stores.Notifications.MarkRead(ctx, id, actor.UserID)
}
