package memory

import (
	"context"

	models "qms/internal/domain/models/qms"
	"qms/internal/domain/repositories"
	qmsRepo "qms/internal/domain/repositories/qms"
)

// Repositories bundles every repository over one shared Store.
type Repositories struct {
	Store         *Store
	Tx            repositories.TransactionManager
	Documents     qmsRepo.DocumentRepository
	Approvals     qmsRepo.ApprovalRepository
	Versions      qmsRepo.VersionRepository
	Files         qmsRepo.FileRepository
	Templates     *TemplateRepository
	Products      qmsRepo.ProductRepository
	Suppliers     qmsRepo.SupplierRepository
	Notifications qmsRepo.NotificationRepository
}

// New creates a fresh store and its repositories
func New() *Repositories {
	store := NewStore()
	return &Repositories{
		Store:         store,
		Tx:            NewTransactionManager(store),
		Documents:     NewDocumentRepository(store),
		Approvals:     NewApprovalRepository(store),
		Versions:      NewVersionRepository(store),
		Files:         NewFileRepository(store),
		Templates:     &TemplateRepository{store: store},
		Products:      NewProductRepository(store),
		Suppliers:     NewSupplierRepository(store),
		Notifications: NewNotificationRepository(store),
	}
}

// SeedTemplates upserts the given catalog templates
func (r *Repositories) SeedTemplates(ctx context.Context, templates []models.Template) error {
	for i := range templates {
		if err := r.Templates.Upsert(ctx, &templates[i]); err != nil {
			return err
		}
	}
	return nil
}
