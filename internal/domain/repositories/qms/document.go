package qms

import (
	"context"

	"qms/internal/domain/models/qms"
)

// DocumentRepository defines data access operations for documents.
// Unknown ids yield domain.ErrNotFound; backend failures a *domain.StorageError.
type DocumentRepository interface {
	// Create inserts a new document. ID, CreatedAt and UpdatedAt are set by the store.
	Create(ctx context.Context, doc *qms.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*qms.Document, error)

	// GetForUpdate retrieves a document and locks it until the surrounding
	// transaction ends. Must be called inside TransactionManager.ExecTx.
	GetForUpdate(ctx context.Context, id string) (*qms.Document, error)

	// List returns documents matching the filter, ordered by title
	List(ctx context.Context, filter qms.DocumentFilter) ([]qms.Document, error)

	// Update persists every mutable field and bumps UpdatedAt
	Update(ctx context.Context, doc *qms.Document) error

	// Delete removes the document row
	Delete(ctx context.Context, id string) error

	// Search performs full-text search over title and content
	Search(ctx context.Context, opts *qms.SearchOptions) (*qms.SearchResults, error)
}
