package qms

import (
	"context"

	"qms/internal/domain/models/qms"
)

// FileRepository stores attachment metadata. Object bytes live in storage.
type FileRepository interface {
	Create(ctx context.Context, file *qms.DocumentFile) error
	GetByID(ctx context.Context, id string) (*qms.DocumentFile, error)
	ListByDocument(ctx context.Context, documentID string) ([]qms.DocumentFile, error)
	Delete(ctx context.Context, id string) error

	// DeleteByDocument removes all metadata rows of a document and returns
	// them so the caller can remove the stored objects.
	DeleteByDocument(ctx context.Context, documentID string) ([]qms.DocumentFile, error)
}
