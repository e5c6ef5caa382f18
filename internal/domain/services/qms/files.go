package qms

import (
	"context"
	"io"

	"qms/internal/domain/models"
	"qms/internal/domain/models/qms"
)

// ObjectStorage is the file bucket contract. Paths are bucket-relative.
type ObjectStorage interface {
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
}

// FileService manages document attachments
type FileService interface {
	Upload(ctx context.Context, actor models.Identity, documentID string, upload *FileUpload) (*qms.DocumentFile, error)
	List(ctx context.Context, documentID string) ([]qms.DocumentFile, error)

	// Open returns the metadata and a reader the caller must close
	Open(ctx context.Context, fileID string) (*qms.DocumentFile, io.ReadCloser, error)

	Delete(ctx context.Context, actor models.Identity, fileID string) error
}

// FileUpload is one incoming file
type FileUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}
