package qms

import (
	"context"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"qms/internal/config"
	"qms/internal/domain"
	"qms/internal/domain/models"
	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
)

// unsafeNameChars matches characters dropped from object names
var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// fileService implements the FileService interface
type fileService struct {
	stores  Stores
	storage qmsSvc.ObjectStorage
	logger  *slog.Logger
}

// NewFileService creates the attachment service
func NewFileService(stores Stores, storage qmsSvc.ObjectStorage, logger *slog.Logger) qmsSvc.FileService {
	return &fileService{
		stores:  stores,
		storage: storage,
		logger:  logger,
	}
}

// Upload stores the object first, then its metadata. A metadata failure
// removes the orphaned object.
func (s *fileService) Upload(ctx context.Context, actor models.Identity, documentID string, upload *qmsSvc.FileUpload) (*qmsModels.DocumentFile, error) {
	if upload == nil || upload.Body == nil {
		return nil, domain.Validationf("file is required")
	}
	if upload.Size <= 0 {
		return nil, domain.Validationf("file is empty")
	}
	if upload.Size > config.MaxUploadSize {
		return nil, domain.Validationf("file exceeds the %d MB limit", config.MaxUploadSize>>20)
	}
	name := sanitizeFileName(upload.FileName)
	if name == "" {
		return nil, domain.Validationf("file name is required")
	}

	doc, err := s.stores.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsLocked() {
		return nil, domain.NewConflict(doc.ID, "document is signed and locked")
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	fileID := uuid.NewString()
	objectPath := path.Join("documents", doc.ID, fileID+"-"+name)

	// Never read past the declared size
	body := io.LimitReader(upload.Body, upload.Size)
	if err := s.storage.Put(ctx, objectPath, body, upload.Size, contentType); err != nil {
		return nil, domain.NewStorageError("put object", err)
	}

	file := &qmsModels.DocumentFile{
		ID:          fileID,
		DocumentID:  doc.ID,
		FileName:    name,
		ContentType: contentType,
		Size:        upload.Size,
		ObjectPath:  objectPath,
		UploadedBy:  actor.UserID,
	}
	if err := s.stores.Files.Create(ctx, file); err != nil {
		if delErr := s.storage.Delete(ctx, objectPath); delErr != nil {
			s.logger.Warn("failed to remove orphaned object",
				"object_path", objectPath,
				"error", delErr,
			)
		}
		return nil, err
	}
	file.URL = s.storage.PublicURL(objectPath)

	s.logger.Info("file uploaded",
		"document_id", doc.ID,
		"file_id", file.ID,
		"size", file.Size,
		"user_id", actor.UserID,
	)
	return file, nil
}

// List returns the document's files with public URLs
func (s *fileService) List(ctx context.Context, documentID string) ([]qmsModels.DocumentFile, error) {
	if _, err := s.stores.Documents.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	files, err := s.stores.Files.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	for i := range files {
		files[i].URL = s.storage.PublicURL(files[i].ObjectPath)
	}
	return files, nil
}

// Open returns the file metadata and a reader over the stored object
func (s *fileService) Open(ctx context.Context, fileID string) (*qmsModels.DocumentFile, io.ReadCloser, error) {
	file, err := s.stores.Files.GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.storage.Get(ctx, file.ObjectPath)
	if err != nil {
		return nil, nil, domain.NewStorageError("get object", err)
	}
	file.URL = s.storage.PublicURL(file.ObjectPath)
	return file, body, nil
}

// Delete removes a file. Files of locked documents are part of the signed
// record and cannot be removed.
func (s *fileService) Delete(ctx context.Context, actor models.Identity, fileID string) error {
	file, err := s.stores.Files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	doc, err := s.stores.Documents.GetByID(ctx, file.DocumentID)
	if err != nil {
		return err
	}
	if doc.IsLocked() {
		return domain.NewConflict(doc.ID, "document is signed and locked")
	}

	if err := s.stores.Files.Delete(ctx, fileID); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, file.ObjectPath); err != nil {
		s.logger.Warn("failed to remove stored object",
			"file_id", fileID,
			"object_path", file.ObjectPath,
			"error", err,
		)
	}

	s.logger.Info("file deleted", "document_id", doc.ID, "file_id", fileID, "user_id", actor.UserID)
	return nil
}

// sanitizeFileName keeps the base name and replaces unsafe characters
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if len(name) > 200 {
		name = name[len(name)-200:]
	}
	return name
}
