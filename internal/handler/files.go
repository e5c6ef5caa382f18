package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"qms/internal/config"
	"qms/internal/domain"
	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/httputil"
)

// multipartMemory is the in-memory part of a parsed upload; the rest spills to disk
const multipartMemory = 8 << 20

// FileHandler handles document attachments
type FileHandler struct {
	files  qmsSvc.FileService
	logger *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(files qmsSvc.FileService, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		files:  files,
		logger: logger,
	}
}

// Upload attaches a file to a document
// POST /api/documents/{id}/files (multipart/form-data, field "file")
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	// Leave room for the multipart envelope around a maximum-size file
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondProblem(w, http.StatusRequestEntityTooLarge, domain.KindValidation,
				fmt.Sprintf("file exceeds the %d MB limit", config.MaxUploadSize>>20))
			return
		}
		badRequest(w, "Failed to parse multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "No file provided")
		return
	}
	defer file.Close()

	meta, err := h.files.Upload(r.Context(), user, id, &qmsSvc.FileUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, meta)
}

// ListFiles lists a document's attachments
// GET /api/documents/{id}/files
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	files, err := h.files.List(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, files)
}

// Download streams the stored object
// GET /api/files/{id}/content
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "File ID")
	if !ok {
		return
	}

	meta, body, err := h.files.Open(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": meta.FileName}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		// Headers are gone; all that is left is to log
		h.logger.Warn("file download interrupted", "file_id", id, "error", err)
	}
}

// DeleteFile removes an attachment
// DELETE /api/files/{id}
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := PathParam(w, r, "id", "File ID")
	if !ok {
		return
	}

	if err := h.files.Delete(r.Context(), user, id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
