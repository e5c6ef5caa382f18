package qms

import "time"

// DocumentFile is the metadata of an object stored for a document.
type DocumentFile struct {
	ID          string    `json:"id" db:"id"`
	DocumentID  string    `json:"document_id" db:"document_id"`
	FileName    string    `json:"file_name" db:"file_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	ObjectPath  string    `json:"object_path" db:"object_path"`
	UploadedBy  string    `json:"uploaded_by" db:"uploaded_by"`
	URL         string    `json:"url,omitempty"` // Computed, not stored
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
