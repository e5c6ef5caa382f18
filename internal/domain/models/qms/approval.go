package qms

import "time"

// ApprovalStatus is the outcome recorded for one reviewer in one review cycle.
type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
	ApprovalPending  ApprovalStatus = "PENDING"
)

// Approval is an append-only record attached to a document.
type Approval struct {
	ID           string         `json:"id" db:"id"`
	DocumentID   string         `json:"document_id" db:"document_id"`
	Status       ApprovalStatus `json:"status" db:"status"`
	ApproverID   string         `json:"approver_id" db:"approver_id"`
	ApproverName string         `json:"approver_name" db:"approver_name"`
	Comments     string         `json:"comments" db:"comments"`
	ApprovedAt   *time.Time     `json:"approved_at" db:"approved_at"` // Decision time, nil while pending
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// DocumentVersion is a content snapshot taken on "save as new version".
type DocumentVersion struct {
	ID         string          `json:"id" db:"id"`
	DocumentID string          `json:"document_id" db:"document_id"`
	Version    int             `json:"version" db:"version"`
	EditorID   string          `json:"editor_id" db:"editor_id"`
	EditorName string          `json:"editor_name" db:"editor_name"`
	Content    DocumentContent `json:"content" db:"content"`
	Comments   string          `json:"comments" db:"comments"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
