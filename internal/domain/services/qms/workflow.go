package qms

import (
	"context"

	"qms/internal/domain/models"
	"qms/internal/domain/models/qms"
)

// WorkflowService enforces the document lifecycle: legal state transitions
// and their side effects (signature stamping, version bump, notifications).
// The actor is trusted as supplied by the auth layer.
type WorkflowService interface {
	// CreateFromTemplate copies the template's default content into a new
	// EDIT_MODE/DRAFT document at version 1
	CreateFromTemplate(ctx context.Context, actor models.Identity, req *CreateDocumentRequest) (*qms.Document, error)

	// SaveContent replaces the content of an editable document
	SaveContent(ctx context.Context, actor models.Identity, documentID string, req *SaveContentRequest) (*qms.Document, error)

	// Assign replaces the reviewers and moves the document into review
	// when at least one reviewer is given
	Assign(ctx context.Context, actor models.Identity, documentID string, req *AssignRequest) (*qms.Document, error)

	// Decide applies a reviewer decision: approve, reject or edit
	Decide(ctx context.Context, actor models.Identity, documentID string, req *DecisionRequest) (*DecisionResult, error)

	// Complete moves an APPROVED document to COMPLETED
	Complete(ctx context.Context, actor models.Identity, documentID string) (*qms.Document, error)

	// Archive retires an editable document
	Archive(ctx context.Context, actor models.Identity, documentID string) (*qms.Document, error)

	// Delete hard-deletes the document with its approvals, versions and files
	Delete(ctx context.Context, actor models.Identity, documentID string) error

	Get(ctx context.Context, documentID string) (*qms.Document, error)
	List(ctx context.Context, filter qms.DocumentFilter) ([]qms.Document, error)
	ListApprovals(ctx context.Context, documentID string) ([]qms.Approval, error)
	ListVersions(ctx context.Context, documentID string) ([]qms.DocumentVersion, error)
}

// CreateDocumentRequest represents a create-from-template request
type CreateDocumentRequest struct {
	TemplateID string  `json:"template_id"`
	Title      string  `json:"title"`
	ProductID  *string `json:"product_id,omitempty"`
	SupplierID *string `json:"supplier_id,omitempty"`
}

// SaveContentRequest represents a content save.
// Content may be tagged or a bare section map; bare content takes the
// document's template type.
type SaveContentRequest struct {
	Content         *qms.DocumentContent `json:"content"`
	Title           *string              `json:"title,omitempty"`
	AsNewVersion    bool                 `json:"as_new_version"`
	Comments        string               `json:"comments,omitempty"`
	ExpectedVersion *int                 `json:"expected_version,omitempty"` // Optional optimistic precondition
}

// AssignRequest represents a reviewer assignment.
// Nil ProductID/SupplierID leave the association unchanged.
type AssignRequest struct {
	ReviewerIDs []string `json:"reviewer_ids"`
	ProductID   *string  `json:"product_id,omitempty"`
	SupplierID  *string  `json:"supplier_id,omitempty"`
}

// DecisionAction is the reviewer's choice
type DecisionAction string

const (
	ActionApprove DecisionAction = "approve"
	ActionReject  DecisionAction = "reject"
	ActionEdit    DecisionAction = "edit"
)

// DecisionRequest represents a reviewer decision
type DecisionRequest struct {
	Action    DecisionAction `json:"action"`
	Comments  string         `json:"comments,omitempty"`
	Signature string         `json:"signature,omitempty"`
}

// DecisionResult is the outcome of Decide. Approval is nil for edit.
// ReopenEditor tells the caller to reopen the form editor.
type DecisionResult struct {
	Document     *qms.Document `json:"document"`
	Approval     *qms.Approval `json:"approval,omitempty"`
	ReopenEditor bool          `json:"reopen_editor"`
}
