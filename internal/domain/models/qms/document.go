package qms

import (
	"fmt"
	"time"
)

// DocumentStatus reflects storage/processing state.
type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusReady      DocumentStatus = "READY"
	StatusError      DocumentStatus = "ERROR"
	StatusEditMode   DocumentStatus = "EDIT_MODE"
	StatusSigned     DocumentStatus = "SIGNED"
)

// WorkflowStatus reflects business approval state.
type WorkflowStatus string

const (
	WorkflowDraft     WorkflowStatus = "DRAFT"
	WorkflowInReview  WorkflowStatus = "IN_REVIEW"
	WorkflowApproved  WorkflowStatus = "APPROVED"
	WorkflowRejected  WorkflowStatus = "REJECTED"
	WorkflowArchived  WorkflowStatus = "ARCHIVED"
	WorkflowCompleted WorkflowStatus = "COMPLETED"
)

// IsValid reports whether s is a known workflow status.
func (s WorkflowStatus) IsValid() bool {
	switch s {
	case WorkflowDraft, WorkflowInReview, WorkflowApproved, WorkflowRejected, WorkflowArchived, WorkflowCompleted:
		return true
	}
	return false
}

type Document struct {
	ID               string          `json:"id" db:"id"`
	Title            string          `json:"title" db:"title"`
	TemplateID       *string         `json:"template_id" db:"template_id"`
	TemplateType     TemplateType    `json:"template_type" db:"template_type"`
	Content          DocumentContent `json:"content" db:"content"`
	Status           DocumentStatus  `json:"status" db:"status"`
	WorkflowStatus   WorkflowStatus  `json:"workflow_status" db:"workflow_status"`
	Version          int             `json:"version" db:"version"`
	DigitalSignature *string         `json:"digital_signature" db:"digital_signature"`
	ApprovedAt       *time.Time      `json:"approved_at" db:"approved_at"`
	ProductID        *string         `json:"product_id" db:"product_id"`
	SupplierID       *string         `json:"supplier_id" db:"supplier_id"`
	AssignedUserIDs  []string        `json:"assigned_user_ids" db:"assigned_user_ids"` // Insertion order = notification order
	CreatedBy        string          `json:"created_by" db:"created_by"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// IsEditable: EDIT_MODE and DRAFT or REJECTED.
func (d *Document) IsEditable() bool {
	return d.Status == StatusEditMode &&
		(d.WorkflowStatus == WorkflowDraft || d.WorkflowStatus == WorkflowRejected)
}

// IsLocked: SIGNED and APPROVED or COMPLETED.
func (d *Document) IsLocked() bool {
	return d.Status == StatusSigned &&
		(d.WorkflowStatus == WorkflowApproved || d.WorkflowStatus == WorkflowCompleted)
}

// CheckInvariants verifies the signature/approval pairing and the
// SIGNED ⇒ APPROVED|COMPLETED rule.
func (d *Document) CheckInvariants() error {
	if (d.DigitalSignature == nil) != (d.ApprovedAt == nil) {
		return fmt.Errorf("document %s: digital_signature and approved_at must be set together", d.ID)
	}
	if d.Status == StatusSigned && d.WorkflowStatus != WorkflowApproved && d.WorkflowStatus != WorkflowCompleted {
		return fmt.Errorf("document %s: signed document has workflow status %s", d.ID, d.WorkflowStatus)
	}
	if d.Version < 1 {
		return fmt.Errorf("document %s: version %d is below 1", d.ID, d.Version)
	}
	return nil
}

// IsAssignedTo reports whether userID is one of the reviewers.
func (d *Document) IsAssignedTo(userID string) bool {
	for _, id := range d.AssignedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so adapters never share mutable state with callers.
func (d *Document) Clone() *Document {
	c := *d
	c.Content = d.Content.Clone()
	c.TemplateID = cloneString(d.TemplateID)
	c.DigitalSignature = cloneString(d.DigitalSignature)
	c.ProductID = cloneString(d.ProductID)
	c.SupplierID = cloneString(d.SupplierID)
	if d.ApprovedAt != nil {
		t := *d.ApprovedAt
		c.ApprovedAt = &t
	}
	c.AssignedUserIDs = append([]string{}, d.AssignedUserIDs...)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// DocumentFilter selects documents for listing. Nil fields are ignored.
type DocumentFilter struct {
	ProductID      *string
	SupplierID     *string
	AssignedUserID *string
	Unassigned     bool // product_id IS NULL
	WorkflowStatus *WorkflowStatus
}

// Matches applies the filter to a single document.
func (f DocumentFilter) Matches(d *Document) bool {
	if f.ProductID != nil && (d.ProductID == nil || *d.ProductID != *f.ProductID) {
		return false
	}
	if f.SupplierID != nil && (d.SupplierID == nil || *d.SupplierID != *f.SupplierID) {
		return false
	}
	if f.AssignedUserID != nil && !d.IsAssignedTo(*f.AssignedUserID) {
		return false
	}
	if f.Unassigned && d.ProductID != nil {
		return false
	}
	if f.WorkflowStatus != nil && d.WorkflowStatus != *f.WorkflowStatus {
		return false
	}
	return true
}
