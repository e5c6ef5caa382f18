package qms

import (
	"context"

	"qms/internal/domain/models"
	"qms/internal/domain/models/qms"
)

// FieldEdit is one staged form-field change
type FieldEdit struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Value   any    `json:"value"`
}

// EditBuffer collects field edits and turns them into whole-content saves,
// flushed on an interval or on demand.
type EditBuffer interface {
	// Stage records edits and returns how many fields are pending for the document
	Stage(ctx context.Context, actor models.Identity, documentID string, edits []FieldEdit) (int, error)

	// Flush saves the pending edits of one document. With nothing pending it
	// returns the current document.
	Flush(ctx context.Context, documentID string) (*qms.Document, error)

	// Discard drops pending edits without saving
	Discard(documentID string)
}
