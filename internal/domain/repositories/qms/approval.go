package qms

import (
	"context"

	"qms/internal/domain/models/qms"
)

// ApprovalRepository stores the append-only approval log.
type ApprovalRepository interface {
	Create(ctx context.Context, approval *qms.Approval) error

	// ListByDocument returns approvals oldest first
	ListByDocument(ctx context.Context, documentID string) ([]qms.Approval, error)

	DeleteByDocument(ctx context.Context, documentID string) error
}

// VersionRepository stores content snapshots taken on "save as new version".
type VersionRepository interface {
	Create(ctx context.Context, version *qms.DocumentVersion) error

	// ListByDocument returns versions newest first
	ListByDocument(ctx context.Context, documentID string) ([]qms.DocumentVersion, error)

	DeleteByDocument(ctx context.Context, documentID string) error
}
