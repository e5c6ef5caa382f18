package qms

import (
	"context"

	"qms/internal/domain/models/qms"
)

// TemplateRepository reads template rows.
type TemplateRepository interface {
	GetByID(ctx context.Context, id string) (*qms.Template, error)

	// List returns templates ordered by name. activeOnly hides inactive rows.
	List(ctx context.Context, activeOnly bool) ([]qms.Template, error)

	// Upsert inserts or replaces the template of the same type
	Upsert(ctx context.Context, tmpl *qms.Template) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *qms.Product) error
	GetByID(ctx context.Context, id string) (*qms.Product, error)
	List(ctx context.Context) ([]qms.Product, error)
}

type SupplierRepository interface {
	Create(ctx context.Context, supplier *qms.Supplier) error
	GetByID(ctx context.Context, id string) (*qms.Supplier, error)
	List(ctx context.Context) ([]qms.Supplier, error)
}

// NotificationRepository backs the in-app notification transport.
type NotificationRepository interface {
	Create(ctx context.Context, n *qms.Notification) error

	// ListByUser returns a user's notifications newest first
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]qms.Notification, error)

	// MarkRead marks one of the user's notifications as read
	MarkRead(ctx context.Context, id, userID string) error
}
