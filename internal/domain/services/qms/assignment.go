package qms

import (
	"context"

	"qms/internal/domain/models/qms"
)

// Notifier delivers one message to one user. Delivery is best-effort:
// callers log failures and never propagate them.
type Notifier interface {
	Notify(ctx context.Context, n qms.Notification) error
}

// NotificationDispatcher fans a message out to many recipients without
// blocking the caller.
type NotificationDispatcher interface {
	// Dispatch schedules one delivery per recipient and returns immediately
	Dispatch(ctx context.Context, documentID string, recipients []string, message string)

	// Wait blocks until all scheduled deliveries finished
	Wait()
}
