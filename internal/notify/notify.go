// Package notify holds the notification transports behind the
// dispatcher: in-app rows, structured log lines and a fan-out of both.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"qms/internal/domain/models/qms"
	qmsRepo "qms/internal/domain/repositories/qms"
	qmsSvc "qms/internal/domain/services/qms"
)

// InAppNotifier stores the notification for the user's inbox
type InAppNotifier struct {
	repo qmsRepo.NotificationRepository
}

// NewInAppNotifier creates a notifier writing to repo
func NewInAppNotifier(repo qmsRepo.NotificationRepository) *InAppNotifier {
	return &InAppNotifier{repo: repo}
}

func (n *InAppNotifier) Notify(ctx context.Context, notification qms.Notification) error {
	if err := n.repo.Create(ctx, &notification); err != nil {
		return fmt.Errorf("store notification for %s: %w", notification.UserID, err)
	}
	return nil
}

// LogNotifier only writes a log line. Used where no inbox exists.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier logging at Info
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, notification qms.Notification) error {
	attrs := []any{"user_id", notification.UserID, "message", notification.Message}
	if notification.DocumentID != nil {
		attrs = append(attrs, "document_id", *notification.DocumentID)
	}
	n.logger.InfoContext(ctx, "notification", attrs...)
	return nil
}

// MultiNotifier delivers to every transport. All transports are tried;
// their errors are joined.
type MultiNotifier struct {
	notifiers []qmsSvc.Notifier
}

// NewMultiNotifier creates a fan-out over notifiers
func NewMultiNotifier(notifiers ...qmsSvc.Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (n *MultiNotifier) Notify(ctx context.Context, notification qms.Notification) error {
	var errs []error
	for _, notifier := range n.notifiers {
		if err := notifier.Notify(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
