package qms

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
)

// assignmentPlan is the reviewer set an assignment resolves to
type assignmentPlan struct {
	reviewers []string // Deduplicated, first occurrence order
}

func planAssignment(reviewerIDs []string) assignmentPlan {
	seen := make(map[string]bool, len(reviewerIDs))
	reviewers := make([]string, 0, len(reviewerIDs))
	for _, id := range reviewerIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		reviewers = append(reviewers, id)
	}
	return assignmentPlan{reviewers: reviewers}
}

// notificationDispatcher delivers each recipient's notification in its own
// goroutine. One recipient's failure never affects the others.
type notificationDispatcher struct {
	notifier qmsSvc.Notifier
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewNotificationDispatcher creates a fire-and-forget dispatcher over notifier
func NewNotificationDispatcher(notifier qmsSvc.Notifier, logger *slog.Logger) qmsSvc.NotificationDispatcher {
	return &notificationDispatcher{
		notifier: notifier,
		logger:   logger,
	}
}

// Dispatch schedules one delivery per recipient. Deliveries outlive the
// caller's request, so cancellation of ctx is not propagated.
func (d *notificationDispatcher) Dispatch(ctx context.Context, documentID string, recipients []string, message string) {
	deliveryCtx := context.WithoutCancel(ctx)

	for _, userID := range recipients {
		n := qmsModels.Notification{
			UserID:  userID,
			Message: message,
		}
		if documentID != "" {
			id := documentID
			n.DocumentID = &id
		}

		d.wg.Add(1)
		go func(n qmsModels.Notification) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("NotificationFailure",
						"user_id", n.UserID,
						"document_id", documentID,
						"panic", r,
					)
				}
			}()

			if err := d.notifier.Notify(deliveryCtx, n); err != nil {
				d.logger.Warn("NotificationFailure",
					"user_id", n.UserID,
					"document_id", documentID,
					"error", err,
				)
			}
		}(n)
	}
}

// Wait blocks until every scheduled delivery finished
func (d *notificationDispatcher) Wait() {
	d.wg.Wait()
}
