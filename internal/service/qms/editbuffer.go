package qms

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"qms/internal/domain"
	"qms/internal/domain/models"
	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
)

// pendingEdits holds the staged values of one document, newest value per field
type pendingEdits struct {
	actor  models.Identity // Last editor, credited with the save
	fields map[string]map[string]any
}

func (p *pendingEdits) count() int {
	n := 0
	for _, fields := range p.fields {
		n += len(fields)
	}
	return n
}

// EditBuffer stages form-field edits per document and turns them into one
// SaveContent per flush. The workflow only ever sees complete saves.
type EditBuffer struct {
	workflow qmsSvc.WorkflowService
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingEdits

	stop     chan struct{}
	done     chan struct{}
	startMu  sync.Mutex
	running  bool
	stopOnce sync.Once
}

var _ qmsSvc.EditBuffer = (*EditBuffer)(nil)

// NewEditBuffer creates a buffer flushing every interval once started
func NewEditBuffer(workflow qmsSvc.WorkflowService, interval time.Duration, logger *slog.Logger) *EditBuffer {
	return &EditBuffer{
		workflow: workflow,
		interval: interval,
		logger:   logger,
		pending:  make(map[string]*pendingEdits),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Stage records edits for an editable document and returns the number of
// fields now pending for it
func (b *EditBuffer) Stage(ctx context.Context, actor models.Identity, documentID string, edits []qmsSvc.FieldEdit) (int, error) {
	if len(edits) == 0 {
		return 0, domain.Validationf("at least one field edit is required")
	}
	for i, e := range edits {
		if strings.TrimSpace(e.Section) == "" || strings.TrimSpace(e.Field) == "" {
			return 0, domain.Validationf("edit %d: section and field are required", i)
		}
	}

	doc, err := b.workflow.Get(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if err := requireEditable(doc); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pending[documentID]
	if !ok {
		p = &pendingEdits{fields: make(map[string]map[string]any)}
		b.pending[documentID] = p
	}
	p.actor = actor
	for _, e := range edits {
		section, ok := p.fields[e.Section]
		if !ok {
			section = make(map[string]any)
			p.fields[e.Section] = section
		}
		section[e.Field] = e.Value
	}
	return p.count(), nil
}

// Flush saves the pending edits of one document. Edits rejected by the
// workflow are dropped; edits that hit a storage error are requeued.
func (b *EditBuffer) Flush(ctx context.Context, documentID string) (*qmsModels.Document, error) {
	b.mu.Lock()
	p, ok := b.pending[documentID]
	delete(b.pending, documentID)
	b.mu.Unlock()

	if !ok {
		return b.workflow.Get(ctx, documentID)
	}

	doc, err := b.save(ctx, documentID, p)
	if err != nil {
		if errors.Is(err, domain.ErrStorage) {
			b.requeue(documentID, p)
		} else {
			b.logger.Warn("dropping pending edits",
				"document_id", documentID,
				"fields", p.count(),
				"error", err,
			)
		}
		return nil, err
	}
	return doc, nil
}

func (b *EditBuffer) save(ctx context.Context, documentID string, p *pendingEdits) (*qmsModels.Document, error) {
	doc, err := b.workflow.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	content := doc.Content.Clone()
	for section, fields := range p.fields {
		for field, value := range fields {
			content.SetField(section, field, value)
		}
	}

	expected := doc.Version
	return b.workflow.SaveContent(ctx, p.actor, documentID, &qmsSvc.SaveContentRequest{
		Content:         &content,
		ExpectedVersion: &expected,
	})
}

// requeue puts failed edits back; edits staged since the flush began win
func (b *EditBuffer) requeue(documentID string, p *pendingEdits) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.pending[documentID]
	if !ok {
		b.pending[documentID] = p
		return
	}
	for section, fields := range p.fields {
		dst, ok := current.fields[section]
		if !ok {
			current.fields[section] = fields
			continue
		}
		for field, value := range fields {
			if _, newer := dst[field]; !newer {
				dst[field] = value
			}
		}
	}
}

// Discard drops pending edits without saving
func (b *EditBuffer) Discard(documentID string) {
	b.mu.Lock()
	delete(b.pending, documentID)
	b.mu.Unlock()
}

// Pending returns the ids of documents with staged edits, sorted
func (b *EditBuffer) Pending() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]string, 0, len(b.pending))
	for id := range b.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FlushAll flushes every document with staged edits
func (b *EditBuffer) FlushAll(ctx context.Context) {
	for _, id := range b.Pending() {
		if _, err := b.Flush(ctx, id); err != nil {
			b.logger.Debug("pending edit flush failed", "document_id", id, "error", err)
		}
	}
}

// Start runs the interval flusher in the background
func (b *EditBuffer) Start() {
	b.startMu.Lock()
	defer b.startMu.Unlock()
	if b.running {
		return
	}
	b.running = true

	go func() {
		defer close(b.done)
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				b.FlushAll(context.Background())
			case <-b.stop:
				return
			}
		}
	}()

	b.logger.Info("edit buffer started", "interval", b.interval)
}

// Stop halts the flusher and flushes what is still pending
func (b *EditBuffer) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		close(b.stop)

		b.startMu.Lock()
		running := b.running
		b.startMu.Unlock()
		if running {
			<-b.done
		}

		b.FlushAll(ctx)
		b.logger.Info("edit buffer stopped")
	})
}
