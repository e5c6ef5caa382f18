package qms

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"qms/internal/domain/models"
	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/repository/memory"
	"qms/internal/service/qms/richtext"
	"qms/internal/storage"
	"qms/internal/templates"
)

var (
	creator  = models.Identity{UserID: "creator-1", Name: "Casey Creator"}
	reviewer = models.Identity{UserID: "U1", Name: "Jane Doe"}
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingNotifier records deliveries and fails for selected users
type recordingNotifier struct {
	mu        sync.Mutex
	delivered []qmsModels.Notification
	failFor   map[string]bool
}

func (r *recordingNotifier) Notify(ctx context.Context, n qmsModels.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[n.UserID] {
		return errors.New("transport unavailable")
	}
	r.delivered = append(r.delivered, n)
	return nil
}

func (r *recordingNotifier) recipients() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int)
	for _, n := range r.delivered {
		out[n.UserID]++
	}
	return out
}

type testEnv struct {
	repos      *memory.Repositories
	stores     Stores
	registry   *templates.Registry
	storage    *storage.MemoryStorage
	notifier   *recordingNotifier
	dispatcher qmsSvc.NotificationDispatcher
	workflow   qmsSvc.WorkflowService
	templateID map[qmsModels.TemplateType]string
}

func storesFrom(repos *memory.Repositories) Stores {
	return Stores{
		Tx:            repos.Tx,
		Documents:     repos.Documents,
		Approvals:     repos.Approvals,
		Versions:      repos.Versions,
		Files:         repos.Files,
		Templates:     repos.Templates,
		Products:      repos.Products,
		Suppliers:     repos.Suppliers,
		Notifications: repos.Notifications,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	registry, err := templates.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	repos := memory.New()
	if err := repos.SeedTemplates(context.Background(), registry.Templates()); err != nil {
		t.Fatalf("SeedTemplates() error = %v", err)
	}
	rows, err := repos.Templates.List(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	ids := make(map[qmsModels.TemplateType]string, len(rows))
	for _, row := range rows {
		ids[row.Type] = row.ID
	}

	logger := discardLogger()
	notifier := &recordingNotifier{failFor: map[string]bool{}}
	dispatcher := NewNotificationDispatcher(notifier, logger)
	store := storage.NewMemoryStorage("http://files.test")
	stores := storesFrom(repos)

	return &testEnv{
		repos:      repos,
		stores:     stores,
		registry:   registry,
		storage:    store,
		notifier:   notifier,
		dispatcher: dispatcher,
		workflow:   NewWorkflowService(stores, registry, store, dispatcher, richtext.NewSanitizer(), logger),
		templateID: ids,
	}
}

// createCOA creates a draft COA document titled title
func (e *testEnv) createCOA(t *testing.T, title string) *qmsModels.Document {
	t.Helper()
	doc, err := e.workflow.CreateFromTemplate(context.Background(), creator, &qmsSvc.CreateDocumentRequest{
		TemplateID: e.templateID[qmsModels.TemplateCOA],
		Title:      title,
	})
	if err != nil {
		t.Fatalf("CreateFromTemplate() error = %v", err)
	}
	return doc
}

// conclusion builds bare COA content with one conclusion field
func conclusion(result string) *qmsModels.DocumentContent {
	return &qmsModels.DocumentContent{Sections: map[string]qmsModels.Section{
		"conclusion": {"overallResult": result},
	}}
}
