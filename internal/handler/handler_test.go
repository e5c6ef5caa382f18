package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"qms/internal/auth"
	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/middleware"
	"qms/internal/repository/memory"
	qmsService "qms/internal/service/qms"
	"qms/internal/service/qms/richtext"
	"qms/internal/storage"
	"qms/internal/templates"
)

const devSecret = "test-secret"

type nopNotifier struct{}

func (nopNotifier) Notify(ctx context.Context, n qmsModels.Notification) error { return nil }

// brokenStorage fails every write
type brokenStorage struct{ *storage.MemoryStorage }

func (brokenStorage) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	return errors.New("bucket offline")
}

type testServer struct {
	handler http.Handler
	coaID   string
}

func newTestServer(t *testing.T, objects qmsSvc.ObjectStorage) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	registry, err := templates.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	repos := memory.New()
	if err := repos.SeedTemplates(ctx, registry.Templates()); err != nil {
		t.Fatal(err)
	}
	tmpls, _ := repos.Templates.List(ctx, true)
	var coaID string
	for _, tmpl := range tmpls {
		if tmpl.Type == qmsModels.TemplateCOA {
			coaID = tmpl.ID
		}
	}

	stores := qmsService.Stores{
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
	sanitizer := richtext.NewSanitizer()
	dispatcher := qmsService.NewNotificationDispatcher(nopNotifier{}, logger)
	t.Cleanup(dispatcher.Wait)
	workflow := qmsService.NewWorkflowService(stores, registry, objects, dispatcher, sanitizer, logger)
	buffer := qmsService.NewEditBuffer(workflow, time.Hour, logger)

	mux := NewRouter(Handlers{
		Documents: NewDocumentHandler(workflow, buffer, logger),
		Reviews:   NewReviewHandler(workflow, logger),
		Files:     NewFileHandler(qmsService.NewFileService(stores, objects, logger), logger),
		Catalog:   NewCatalogHandler(qmsService.NewCatalogService(stores, registry, logger), logger),
		Search:    NewSearchHandler(qmsService.NewSearchService(stores, nil, richtext.NewRenderer(sanitizer), logger), logger),
	})

	return &testServer{
		handler: middleware.Auth(auth.NewDevTokenVerifier(devSecret), logger, "/health")(mux),
		coaID:   coaID,
	}
}

// do sends a JSON request as user; an empty user sends no token
func (s *testServer) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+devSecret+":"+user)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

func expectProblem(t *testing.T, w *httptest.ResponseRecorder, status int, kind string) {
	t.Helper()
	expectStatus(t, w, status)
	problem := decode[map[string]any](t, w)
	if problem["kind"] != kind {
		t.Errorf("kind = %v, want %s", problem["kind"], kind)
	}
}

func (s *testServer) createCOA(t *testing.T, title string) qmsModels.Document {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/documents", "creator-1", map[string]any{
		"template_id": s.coaID,
		"title":       title,
	})
	expectStatus(t, w, http.StatusCreated)
	return decode[qmsModels.Document](t, w)
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStorage("http://files.test"))

	doc := s.createCOA(t, "Batch 7 COA")
	if doc.WorkflowStatus != qmsModels.WorkflowDraft || doc.Version != 1 {
		t.Fatalf("created = %+v", doc)
	}

	w := s.do(t, http.MethodPut, "/api/documents/"+doc.ID, "creator-1", map[string]any{
		"content":        map[string]any{"conclusion": map[string]any{"overallResult": "Pass"}},
		"as_new_version": true,
	})
	expectStatus(t, w, http.StatusOK)
	if saved := decode[qmsModels.Document](t, w); saved.Version != 2 {
		t.Errorf("version = %d, want 2", saved.Version)
	}

	w = s.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/assign", "creator-1", map[string]any{
		"reviewer_ids": []string{"U1", "U1"},
	})
	expectStatus(t, w, http.StatusOK)
	if assigned := decode[qmsModels.Document](t, w); assigned.WorkflowStatus != qmsModels.WorkflowInReview || len(assigned.AssignedUserIDs) != 1 {
		t.Errorf("assigned = %+v", assigned)
	}

	w = s.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/approve", "U1", map[string]any{
		"action": "approve",
	})
	expectProblem(t, w, http.StatusBadRequest, "validation")

	w = s.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/approve", "U1:Jane Doe", map[string]any{
		"action":    "approve",
		"signature": "Jane Doe",
	})
	expectStatus(t, w, http.StatusOK)
	result := decode[qmsSvc.DecisionResult](t, w)
	if result.Document.Status != qmsModels.StatusSigned || result.Approval.ApproverName != "Jane Doe" {
		t.Errorf("decision = %+v", result)
	}

	w = s.do(t, http.MethodPut, "/api/documents/"+doc.ID, "creator-1", map[string]any{
		"content": map[string]any{"conclusion": map[string]any{"overallResult": "Fail"}},
	})
	expectProblem(t, w, http.StatusConflict, "conflict")

	w = s.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/complete", "creator-1", nil)
	expectStatus(t, w, http.StatusOK)

	w = s.do(t, http.MethodGet, "/api/documents/"+doc.ID+"/approvals", "creator-1", nil)
	expectStatus(t, w, http.StatusOK)
	if approvals := decode[[]qmsModels.Approval](t, w); len(approvals) == 0 {
		t.Error("expected approval history")
	}

	w = s.do(t, http.MethodGet, "/api/documents/"+doc.ID+"/versions", "creator-1", nil)
	expectStatus(t, w, http.StatusOK)
	if versions := decode[[]qmsModels.DocumentVersion](t, w); len(versions) != 1 {
		t.Errorf("versions = %d, want 1", len(versions))
	}
}

func TestDocumentErrors(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStorage("http://files.test"))
	doc := s.createCOA(t, "Batch 8 COA")

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   any
		status int
		kind   string
	}{
		{name: "no token", method: http.MethodGet, path: "/api/documents", status: http.StatusUnauthorized, kind: "unauthorized"},
		{name: "unknown document", method: http.MethodGet, path: "/api/documents/missing", user: "U1", status: http.StatusNotFound, kind: "not_found"},
		{name: "unknown template", method: http.MethodPost, path: "/api/documents", user: "U1", body: map[string]any{"template_id": "nope", "title": "x"}, status: http.StatusNotFound, kind: "not_found"},
		{name: "blank title", method: http.MethodPost, path: "/api/documents", user: "U1", body: map[string]any{"template_id": "nope", "title": " "}, status: http.StatusBadRequest, kind: "validation"},
		{name: "bad status filter", method: http.MethodGet, path: "/api/documents?status=SHIPPED", user: "U1", status: http.StatusBadRequest, kind: "validation"},
		{name: "unknown action", method: http.MethodPost, path: "/api/documents/" + doc.ID + "/approve", user: "U1", body: map[string]any{"action": "sign"}, status: http.StatusBadRequest, kind: "validation"},
		{name: "complete a draft", method: http.MethodPost, path: "/api/documents/" + doc.ID + "/complete", user: "U1", status: http.StatusConflict, kind: "conflict"},
		{name: "stale version", method: http.MethodPut, path: "/api/documents/" + doc.ID, user: "U1", body: map[string]any{"title": "Renamed", "expected_version": 9}, status: http.StatusConflict, kind: "conflict"},
		{name: "empty search", method: http.MethodGet, path: "/api/documents/search?q=", user: "U1", status: http.StatusBadRequest, kind: "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.user, tt.body)
			expectProblem(t, w, tt.status, tt.kind)
		})
	}
}

func TestDocumentFiltersAndSearch(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStorage("http://files.test"))
	first := s.createCOA(t, "Vitamin C lot 1")
	s.createCOA(t, "Zinc lot 2")
	s.do(t, http.MethodPost, "/api/documents/"+first.ID+"/assign", "creator-1", map[string]any{"reviewer_ids": []string{"U1"}})

	w := s.do(t, http.MethodGet, "/api/documents?assigned_to=U1", "U1", nil)
	expectStatus(t, w, http.StatusOK)
	if docs := decode[[]qmsModels.Document](t, w); len(docs) != 1 || docs[0].ID != first.ID {
		t.Errorf("assigned docs = %+v", docs)
	}

	w = s.do(t, http.MethodGet, "/api/documents?status=draft", "U1", nil)
	expectStatus(t, w, http.StatusOK)
	if docs := decode[[]qmsModels.Document](t, w); len(docs) != 1 {
		t.Errorf("draft docs = %d, want 1", len(docs))
	}

	w = s.do(t, http.MethodGet, "/api/documents/search?q=zinc", "U1", nil)
	expectStatus(t, w, http.StatusOK)
	if results := decode[qmsModels.SearchResults](t, w); results.TotalCount != 1 {
		t.Errorf("search results = %+v", results)
	}

	w = s.do(t, http.MethodPost, "/api/search/ask", "U1", map[string]any{"question": "vitamin"})
	expectStatus(t, w, http.StatusOK)
	if resp := decode[qmsSvc.AskResponse](t, w); resp.Generated || len(resp.Sources) != 1 {
		t.Errorf("ask = %+v", resp)
	}
}

func TestStagedFieldEdits(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStorage("http://files.test"))
	doc := s.createCOA(t, "Batch 9 COA")

	w := s.do(t, http.MethodPatch, "/api/documents/"+doc.ID+"/fields", "creator-1", map[string]any{
		"edits": []map[string]any{
			{"section": "header", "field": "lotNumber", "value": "L-9"},
			{"section": "conclusion", "field": "overallResult", "value": "Pass"},
		},
	})
	expectStatus(t, w, http.StatusAccepted)
	if staged := decode[StageFieldsResponse](t, w); staged.Pending != 2 {
		t.Errorf("pending = %d, want 2", staged.Pending)
	}

	w = s.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/flush", "creator-1", nil)
	expectStatus(t, w, http.StatusOK)
	flushed := decode[qmsModels.Document](t, w)
	if got := flushed.Content.Sections["header"]["lotNumber"]; got != "L-9" {
		t.Errorf("lotNumber = %v, want L-9", got)
	}

	w = s.do(t, http.MethodPatch, "/api/documents/"+doc.ID+"/fields", "creator-1", map[string]any{"edits": []any{}})
	expectProblem(t, w, http.StatusBadRequest, "validation")
}

func TestFileEndpoints(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStorage("http://files.test"))
	doc := s.createCOA(t, "Batch 10 COA")

	upload := func(user string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "lab report.pdf")
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte("%PDF-1.4 results"))
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/documents/"+doc.ID+"/files", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+devSecret+":"+user)
		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, req)
		return w
	}

	w := upload("creator-1")
	expectStatus(t, w, http.StatusCreated)
	file := decode[qmsModels.DocumentFile](t, w)
	if file.FileName != "lab_report.pdf" || file.URL == "" {
		t.Errorf("file = %+v", file)
	}

	w = s.do(t, http.MethodGet, "/api/files/"+file.ID+"/content", "U1", nil)
	expectStatus(t, w, http.StatusOK)
	if w.Body.String() != "%PDF-1.4 results" {
		t.Errorf("content = %q", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "lab_report.pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	w = s.do(t, http.MethodGet, "/api/documents/"+doc.ID+"/files", "U1", nil)
	expectStatus(t, w, http.StatusOK)
	if files := decode[[]qmsModels.DocumentFile](t, w); len(files) != 1 {
		t.Errorf("files = %d, want 1", len(files))
	}

	w = s.do(t, http.MethodDelete, "/api/files/"+file.ID, "creator-1", nil)
	expectStatus(t, w, http.StatusNoContent)

	w = s.do(t, http.MethodPost, "/api/documents/"+doc.ID+"/files", "creator-1", nil)
	expectProblem(t, w, http.StatusBadRequest, "validation")
}

func TestUploadStorageFailure(t *testing.T) {
	s := newTestServer(t, brokenStorage{storage.NewMemoryStorage("http://files.test")})
	doc := s.createCOA(t, "Batch 11 COA")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "coa.pdf")
	part.Write([]byte("data"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+doc.ID+"/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+devSecret+":creator-1")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	expectProblem(t, w, http.StatusServiceUnavailable, "storage_error")
	if strings.Contains(w.Body.String(), "bucket offline") {
		t.Error("backend error text must not leak to clients")
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStorage("http://files.test"))

	w := s.do(t, http.MethodGet, "/api/templates", "U1", nil)
	expectStatus(t, w, http.StatusOK)
	if tmpls := decode[[]qmsModels.Template](t, w); len(tmpls) != len(qmsModels.AllTemplateTypes) {
		t.Errorf("templates = %d", len(tmpls))
	}

	w = s.do(t, http.MethodGet, "/api/templates/schemas", "U1", nil)
	expectStatus(t, w, http.StatusOK)

	w = s.do(t, http.MethodPost, "/api/products", "U1", map[string]any{"name": "Vitamin C", "sku": "VC-1"})
	expectStatus(t, w, http.StatusCreated)
	product := decode[qmsModels.Product](t, w)

	w = s.do(t, http.MethodPost, "/api/products", "U1", map[string]any{"name": "Other", "sku": "VC-1"})
	expectStatus(t, w, http.StatusConflict)
	if existing := decode[qmsModels.Product](t, w); existing.ID != product.ID {
		t.Errorf("conflict body = %+v, want existing product", existing)
	}

	w = s.do(t, http.MethodPost, "/api/suppliers", "U1", map[string]any{"name": "Acme"})
	expectStatus(t, w, http.StatusCreated)
	if supplier := decode[qmsModels.Supplier](t, w); supplier.Status != qmsModels.SupplierPending {
		t.Errorf("supplier status = %s", supplier.Status)
	}

	w = s.do(t, http.MethodGet, "/api/notifications?unread=true", "U1", nil)
	expectStatus(t, w, http.StatusOK)

	w = s.do(t, http.MethodPost, "/api/notifications/missing/read", "U1", nil)
	expectProblem(t, w, http.StatusNotFound, "not_found")
}

func TestHealthCheckIsPublic(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStorage("http://files.test"))
	w := s.do(t, http.MethodGet, "/health", "", nil)
	expectStatus(t, w, http.StatusOK)
}

func TestDocumentFilters_MalformedID(t *testing.T) {
	s := newTestServer(t, storage.NewMemoryStorage("http://files.test"))
	s.createCOA(t, "Vitamin C lot 1")

	for _, path := range []string{
		"/api/documents?product_id=abc",
		"/api/documents?supplier_id=not-a-uuid",
		"/api/documents/search?q=vitamin&product_id=abc",
	} {
		t.Run(path, func(t *testing.T) {
			w := s.do(t, http.MethodGet, path, "U1", nil)
			expectProblem(t, w, http.StatusBadRequest, "validation")
		})
	}

	w := s.do(t, http.MethodGet, "/api/documents?product_id=", "U1", nil)
	expectStatus(t, w, http.StatusOK)
	if docs := decode[[]qmsModels.Document](t, w); len(docs) != 1 {
		t.Errorf("blank product_id filter returned %d docs, want 1", len(docs))
	}
}
