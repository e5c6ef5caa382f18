// Package memory provides in-process implementations of the repository
// interfaces. They back local development (STORE_BACKEND=memory) and make
// service tests hermetic.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	models "qms/internal/domain/models/qms"
	"qms/internal/domain/repositories"
)

// Store holds every table. Repositories are views over one Store so a
// transaction can snapshot and restore all of them together.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	now  func() time.Time
	data tables
}

type tables struct {
	documents     map[string]*models.Document
	templates     map[string]*models.Template
	approvals     []models.Approval
	versions      []models.DocumentVersion
	files         map[string]*models.DocumentFile
	products      map[string]*models.Product
	suppliers     map[string]*models.Supplier
	notifications []models.Notification
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		now: time.Now,
		data: tables{
			documents: make(map[string]*models.Document),
			templates: make(map[string]*models.Template),
			files:     make(map[string]*models.DocumentFile),
			products:  make(map[string]*models.Product),
			suppliers: make(map[string]*models.Supplier),
		},
	}
}

// SetClock overrides the timestamp source; tests use it for deterministic ordering.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func newID() string {
	return uuid.New().String()
}

// snapshot deep-copies all tables. Caller holds s.mu.
func (s *Store) snapshot() tables {
	t := tables{
		documents:     make(map[string]*models.Document, len(s.data.documents)),
		templates:     make(map[string]*models.Template, len(s.data.templates)),
		approvals:     append([]models.Approval(nil), s.data.approvals...),
		versions:      make([]models.DocumentVersion, len(s.data.versions)),
		files:         make(map[string]*models.DocumentFile, len(s.data.files)),
		products:      make(map[string]*models.Product, len(s.data.products)),
		suppliers:     make(map[string]*models.Supplier, len(s.data.suppliers)),
		notifications: append([]models.Notification(nil), s.data.notifications...),
	}
	for id, d := range s.data.documents {
		t.documents[id] = d.Clone()
	}
	for id, tmpl := range s.data.templates {
		c := *tmpl
		c.Content = tmpl.Content.Clone()
		t.templates[id] = &c
	}
	for i, v := range s.data.versions {
		v.Content = v.Content.Clone()
		t.versions[i] = v
	}
	for id, f := range s.data.files {
		c := *f
		t.files[id] = &c
	}
	for id, p := range s.data.products {
		c := *p
		t.products[id] = &c
	}
	for id, sup := range s.data.suppliers {
		c := *sup
		t.suppliers[id] = &c
	}
	return t
}

// write runs fn under the write lock. Outside a transaction it also takes
// txMu so a rollback never discards a concurrent non-transactional write.
func (s *Store) write(ctx context.Context, fn func(t *tables, now time.Time) error) error {
	if !repositories.InTxScope(ctx, txScope) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.data, s.now().UTC())
}

func (s *Store) read(fn func(t *tables)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.data)
}
