package memory

import (
	"context"
	"sort"
	"time"

	"qms/internal/domain"
	models "qms/internal/domain/models/qms"
	qmsRepo "qms/internal/domain/repositories/qms"
)

// TemplateRepository implements qmsRepo.TemplateRepository over a Store
type TemplateRepository struct {
	store *Store
}

func NewTemplateRepository(store *Store) qmsRepo.TemplateRepository {
	return &TemplateRepository{store: store}
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.Template, error) {
	var out *models.Template
	r.store.read(func(t *tables) {
		if tmpl, ok := t.templates[id]; ok {
			c := *tmpl
			c.Content = tmpl.Content.Clone()
			out = &c
		}
	})
	if out == nil {
		return nil, domain.NotFoundf("template %s", id)
	}
	return out, nil
}

func (r *TemplateRepository) List(ctx context.Context, activeOnly bool) ([]models.Template, error) {
	out := []models.Template{}
	r.store.read(func(t *tables) {
		for _, tmpl := range t.templates {
			if activeOnly && !tmpl.IsActive {
				continue
			}
			c := *tmpl
			c.Content = tmpl.Content.Clone()
			out = append(out, c)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Upsert keys on type and keeps is_active of an existing row
func (r *TemplateRepository) Upsert(ctx context.Context, tmpl *models.Template) error {
	return r.store.write(ctx, func(t *tables, now time.Time) error {
		for _, existing := range t.templates {
			if existing.Type == tmpl.Type {
				existing.Name = tmpl.Name
				existing.Content = tmpl.Content.Clone()
				existing.UpdatedAt = now
				tmpl.ID = existing.ID
				tmpl.IsActive = existing.IsActive
				tmpl.CreatedAt = existing.CreatedAt
				tmpl.UpdatedAt = now
				return nil
			}
		}
		tmpl.ID = newID()
		tmpl.CreatedAt = now
		tmpl.UpdatedAt = now
		stored := *tmpl
		stored.Content = tmpl.Content.Clone()
		t.templates[tmpl.ID] = &stored
		return nil
	})
}

// SetActive toggles a template row. Used by tests and local tooling; the
// postgres equivalent is an operator UPDATE.
func (r *TemplateRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.store.write(ctx, func(t *tables, now time.Time) error {
		tmpl, ok := t.templates[id]
		if !ok {
			return domain.NotFoundf("template %s", id)
		}
		tmpl.IsActive = active
		tmpl.UpdatedAt = now
		return nil
	})
}

// ProductRepository implements qmsRepo.ProductRepository over a Store
type ProductRepository struct {
	store *Store
}

func NewProductRepository(store *Store) qmsRepo.ProductRepository {
	return &ProductRepository{store: store}
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.store.write(ctx, func(t *tables, now time.Time) error {
		for _, existing := range t.products {
			if existing.SKU == p.SKU {
				return &domain.ConflictError{
					Message:      "product already exists",
					ResourceType: "product",
					ResourceID:   existing.ID,
				}
			}
		}
		p.ID = newID()
		p.CreatedAt = now
		p.UpdatedAt = now
		stored := *p
		t.products[p.ID] = &stored
		return nil
	})
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var out *models.Product
	r.store.read(func(t *tables) {
		if p, ok := t.products[id]; ok {
			c := *p
			out = &c
		}
	})
	if out == nil {
		return nil, domain.NotFoundf("product %s", id)
	}
	return out, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	out := []models.Product{}
	r.store.read(func(t *tables) {
		for _, p := range t.products {
			out = append(out, *p)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SupplierRepository implements qmsRepo.SupplierRepository over a Store
type SupplierRepository struct {
	store *Store
}

func NewSupplierRepository(store *Store) qmsRepo.SupplierRepository {
	return &SupplierRepository{store: store}
}

func (r *SupplierRepository) Create(ctx context.Context, s *models.Supplier) error {
	return r.store.write(ctx, func(t *tables, now time.Time) error {
		s.ID = newID()
		s.CreatedAt = now
		s.UpdatedAt = now
		stored := *s
		t.suppliers[s.ID] = &stored
		return nil
	})
}

func (r *SupplierRepository) GetByID(ctx context.Context, id string) (*models.Supplier, error) {
	var out *models.Supplier
	r.store.read(func(t *tables) {
		if s, ok := t.suppliers[id]; ok {
			c := *s
			out = &c
		}
	})
	if out == nil {
		return nil, domain.NotFoundf("supplier %s", id)
	}
	return out, nil
}

func (r *SupplierRepository) List(ctx context.Context) ([]models.Supplier, error) {
	out := []models.Supplier{}
	r.store.read(func(t *tables) {
		for _, s := range t.suppliers {
			out = append(out, *s)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// NotificationRepository implements qmsRepo.NotificationRepository over a Store
type NotificationRepository struct {
	store *Store
}

func NewNotificationRepository(store *Store) qmsRepo.NotificationRepository {
	return &NotificationRepository{store: store}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.store.write(ctx, func(t *tables, now time.Time) error {
		n.ID = newID()
		n.Read = false
		n.CreatedAt = now
		t.notifications = append(t.notifications, *n)
		return nil
	})
}

// ListByUser returns newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	out := []models.Notification{}
	r.store.read(func(t *tables) {
		for i := len(t.notifications) - 1; i >= 0; i-- {
			n := t.notifications[i]
			if n.UserID != userID || (unreadOnly && n.Read) {
				continue
			}
			out = append(out, n)
		}
	})
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	return r.store.write(ctx, func(t *tables, _ time.Time) error {
		for i := range t.notifications {
			if t.notifications[i].ID == id && t.notifications[i].UserID == userID {
				t.notifications[i].Read = true
				return nil
			}
		}
		return domain.NotFoundf("notification %s", id)
	})
}
