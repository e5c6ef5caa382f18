package qms

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"qms/internal/domain"
	models "qms/internal/domain/models/qms"
	qmsRepo "qms/internal/domain/repositories/qms"
	"qms/internal/repository/postgres"
)

// PostgresTemplateRepository implements the TemplateRepository interface
type PostgresTemplateRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(config *postgres.RepositoryConfig) qmsRepo.TemplateRepository {
	return &PostgresTemplateRepository{pool: config.Pool, tables: config.Tables}
}

func scanTemplate(row rowScanner) (*models.Template, error) {
	var t models.Template
	var content []byte
	if err := row.Scan(&t.ID, &t.Name, &t.Type, &content, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, &t.Content); err != nil {
		return nil, fmt.Errorf("decode content of template %s: %w", t.ID, err)
	}
	if t.Content.Type == "" {
		t.Content.Type = t.Type
	}
	return &t, nil
}

func (r *PostgresTemplateRepository) GetByID(ctx context.Context, id string) (*models.Template, error) {
	query := fmt.Sprintf(`
		SELECT id, name, type, content, is_active, created_at, updated_at
		FROM %s WHERE id = $1
	`, r.tables.Templates)

	executor := postgres.GetExecutor(ctx, r.pool)
	t, err := scanTemplate(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.MapError("get template", "template", id, err)
	}
	return t, nil
}

func (r *PostgresTemplateRepository) List(ctx context.Context, activeOnly bool) ([]models.Template, error) {
	query := fmt.Sprintf(`
		SELECT id, name, type, content, is_active, created_at, updated_at
		FROM %s
		WHERE is_active OR NOT $1
		ORDER BY name ASC
	`, r.tables.Templates)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, domain.NewStorageError("list templates", err)
	}
	defer rows.Close()

	templates := []models.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, domain.NewStorageError("scan template", err)
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate templates", err)
	}
	return templates, nil
}

// Upsert keys on type: re-seeding refreshes name and default content
// but leaves is_active as an operator set it.
func (r *PostgresTemplateRepository) Upsert(ctx context.Context, t *models.Template) error {
	content, err := json.Marshal(t.Content)
	if err != nil {
		return fmt.Errorf("encode template content: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name, type, content, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (type) DO UPDATE
		SET name = EXCLUDED.name, content = EXCLUDED.content, updated_at = NOW()
		RETURNING id, is_active, created_at, updated_at
	`, r.tables.Templates)

	executor := postgres.GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query, t.Name, t.Type, content, t.IsActive).
		Scan(&t.ID, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return postgres.MapError("upsert template", "template", string(t.Type), err)
}

// PostgresProductRepository implements the ProductRepository interface
type PostgresProductRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewProductRepository creates a new product repository
func NewProductRepository(config *postgres.RepositoryConfig) qmsRepo.ProductRepository {
	return &PostgresProductRepository{pool: config.Pool, tables: config.Tables}
}

func (r *PostgresProductRepository) Create(ctx context.Context, p *models.Product) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, sku, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, r.tables.Products)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, p.Name, p.SKU, p.Description).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if postgres.IsPgDuplicateError(err) {
		// Report the existing product so callers can return it
		var existingID string
		lookup := fmt.Sprintf(`SELECT id FROM %s WHERE sku = $1`, r.tables.Products)
		if lookupErr := executor.QueryRow(ctx, lookup, p.SKU).Scan(&existingID); lookupErr == nil {
			return &domain.ConflictError{
				Message:      "product already exists",
				ResourceType: "product",
				ResourceID:   existingID,
			}
		}
	}
	return postgres.MapError("create product", "product", p.SKU, err)
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := fmt.Sprintf(`SELECT id, name, sku, description, created_at, updated_at FROM %s WHERE id = $1`, r.tables.Products)

	var p models.Product
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.SKU, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError("get product", "product", id, err)
	}
	return &p, nil
}

func (r *PostgresProductRepository) List(ctx context.Context) ([]models.Product, error) {
	query := fmt.Sprintf(`SELECT id, name, sku, description, created_at, updated_at FROM %s ORDER BY name ASC`, r.tables.Products)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, domain.NewStorageError("list products", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, domain.NewStorageError("scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate products", err)
	}
	return products, nil
}

// PostgresSupplierRepository implements the SupplierRepository interface
type PostgresSupplierRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(config *postgres.RepositoryConfig) qmsRepo.SupplierRepository {
	return &PostgresSupplierRepository{pool: config.Pool, tables: config.Tables}
}

func (r *PostgresSupplierRepository) Create(ctx context.Context, s *models.Supplier) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, contact_email, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, r.tables.Suppliers)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, s.Name, s.ContactEmail, s.Status).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return postgres.MapError("create supplier", "supplier", s.Name, err)
}

func (r *PostgresSupplierRepository) GetByID(ctx context.Context, id string) (*models.Supplier, error) {
	query := fmt.Sprintf(`SELECT id, name, contact_email, status, created_at, updated_at FROM %s WHERE id = $1`, r.tables.Suppliers)

	var s models.Supplier
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.ContactEmail, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError("get supplier", "supplier", id, err)
	}
	return &s, nil
}

func (r *PostgresSupplierRepository) List(ctx context.Context) ([]models.Supplier, error) {
	query := fmt.Sprintf(`SELECT id, name, contact_email, status, created_at, updated_at FROM %s ORDER BY name ASC`, r.tables.Suppliers)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, domain.NewStorageError("list suppliers", err)
	}
	defer rows.Close()

	suppliers := []models.Supplier{}
	for rows.Next() {
		var s models.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.ContactEmail, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, domain.NewStorageError("scan supplier", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate suppliers", err)
	}
	return suppliers, nil
}

// PostgresNotificationRepository implements the NotificationRepository interface
type PostgresNotificationRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(config *postgres.RepositoryConfig) qmsRepo.NotificationRepository {
	return &PostgresNotificationRepository{pool: config.Pool, tables: config.Tables}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, document_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, read, created_at
	`, r.tables.Notifications)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, n.UserID, n.DocumentID, n.Message).Scan(&n.ID, &n.Read, &n.CreatedAt)
	return postgres.MapError("create notification", "notification", n.UserID, err)
}

func (r *PostgresNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, document_id, message, read, created_at
		FROM %s
		WHERE user_id = $1 AND (NOT read OR NOT $2)
		ORDER BY created_at DESC
		LIMIT 200
	`, r.tables.Notifications)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, domain.NewStorageError("list notifications", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.DocumentID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, domain.NewStorageError("scan notification", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate notifications", err)
	}
	return notifications, nil
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`UPDATE %s SET read = TRUE WHERE id = $1 AND user_id = $2`, r.tables.Notifications)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return postgres.MapError("mark notification read", "notification", id, err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFoundf("notification %s", id)
	}
	return nil
}
