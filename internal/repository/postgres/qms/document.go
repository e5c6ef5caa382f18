package qms

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"qms/internal/domain"
	models "qms/internal/domain/models/qms"
	qmsRepo "qms/internal/domain/repositories/qms"
	"qms/internal/repository/postgres"
)

const documentColumns = `id, title, template_id, template_type, content, status, workflow_status,
	version, digital_signature, approved_at, product_id, supplier_id, assigned_user_ids,
	created_by, created_at, updated_at`

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) qmsRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner, extra ...any) (*models.Document, error) {
	var doc models.Document
	var content []byte
	dest := []any{
		&doc.ID,
		&doc.Title,
		&doc.TemplateID,
		&doc.TemplateType,
		&content,
		&doc.Status,
		&doc.WorkflowStatus,
		&doc.Version,
		&doc.DigitalSignature,
		&doc.ApprovedAt,
		&doc.ProductID,
		&doc.SupplierID,
		&doc.AssignedUserIDs,
		&doc.CreatedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, &doc.Content); err != nil {
		return nil, fmt.Errorf("decode content of document %s: %w", doc.ID, err)
	}
	if doc.Content.Type == "" {
		doc.Content.Type = doc.TemplateType
	}
	if doc.AssignedUserIDs == nil {
		doc.AssignedUserIDs = []string{}
	}
	return &doc, nil
}

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	content, err := json.Marshal(doc.Content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	if doc.AssignedUserIDs == nil {
		doc.AssignedUserIDs = []string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (title, template_id, template_type, content, search_text, status, workflow_status,
			version, digital_signature, approved_at, product_id, supplier_id, assigned_user_ids, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		doc.Title,
		doc.TemplateID,
		doc.TemplateType,
		content,
		doc.Content.Text(),
		doc.Status,
		doc.WorkflowStatus,
		doc.Version,
		doc.DigitalSignature,
		doc.ApprovedAt,
		doc.ProductID,
		doc.SupplierID,
		doc.AssignedUserIDs,
		doc.CreatedBy,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	return postgres.MapError("create document", "document", doc.Title, err)
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.MapError("get document", "document", id, err)
	}
	return doc, nil
}

// GetForUpdate retrieves a document with a row lock held until the
// surrounding transaction ends
func (r *PostgresDocumentRepository) GetForUpdate(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.MapError("lock document", "document", id, err)
	}
	return doc, nil
}

// buildListQuery renders the filtered listing query. Kept separate from
// List so the SQL can be unit tested.
func buildListQuery(table string, filter models.DocumentFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.ProductID != nil {
		add("product_id = $%d", *filter.ProductID)
	}
	if filter.SupplierID != nil {
		add("supplier_id = $%d", *filter.SupplierID)
	}
	if filter.AssignedUserID != nil {
		add("$%d = ANY(assigned_user_ids)", *filter.AssignedUserID)
	}
	if filter.Unassigned {
		conditions = append(conditions, "product_id IS NULL")
	}
	if filter.WorkflowStatus != nil {
		add("workflow_status = $%d", string(*filter.WorkflowStatus))
	}

	query := fmt.Sprintf("SELECT %s FROM %s", documentColumns, table)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY title ASC, created_at ASC"
	return query, args
}

// List returns documents matching the filter, ordered by title
func (r *PostgresDocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	query, args := buildListQuery(r.tables.Documents, filter)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapQueryError("list documents", err)
	}
	defer rows.Close()

	documents := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, domain.NewStorageError("scan document", err)
		}
		documents = append(documents, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapQueryError("iterate documents", err)
	}

	return documents, nil
}

// Update persists every mutable field
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	content, err := json.Marshal(doc.Content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	if doc.AssignedUserIDs == nil {
		doc.AssignedUserIDs = []string{}
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, content = $2, search_text = $3, status = $4, workflow_status = $5,
			version = $6, digital_signature = $7, approved_at = $8, product_id = $9,
			supplier_id = $10, assigned_user_ids = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		doc.Title,
		content,
		doc.Content.Text(),
		doc.Status,
		doc.WorkflowStatus,
		doc.Version,
		doc.DigitalSignature,
		doc.ApprovedAt,
		doc.ProductID,
		doc.SupplierID,
		doc.AssignedUserIDs,
		doc.ID,
	).Scan(&doc.UpdatedAt)

	return postgres.MapError("update document", "document", doc.ID, err)
}

// Delete removes the document row
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return postgres.MapError("delete document", "document", id, err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFoundf("document %s", id)
	}
	return nil
}

// buildSearchQuery renders the full-text search query and its count query.
//
//   - websearch_to_tsquery accepts Google-like syntax (OR, -term, "phrases")
//   - title matches are weighted 2x over content matches
//   - ts_headline produces the snippet from the flattened content text
func buildSearchQuery(table string, opts *models.SearchOptions) (string, string, []any) {
	query := opts.Query
	if opts.MatchAny {
		query = opts.AnyTermQuery()
	}
	args := []any{opts.Language, query}
	match := "(to_tsvector($1::regconfig, title) @@ websearch_to_tsquery($1::regconfig, $2) OR " +
		"to_tsvector($1::regconfig, search_text) @@ websearch_to_tsquery($1::regconfig, $2))"

	where := []string{match}
	filter := opts.Filter
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if filter.SupplierID != nil {
		args = append(args, *filter.SupplierID)
		where = append(where, fmt.Sprintf("supplier_id = $%d", len(args)))
	}
	if filter.AssignedUserID != nil {
		args = append(args, *filter.AssignedUserID)
		where = append(where, fmt.Sprintf("$%d = ANY(assigned_user_ids)", len(args)))
	}
	if filter.Unassigned {
		where = append(where, "product_id IS NULL")
	}
	if filter.WorkflowStatus != nil {
		args = append(args, string(*filter.WorkflowStatus))
		where = append(where, fmt.Sprintf("workflow_status = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, table, whereClause)

	resultQuery := fmt.Sprintf(`
		SELECT %s,
		       (ts_rank(to_tsvector($1::regconfig, title), websearch_to_tsquery($1::regconfig, $2)) * 2.0 +
		        ts_rank(to_tsvector($1::regconfig, search_text), websearch_to_tsquery($1::regconfig, $2))) AS rank_score,
		       ts_headline($1::regconfig, search_text, websearch_to_tsquery($1::regconfig, $2),
		                   'MaxWords=35, MinWords=15, MaxFragments=1') AS snippet
		FROM %s
		WHERE %s
		ORDER BY rank_score DESC, title ASC
		LIMIT $%d OFFSET $%d
	`, documentColumns, table, whereClause, len(args)+1, len(args)+2)

	return resultQuery, countQuery, args
}

// Search performs full-text search over title and content
func (r *PostgresDocumentRepository) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, domain.Validationf("invalid search options: %v", err)
	}

	query, countQuery, args := buildSearchQuery(r.tables.Documents, opts)
	executor := postgres.GetExecutor(ctx, r.pool)

	var total int
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, postgres.MapQueryError("count search results", err)
	}

	rows, err := executor.Query(ctx, query, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, postgres.MapQueryError("full-text search", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var score float64
		var snippet string
		doc, err := scanDocument(rows, &score, &snippet)
		if err != nil {
			return nil, domain.NewStorageError("scan search result", err)
		}
		results = append(results, models.SearchResult{Document: *doc, Score: score, Snippet: snippet})
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapQueryError("iterate search results", err)
	}

	r.logger.Debug("document search",
		"query", opts.Query,
		"results", len(results),
		"total", total,
	)

	return models.NewSearchResults(results, total, opts), nil
}
