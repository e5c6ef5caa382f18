package qms

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"qms/internal/domain"
	models "qms/internal/domain/models/qms"
	qmsRepo "qms/internal/domain/repositories/qms"
	"qms/internal/repository/postgres"
)

// PostgresApprovalRepository implements the ApprovalRepository interface
type PostgresApprovalRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(config *postgres.RepositoryConfig) qmsRepo.ApprovalRepository {
	return &PostgresApprovalRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func (r *PostgresApprovalRepository) Create(ctx context.Context, a *models.Approval) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, status, approver_id, approver_name, comments, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.Approvals)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		a.DocumentID,
		a.Status,
		a.ApproverID,
		a.ApproverName,
		a.Comments,
		a.ApprovedAt,
	).Scan(&a.ID, &a.CreatedAt)

	return postgres.MapError("create approval", "document", a.DocumentID, err)
}

func (r *PostgresApprovalRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Approval, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, status, approver_id, approver_name, comments, approved_at, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY created_at ASC, id ASC
	`, r.tables.Approvals)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, postgres.MapError("list approvals", "document", documentID, err)
	}
	defer rows.Close()

	approvals := []models.Approval{}
	for rows.Next() {
		var a models.Approval
		if err := rows.Scan(
			&a.ID,
			&a.DocumentID,
			&a.Status,
			&a.ApproverID,
			&a.ApproverName,
			&a.Comments,
			&a.ApprovedAt,
			&a.CreatedAt,
		); err != nil {
			return nil, domain.NewStorageError("scan approval", err)
		}
		approvals = append(approvals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate approvals", err)
	}
	return approvals, nil
}

func (r *PostgresApprovalRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.tables.Approvals)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID); err != nil {
		return domain.NewStorageError("delete approvals", err)
	}
	return nil
}

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewVersionRepository creates a new version history repository
func NewVersionRepository(config *postgres.RepositoryConfig) qmsRepo.VersionRepository {
	return &PostgresVersionRepository{pool: config.Pool, tables: config.Tables}
}

func (r *PostgresVersionRepository) Create(ctx context.Context, v *models.DocumentVersion) error {
	content, err := json.Marshal(v.Content)
	if err != nil {
		return fmt.Errorf("encode version content: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, version, editor_id, editor_name, content, comments)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		v.DocumentID,
		v.Version,
		v.EditorID,
		v.EditorName,
		content,
		v.Comments,
	).Scan(&v.ID, &v.CreatedAt)

	return postgres.MapError("create version", "document_version", fmt.Sprintf("%s@%d", v.DocumentID, v.Version), err)
}

func (r *PostgresVersionRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, version, editor_id, editor_name, content, comments, created_at
		FROM %s
		WHERE document_id = $1
		ORDER BY version DESC
	`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, postgres.MapError("list versions", "document", documentID, err)
	}
	defer rows.Close()

	versions := []models.DocumentVersion{}
	for rows.Next() {
		var v models.DocumentVersion
		var content []byte
		if err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.Version,
			&v.EditorID,
			&v.EditorName,
			&content,
			&v.Comments,
			&v.CreatedAt,
		); err != nil {
			return nil, domain.NewStorageError("scan version", err)
		}
		if err := json.Unmarshal(content, &v.Content); err != nil {
			return nil, fmt.Errorf("decode version %d content: %w", v.Version, err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("iterate versions", err)
	}
	return versions, nil
}

func (r *PostgresVersionRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, r.tables.Versions)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID); err != nil {
		return domain.NewStorageError("delete versions", err)
	}
	return nil
}
