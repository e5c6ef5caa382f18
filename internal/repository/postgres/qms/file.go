package qms

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"qms/internal/domain"
	models "qms/internal/domain/models/qms"
	qmsRepo "qms/internal/domain/repositories/qms"
	"qms/internal/repository/postgres"
)

const fileColumns = `id, document_id, file_name, content_type, size, object_path, uploaded_by, created_at`

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewFileRepository creates a new file metadata repository
func NewFileRepository(config *postgres.RepositoryConfig) qmsRepo.FileRepository {
	return &PostgresFileRepository{pool: config.Pool, tables: config.Tables}
}

func scanFile(row rowScanner) (*models.DocumentFile, error) {
	var f models.DocumentFile
	err := row.Scan(
		&f.ID,
		&f.DocumentID,
		&f.FileName,
		&f.ContentType,
		&f.Size,
		&f.ObjectPath,
		&f.UploadedBy,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PostgresFileRepository) Create(ctx context.Context, f *models.DocumentFile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, file_name, content_type, size, object_path, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		f.ID,
		f.DocumentID,
		f.FileName,
		f.ContentType,
		f.Size,
		f.ObjectPath,
		f.UploadedBy,
	).Scan(&f.CreatedAt)

	return postgres.MapError("create file", "file", f.ID, err)
}

func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.DocumentFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, fileColumns, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	f, err := scanFile(executor.QueryRow(ctx, query, id))
	if err != nil {
		return nil, postgres.MapError("get file", "file", id, err)
	}
	return f, nil
}

func (r *PostgresFileRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentFile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE document_id = $1 ORDER BY created_at ASC`, fileColumns, r.tables.Files)
	return r.query(ctx, "list files", documentID, query)
}

func (r *PostgresFileRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return postgres.MapError("delete file", "file", id, err)
	}
	if result.RowsAffected() == 0 {
		return domain.NotFoundf("file %s", id)
	}
	return nil
}

func (r *PostgresFileRepository) DeleteByDocument(ctx context.Context, documentID string) ([]models.DocumentFile, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1 RETURNING %s`, r.tables.Files, fileColumns)
	return r.query(ctx, "delete files", documentID, query)
}

func (r *PostgresFileRepository) query(ctx context.Context, op, documentID, query string) ([]models.DocumentFile, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, postgres.MapError(op, "document", documentID, err)
	}
	defer rows.Close()

	files := []models.DocumentFile{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, domain.NewStorageError(op, err)
		}
		files = append(files, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	return files, nil
}
