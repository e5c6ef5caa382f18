package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"qms/internal/domain/repositories"
)

// RepositoryConfig holds what every postgres repository needs
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds environment-prefixed table names (dev_, test_, prod_)
type TableNames struct {
	Documents     string
	Templates     string
	Approvals     string
	Versions      string
	Files         string
	Products      string
	Suppliers     string
	Notifications string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Documents:     prefix + "documents",
		Templates:     prefix + "templates",
		Approvals:     prefix + "document_approvals",
		Versions:      prefix + "document_versions",
		Files:         prefix + "document_files",
		Products:      prefix + "products",
		Suppliers:     prefix + "suppliers",
		Notifications: prefix + "notifications",
	}
}

// CreateConnectionPool opens a pgx pool against the Supabase database.
//
// Supabase's transaction pooler (PgBouncer, port 6543) rejects prepared
// statements, so unless the URL sets default_query_exec_mode explicitly the
// pool switches to QueryExecModeCacheDescribe there. That mode still uses the
// extended protocol, which jsonb parameters need.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction carried by ctx, or the pool when
// there is none, so repositories join an enclosing ExecTx automatically.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
