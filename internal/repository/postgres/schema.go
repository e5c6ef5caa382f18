package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaStatements returns the idempotent DDL for every table, in
// dependency order.
func SchemaStatements(tables *TableNames, prefix string) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Products + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			sku TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Suppliers + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			contact_email TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'PENDING',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Templates + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			type TEXT NOT NULL UNIQUE,
			content JSONB NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title TEXT NOT NULL,
			template_id UUID REFERENCES ` + tables.Templates + `(id) ON DELETE SET NULL,
			template_type TEXT NOT NULL,
			content JSONB NOT NULL,
			search_text TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			workflow_status TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1 CHECK (version >= 1),
			digital_signature TEXT,
			approved_at TIMESTAMPTZ,
			product_id UUID REFERENCES ` + tables.Products + `(id) ON DELETE SET NULL,
			supplier_id UUID REFERENCES ` + tables.Suppliers + `(id) ON DELETE SET NULL,
			assigned_user_ids TEXT[] NOT NULL DEFAULT '{}',
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK ((digital_signature IS NULL) = (approved_at IS NULL)),
			CHECK (status <> 'SIGNED' OR workflow_status IN ('APPROVED', 'COMPLETED'))
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Approvals + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			status TEXT NOT NULL,
			approver_id TEXT NOT NULL,
			approver_name TEXT NOT NULL DEFAULT '',
			comments TEXT NOT NULL DEFAULT '',
			approved_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Versions + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			version INTEGER NOT NULL,
			editor_id TEXT NOT NULL,
			editor_name TEXT NOT NULL DEFAULT '',
			content JSONB NOT NULL,
			comments TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(document_id, version)
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Files + ` (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			file_name TEXT NOT NULL,
			content_type TEXT NOT NULL,
			size BIGINT NOT NULL,
			object_path TEXT NOT NULL,
			uploaded_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Notifications + ` (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id TEXT NOT NULL,
			document_id UUID REFERENCES ` + tables.Documents + `(id) ON DELETE SET NULL,
			message TEXT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `documents_product ON ` + tables.Documents + `(product_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `documents_supplier ON ` + tables.Documents + `(supplier_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `documents_assigned ON ` + tables.Documents + ` USING GIN (assigned_user_ids)`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `documents_fts ON ` + tables.Documents + ` USING GIN (to_tsvector('english', search_text))`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `approvals_document ON ` + tables.Approvals + `(document_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `files_document ON ` + tables.Files + `(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `notifications_user ON ` + tables.Notifications + `(user_id, created_at DESC)`,
	}
}

// DropStatements drops every table, dependents first.
func DropStatements(tables *TableNames) []string {
	names := []string{
		tables.Notifications,
		tables.Files,
		tables.Versions,
		tables.Approvals,
		tables.Documents,
		tables.Templates,
		tables.Suppliers,
		tables.Products,
	}
	stmts := make([]string, 0, len(names))
	for _, name := range names {
		stmts = append(stmts, "DROP TABLE IF EXISTS "+name+" CASCADE")
	}
	return stmts
}

// EnsureSchema runs SchemaStatements against the pool.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, prefix string) error {
	for _, stmt := range SchemaStatements(tables, prefix) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("run schema statement: %w", err)
		}
	}
	return nil
}
