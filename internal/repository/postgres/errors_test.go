package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"qms/internal/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "no rows", err: pgx.ErrNoRows, want: domain.ErrNotFound},
		{name: "malformed id", err: &pgconn.PgError{Code: "22P02"}, want: domain.ErrNotFound},
		{name: "duplicate", err: &pgconn.PgError{Code: "23505"}, want: domain.ErrConflict},
		{name: "foreign key", err: &pgconn.PgError{Code: "23503"}, want: domain.ErrValidation},
		{name: "connection", err: errors.New("connection refused"), want: domain.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError("get document", "document", "abc", tt.err)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("MapError() = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("MapError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapQueryError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "malformed filter uuid", err: fmt.Errorf("query: %w", &pgconn.PgError{Code: "22P02"}), want: domain.ErrValidation},
		{name: "undefined table", err: &pgconn.PgError{Code: "42P01"}, want: domain.ErrStorage},
		{name: "connection", err: errors.New("connection reset"), want: domain.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapQueryError("list documents", tt.err)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("MapQueryError() = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("MapQueryError() = %v, want %v", got, tt.want)
			}
		})
	}

	// Bad input must not be reported as retryable
	var storageErr *domain.StorageError
	if errors.As(MapQueryError("list documents", &pgconn.PgError{Code: "22P02"}), &storageErr) {
		t.Error("malformed filter mapped to StorageError")
	}
}
