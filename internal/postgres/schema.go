package postgres

import (
	"context"
	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, q Querier) error {
	_, err := q.Exec(ctx, schemaSQL)
	return err
}

// Schema answers questions about the live database structure.
type Schema struct{ DB Querier }

// ColumnExists reports whether table.column is present in the current schema.
func (s *Schema) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	var ok bool
	err := s.DB.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2
		)`, table, column).Scan(&ok)
	if err != nil {
		return false, Normalize("probe column", err)
	}
	return ok, nil
}
