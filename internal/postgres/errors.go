package postgres

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation = "23505"
	codeUndefinedColumn = "42703"
)

var (
	reConstraint = regexp.MustCompile(`constraint "([^"]+)"`)
	// column "tax_rate" of relation "orders" does not exist
	// column o.tax_rate does not exist
	reMissingColumn = regexp.MustCompile(`column "?([\w.]+)"?(?: of relation "([\w.]+)")? does not exist`)
	// PostgREST schema cache: Could not find the 'tax_rate' column of 'orders' in the schema cache
	reSchemaCache = regexp.MustCompile(`(?i)could not find the '([\w]+)' column(?: of '([\w.]+)')?`)
)

// Normalize translates a raw pgx error into the apperr taxonomy. Already
// normalised errors pass through untouched, so repositories can call it on
// every return path.
func Normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		dup   *apperr.DuplicateKeyError
		drift *apperr.SchemaDriftError
		pe    *apperr.PersistenceError
	)
	if errors.As(err, &dup) || errors.As(err, &drift) || errors.As(err, &pe) || errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		text := strings.Join([]string{pgErr.Message, pgErr.Detail, pgErr.Hint}, "\n")
		switch pgErr.Code {
		case codeUniqueViolation:
			name := pgErr.ConstraintName
			if name == "" {
				name = matchConstraint(text)
			}
			return &apperr.DuplicateKeyError{Constraint: name, Err: err}
		case codeUndefinedColumn:
			table, column := pgErr.TableName, pgErr.ColumnName
			if column == "" {
				table, column, _ = matchMissingColumn(text)
			}
			return &apperr.SchemaDriftError{Table: table, Column: column, Err: err}
		}
		if table, column, ok := matchMissingColumn(text); ok {
			return &apperr.SchemaDriftError{Table: table, Column: column, Err: err}
		}
		return &apperr.PersistenceError{Op: op, Err: err}
	}

	if table, column, ok := matchMissingColumn(err.Error()); ok {
		return &apperr.SchemaDriftError{Table: table, Column: column, Err: err}
	}
	return &apperr.PersistenceError{Op: op, Err: err}
}

func matchConstraint(text string) string {
	if m := reConstraint.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func matchMissingColumn(text string) (table, column string, ok bool) {
	m := reMissingColumn.FindStringSubmatch(text)
	if m == nil {
		m = reSchemaCache.FindStringSubmatch(text)
	}
	if m == nil {
		return "", "", false
	}
	column, table = m[1], m[2]
	if i := strings.LastIndex(column, "."); i >= 0 {
		column = column[i+1:]
	}
	return table, column, true
}
