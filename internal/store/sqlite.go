// Package store loads advertising performance snapshots from a SQLite database.
//
// The loader is deliberately schema-agnostic: it selects every column of the
// advertising table as text and leaves numeric coercion to the analysis layer,
// so a table with extra or reordered columns still loads.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"

	_ "modernc.org/sqlite"
)

// identPattern restricts table names to plain SQL identifiers. The table name
// cannot be bound as a query parameter, so it is validated before interpolation.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table is a raw query result: column names plus rows of text values.
// A nil cell marks SQL NULL.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table holds no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// ColumnIndex returns the index of the named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Store reads advertising records from a SQLite database file.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a store for the given database path.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// FetchWindow returns every row of the advertising table whose date (truncated
// to day) falls inside the inclusive [start, end] window. Dates are compared in
// YYYY-MM-DD form. The connection lives only for the duration of the call.
func (s *Store) FetchWindow(ctx context.Context, table, start, end string) (*Table, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	s.logger.InfoContext(ctx, "loading advertising data",
		"db", s.path,
		"table", table,
		"start", start,
		"end", end,
	)

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE strftime('%%Y-%%m-%%d', date) BETWEEN ? AND ?", table)

	rows, err := db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &Table{Columns: cols}
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		scanArgs := make([]any, len(cols))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make([]string, len(cols))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	s.logger.InfoContext(ctx, "loaded advertising data", "records", len(result.Rows))
	return result, nil
}
