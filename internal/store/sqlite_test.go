package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB creates a SQLite file with an advertising table and a few rows
// around the analysis window.
func newTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ads.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE advert_stats (
			date TEXT,
			norm_query TEXT,
			advert_id TEXT,
			nm_id TEXT,
			avg_pos REAL,
			orders INTEGER
		)`)
	require.NoError(t, err)

	rows := [][]any{
		{"2025-12-31", "early", "a0", "p0", 4.0, 1},
		{"2026-01-01", "start", "a1", "p1", 5.5, 2},
		{"2026-01-15 09:30:00", "middle", "a2", "p2", 17.0, 3},
		{"2026-02-01", "end", "a3", "p3", 44.0, 4},
		{"2026-02-02", "late", "a4", "p4", 9.0, 5},
	}
	for _, r := range rows {
		_, err = db.Exec(
			"INSERT INTO advert_stats (date, norm_query, advert_id, nm_id, avg_pos, orders) VALUES (?, ?, ?, ?, ?, ?)",
			r...)
		require.NoError(t, err)
	}
	return path
}

func TestFetchWindowInclusiveRange(t *testing.T) {
	st := New(newTestDB(t), nil)

	table, err := st.FetchWindow(context.Background(), "advert_stats", "2026-01-01", "2026-02-01")
	require.NoError(t, err)
	require.False(t, table.Empty())

	// Boundary dates are included, out-of-window rows are not; the
	// timestamped row matches via day truncation.
	require.Len(t, table.Rows, 3)
	queryIdx := table.ColumnIndex("norm_query")
	require.GreaterOrEqual(t, queryIdx, 0)
	var queries []string
	for _, row := range table.Rows {
		queries = append(queries, row[queryIdx])
	}
	assert.ElementsMatch(t, []string{"start", "middle", "end"}, queries)
}

func TestFetchWindowReturnsAllColumnsAsText(t *testing.T) {
	st := New(newTestDB(t), nil)

	table, err := st.FetchWindow(context.Background(), "advert_stats", "2026-01-01", "2026-01-01")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	assert.Equal(t, []string{"date", "norm_query", "advert_id", "nm_id", "avg_pos", "orders"}, table.Columns)
	row := table.Rows[0]
	assert.Equal(t, "5.5", row[table.ColumnIndex("avg_pos")])
	assert.Equal(t, "2", row[table.ColumnIndex("orders")])
}

func TestFetchWindowEmptyResult(t *testing.T) {
	st := New(newTestDB(t), nil)

	table, err := st.FetchWindow(context.Background(), "advert_stats", "2027-01-01", "2027-02-01")
	require.NoError(t, err)
	assert.True(t, table.Empty())
}

func TestFetchWindowMissingTable(t *testing.T) {
	st := New(newTestDB(t), nil)

	_, err := st.FetchWindow(context.Background(), "no_such_table", "2026-01-01", "2026-02-01")
	assert.Error(t, err)
}

func TestFetchWindowRejectsInvalidTableName(t *testing.T) {
	st := New(newTestDB(t), nil)

	for _, name := range []string{"bad table", "x; DROP TABLE advert_stats", "", "1table"} {
		_, err := st.FetchWindow(context.Background(), name, "2026-01-01", "2026-02-01")
		assert.Error(t, err, "table=%q", name)
	}
}

func TestTableColumnIndex(t *testing.T) {
	table := &Table{Columns: []string{"a", "b"}}
	assert.Equal(t, 1, table.ColumnIndex("b"))
	assert.Equal(t, -1, table.ColumnIndex("z"))
}
