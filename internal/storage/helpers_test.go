package storage

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a migrated in-memory SQLite database.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db := newEmptyDB(t)
	_, err := Migrate(context.Background(), db, SQLite)
	require.NoError(t, err)
	return db
}

// newEmptyDB opens an in-memory SQLite database with no schema.
func newEmptyDB(t *testing.T) *sqlx.DB {
	t.Helper()
	raw, err := NewSQLiteDB(":memory:")
	require.NoError(t, err)
	db := sqlx.NewDb(raw, SQLite.Driver)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newTestConn returns the single connection of a fresh test database. The
// pool holds one connection, so tests must use conn for every query.
func newTestConn(t *testing.T) *sqlx.Conn {
	t.Helper()
	db := newTestDB(t)
	conn, err := db.Connx(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func countRows(t *testing.T, conn *sqlx.Conn, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, conn.GetContext(context.Background(), &n, query, args...))
	return n
}

// tick waits long enough for the SQLite millisecond clock to advance.
func tick() { time.Sleep(5 * time.Millisecond) }
