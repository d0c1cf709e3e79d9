package storage

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_CreatesTables(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"NotificationHistory", "schema_migrations"} {
		var name string
		err := db.QueryRowContext(context.Background(),
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %q not found", table)
	}
}

func TestMigrate_Version(t *testing.T) {
	db := newTestDB(t)

	var version int
	require.NoError(t, db.GetContext(context.Background(), &version, "SELECT MAX(version) FROM schema_migrations"))
	assert.Equal(t, 1, version)
}

func TestMigrate_FreshFlagAndIdempotence(t *testing.T) {
	raw, err := NewSQLiteDB(":memory:")
	require.NoError(t, err)
	db := sqlx.NewDb(raw, SQLite.Driver)
	defer db.Close()

	ctx := context.Background()
	fresh, err := Migrate(ctx, db, SQLite)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = Migrate(ctx, db, SQLite)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestMigrate_HistoryColumns(t *testing.T) {
	db := newTestDB(t)

	var cols []string
	require.NoError(t, db.SelectContext(context.Background(), &cols,
		`SELECT name FROM pragma_table_info('NotificationHistory') ORDER BY cid`))
	assert.Equal(t, []string{"notificationType", "notificationTime"}, cols)
}
