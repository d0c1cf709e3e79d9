package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_LoadKeepsNullsAndDriverTypes(t *testing.T) {
	conn := newTestConn(t)
	cur := NewCursor(conn)

	rows, err := conn.QueryContext(context.Background(),
		`SELECT 7 AS n, NULL AS missing, 'text' AS s, 2.5 AS f`)
	require.NoError(t, err)
	require.NoError(t, cur.load(rows))

	assert.Equal(t, []string{"n", "missing", "s", "f"}, cur.Columns())
	row, ok := cur.FetchOne()
	require.True(t, ok)
	assert.Equal(t, []any{int64(7), nil, "text", 2.5}, row)
}

func TestCursor_LoadEmptyResult(t *testing.T) {
	conn := newTestConn(t)
	cur := NewCursor(conn)

	rows, err := conn.QueryContext(context.Background(),
		`SELECT "id" FROM "NotificationHistory" WHERE 0`)
	require.NoError(t, err)
	require.NoError(t, cur.load(rows))

	assert.Equal(t, []string{"id"}, cur.Columns())
	assert.Zero(t, cur.RowCount())
	assert.Nil(t, cur.FetchAll())
}

func TestCursor_LoadRowErrorLeavesBufferEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	broken := errors.New("row decode failed")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT a FROM t`)).
		WillReturnRows(sqlmock.NewRows([]string{"a"}).
			AddRow(1).
			AddRow(2).
			RowError(1, broken))

	cur := NewCursor(db)
	rows, err := db.QueryContext(context.Background(), `SELECT a FROM t`)
	require.NoError(t, err)

	err = cur.load(rows)
	assert.ErrorIs(t, err, broken)
	assert.Nil(t, cur.Columns())
	assert.Zero(t, cur.RowCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}
