package storage

import (
	"context"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/fault"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/logger"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/notice"
)

func newTestStore(t *testing.T) (*SQLNotificationHistoryStore, *logger.Recorder) {
	t.Helper()
	conn := newTestConn(t)
	log, rec := logger.NewRecorded()
	return NewSQLNotificationHistoryStore(conn, SQLite, NewExecutor(log, 0), log), rec
}

func TestSQLNotificationHistoryStore_LastReportDateTracksLatest(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	all := notice.All()

	// SQLite stores milliseconds, so compare at that precision.
	before := time.Now().UTC().Truncate(time.Millisecond)
	ok, err := store.RecordEvent(ctx, notice.LowBattery, all)
	require.NoError(t, err)
	require.True(t, ok)

	t1, found, err := store.LastReportDate(ctx, notice.LowBattery, all)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, t1.Before(before), "recorded time %v precedes invocation %v", t1, before)

	tick()
	ok, err = store.RecordEvent(ctx, notice.LowBattery, all)
	require.NoError(t, err)
	require.True(t, ok)

	t2, found, err := store.LastReportDate(ctx, notice.LowBattery, all)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, t2.After(t1), "expected %v after %v", t2, t1)
}

func TestSQLNotificationHistoryStore_LastReportDateEqualsNewestRow(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	all := notice.All()

	var prev time.Time
	for i := 0; i < 10; i++ {
		before := time.Now().UTC().Truncate(time.Millisecond)
		ok, err := store.RecordEvent(ctx, notice.HighUsage, all)
		require.NoError(t, err)
		require.True(t, ok)

		last, found, err := store.LastReportDate(ctx, notice.HighUsage, all)
		require.NoError(t, err)
		require.True(t, found)
		assert.False(t, last.Before(before), "round %d: recorded %v before invocation %v", i, last, before)
		assert.True(t, last.After(prev), "round %d: %v not after %v", i, last, prev)

		newest, err := store.ListEvents(ctx, notice.HighUsage, 1)
		require.NoError(t, err)
		require.Len(t, newest, 1)
		assert.True(t, newest[0].Time.Equal(last), "round %d: newest row %v, last report %v", i, newest[0].Time, last)

		prev = last
		tick()
	}
	assert.Equal(t, 10, countRows(t, store.conn, `SELECT COUNT(*) FROM "NotificationHistory"`))
}

func TestSQLNotificationHistoryStore_NoHistoryIsNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.RecordEvent(ctx, notice.LowBattery, notice.All())
	require.NoError(t, err)

	last, found, err := store.LastReportDate(ctx, notice.HighUsage, notice.All())
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, last.IsZero())
}

func TestSQLNotificationHistoryStore_UnrecognizedTypeIsRefused(t *testing.T) {
	store, rec := newTestStore(t)
	ctx := context.Background()
	onlyBattery := notice.NewSet(notice.LowBattery)

	ok, err := store.RecordEvent(ctx, notice.HighUsage, onlyBattery)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.RecordEvent(ctx, notice.Unknown, notice.All())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 0, countRows(t, store.conn, `SELECT COUNT(*) FROM "NotificationHistory"`))
	assert.Len(t, rec.EntriesAt(slog.LevelWarn), 2)
}

func TestSQLNotificationHistoryStore_LastReportDateRejectsUnrecognized(t *testing.T) {
	store, _ := newTestStore(t)

	_, _, err := store.LastReportDate(context.Background(), notice.ExportFailed, notice.NewSet(notice.LowBattery))
	require.Error(t, err)
	assert.True(t, fault.IsPrecondition(err))
	assert.ErrorIs(t, err, ErrInvalidNoticeType)

	_, _, err = store.LastReportDate(context.Background(), notice.Type(99), notice.All())
	assert.ErrorIs(t, err, ErrInvalidNoticeType)
}

func TestSQLNotificationHistoryStore_StoresTypeName(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.RecordEvent(context.Background(), notice.MissingReadings, notice.All())
	require.NoError(t, err)

	assert.Equal(t, 1, countRows(t, store.conn,
		`SELECT COUNT(*) FROM "NotificationHistory" WHERE "notificationType" = ?`, "MissingReadings"))
}

func TestSQLNotificationHistoryStore_ListEvents(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	all := notice.All()

	for _, typ := range []notice.Type{notice.LowBattery, notice.HighUsage, notice.LowBattery} {
		_, err := store.RecordEvent(ctx, typ, all)
		require.NoError(t, err)
		tick()
	}

	events, err := store.ListEvents(ctx, notice.Unknown, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, notice.LowBattery, events[0].Type)
	assert.Equal(t, notice.HighUsage, events[1].Type)
	assert.True(t, events[0].Time.After(events[2].Time))

	battery, err := store.ListEvents(ctx, notice.LowBattery, 1)
	require.NoError(t, err)
	require.Len(t, battery, 1)

	last, _, err := store.LastReportDate(ctx, notice.LowBattery, all)
	require.NoError(t, err)
	assert.True(t, battery[0].Time.Equal(last))
}

func TestSQLNotificationHistoryStore_ListEventsSkipsUnknownRows(t *testing.T) {
	store, rec := newTestStore(t)
	ctx := context.Background()

	_, err := store.conn.ExecContext(ctx,
		`INSERT INTO "NotificationHistory" ("notificationType", "notificationTime") VALUES ('Legacy', '2020-01-01 00:00:00')`)
	require.NoError(t, err)
	_, err = store.RecordEvent(ctx, notice.DataAvailable, notice.All())
	require.NoError(t, err)

	events, err := store.ListEvents(ctx, notice.Unknown, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, notice.DataAvailable, events[0].Type)
	assert.NotEmpty(t, rec.EntriesAt(slog.LevelWarn))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, 3, 4, 5, 6, 7, 123000000, time.UTC)

	for _, v := range []any{
		want,
		"2026-03-04 05:06:07.123",
		[]byte("2026-03-04T05:06:07.123Z"),
	} {
		got, err := parseTimestamp(v)
		require.NoError(t, err)
		assert.True(t, got.Equal(want), "%v != %v", got, want)
	}

	_, err := parseTimestamp("yesterday")
	assert.Error(t, err)
	_, err = parseTimestamp(42)
	assert.Error(t, err)
}

func TestSQLNotificationHistoryStore_InsertUsesServerUTCClock(t *testing.T) {
	tests := []struct {
		dialect Dialect
		insert  string
	}{
		{
			dialect: SQLite,
			insert:  `INSERT INTO "NotificationHistory" ("notificationType", "notificationTime") VALUES (?, strftime('%Y-%m-%d %H:%M:%f', 'now'))`,
		},
		{
			dialect: MySQL,
			insert:  "INSERT INTO `NotificationHistory` (`notificationType`, `notificationTime`) VALUES (?, UTC_TIMESTAMP(6))",
		},
		{
			dialect: Postgres,
			insert:  `INSERT INTO "NotificationHistory" ("notificationType", "notificationTime") VALUES ($1, (NOW() AT TIME ZONE 'UTC'))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectBegin()
			mock.ExpectQuery(tt.insert).WithArgs("LowBattery").WillReturnRows(sqlmock.NewRows(nil))
			mock.ExpectCommit()

			ctx := context.Background()
			conn, err := sqlx.NewDb(db, tt.dialect.Driver).Connx(ctx)
			require.NoError(t, err)
			defer conn.Close()

			store := NewSQLNotificationHistoryStore(conn, tt.dialect, NewExecutor(nil, 0), nil)
			ok, err := store.RecordEvent(ctx, notice.LowBattery, notice.All())
			require.NoError(t, err)
			assert.True(t, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLNotificationHistoryStore_LastReportDateReadsUTC(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	stored := time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX("notificationTime") FROM "NotificationHistory" WHERE "notificationType" = $1`)).
		WithArgs("MissingReadings").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(stored))

	ctx := context.Background()
	conn, err := sqlx.NewDb(db, Postgres.Driver).Connx(ctx)
	require.NoError(t, err)
	defer conn.Close()

	store := NewSQLNotificationHistoryStore(conn, Postgres, NewExecutor(nil, 0), nil)
	last, found, err := store.LastReportDate(ctx, notice.MissingReadings, notice.All())
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, last.Equal(stored))
	assert.Equal(t, time.UTC, last.Location())
}
