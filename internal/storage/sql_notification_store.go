package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/fault"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/logger"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/notice"
)

// Persisted schema of the notification history.
const (
	NotificationTable      = "NotificationHistory"
	NotificationTypeColumn = "notificationType"
	NotificationTimeColumn = "notificationTime"
)

const defaultListLimit = 50

// SQLNotificationHistoryStore implements NotificationHistoryStore on a
// single dedicated connection. It is not safe for concurrent use; callers
// that need concurrency use one store per connection.
type SQLNotificationHistoryStore struct {
	conn    *sqlx.Conn
	dialect Dialect
	exec    *Executor
	logger  *slog.Logger

	insertSQL string
	lastSQL   string
}

// NewSQLNotificationHistoryStore returns a store that uses conn for its
// whole lifetime. The store does not close conn.
func NewSQLNotificationHistoryStore(conn *sqlx.Conn, d Dialect, exec *Executor, l *slog.Logger) *SQLNotificationHistoryStore {
	table := d.Quote(NotificationTable)
	typeCol := d.Quote(NotificationTypeColumn)
	timeCol := d.Quote(NotificationTimeColumn)

	return &SQLNotificationHistoryStore{
		conn:    conn,
		dialect: d,
		exec:    exec,
		logger:  logger.OrDiscard(l),
		insertSQL: d.Rebind(fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES (?, %s)`,
			table, typeCol, timeCol, d.Now())),
		lastSQL: d.Rebind(fmt.Sprintf(`SELECT MAX(%s) FROM %s WHERE %s = ?`,
			timeCol, table, typeCol)),
	}
}

// RecordEvent inserts one history row for t and commits immediately.
func (s *SQLNotificationHistoryStore) RecordEvent(ctx context.Context, t notice.Type, recognized notice.Set) (bool, error) {
	const op = "storage.RecordEvent"
	if t.String() == "" || !recognized.Contains(t) {
		s.logger.Warn("refusing to record unrecognized notice type", "notice_type", int(t))
		return false, nil
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return false, fault.Fatal(op, "beginning transaction", err)
	}

	if _, err := s.exec.ExecuteSQL(ctx, NewCursor(tx), s.insertSQL, true, t.String()); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback notification event", "error", rbErr)
		}
		return false, fault.Fatal(op, "saving the notification time", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fault.Fatal(op, "committing the notification time", err)
	}

	s.logger.Debug("recorded notification event", "notice_type", t.String())
	return true, nil
}

// LastReportDate returns MAX(notificationTime) for t.
func (s *SQLNotificationHistoryStore) LastReportDate(ctx context.Context, t notice.Type, recognized notice.Set) (time.Time, bool, error) {
	const op = "storage.LastReportDate"
	if t.String() == "" || !recognized.Contains(t) {
		return time.Time{}, false, fault.Precondition(op, fmt.Sprintf("notice type %d", int(t)), ErrInvalidNoticeType)
	}

	cur := NewCursor(s.conn)
	if _, err := s.exec.ExecuteSQL(ctx, cur, s.lastSQL, true, t.String()); err != nil {
		return time.Time{}, false, fault.Fatal(op, "getting last report date", err)
	}

	row, ok := cur.FetchOne()
	if !ok || len(row) == 0 || row[0] == nil {
		return time.Time{}, false, nil
	}
	last, err := parseTimestamp(row[0])
	if err != nil {
		return time.Time{}, false, fault.Fatal(op, "decoding last report date", err)
	}
	return last, true, nil
}

type historyRow struct {
	Type string `db:"notificationType"`
	Time dbTime `db:"notificationTime"`
}

// ListEvents returns the newest events first.
func (s *SQLNotificationHistoryStore) ListEvents(ctx context.Context, t notice.Type, limit int) ([]NotificationEvent, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	table := s.dialect.Quote(NotificationTable)
	typeCol := s.dialect.Quote(NotificationTypeColumn)
	timeCol := s.dialect.Quote(NotificationTimeColumn)

	query := fmt.Sprintf(`SELECT %s, %s FROM %s`, typeCol, timeCol, table)
	var args []any
	if t != notice.Unknown {
		query += fmt.Sprintf(` WHERE %s = ?`, typeCol)
		args = append(args, t.String())
	}
	query += fmt.Sprintf(` ORDER BY %s DESC LIMIT ?`, timeCol)
	args = append(args, limit)

	var rows []historyRow
	if err := s.conn.SelectContext(ctx, &rows, s.dialect.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying notification history: %w", err)
	}

	events := make([]NotificationEvent, 0, len(rows))
	for _, r := range rows {
		typ, err := notice.Parse(r.Type)
		if err != nil {
			s.logger.Warn("skipping history row with unknown type", "notice_type", r.Type)
			continue
		}
		events = append(events, NotificationEvent{Type: typ, Time: r.Time.Time})
	}
	return events, nil
}
