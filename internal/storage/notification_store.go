package storage

import (
	"context"
	"time"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/notice"
)

// NotificationEvent is one recorded notification. Time is assigned by the
// database server at insert.
type NotificationEvent struct {
	Type notice.Type `json:"type"`
	Time time.Time   `json:"time"`
}

// NotificationHistoryStore is the append-only log of sent notifications.
type NotificationHistoryStore interface {
	// RecordEvent appends an event of type t stamped with the server clock
	// and commits it before returning. It reports false, touching nothing,
	// when t is not in recognized. A failed write is a fatal fault.
	RecordEvent(ctx context.Context, t notice.Type, recognized notice.Set) (bool, error)
	// LastReportDate returns the latest recorded time for t. The bool is
	// false when t has never been recorded. A t outside recognized is a
	// precondition fault.
	LastReportDate(ctx context.Context, t notice.Type, recognized notice.Set) (time.Time, bool, error)
	// ListEvents returns up to limit events of type t, newest first.
	// notice.Unknown lists every type.
	ListEvents(ctx context.Context, t notice.Type, limit int) ([]NotificationEvent, error)
}
