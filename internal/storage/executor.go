package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/fault"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/logger"
)

// Errors reported inside fault.Error values by this package.
var (
	ErrNoSequenceValue   = errors.New("last sequence value could not be retrieved")
	ErrInvalidNoticeType = errors.New("invalid notice type or missing types")
	ErrNoCursor          = errors.New("cursor not defined")
	ErrNoTable           = errors.New("table not defined")
)

// Executor runs statements through cursors. It never commits: transaction
// boundaries belong to whoever owns the Querier behind the cursor.
type Executor struct {
	logger  *slog.Logger
	timeout time.Duration
}

// NewExecutor returns an Executor. A positive timeout bounds every statement.
func NewExecutor(l *slog.Logger, timeout time.Duration) *Executor {
	return &Executor{logger: logger.OrDiscard(l), timeout: timeout}
}

// ExecuteSQL runs stmt with args on cur and buffers any result rows in it.
//
// On failure the statement and the driver error are logged at ERROR and the
// cursor is left without rows. With exitOnFailure the failure is returned
// as a fatal fault; otherwise ExecuteSQL reports false with a nil error and
// the caller decides.
func (e *Executor) ExecuteSQL(ctx context.Context, cur *Cursor, stmt string, exitOnFailure bool, args ...any) (bool, error) {
	if cur == nil || cur.q == nil {
		return false, fault.Precondition("storage.ExecuteSQL", "", ErrNoCursor)
	}
	cur.reset()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	rows, err := cur.q.QueryContext(ctx, stmt, args...)
	if err == nil {
		err = cur.load(rows)
	}
	if err == nil {
		return true, nil
	}

	cur.reset()
	e.logger.Error("sql execute failed",
		slog.String("statement", stmt),
		slog.Any("error", err),
	)
	if exitOnFailure {
		return false, fault.Fatal("storage.ExecuteSQL", fmt.Sprintf("executing %q", stmt), err)
	}
	return false, nil
}
