package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/fault"
)

// Columns lists the column names of table in ordinal order.
func (e *Executor) Columns(ctx context.Context, cur *Cursor, d Dialect, table string) ([]string, error) {
	const op = "storage.Columns"
	if cur == nil {
		return nil, fault.Precondition(op, "", ErrNoCursor)
	}
	if table == "" {
		return nil, fault.Precondition(op, "", ErrNoTable)
	}

	if _, err := e.ExecuteSQL(ctx, cur, d.columnsQuery(), true, table); err != nil {
		return nil, err
	}

	rows := cur.FetchAll()
	cols := make([]string, 0, len(rows))
	for _, row := range rows {
		cols = append(cols, asString(row[0]))
	}
	return cols, nil
}

// ColumnsString returns the column names of table joined by commas, in the
// form used by generic INSERT statements.
func (e *Executor) ColumnsString(ctx context.Context, cur *Cursor, d Dialect, table string) (string, error) {
	cols, err := e.Columns(ctx, cur, d, table)
	if err != nil {
		return "", err
	}
	return strings.Join(cols, ","), nil
}

// DatabaseName returns the name of the database behind cur.
func (e *Executor) DatabaseName(ctx context.Context, cur *Cursor, d Dialect) (string, error) {
	if cur == nil {
		return "", fault.Precondition("storage.DatabaseName", "", ErrNoCursor)
	}
	if _, err := e.ExecuteSQL(ctx, cur, d.currentDB, true); err != nil {
		return "", err
	}
	row, ok := cur.FetchOne()
	if !ok {
		return "", nil
	}
	return asString(row[0]), nil
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}
