package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/fault"
)

// LastSequenceID returns the current value of the sequence backing
// table.column. For SQLite and MySQL this is the last id generated on the
// connection behind q, so q must be the *sql.Conn or *sql.Tx that performed
// the insert, never a pool.
//
// A query error and an absent value are both fatal: reading a sequence
// before any insert on the connection is a caller bug.
func (e *Executor) LastSequenceID(ctx context.Context, q Querier, d Dialect, table, column string) (int64, error) {
	const op = "storage.LastSequenceID"
	if table == "" {
		return 0, fault.Precondition(op, "", ErrNoTable)
	}
	if column == "" {
		return 0, fault.Precondition(op, "column not defined", nil)
	}

	e.logger.Debug("reading last sequence value",
		"table", table, "column", column, "dialect", d.Name)

	stmt, args := d.lastSequenceQuery(table, column)
	cur := NewCursor(q)
	if _, err := e.ExecuteSQL(ctx, cur, stmt, true, args...); err != nil {
		return 0, err
	}

	row, ok := cur.FetchOne()
	if !ok || len(row) == 0 || row[0] == nil {
		return 0, fault.Fatal(op, fmt.Sprintf("%s.%s", table, column), ErrNoSequenceValue)
	}
	id, err := toInt64(row[0])
	if err != nil {
		return 0, fault.Fatal(op, "decoding sequence value", err)
	}
	return id, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil //nolint:gosec // sequence values fit in int64
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("unexpected sequence value type %T", v)
}
