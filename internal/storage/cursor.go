package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Querier is satisfied by *sql.DB, *sql.Conn, *sql.Tx and their sqlx wrappers.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Cursor is a stateful handle that runs statements through a Querier and
// buffers the result rows for later fetching. A Cursor never owns or closes
// the connection it is bound to.
type Cursor struct {
	q       Querier
	columns []string
	rows    [][]any
	pos     int
}

// NewCursor binds a cursor to q.
func NewCursor(q Querier) *Cursor {
	return &Cursor{q: q}
}

// FetchOne returns the next buffered row.
func (c *Cursor) FetchOne() ([]any, bool) {
	if c.pos >= len(c.rows) {
		return nil, false
	}
	row := c.rows[c.pos]
	c.pos++
	return row, true
}

// FetchAll returns every row not yet fetched.
func (c *Cursor) FetchAll() [][]any {
	if c.pos >= len(c.rows) {
		return nil
	}
	rest := c.rows[c.pos:]
	c.pos = len(c.rows)
	return rest
}

// Columns returns the column names of the last result.
func (c *Cursor) Columns() []string { return c.columns }

// RowCount returns the number of rows produced by the last statement.
func (c *Cursor) RowCount() int { return len(c.rows) }

func (c *Cursor) reset() {
	c.columns = nil
	c.rows = nil
	c.pos = 0
}

// load drains and closes rows into the buffer.
func (c *Cursor) load(rows *sql.Rows) (err error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("reading columns: %w", err)
	}

	var buf [][]any
	for rows.Next() {
		vals, err := sqlx.SliceScan(rows)
		if err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		buf = append(buf, vals)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}

	c.columns = cols
	c.rows = buf
	return nil
}
