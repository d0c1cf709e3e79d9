package storage

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	// Name is sqlite, mysql or postgres.
	Name string
	// Driver is the database/sql driver name registered by the driver package.
	Driver string

	quote       string
	now         string
	lastID      string
	columns     string
	currentDB   string
	historyDDL  []string
	defaultPort int
}

// Supported dialects.
var (
	SQLite = Dialect{
		Name:      "sqlite",
		Driver:    "sqlite",
		quote:     `"`,
		now:       `strftime('%Y-%m-%d %H:%M:%f', 'now')`,
		lastID:    `SELECT NULLIF(last_insert_rowid(), 0)`,
		columns:   `SELECT name FROM pragma_table_info(?) ORDER BY cid`,
		currentDB: `SELECT file FROM pragma_database_list WHERE name = 'main'`,
		historyDDL: []string{
			`CREATE TABLE IF NOT EXISTS "NotificationHistory" (
    "notificationType" TEXT NOT NULL,
    "notificationTime" TIMESTAMP NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS "idx_NotificationHistory_type_time"
    ON "NotificationHistory" ("notificationType", "notificationTime")`,
		},
	}

	MySQL = Dialect{
		Name:      "mysql",
		Driver:    "mysql",
		quote:     "`",
		now:       `UTC_TIMESTAMP(6)`,
		lastID:    `SELECT NULLIF(LAST_INSERT_ID(), 0)`,
		columns:   `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`,
		currentDB: `SELECT DATABASE()`,
		historyDDL: []string{
			"CREATE TABLE IF NOT EXISTS `NotificationHistory` (\n" +
				"    `notificationType` VARCHAR(191) NOT NULL,\n" +
				"    `notificationTime` DATETIME(6) NOT NULL,\n" +
				"    INDEX `idx_NotificationHistory_type_time` (`notificationType`, `notificationTime`)\n" +
				")",
		},
		defaultPort: 3306,
	}

	Postgres = Dialect{
		Name:      "postgres",
		Driver:    "pgx",
		quote:     `"`,
		now:       `(NOW() AT TIME ZONE 'UTC')`,
		columns:   `SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position`,
		currentDB: `SELECT current_database()`,
		historyDDL: []string{
			`CREATE TABLE IF NOT EXISTS "NotificationHistory" (
    "notificationType" TEXT NOT NULL,
    "notificationTime" TIMESTAMP WITHOUT TIME ZONE NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS "idx_NotificationHistory_type_time"
    ON "NotificationHistory" ("notificationType", "notificationTime")`,
		},
		defaultPort: 5432,
	}
)

// DialectFor maps a configured driver name to its Dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// Quote returns ident as a quoted identifier.
func (d Dialect) Quote(ident string) string {
	return d.quote + strings.ReplaceAll(ident, d.quote, d.quote+d.quote) + d.quote
}

// Rebind converts ? placeholders to the driver's bind style.
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(d.Driver), query)
}

// Now is the SQL expression for the server's current UTC timestamp. The
// history columns carry no zone, so every dialect stores UTC wall time.
func (d Dialect) Now() string { return d.now }

func (d Dialect) lastSequenceQuery(table, column string) (string, []any) {
	if d.lastID != "" {
		return d.lastID, nil
	}
	// pg_get_serial_sequence expects the table as a (possibly quoted) identifier.
	return d.Rebind(`SELECT currval(pg_get_serial_sequence(?, ?))`), []any{d.Quote(table), column}
}

func (d Dialect) columnsQuery() string { return d.Rebind(d.columns) }
