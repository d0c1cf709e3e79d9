package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // Registers the "pgx" database/sql driver.
	"github.com/jmoiron/sqlx"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/config"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/logger"
)

// Connector opens and closes database handles for a DatabaseConfig.
type Connector struct {
	cfg     config.DatabaseConfig
	dialect Dialect
	logger  *slog.Logger
}

// NewConnector validates the configured driver and returns a Connector.
func NewConnector(cfg config.DatabaseConfig, l *slog.Logger) (*Connector, error) {
	cfg.ApplyDefaults()
	d, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	return &Connector{cfg: cfg, dialect: d, logger: logger.OrDiscard(l)}, nil
}

// Dialect returns the dialect of the configured driver.
func (c *Connector) Dialect() Dialect { return c.dialect }

// Connect opens the database and verifies it answers within the configured
// connect timeout.
func (c *Connector) Connect(ctx context.Context) (*sqlx.DB, error) {
	name := c.cfg.DatabaseName()
	if c.cfg.Testing {
		c.logger.Info("testing mode is on")
	}

	var db *sqlx.DB
	if c.dialect.Name == SQLite.Name {
		raw, err := NewSQLiteDB(name)
		if err != nil {
			return nil, fmt.Errorf("connecting to database %q: %w", name, err)
		}
		db = sqlx.NewDb(raw, c.dialect.Driver)
	} else {
		var err error
		db, err = sqlx.Open(c.dialect.Driver, c.dsn(name))
		if err != nil {
			return nil, fmt.Errorf("connecting to database %q: %w", name, err)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		c.logger.Error("failed to connect to the database", "database", name, "error", err)
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database %q: %w", name, err)
	}

	c.logger.Info("opened database connection", "database", name, "driver", c.dialect.Driver)
	return db, nil
}

// Close closes db and logs the event.
func (c *Connector) Close(db *sqlx.DB) error {
	c.logger.Info("closing database connection", "database", c.cfg.DatabaseName())
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

func (c *Connector) dsn(name string) string {
	port := c.cfg.Port
	if port == 0 {
		port = c.dialect.defaultPort
	}
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(port))

	switch c.dialect.Name {
	case MySQL.Name:
		mc := mysql.NewConfig()
		mc.User = c.cfg.User
		mc.Passwd = c.cfg.Password
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = name
		mc.ParseTime = true
		mc.Timeout = c.cfg.ConnectTimeout
		return mc.FormatDSN()
	default:
		q := url.Values{}
		q.Set("connect_timeout", strconv.Itoa(int(c.cfg.ConnectTimeout.Seconds())))
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.cfg.User, c.cfg.Password),
			Host:     addr,
			Path:     "/" + name,
			RawQuery: q.Encode(),
		}
		return u.String()
	}
}
