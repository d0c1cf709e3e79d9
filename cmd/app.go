package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/config"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/logger"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/storage"
)

// app holds the resources shared by every subcommand.
type app struct {
	cfg     *config.AppConfig
	log     *slog.Logger
	testing bool

	connector *storage.Connector
	db        *sqlx.DB
	conn      *sqlx.Conn
	exec      *storage.Executor

	closers []func() error
}

// newApp loads configuration and builds the logger. The database is opened
// lazily by openDB.
func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	testing, _ := cmd.Flags().GetBool("testing")
	if testing {
		cfg.Database.Testing = true
	}

	log, closeLog, err := logger.New("sek", logger.Options{
		Level:   cfg.SlogLevel(),
		Console: cmd.ErrOrStderr(),
		Color:   !cfg.Log.NoColor,
		File:    cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &app{
		cfg:     cfg,
		log:     log,
		testing: testing,
		exec:    storage.NewExecutor(log.With("component", "executor"), cfg.Database.StatementTimeout),
		closers: []func() error{closeLog},
	}, nil
}

// openDB connects to the configured database and pins one connection for
// the lifetime of the command.
func (a *app) openDB(ctx context.Context) error {
	connector, err := storage.NewConnector(a.cfg.Database, a.log.With("component", "connector"))
	if err != nil {
		return err
	}
	db, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	conn, err := db.Connx(ctx)
	if err != nil {
		_ = connector.Close(db)
		return fmt.Errorf("acquiring connection: %w", err)
	}

	a.connector, a.db, a.conn = connector, db, conn
	a.closers = append(a.closers, conn.Close, func() error { return connector.Close(db) })
	return nil
}

func (a *app) store() *storage.SQLNotificationHistoryStore {
	return storage.NewSQLNotificationHistoryStore(a.conn, a.connector.Dialect(), a.exec,
		a.log.With("component", "history"))
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withDB runs fn with an opened app and releases it afterwards.
func withDB(cmd *cobra.Command, fn func(a *app) error) (err error) {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := a.openDB(cmd.Context()); err != nil {
		return err
	}
	return fn(a)
}
