// Package storage persists ledger records and their change history on top
// of database/sql, using SQLite by default and PostgreSQL when configured.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"despesas/internal/core"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Config selects the backing database.
type Config struct {
	Driver Driver
	// Path is the SQLite database file.
	Path string
	// DSN overrides the connection string. Required for postgres.
	DSN string
}

// DataSource returns the connection string for cfg.
func (c Config) DataSource() string {
	if c.DSN != "" || c.Driver == DriverPostgres {
		return c.DSN
	}
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		c.Path,
	)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is an open ledger database.
type DB struct {
	db     *sql.DB
	driver Driver
	now    func() time.Time
}

// Tx is one all-or-nothing unit of work.
type Tx struct {
	tx     *sql.Tx
	driver Driver
	now    func() time.Time
}

// Open connects to the configured database and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if err := cfg.Driver.Validate(); err != nil {
		return nil, err
	}

	if cfg.Driver == DriverSQLite && cfg.DSN == "" {
		if cfg.Path == "" {
			cfg.Path = "./data/despesas.db"
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	if cfg.Driver == DriverPostgres && cfg.DSN == "" {
		return nil, fmt.Errorf("postgres requires a DSN")
	}

	dsn := cfg.DataSource()
	sqlDB, err := sql.Open(string(cfg.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// single writer
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(cfg.Driver, dsn); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{db: sqlDB, driver: cfg.Driver, now: time.Now}, nil
}

// Close releases the connection pool.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// SQL exposes the underlying pool for maintenance statements.
func (d *DB) SQL() *sql.DB { return d.db }

// Driver reports which database backs d.
func (d *DB) Driver() Driver { return d.driver }

// Records reads and writes records outside any transaction.
func (d *DB) Records() Records { return Records{q: d.db, driver: d.driver} }

// History reads and appends change events outside any transaction.
func (d *DB) History() History { return History{q: d.db, driver: d.driver, now: d.now} }

// WithTx runs fn inside one transaction. The transaction commits only when
// fn returns nil; any error rolls back every statement fn issued.
func (d *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.StorageError{Op: "begin", Err: err}
	}

	if err := fn(&Tx{tx: sqlTx, driver: d.driver, now: d.now}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return &core.StorageError{Op: "commit", Err: err}
	}
	return nil
}

// Records is bound to the transaction.
func (t *Tx) Records() Records { return Records{q: t.tx, driver: t.driver} }

// History is bound to the transaction.
func (t *Tx) History() History { return History{q: t.tx, driver: t.driver, now: t.now} }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &core.StorageError{Op: op, Err: err}
}
