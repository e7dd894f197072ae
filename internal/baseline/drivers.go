// internal/baseline/drivers.go
package baseline

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/modestry/catalogpipe/internal/config"
)

// Open builds the store selected by configuration.
func Open(cfg config.BaselineConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLite(cfg.DSN, cfg.Table)
	case "postgres":
		return NewPostgres(cfg.DSN, cfg.Table)
	case "mysql":
		return NewMySQL(cfg.DSN, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown baseline driver: %q", cfg.Driver)
	}
}

// NewSQLite opens a SQLite-backed store, creating the schema if needed.
func NewSQLite(path, table string) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return newSQLStore(db, table, dialect{
		name:       "sqlite",
		rebind:     passthrough,
		upsertTail: "ON CONFLICT (retailer, match_key) DO UPDATE SET last_seen = excluded.last_seen",
		textType:   "TEXT",
		doubleType: "REAL",
		timeType:   "TIMESTAMP",
	})
}

// NewPostgres opens a PostgreSQL-backed store.
func NewPostgres(dsn, table string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)

	return newSQLStore(db, table, dialect{
		name:       "postgres",
		rebind:     rebindPositional,
		upsertTail: "ON CONFLICT (retailer, match_key) DO UPDATE SET last_seen = EXCLUDED.last_seen",
		textType:   "TEXT",
		doubleType: "DOUBLE PRECISION",
		timeType:   "TIMESTAMPTZ",
	})
}

// NewMySQL opens a MySQL-backed store. DSNs should carry parseTime=true
// so last_seen scans into time.Time.
func NewMySQL(dsn, table string) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)

	return newSQLStore(db, table, dialect{
		name:       "mysql",
		rebind:     passthrough,
		upsertTail: "ON DUPLICATE KEY UPDATE last_seen = VALUES(last_seen)",
		textType:   "VARCHAR(512)",
		doubleType: "DOUBLE",
		timeType:   "DATETIME",
	})
}

func newSQLStore(db *sql.DB, table string, d dialect) (*SQLStore, error) {
	if table == "" {
		table = "baseline_products"
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", d.name, err)
	}

	store := &SQLStore{db: db, table: table, dialect: d}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
