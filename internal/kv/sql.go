package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Dialect selects the SQL flavour used by SQLStore.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// TableName is the table SQLStore reads and writes.
const TableName = "todo_kv"

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	default:
		return "postgres"
	}
}

func (d Dialect) createTable() string {
	switch d {
	case DialectMySQL:
		return `CREATE TABLE IF NOT EXISTS ` + TableName + ` (
    item_key VARCHAR(191) PRIMARY KEY,
    item_value LONGTEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`
	default:
		return `CREATE TABLE IF NOT EXISTS ` + TableName + ` (
    item_key VARCHAR(191) PRIMARY KEY,
    item_value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	}
}

func (d Dialect) selectValue() string {
	switch d {
	case DialectMySQL:
		return `SELECT item_value FROM ` + TableName + ` WHERE item_key = ?`
	default:
		return `SELECT item_value FROM ` + TableName + ` WHERE item_key = $1`
	}
}

func (d Dialect) upsertValue() string {
	switch d {
	case DialectMySQL:
		return `INSERT INTO ` + TableName + ` (item_key, item_value) VALUES (?, ?) ON DUPLICATE KEY UPDATE item_value = VALUES(item_value)`
	default:
		return `INSERT INTO ` + TableName + ` (item_key, item_value, updated_at) VALUES ($1, $2, NOW()) ON CONFLICT (item_key) DO UPDATE SET item_value = EXCLUDED.item_value, updated_at = NOW()`
	}
}

// SQLStore keeps values in a single key/value table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an open database. Call Migrate before first use.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// OpenSQL opens dsn with the dialect's driver, pings it and creates the
// table if it does not exist.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn is empty", dialect)
	}
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s := NewSQLStore(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the key/value table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.createTable()); err != nil {
		return fmt.Errorf("create %s table: %w", TableName, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.selectValue(), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsertValue(), key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
