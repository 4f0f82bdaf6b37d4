package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLKV serves configuration from a config_entries table, for deployments
// where the surrounding workflow system already keeps its settings in MySQL.
type MySQLKV struct {
	db *sql.DB
}

func NewMySQLKV(dsn string) (*MySQLKV, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	kv := &MySQLKV{db: db}
	if err := kv.initSchema(); err != nil {
		return nil, err
	}
	return kv, nil
}

func (m *MySQLKV) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS config_entries (
		k VARCHAR(191) PRIMARY KEY,
		v JSON NOT NULL
	);
	`
	if _, err := m.db.Exec(query); err != nil {
		return fmt.Errorf("create config_entries table: %w", err)
	}
	return nil
}

func (m *MySQLKV) Get(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	err := m.db.QueryRowContext(ctx, `SELECT v FROM config_entries WHERE k = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", key, err)
	}
	return raw, nil
}

func (m *MySQLKV) Close() error {
	return m.db.Close()
}
