package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const kvTable = "kv_store"

const upsertSuffix = "ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at"

// DB is a KV backed by a single SQLite table.
type DB struct {
	conn *sqlx.DB
}

// NewDB opens the database file and initializes the schema.
func NewDB(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Whole-document writes; one writer avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Get returns the stored document or ErrNotFound.
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := sq.Select("value").
		From(kvTable).
		Where(sq.Eq{"key": key}).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var value string
	err = db.conn.GetContext(ctx, &value, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Set stores or replaces a document.
func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	query, args, err := sq.Insert(kvTable).
		Columns("key", "value", "updated_at").
		Values(key, string(value), time.Now().UTC()).
		Suffix(upsertSuffix).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, query, args...)
	return err
}

// Remove deletes a document. Removing a missing key is not an error.
func (db *DB) Remove(ctx context.Context, key string) error {
	query, args, err := sq.Delete(kvTable).
		Where(sq.Eq{"key": key}).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, query, args...)
	return err
}
