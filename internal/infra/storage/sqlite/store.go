// Package sqlite persists agency collections in a local SQLite file.
// Each collection is one JSON document in a key/value table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("storage/sqlite")

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// Store implements port.StateStore on SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serialises writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("sqlite store ready", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Load decodes the document stored under key into dst.
func (s *Store) Load(ctx context.Context, key string, dst any) (bool, error) {
	ctx, span := tracer.Start(ctx, "SQLite.Load")
	defer span.End()
	span.SetAttributes(attribute.String("collection", key))

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM collections WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		s.logger.Error("sqlite: load failed", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("load %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save replaces the document stored under key.
func (s *Store) Save(ctx context.Context, key string, value any) error {
	ctx, span := tracer.Start(ctx, "SQLite.Save")
	defer span.End()
	span.SetAttributes(attribute.String("collection", key))

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO collections (key, value, updated_at) VALUES (?, ?, ?)`,
		key, string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		s.logger.Error("sqlite: save failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("save %s: %w", key, err)
	}

	s.logger.Debug("sqlite: saved", zap.String("key", key), zap.Int("bytes", len(raw)))
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
