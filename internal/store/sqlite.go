package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "tablehost_local.db"

// SQLiteService persists snapshots in a local file, mirroring the
// teacher's ledger/auth "local" backend: single-writer, WAL-journaled,
// schema bootstrapped on open.
type SQLiteService struct {
	db *sql.DB
}

func sqliteDatabasePathFromEnv() (string, error) {
	if v := strings.TrimSpace(os.Getenv("STORE_SQLITE_PATH")); v != "" {
		return v, nil
	}
	dir := strings.TrimSpace(os.Getenv("STORE_DATA_DIR"))
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, defaultLocalDBName), nil
}

func NewSQLiteServiceFromEnv() (*SQLiteService, error) {
	path, err := sqliteDatabasePathFromEnv()
	if err != nil {
		return nil, err
	}
	return NewSQLiteService(path)
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		if parent := filepath.Dir(dbPath); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteSnapshotSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{db: db}, nil
}

func ensureSQLiteSnapshotSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS room_snapshots (
    room_id TEXT PRIMARY KEY,
    snapshot BLOB NOT NULL,
    updated_at_ms INTEGER NOT NULL
)`)
	return err
}

func (s *SQLiteService) Save(ctx context.Context, roomID string, snapshot []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO room_snapshots (room_id, snapshot, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT (room_id) DO UPDATE SET snapshot = excluded.snapshot, updated_at_ms = excluded.updated_at_ms
`, roomID, snapshot, time.Now().UTC().UnixMilli())
	return err
}

func (s *SQLiteService) Load(ctx context.Context, roomID string) ([]byte, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM room_snapshots WHERE room_id = ?`, roomID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}

func (s *SQLiteService) Delete(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM room_snapshots WHERE room_id = ?`, roomID)
	return err
}

func (s *SQLiteService) ListActive(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT room_id FROM room_snapshots`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
