package admission

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "tablehost_admission.db"

// SQLiteService is the single-writer, WAL-journaled local-file backend,
// mirroring store.SQLiteService and auth.SQLiteManager's schema-bootstrap
// shape.
type SQLiteService struct {
	db *sql.DB
}

func admissionSQLitePathFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("ADMISSION_SQLITE_PATH")); v != "" {
		return v
	}
	dir := strings.TrimSpace(os.Getenv("ADMISSION_DATA_DIR"))
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, defaultLocalDBName)
}

func NewSQLiteServiceFromEnv() (*SQLiteService, error) {
	return NewSQLiteService(admissionSQLitePathFromEnv())
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
	if err := ensureSQLiteIdentitySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{db: db}, nil
}

func ensureSQLiteIdentitySchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS admission_identities (
    device_id TEXT PRIMARY KEY,
    player_id TEXT NOT NULL UNIQUE,
    active_room_id TEXT,
    created_at_ms INTEGER NOT NULL
)`)
	return err
}

func (s *SQLiteService) ResolveIdentity(ctx context.Context, deviceID string) (string, error) {
	deviceID = strings.TrimSpace(deviceID)

	var playerID string
	err := s.db.QueryRowContext(ctx, `SELECT player_id FROM admission_identities WHERE device_id = ?`, deviceID).Scan(&playerID)
	if err == nil {
		return playerID, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	playerID = uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO admission_identities (device_id, player_id, created_at_ms)
VALUES (?, ?, ?)
`, deviceID, playerID, time.Now().UTC().UnixMilli())
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			// Lost a race against a concurrent first-resolve for the same
			// device id; the winner's row is now authoritative.
			if qErr := s.db.QueryRowContext(ctx, `SELECT player_id FROM admission_identities WHERE device_id = ?`, deviceID).Scan(&playerID); qErr == nil {
				return playerID, nil
			}
		}
		return "", err
	}
	return playerID, nil
}

func (s *SQLiteService) SetActiveRoom(ctx context.Context, deviceID, roomID string) error {
	deviceID = strings.TrimSpace(deviceID)
	res, err := s.db.ExecContext(ctx, `UPDATE admission_identities SET active_room_id = ? WHERE device_id = ?`, roomID, deviceID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUnknownDevice
	}
	return nil
}

func (s *SQLiteService) ActiveRoomByDevice(ctx context.Context, deviceID string) (string, bool, error) {
	deviceID = strings.TrimSpace(deviceID)
	var roomID sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT active_room_id FROM admission_identities WHERE device_id = ?`, deviceID).Scan(&roomID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return roomID.String, roomID.Valid, nil
}

func (s *SQLiteService) ActiveRoomByPlayer(ctx context.Context, playerID string) (string, bool, error) {
	var roomID sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT active_room_id FROM admission_identities WHERE player_id = ?`, playerID).Scan(&roomID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return roomID.String, roomID.Valid, nil
}

func (s *SQLiteService) ClearActiveRoomByPlayer(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE admission_identities SET active_room_id = NULL WHERE player_id = ?`, playerID)
	return err
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isSQLiteUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
