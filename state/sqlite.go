package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one state document per key in a local SQLite database.
type SQLiteStore struct {
	conn *sql.DB
	key  string
}

// OpenSQLiteStore opens (or creates) the database at dbPath and stores the
// state under key.
func OpenSQLiteStore(dbPath, key string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; also keeps a :memory: database alive across calls
	conn.SetMaxOpenConns(1)

	_, err = conn.Exec(`CREATE TABLE IF NOT EXISTS sync_state (
		state_key TEXT PRIMARY KEY,
		state_json TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteStore{conn: conn, key: key}, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (SyncState, error) {
	var data string
	err := s.conn.QueryRowContext(ctx, `SELECT state_json FROM sync_state WHERE state_key = ?`, s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncState{}, nil
	}
	if err != nil {
		return SyncState{}, fmt.Errorf("query sync state: %w", err)
	}

	return Decode([]byte(data))
}

func (s *SQLiteStore) Save(ctx context.Context, st SyncState) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}

	_, err = s.conn.ExecContext(ctx, `INSERT INTO sync_state (state_key, state_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(state_key) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at`,
		s.key, string(data))
	if err != nil {
		return fmt.Errorf("upsert sync state: %w", err)
	}

	return nil
}
