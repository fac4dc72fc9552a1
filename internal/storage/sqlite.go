/*
Package storage
File: sqlite.go
Description:
    SQLite persistence for the prestige record.

    The record is stored as one row of a key/value table. The value is the
    JSON encoding of the record, LZ4-compressed, with a BLAKE3 checksum of the
    uncompressed JSON kept alongside it and verified on load.
*/

package storage

import (
	"bytes"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/everforgeworks/lighthouse-keeper/internal/game"
	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"
)

// ErrChecksum is returned when a stored blob doesn't match its checksum.
var ErrChecksum = errors.New("prestige record checksum mismatch")

const schema = `
CREATE TABLE IF NOT EXISTS records (
	key        TEXT PRIMARY KEY,
	blob       BLOB NOT NULL,
	checksum   TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLiteStore persists the prestige record in a sqlite database.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

// OpenSQLite opens (or creates) the database at path. ":memory:" is allowed.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: keeps ":memory:" databases alive and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, key: game.PrestigeKey}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadPrestigeRecord implements game.PrestigePersistence.
func (s *SQLiteStore) LoadPrestigeRecord() (game.PrestigeRecord, bool, error) {
	var rec game.PrestigeRecord
	var blob []byte
	var sum string

	err := s.db.QueryRow("SELECT blob, checksum FROM records WHERE key = ?", s.key).Scan(&blob, &sum)
	if err == sql.ErrNoRows {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("query record: %w", err)
	}

	raw, err := decompress(blob)
	if err != nil {
		return rec, false, fmt.Errorf("decompress record: %w", err)
	}
	if checksum(raw) != sum {
		return rec, false, ErrChecksum
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, false, fmt.Errorf("decode record: %w", err)
	}
	return rec, true, nil
}

// SavePrestigeRecord implements game.PrestigePersistence.
func (s *SQLiteStore) SavePrestigeRecord(rec game.PrestigeRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	blob, err := compress(raw)
	if err != nil {
		return fmt.Errorf("compress record: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO records (key, blob, checksum, updated_at) VALUES (?, ?, ?, ?)",
		s.key, blob, checksum(raw), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(src []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
}

func checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
