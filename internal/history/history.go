// Package history keeps an opt-in journal of generation runs in a SQLite
// database under the project state directory. The journal is written after a
// run completes and is never consulted by generation itself.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"orivus/internal/slogutil"
)

// Store is an open journal.
type Store struct {
	conn   *sql.DB
	path   string
	logger *slog.Logger
	enc    *zstd.Encoder
	dec    *zstd.Decoder
}

// Open opens or creates the journal at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	logger = slogutil.OrDiscard(logger).With(slogutil.ComponentKey, "history")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	exists := fileExists(path)

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection keeps WAL pragmas and transactions on one handle.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create snapshot encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to create snapshot decoder: %w", err)
	}

	s := &Store{conn: conn, path: path, logger: logger, enc: enc, dec: dec}
	if !exists {
		logger.Info("creating history database", "path", path)
		err = s.initializeSchema()
	} else {
		err = s.runMigrations()
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Path is the database file.
func (s *Store) Path() string { return s.path }

// Close releases the database and the snapshot codecs.
func (s *Store) Close() error {
	if s.dec != nil {
		s.dec.Close()
	}
	if s.enc != nil {
		s.enc.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// WithTx runs fn in a transaction, rolling back when fn fails or panics.
func (s *Store) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", "error", err.Error(), "rollback_error", rbErr.Error())
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) compress(body string) []byte {
	if body == "" {
		return nil
	}
	return s.enc.EncodeAll([]byte(body), nil)
}

func (s *Store) decompress(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	out, err := s.dec.DecodeAll(data, nil)
	if err != nil {
		return "", fmt.Errorf("corrupt snapshot: %w", err)
	}
	return string(out), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
