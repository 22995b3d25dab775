package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/serroba/shortlink/internal/shortener"
)

// SQLiteStore is a SQLite implementation of shortener.Repository.
// Uniqueness rests on the mappings_code_key unique index.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at path. The schema is provisioned separately by MigrateSQLite.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single writer connection keeps claims serialized instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite-backed mapping store.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) TryClaim(ctx context.Context, m shortener.Mapping) (shortener.Mapping, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO mappings (id, code, long_url, short_url, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (code) DO NOTHING`,
		m.ID().String(),
		string(m.Code()),
		m.LongURL(),
		m.ShortURL(),
		m.CreatedAt(),
	)
	if err != nil {
		return shortener.Mapping{}, false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return shortener.Mapping{}, false, err
	}

	if n == 0 {
		return shortener.Mapping{}, false, nil
	}

	return m, true, nil
}

func (s *SQLiteStore) Lookup(ctx context.Context, code shortener.Code) (shortener.Mapping, error) {
	var (
		id        string
		stored    string
		longURL   string
		shortURL  string
		createdAt time.Time
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, long_url, short_url, created_at
		FROM mappings
		WHERE code = ?`, string(code),
	).Scan(&id, &stored, &longURL, &shortURL, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shortener.Mapping{}, shortener.ErrNotFound
		}

		return shortener.Mapping{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return shortener.Mapping{}, err
	}

	return shortener.RestoreMapping(parsed, shortener.Code(stored), longURL, shortURL, createdAt.UTC())
}

// Ping checks database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Shutdown closes the database.
func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}

// Compile-time check.
var _ shortener.Repository = (*SQLiteStore)(nil)
