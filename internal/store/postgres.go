package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink/internal/shortener"
)

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
// Uniqueness rests on the mappings_code_key constraint.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed mapping store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) TryClaim(ctx context.Context, m shortener.Mapping) (shortener.Mapping, bool, error) {
	query := `
		INSERT INTO mappings (id, code, long_url, short_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO NOTHING
	`

	tag, err := p.pool.Exec(ctx, query,
		m.ID().String(),
		string(m.Code()),
		m.LongURL(),
		m.ShortURL(),
		m.CreatedAt(),
	)
	if err != nil {
		return shortener.Mapping{}, false, err
	}

	if tag.RowsAffected() == 0 {
		return shortener.Mapping{}, false, nil
	}

	return m, true, nil
}

func (p *PostgresStore) Lookup(ctx context.Context, code shortener.Code) (shortener.Mapping, error) {
	query := `
		SELECT id, code, long_url, short_url, created_at
		FROM mappings
		WHERE code = $1
	`

	var (
		id        string
		stored    string
		longURL   string
		shortURL  string
		createdAt time.Time
	)

	err := p.pool.QueryRow(ctx, query, string(code)).Scan(&id, &stored, &longURL, &shortURL, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
