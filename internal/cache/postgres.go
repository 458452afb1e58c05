// internal/cache/postgres.go
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DBPool abstracts pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore persists cache entries in a shared PostgreSQL database.
type PostgresStore struct {
	pool DBPool
	log  *zap.Logger
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects to url and prepares the cache table.
func OpenPostgres(ctx context.Context, url string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	store, err := NewPostgresStore(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore verifies the connection and ensures the schema exists.
func NewPostgresStore(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, stmt := range []string{sqlCreateTable, sqlCreateIndex} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
		}
	}
	return &PostgresStore{pool: pool, log: logger.Named("cache.postgres")}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	e := Entry{Key: key}
	err := s.pool.QueryRow(ctx, `SELECT payload, expiry FROM fix_cache WHERE key = $1`, key).
		Scan(&e.Payload, &e.ExpiryMs)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return e, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO fix_cache (key, payload, expiry)
        VALUES ($1, $2, $3)
        ON CONFLICT (key) DO UPDATE SET
            payload = EXCLUDED.payload,
            expiry = EXCLUDED.expiry`,
		e.Key, e.Payload, e.ExpiryMs)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM fix_cache WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) PurgeExpired(ctx context.Context, nowMs int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM fix_cache WHERE expiry <= $1`, nowMs)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fix_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return int(n), nil
}

// EvictNearestExpiry deletes and returns the soonest-expiring key in a
// single statement.
func (s *PostgresStore) EvictNearestExpiry(ctx context.Context) (string, error) {
	var key string
	err := s.pool.QueryRow(ctx, `
        DELETE FROM fix_cache WHERE key = (
            SELECT key FROM fix_cache ORDER BY expiry ASC, key ASC LIMIT 1
        ) RETURNING key`).Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to evict cache entry: %w", err)
	}
	return key, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM fix_cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
