package cache

import "context"

// Entry is a single persisted cache row. ExpiryMs is an absolute Unix time in
// milliseconds.
type Entry struct {
	Key      string
	Payload  string
	ExpiryMs int64
}

// Store is the durable table behind a ResultCache. Implementations do not
// interpret payloads or expiry beyond the purge and eviction queries.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, e Entry) error
	Delete(ctx context.Context, key string) error
	// PurgeExpired removes every entry whose expiry is at or before nowMs.
	PurgeExpired(ctx context.Context, nowMs int64) (int64, error)
	Count(ctx context.Context) (int, error)
	// EvictNearestExpiry removes the one entry closest to expiring.
	EvictNearestExpiry(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
	Close() error
}

const (
	sqlCreateTable = `CREATE TABLE IF NOT EXISTS fix_cache (
    key TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    expiry BIGINT NOT NULL
)`
	sqlCreateIndex = `CREATE INDEX IF NOT EXISTS idx_fix_cache_expiry ON fix_cache (expiry)`
)
