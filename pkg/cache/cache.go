// Package cache is the client-side read-through cache for job collections.
// The backend has no push or webhook channel, so every successful mutation
// eagerly invalidates (and where needed refetches) the collections it
// touches instead of waiting for staleness expiry.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// Collection keys kept consistent after mutations
const (
	KeyMyBids     = "my-bids"
	KeyNearbyJobs = "nearby-jobs"
	KeyBidJobs    = "bid-jobs"
)

// DefaultTTL is the staleness window for cached collections
const DefaultTTL = 5 * time.Minute

// JobDetailsKey returns the cache key for one job's detail record
func JobDetailsKey(enquiryID int) string {
	return fmt.Sprintf("job-details:%d", enquiryID)
}

// ErrNoLoader is returned when a key is read before a loader is registered
var ErrNoLoader = errors.New("cache: no loader registered for key")

// Loader fetches the fresh body for a cache key from the backend
type Loader func(ctx context.Context) ([]byte, error)

// Store is a sqlite-backed read-through cache with a fixed TTL
type Store struct {
	conn   *sql.DB
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.RWMutex
	loaders map[string]Loader

	// now is swappable for tests
	now func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
);`

// Open creates or opens the cache database at dsn
func Open(ctx context.Context, dsn string, ttl time.Duration, logger *zap.Logger) (*Store, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping cache db: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{
		conn:    conn,
		ttl:     ttl,
		logger:  logger,
		loaders: make(map[string]Loader),
		now:     time.Now,
	}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.conn.Close()
}

// RegisterLoader binds the fetch function for a key
func (s *Store) RegisterLoader(key string, loader Loader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaders[key] = loader
}

// Get returns the cached body for key, loading it from the backend when the
// entry is missing or older than the TTL
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	var fetchedAt int64

	row := s.conn.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM cache_entries WHERE key = ?`, key)
	err := row.Scan(&body, &fetchedAt)
	switch {
	case err == nil:
		age := s.now().Sub(time.Unix(fetchedAt, 0))
		if age < s.ttl {
			s.logger.Debug("cache hit", zap.String("key", key), zap.Duration("age", age))
			return body, nil
		}
		s.logger.Debug("cache stale", zap.String("key", key), zap.Duration("age", age))
	case errors.Is(err, sql.ErrNoRows):
		s.logger.Debug("cache miss", zap.String("key", key))
	default:
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}

	return s.ForceRefresh(ctx, key)
}

// ForceRefresh bypasses the TTL: it loads a fresh body and stores it
func (s *Store) ForceRefresh(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	loader, ok := s.loaders[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLoader, key)
	}

	body, err := loader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}

	if err := s.put(ctx, key, body); err != nil {
		return nil, err
	}

	s.logger.Debug("cache refreshed", zap.String("key", key), zap.Int("bytes", len(body)))
	return body, nil
}

// Invalidate drops the entries for the given keys so the next read goes to
// the backend. Unknown keys are ignored.
func (s *Store) Invalidate(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.conn.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to invalidate %s: %w", key, err)
		}
		s.logger.Debug("cache invalidated", zap.String("key", key))
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, body []byte) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO cache_entries (key, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		key, body, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}
	return nil
}
