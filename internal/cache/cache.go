// Package cache stores aggregated research bundles in sqlite with a TTL.
// Cached bundles are advisory: a write replaces the whole row for a ticker
// and concurrent writers race with last-write-wins semantics.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/bundle"
)

// DefaultTTL bounds how long a cached bundle stays valid.
const DefaultTTL = 24 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS research_cache (
    ticker       TEXT PRIMARY KEY,
    company_name TEXT NOT NULL,
    data         TEXT NOT NULL,
    created_at   TIMESTAMP NOT NULL,
    expires_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_research_cache_expires ON research_cache(expires_at);
`

// Store is the sqlite-backed research cache.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Stats summarizes cache occupancy.
type Stats struct {
	Total   int `db:"total" json:"total_entries"`
	Valid   int `json:"valid_entries"`
	Expired int `json:"expired_entries"`
}

// Open opens (creating if needed) the cache database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing database handle. The schema must already
// exist; used by tests and by callers managing their own connections.
func NewWithDB(db *sqlx.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for health checks.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Get returns the cached bundle for ticker if present and unexpired. A miss
// returns (nil, nil); corrupt rows are treated as misses.
func (s *Store) Get(ctx context.Context, ticker string) (*bundle.ResearchBundle, error) {
	var row struct {
		Data      string    `db:"data"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	err := s.db.GetContext(ctx, &row,
		`SELECT data, expires_at FROM research_cache WHERE ticker = ? AND expires_at > ?`,
		normalizeTicker(ticker), time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup for %s: %w", ticker, err)
	}

	var b bundle.ResearchBundle
	if err := json.Unmarshal([]byte(row.Data), &b); err != nil {
		s.logger.Warn("Discarding corrupt cache entry",
			zap.String("ticker", ticker),
			zap.Error(err),
		)
		return nil, nil
	}
	b.CacheInfo = &bundle.CacheInfo{Cached: true, ExpiresAt: row.ExpiresAt}
	return &b, nil
}

// Put stores a bundle under its ticker, replacing any previous entry.
func (s *Store) Put(ctx context.Context, b *bundle.ResearchBundle, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := b.MarshalForStorage()
	if err != nil {
		return fmt.Errorf("encode bundle for %s: %w", b.Ticker, err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO research_cache (ticker, company_name, data, created_at, expires_at)
         VALUES (?, ?, ?, ?, ?)`,
		normalizeTicker(b.Ticker), b.CompanyName, string(data), now, now.Add(ttl))
	if err != nil {
		return fmt.Errorf("cache write for %s: %w", b.Ticker, err)
	}
	return nil
}

// Clear removes the entry for ticker, or every entry when ticker is empty.
func (s *Store) Clear(ctx context.Context, ticker string) error {
	var err error
	if ticker == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM research_cache`)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM research_cache WHERE ticker = ?`, normalizeTicker(ticker))
	}
	if err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// SweepExpired deletes expired entries and reports how many were removed.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM research_cache WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// GetStats reports total/valid/expired entry counts.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	now := time.Now().UTC()
	var st Stats
	if err := s.db.GetContext(ctx, &st.Total, `SELECT COUNT(*) FROM research_cache`); err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}
	if err := s.db.GetContext(ctx, &st.Valid,
		`SELECT COUNT(*) FROM research_cache WHERE expires_at > ?`, now); err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}
	st.Expired = st.Total - st.Valid
	return &st, nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
