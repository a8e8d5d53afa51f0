package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/quay/zlog"
	_ "modernc.org/sqlite" // register the sqlite driver

	"github.com/depls-dev/depls"
)

// DefaultPersistentTTL mirrors Volatile's default so a cold-started
// Persistent tier behaves the same as the Volatile one it backs.
const DefaultPersistentTTL = time.Hour

// acquireTimeout bounds how long a single query waits for a pool
// connection. database/sql has no native acquire-timeout knob, so this is
// enforced with a context.WithTimeout wrapped around each call.
const acquireTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
  key TEXT PRIMARY KEY,
  payload BLOB NOT NULL,
  inserted_at INTEGER NOT NULL,
  ttl_secs INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS cache_entries_expiry ON cache_entries(inserted_at, ttl_secs);
`

// Persistent is the disk-backed cache tier, a single SQLite table fronted
// by database/sql's own connection pool. Errors are logged at warn and
// swallowed throughout: this tier is best-effort, the Volatile tier is
// authoritative.
type Persistent struct {
	db  *sql.DB
	ttl time.Duration
}

// OpenPersistent opens (creating if necessary) a SQLite database at path
// and configures it with WAL journaling, a 5s busy timeout,
// and a 64 MiB page cache. A zero ttl is replaced with
// DefaultPersistentTTL.
func OpenPersistent(ctx context.Context, path string, ttl time.Duration) (*Persistent, error) {
	if ttl <= 0 {
		ttl = DefaultPersistentTTL
	}
	u := url.URL{
		Scheme: "file",
		Opaque: path,
		RawQuery: url.Values{
			"_pragma": {
				"journal_mode(WAL)",
				"busy_timeout(5000)",
				"cache_size(-65536)",
			},
		}.Encode(),
	}
	db, err := sql.Open("sqlite", u.String())
	if err != nil {
		return nil, fmt.Errorf("cache: open persistent store: %w", err)
	}
	// database/sql's pool knobs stand in for the bounded connection pool
	// (10 max, 2 idle, 10m idle, 30m lifetime);
	// acquisition timeout is enforced per call via acquireTimeout.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(10 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: ping persistent store: %w", err)
	}
	if _, err := db.ExecContext(pctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &Persistent{db: db, ttl: ttl}, nil
}

// Close releases the underlying connection pool.
func (p *Persistent) Close() error {
	return p.db.Close()
}

// Get returns the cached VersionInfo for key, or ok=false if absent,
// expired, or the read failed. Failures are logged at warn, not returned,
// keeping this tier best-effort.
func (p *Persistent) Get(ctx context.Context, key string) (depls.VersionInfo, bool) {
	ctx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()

	var payload []byte
	var insertedAt, ttlSecs int64
	row := p.db.QueryRowContext(ctx,
		`SELECT payload, inserted_at, ttl_secs FROM cache_entries WHERE key = ?`, key)
	if err := row.Scan(&payload, &insertedAt, &ttlSecs); err != nil {
		if err != sql.ErrNoRows {
			zlog.Warn(ctx).Err(err).Str("key", key).Msg("persistent cache read failed")
		}
		return depls.VersionInfo{}, false
	}

	entry := depls.CacheEntry{TTL: time.Duration(ttlSecs) * time.Second}
	entry.InsertedAt = time.Unix(insertedAt, 0)
	if entry.Expired(time.Now()) {
		return depls.VersionInfo{}, false
	}
	var info depls.VersionInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		zlog.Warn(ctx).Err(err).Str("key", key).Msg("persistent cache payload corrupt")
		return depls.VersionInfo{}, false
	}
	return info, true
}

// Insert writes info under key with the store's default TTL.
func (p *Persistent) Insert(ctx context.Context, key string, info depls.VersionInfo) {
	p.InsertWithTTL(ctx, key, info, p.ttl)
}

// InsertWithTTL writes info under key with an explicit TTL.
func (p *Persistent) InsertWithTTL(ctx context.Context, key string, info depls.VersionInfo, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()

	payload, err := json.Marshal(info)
	if err != nil {
		zlog.Warn(ctx).Err(err).Str("key", key).Msg("persistent cache marshal failed")
		return
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, payload, inserted_at, ttl_secs) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, inserted_at = excluded.inserted_at, ttl_secs = excluded.ttl_secs`,
		key, payload, time.Now().Unix(), int64(ttl/time.Second))
	if err != nil {
		zlog.Warn(ctx).Err(err).Str("key", key).Msg("persistent cache write failed")
	}
}

// Remove deletes key, if present.
func (p *Persistent) Remove(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()
	if _, err := p.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		zlog.Warn(ctx).Err(err).Str("key", key).Msg("persistent cache remove failed")
	}
}

// Clear empties the table.
func (p *Persistent) Clear(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()
	if _, err := p.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		zlog.Warn(ctx).Err(err).Msg("persistent cache clear failed")
	}
}

// SweepExpired deletes every row whose TTL has elapsed and returns the
// number of rows reclaimed.
func (p *Persistent) SweepExpired(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE (? - inserted_at) > ttl_secs`,
		float64(time.Now().UnixNano())/1e9)
	if err != nil {
		zlog.Warn(ctx).Err(err).Msg("persistent cache sweep failed")
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
