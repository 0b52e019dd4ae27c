package framecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"framecut/internal/logging"
	"framecut/internal/media"
)

const schema = `
CREATE TABLE IF NOT EXISTS prepared_data (
    path TEXT NOT NULL,
    size INTEGER NOT NULL,
    mtime_unix INTEGER NOT NULL,
    payload TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
    PRIMARY KEY (path, size, mtime_unix)
)`

// Cache stores prepared data in SQLite.
type Cache struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open initializes or connects to the cache database at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "framecache")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &Cache{db: db, path: dbPath, logger: logger}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// key identifies the cached generation of one file.
type key struct {
	path  string
	size  int64
	mtime int64
}

func fileKey(path string) (key, error) {
	info, err := os.Stat(path)
	if err != nil {
		return key{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return key{path: path, size: info.Size(), mtime: info.ModTime().Unix()}, nil
}

// Lookup returns cached prepared data for the file's current size and
// mtime. A stale or missing entry returns found=false.
func (c *Cache) Lookup(ctx context.Context, path string) (*media.PreparedData, bool, error) {
	k, err := fileKey(path)
	if err != nil {
		return nil, false, err
	}

	var payload string
	row := c.db.QueryRowContext(ctx,
		`SELECT payload FROM prepared_data WHERE path = ? AND size = ? AND mtime_unix = ?`,
		k.path, k.size, k.mtime)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query cache: %w", err)
	}

	var prepared media.PreparedData
	if err := json.Unmarshal([]byte(payload), &prepared); err != nil {
		// A corrupt row reads as a miss; the next Store overwrites it.
		c.logger.Warn("discarding corrupt cache entry",
			logging.String("path", path),
			logging.Error(err))
		return nil, false, nil
	}
	return &prepared, true, nil
}

// Store caches prepared data for the file's current size and mtime,
// replacing any older generation of the same path.
func (c *Cache) Store(ctx context.Context, path string, prepared *media.PreparedData) error {
	k, err := fileKey(path)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(prepared)
	if err != nil {
		return fmt.Errorf("marshal prepared data: %w", err)
	}

	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM prepared_data WHERE path = ?`, k.path); err != nil {
		return fmt.Errorf("evict stale entries: %w", err)
	}
	if _, err := c.db.ExecContext(ctx,
		`INSERT INTO prepared_data (path, size, mtime_unix, payload) VALUES (?, ?, ?, ?)`,
		k.path, k.size, k.mtime, string(payload)); err != nil {
		return fmt.Errorf("insert cache entry: %w", err)
	}
	return nil
}

// Forget removes all generations of a path, typically after the source file
// is deleted.
func (c *Cache) Forget(ctx context.Context, path string) error {
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM prepared_data WHERE path = ?`, path); err != nil {
		return fmt.Errorf("forget cache entry: %w", err)
	}
	return nil
}

// CachingPreparer decorates a preparer with cache lookups. Cache failures
// are logged and never block preparation.
type CachingPreparer struct {
	cache    *Cache
	delegate media.Preparer
	logger   *slog.Logger
}

// NewCachingPreparer wraps delegate with the cache. A nil cache passes
// through untouched.
func NewCachingPreparer(cache *Cache, delegate media.Preparer, logger *slog.Logger) *CachingPreparer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CachingPreparer{
		cache:    cache,
		delegate: delegate,
		logger:   logging.NewComponentLogger(logger, "framecache"),
	}
}

// PrepareTask serves from cache when possible and caches fresh results.
func (p *CachingPreparer) PrepareTask(ctx context.Context, path string, progress func(media.Progress)) (*media.PreparedData, error) {
	if p.cache != nil {
		prepared, found, err := p.cache.Lookup(ctx, path)
		if err != nil {
			p.logger.Warn("cache lookup failed",
				logging.String("path", path),
				logging.Error(err))
		} else if found {
			if progress != nil {
				progress(media.Progress{Path: path, Message: "loaded from cache", PercentComplete: 100})
			}
			return prepared, nil
		}
	}

	prepared, err := p.delegate.PrepareTask(ctx, path, progress)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Store(ctx, path, prepared); err != nil {
			p.logger.Warn("cache store failed",
				logging.String("path", path),
				logging.Error(err))
		}
	}
	return prepared, nil
}
