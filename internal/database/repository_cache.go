package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Response cache

// GetCacheEntry returns a live cache entry or nil on miss. An expired row
// is a miss even while it still physically exists. The access counter and
// last-accessed timestamp are bumped in the same statement, so the
// bookkeeping can never fail independently of the read.
func (r *Repository) GetCacheEntry(ctx context.Context, key string) (*models.CacheEntry, error) {
	query := `
		UPDATE api_cache
		SET access_count = access_count + 1, last_accessed_at = now()
		WHERE key = $1 AND expires_at > now()
		RETURNING key, cache_type, payload, expires_at, access_count, last_accessed_at, created_at
	`

	var entry models.CacheEntry
	err := r.db.Pool.QueryRow(ctx, query, key).Scan(
		&entry.Key, &entry.CacheType, &entry.Payload, &entry.ExpiresAt,
		&entry.AccessCount, &entry.LastAccessedAt, &entry.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	return &entry, nil
}

// PutCacheEntry upserts a cache entry. A newer fetch always replaces the
// previous payload for the same key, expired or not.
func (r *Repository) PutCacheEntry(ctx context.Context, key, cacheType string, payload []byte, ttl time.Duration) error {
	query := `
		INSERT INTO api_cache (key, cache_type, payload, expires_at, access_count, last_accessed_at)
		VALUES ($1, $2, $3, $4, 0, now())
		ON CONFLICT (key) DO UPDATE
		SET cache_type = EXCLUDED.cache_type, payload = EXCLUDED.payload,
		    expires_at = EXCLUDED.expires_at, access_count = 0, last_accessed_at = now()
	`

	_, err := r.db.Pool.Exec(ctx, query, key, cacheType, payload, time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}

	return nil
}

// SweepCache deletes all expired cache rows and returns the count removed.
// Safe to call at any time; deleting nothing is not an error.
func (r *Repository) SweepCache(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM api_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep cache: %w", err)
	}

	return tag.RowsAffected(), nil
}
