package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Cache provides session storage and cross-instance coordination using
// Redis: session blobs, per-playlist mutation locks and fast-path import
// progress reads
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Session Operations

// Session is the opaque blob stored per authenticated session
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SetSession stores a session blob with a TTL
func (c *Cache) SetSession(ctx context.Context, token string, session *Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := fmt.Sprintf("session:%s", token)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetSession retrieves a session blob, or nil when absent or expired
func (c *Cache) GetSession(ctx context.Context, token string) (*Session, error) {
	key := fmt.Sprintf("session:%s", token)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // No such session
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// DeleteSession removes a session
func (c *Cache) DeleteSession(ctx context.Context, token string) error {
	key := fmt.Sprintf("session:%s", token)
	return c.client.Del(ctx, key).Err()
}

// Playlist Mutation Locks

// AcquirePlaylistLock takes the advisory lock serializing structural
// mutations (reorder, position update, removal) on one playlist. Returns
// false when another mutation holds it.
func (c *Cache) AcquirePlaylistLock(ctx context.Context, playlistID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:playlist:%s", playlistID)
	ok, err := c.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire playlist lock: %w", err)
	}
	return ok, nil
}

// ReleasePlaylistLock releases the advisory mutation lock
func (c *Cache) ReleasePlaylistLock(ctx context.Context, playlistID string) error {
	key := fmt.Sprintf("lock:playlist:%s", playlistID)
	return c.client.Del(ctx, key).Err()
}

// Import Progress Operations

// SetImportProgress caches an import job's progress for cheap polling
func (c *Cache) SetImportProgress(ctx context.Context, jobID string, progress float64, ttl time.Duration) error {
	key := fmt.Sprintf("import:progress:%s", jobID)
	return c.client.Set(ctx, key, progress, ttl).Err()
}

// GetImportProgress retrieves cached import progress
func (c *Cache) GetImportProgress(ctx context.Context, jobID string) (float64, error) {
	key := fmt.Sprintf("import:progress:%s", jobID)
	return c.client.Get(ctx, key).Float64()
}

// SetImportJob caches a full job record for the polling endpoint
func (c *Cache) SetImportJob(ctx context.Context, job *models.ImportJob, ttl time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal import job: %w", err)
	}

	key := fmt.Sprintf("import:job:%s", job.ID)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetImportJob retrieves a cached job record, or nil on miss
func (c *Cache) GetImportJob(ctx context.Context, jobID string) (*models.ImportJob, error) {
	key := fmt.Sprintf("import:job:%s", jobID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}

	var job models.ImportJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal import job: %w", err)
	}

	return &job, nil
}

// DeleteImportJob removes a cached job record after finalization
func (c *Cache) DeleteImportJob(ctx context.Context, jobID string) error {
	key := fmt.Sprintf("import:job:%s", jobID)
	return c.client.Del(ctx, key).Err()
}

// Rate Limit Counters

// IncrementRequestCount bumps a per-user request counter, setting the
// window TTL on first increment. Returns the count within the window.
func (c *Cache) IncrementRequestCount(ctx context.Context, userID string, window time.Duration) (int64, error) {
	key := fmt.Sprintf("ratelimit:%s", userID)

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment request count: %w", err)
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count, nil
}
