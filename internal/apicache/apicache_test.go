package apicache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

type memStore struct {
	entries map[string]*models.CacheEntry
	getErr  error
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*models.CacheEntry)}
}

func (m *memStore) GetCacheEntry(_ context.Context, key string) (*models.CacheEntry, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	entry, ok := m.entries[key]
	if !ok || time.Now().After(entry.ExpiresAt) {
		return nil, nil
	}
	entry.AccessCount++
	return entry, nil
}

func (m *memStore) PutCacheEntry(_ context.Context, key, cacheType string, payload []byte, ttl time.Duration) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[key] = &models.CacheEntry{
		Key:       key,
		CacheType: cacheType,
		Payload:   payload,
		ExpiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *memStore) SweepCache(_ context.Context) (int64, error) {
	var removed int64
	for key, entry := range m.entries {
		if time.Now().After(entry.ExpiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

type fakeReserver struct {
	reserved []int
	err      error
}

func (f *fakeReserver) Reserve(_ context.Context, _ string, unitCost int) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.reserved = append(f.reserved, unitCost)
	return 100, nil
}

func testCache(t *testing.T, store Store, quota Reserver) *Cache {
	t.Helper()
	logger, err := logging.NewDefaultLogger()
	require.NoError(t, err)
	return New(store, quota, logger)
}

func TestFetchMissThenHit(t *testing.T) {
	store := newMemStore()
	quota := &fakeReserver{}
	cache := testCache(t, store, quota)

	calls := 0
	fn := func(_ context.Context) ([]byte, error) {
		calls++
		return []byte(`{"title":"go course"}`), nil
	}

	payload, cached, err := cache.Fetch(context.Background(), "playlist:PL1", models.CacheTypePlaylist, models.APIYouTube, 1, time.Minute, fn)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []byte(`{"title":"go course"}`), payload)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []int{1}, quota.reserved)

	// Second fetch hits the cache: no upstream call, no quota spend
	payload, cached, err = cache.Fetch(context.Background(), "playlist:PL1", models.CacheTypePlaylist, models.APIYouTube, 1, time.Minute, fn)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, []byte(`{"title":"go course"}`), payload)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []int{1}, quota.reserved)
}

func TestFetchQuotaExhaustedFailsFast(t *testing.T) {
	store := newMemStore()
	quota := &fakeReserver{err: apperrors.New(apperrors.KindQuotaExceeded, "daily quota for youtube exhausted")}
	cache := testCache(t, store, quota)

	calls := 0
	_, _, err := cache.Fetch(context.Background(), "playlist:PL2", models.CacheTypePlaylist, models.APIYouTube, 1, time.Minute,
		func(_ context.Context) ([]byte, error) {
			calls++
			return nil, nil
		})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindQuotaExceeded))
	assert.Equal(t, 0, calls, "upstream must not be called when quota is exhausted")
	assert.Empty(t, store.entries)
}

func TestFetchUpstreamErrorNotCached(t *testing.T) {
	store := newMemStore()
	cache := testCache(t, store, &fakeReserver{})

	_, _, err := cache.Fetch(context.Background(), "playlist:PL3", models.CacheTypePlaylist, models.APIYouTube, 1, time.Minute,
		func(_ context.Context) ([]byte, error) {
			return nil, errors.New("upstream 500")
		})

	require.Error(t, err)
	assert.Empty(t, store.entries)
}

func TestFetchCacheWriteFailureStillReturnsPayload(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("disk full")
	cache := testCache(t, store, &fakeReserver{})

	payload, cached, err := cache.Fetch(context.Background(), "playlist:PL4", models.CacheTypePlaylist, models.APIYouTube, 1, time.Minute,
		func(_ context.Context) ([]byte, error) {
			return []byte("payload"), nil
		})

	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []byte("payload"), payload)
}

func TestFetchCacheReadFailureDegradesToMiss(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection reset")
	quota := &fakeReserver{}
	cache := testCache(t, store, quota)

	payload, cached, err := cache.Fetch(context.Background(), "playlist:PL5", models.CacheTypePlaylist, models.APIYouTube, 1, time.Minute,
		func(_ context.Context) ([]byte, error) {
			return []byte("fresh"), nil
		})

	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []byte("fresh"), payload)
	assert.Equal(t, []int{1}, quota.reserved)
}

func TestSweep(t *testing.T) {
	store := newMemStore()
	cache := testCache(t, store, &fakeReserver{})

	store.entries["live"] = &models.CacheEntry{Key: "live", ExpiresAt: time.Now().Add(time.Hour)}
	store.entries["dead"] = &models.CacheEntry{Key: "dead", ExpiresAt: time.Now().Add(-time.Hour)}

	removed, err := cache.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Contains(t, store.entries, "live")
	assert.NotContains(t, store.entries, "dead")
}
