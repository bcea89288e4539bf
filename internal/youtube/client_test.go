package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/curator/internal/apicache"
	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/internal/config"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

type memCacheStore struct {
	mu      sync.Mutex
	entries map[string]*models.CacheEntry
}

func (m *memCacheStore) GetCacheEntry(_ context.Context, key string) (*models.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok || time.Now().After(entry.ExpiresAt) {
		return nil, nil
	}
	return entry, nil
}

func (m *memCacheStore) PutCacheEntry(_ context.Context, key, cacheType string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = &models.CacheEntry{
		Key: key, CacheType: cacheType, Payload: payload, ExpiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *memCacheStore) SweepCache(_ context.Context) (int64, error) { return 0, nil }

type countingReserver struct {
	mu       sync.Mutex
	reserved int
	err      error
}

func (r *countingReserver) Reserve(_ context.Context, _ string, unitCost int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.reserved += unitCost
	return 100, nil
}

// fakeUpstream serves canned playlist/listing/detail responses and counts
// requests per endpoint
type fakeUpstream struct {
	mu       sync.Mutex
	calls    map[string]int
	pages    []playlistItemsResponse
	playlist playlistListResponse
	videos   func(ids []string) videoListResponse
	loop     bool // always return a next-page token
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/playlists", func(w http.ResponseWriter, r *http.Request) {
		f.count("playlists")
		json.NewEncoder(w).Encode(f.playlist)
	})
	mux.HandleFunc("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		f.count("playlistItems")
		page := 0
		if token := r.URL.Query().Get("pageToken"); token != "" {
			fmt.Sscanf(token, "page%d", &page)
		}
		if f.loop {
			resp := f.pages[0]
			resp.NextPageToken = fmt.Sprintf("page%d", page+1)
			json.NewEncoder(w).Encode(resp)
			return
		}
		json.NewEncoder(w).Encode(f.pages[page])
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		f.count("videos")
		ids := strings.Split(r.URL.Query().Get("id"), ",")
		json.NewEncoder(w).Encode(f.videos(ids))
	})
	return mux
}

func (f *fakeUpstream) count(endpoint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[endpoint]++
}

func (f *fakeUpstream) callCount(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func defaultPlaylistResponse() playlistListResponse {
	var resp playlistListResponse
	resp.Items = make([]struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string       `json:"title"`
			Description  string       `json:"description"`
			ChannelTitle string       `json:"channelTitle"`
			Thumbnails   thumbnailSet `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			ItemCount int `json:"itemCount"`
		} `json:"contentDetails"`
	}, 1)
	resp.Items[0].ID = testPlaylistID
	resp.Items[0].Snippet.Title = "Go Course"
	resp.Items[0].Snippet.ChannelTitle = "Go Channel"
	resp.Items[0].ContentDetails.ItemCount = 3
	return resp
}

func listingPageResponse(next string, entries ...[3]string) playlistItemsResponse {
	var resp playlistItemsResponse
	resp.NextPageToken = next
	for i, e := range entries {
		var item struct {
			Snippet struct {
				Title      string       `json:"title"`
				Position   int          `json:"position"`
				Thumbnails thumbnailSet `json:"thumbnails"`
				ResourceID struct {
					VideoID string `json:"videoId"`
				} `json:"resourceId"`
			} `json:"snippet"`
			Status struct {
				PrivacyStatus string `json:"privacyStatus"`
			} `json:"status"`
		}
		item.Snippet.ResourceID.VideoID = e[0]
		item.Snippet.Title = e[1]
		item.Snippet.Position = i
		item.Status.PrivacyStatus = e[2]
		resp.Items = append(resp.Items, item)
	}
	return resp
}

func detailsForIDs(ids []string) videoListResponse {
	var resp videoListResponse
	for _, id := range ids {
		var item struct {
			ID      string `json:"id"`
			Snippet struct {
				Title        string       `json:"title"`
				Description  string       `json:"description"`
				ChannelTitle string       `json:"channelTitle"`
				Thumbnails   thumbnailSet `json:"thumbnails"`
			} `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		}
		item.ID = id
		item.Snippet.Title = "video " + id
		item.ContentDetails.Duration = "PT5M9S"
		resp.Items = append(resp.Items, item)
	}
	return resp
}

func testClient(t *testing.T, upstream *fakeUpstream, reserver *countingReserver) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(upstream.handler())
	t.Cleanup(server.Close)

	logger, err := logging.NewDefaultLogger()
	require.NoError(t, err)

	cache := apicache.New(&memCacheStore{entries: make(map[string]*models.CacheEntry)}, reserver, logger)

	client := NewClient(config.YouTubeConfig{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		MaxPages:       10,
		PageSize:       50,
		BatchSize:      50,
		PlaylistTTL:    30 * time.Minute,
		ListingTTL:     30 * time.Minute,
		DetailsTTL:     time.Hour,
		RequestTimeout: 5 * time.Second,
	}, cache, logger)
	client.sleep = func(time.Duration) {}

	return client, server
}

func TestFetchPlaylistCaches(t *testing.T) {
	upstream := &fakeUpstream{playlist: defaultPlaylistResponse()}
	reserver := &countingReserver{}
	client, _ := testClient(t, upstream, reserver)

	meta, err := client.FetchPlaylist(context.Background(), testPlaylistID)
	require.NoError(t, err)
	assert.Equal(t, "Go Course", meta.Title)
	assert.Equal(t, 3, meta.ItemCount)

	// Second fetch is served from cache
	_, err = client.FetchPlaylist(context.Background(), testPlaylistID)
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.callCount("playlists"))
	assert.Equal(t, 1, reserver.reserved)
}

func TestFetchPlaylistNotFound(t *testing.T) {
	upstream := &fakeUpstream{playlist: playlistListResponse{}}
	client, _ := testClient(t, upstream, &countingReserver{})

	_, err := client.FetchPlaylist(context.Background(), testPlaylistID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestFetchPlaylistVideosPaginates(t *testing.T) {
	upstream := &fakeUpstream{
		playlist: defaultPlaylistResponse(),
		pages: []playlistItemsResponse{
			listingPageResponse("page1",
				[3]string{"vid00000001", "first", "public"},
				[3]string{"vid00000002", "hidden", "private"},
			),
			listingPageResponse("",
				[3]string{"vid00000003", "third", "public"},
			),
		},
	}
	client, _ := testClient(t, upstream, &countingReserver{})

	items, err := client.FetchPlaylistVideos(context.Background(), testPlaylistID, 0)
	require.NoError(t, err)
	require.Len(t, items, 2, "private entries are filtered out")
	assert.Equal(t, "vid00000001", items[0].VideoID)
	assert.Equal(t, "vid00000003", items[1].VideoID)
	assert.Equal(t, 2, upstream.callCount("playlistItems"))
}

func TestFetchPlaylistVideosPageCeiling(t *testing.T) {
	upstream := &fakeUpstream{
		playlist: defaultPlaylistResponse(),
		pages: []playlistItemsResponse{
			listingPageResponse("", [3]string{"vid00000001", "only", "public"}),
		},
		loop: true,
	}
	client, _ := testClient(t, upstream, &countingReserver{})

	items, err := client.FetchPlaylistVideos(context.Background(), testPlaylistID, 0)
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.Equal(t, 10, upstream.callCount("playlistItems"), "page ceiling bounds a misbehaving upstream")
}

func TestFetchPlaylistVideosRespectsMax(t *testing.T) {
	upstream := &fakeUpstream{
		playlist: defaultPlaylistResponse(),
		pages: []playlistItemsResponse{
			listingPageResponse("page1",
				[3]string{"vid00000001", "a", "public"},
				[3]string{"vid00000002", "b", "public"},
				[3]string{"vid00000003", "c", "public"},
			),
		},
		loop: true,
	}
	client, _ := testClient(t, upstream, &countingReserver{})

	items, err := client.FetchPlaylistVideos(context.Background(), testPlaylistID, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, upstream.callCount("playlistItems"))
}

func TestFetchVideoDetailsBatches(t *testing.T) {
	upstream := &fakeUpstream{videos: detailsForIDs}
	client, _ := testClient(t, upstream, &countingReserver{})

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprintf("vid%08d", i)
	}

	details, err := client.FetchVideoDetails(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, details, 120)
	assert.Equal(t, 3, upstream.callCount("videos"), "120 ids partition into batches of 50")
	assert.Equal(t, "5:09", details["vid00000000"].Duration)
}

func TestImportPlaylistMerges(t *testing.T) {
	upstream := &fakeUpstream{
		playlist: defaultPlaylistResponse(),
		pages: []playlistItemsResponse{
			listingPageResponse("",
				[3]string{"vid00000001", "listing one", "public"},
				[3]string{"vid00000002", "listing two", "public"},
			),
		},
		videos: detailsForIDs,
	}
	client, _ := testClient(t, upstream, &countingReserver{})

	result, err := client.ImportPlaylist(context.Background(), testPlaylistID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Go Course", result.Playlist.Title)
	assert.Equal(t, 2, result.TotalFound)
	require.Len(t, result.Videos, 2)

	// Position comes from the listing order, details from the batch call
	assert.Equal(t, 0, result.Videos[0].Position)
	assert.Equal(t, 1, result.Videos[1].Position)
	assert.Equal(t, "video vid00000001", result.Videos[0].Title)
	assert.Equal(t, "5:09", result.Videos[0].Duration)
}

func TestImportPlaylistSkipsVideosWithoutDetails(t *testing.T) {
	upstream := &fakeUpstream{
		playlist: defaultPlaylistResponse(),
		pages: []playlistItemsResponse{
			listingPageResponse("",
				[3]string{"vid00000001", "kept", "public"},
				[3]string{"vid00000002", "dropped", "public"},
			),
		},
		videos: func(ids []string) videoListResponse {
			// Upstream omits the second video from the detail response
			return detailsForIDs([]string{"vid00000001"})
		},
	}
	client, _ := testClient(t, upstream, &countingReserver{})

	result, err := client.ImportPlaylist(context.Background(), testPlaylistID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalFound)
	require.Len(t, result.Videos, 1)
	assert.Equal(t, "vid00000001", result.Videos[0].SourceVideoID)
}

func TestImportPlaylistNoPublicVideos(t *testing.T) {
	upstream := &fakeUpstream{
		playlist: defaultPlaylistResponse(),
		pages: []playlistItemsResponse{
			listingPageResponse("", [3]string{"vid00000001", "hidden", "private"}),
		},
	}
	client, _ := testClient(t, upstream, &countingReserver{})

	_, err := client.ImportPlaylist(context.Background(), testPlaylistID, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestQuotaExhaustedFailsFast(t *testing.T) {
	upstream := &fakeUpstream{playlist: defaultPlaylistResponse()}
	reserver := &countingReserver{err: apperrors.New(apperrors.KindQuotaExceeded, "daily quota for youtube exhausted")}
	client, _ := testClient(t, upstream, reserver)

	_, err := client.FetchPlaylist(context.Background(), testPlaylistID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindQuotaExceeded))
	assert.Equal(t, 0, upstream.callCount("playlists"), "rejected reservation must block the network call")
}
