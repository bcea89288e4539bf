package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/curator/internal/apicache"
	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/internal/config"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/internal/metrics"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Unit costs per upstream list call
const (
	costPlaylistFetch = 1
	costListingPage   = 1
	costDetailBatch   = 1
)

// ErrNoPublicVideos signals a composite import whose merged result is
// empty after filtering to public videos
var ErrNoPublicVideos = apperrors.New(apperrors.KindNotFound, "playlist has no public videos")

// Client wraps the upstream video-platform API with identifier
// extraction, pagination, batching and duration normalization. Every
// network call goes through the cache-then-quota sequence.
type Client struct {
	cfg    config.YouTubeConfig
	http   *http.Client
	cache  *apicache.Cache
	logger *logging.Logger

	// Injectable for tests; the fixed inter-page delay otherwise
	sleep func(time.Duration)
}

// NewClient creates an upstream metadata client
func NewClient(cfg config.YouTubeConfig, cache *apicache.Cache, logger *logging.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		cache:  cache,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// FetchPlaylist retrieves playlist-level metadata, served from cache for
// 30 minutes. Zero upstream items means the playlist is absent or
// private; the upstream does not disambiguate and neither do we.
func (c *Client) FetchPlaylist(ctx context.Context, playlistID string) (*PlaylistMeta, error) {
	key := "playlist:" + playlistID

	payload, cached, err := c.cache.Fetch(ctx, key, models.CacheTypePlaylist, models.APIYouTube,
		costPlaylistFetch, c.cfg.PlaylistTTL, func(ctx context.Context) ([]byte, error) {
			meta, err := c.requestPlaylist(ctx, playlistID)
			if err != nil {
				return nil, err
			}
			return json.Marshal(meta)
		})
	if err != nil {
		return nil, err
	}

	var meta PlaylistMeta
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode cached playlist: %w", err)
	}

	c.logger.WithField("cached", cached).WithPlaylistID(playlistID).Debug("Fetched playlist metadata")
	return &meta, nil
}

// FetchPlaylistVideos pages through the playlist listing, filtering to
// public videos, until the cursor is exhausted, maxVideos is reached or
// the page ceiling is hit. A fixed courtesy delay separates pages.
func (c *Client) FetchPlaylistVideos(ctx context.Context, playlistID string, maxVideos int) ([]ListingItem, error) {
	var items []ListingItem
	token := ""

	for page := 0; page < c.cfg.MaxPages; page++ {
		if page > 0 {
			c.sleep(c.cfg.RequestDelay)
		}

		pg, err := c.fetchListingPage(ctx, playlistID, token)
		if err != nil {
			return nil, err
		}

		items = append(items, pg.Items...)
		if maxVideos > 0 && len(items) >= maxVideos {
			items = items[:maxVideos]
			break
		}
		if pg.NextPageToken == "" {
			break
		}
		token = pg.NextPageToken
	}

	return items, nil
}

// FetchVideoDetails resolves per-video details in batches of at most the
// upstream limit. A failed batch is logged and skipped; its videos are
// simply absent from the result.
func (c *Client) FetchVideoDetails(ctx context.Context, videoIDs []string) (map[string]*VideoDetails, error) {
	details := make(map[string]*VideoDetails, len(videoIDs))

	for start := 0; start < len(videoIDs); start += c.cfg.BatchSize {
		if start > 0 {
			c.sleep(c.cfg.RequestDelay)
		}

		end := start + c.cfg.BatchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batch := videoIDs[start:end]

		batchDetails, err := c.fetchDetailBatch(ctx, batch)
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindQuotaExceeded) {
				return nil, err
			}
			c.logger.WithError(err).WithField("batch_size", len(batch)).
				Warn("Detail batch failed, skipping")
			continue
		}
		for id, d := range batchDetails {
			details[id] = d
		}
	}

	return details, nil
}

// ImportPlaylist runs the composite fetch: metadata, full listing, then
// batched details, merged on the listing's positions. Only videos whose
// details resolved are returned; TotalFound still counts every public
// listing entry.
func (c *Client) ImportPlaylist(ctx context.Context, playlistID string, maxVideos int) (*ImportResult, error) {
	meta, err := c.FetchPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	listing, err := c.FetchPlaylistVideos(ctx, playlistID, maxVideos)
	if err != nil {
		return nil, err
	}
	if len(listing) == 0 {
		return nil, ErrNoPublicVideos
	}

	ids := make([]string, 0, len(listing))
	for _, item := range listing {
		ids = append(ids, item.VideoID)
	}

	details, err := c.FetchVideoDetails(ctx, ids)
	if err != nil {
		return nil, err
	}

	videos := make([]ImportedVideo, 0, len(listing))
	for _, item := range listing {
		d, ok := details[item.VideoID]
		if !ok {
			continue
		}
		title := d.Title
		if title == "" {
			title = item.Title
		}
		thumbnail := d.ThumbnailURL
		if thumbnail == "" {
			thumbnail = item.ThumbnailURL
		}
		videos = append(videos, ImportedVideo{
			SourceVideoID: item.VideoID,
			Title:         title,
			Description:   d.Description,
			ChannelTitle:  d.ChannelTitle,
			Duration:      d.Duration,
			ThumbnailURL:  thumbnail,
			Position:      item.Position,
		})
	}

	if len(videos) == 0 {
		return nil, ErrNoPublicVideos
	}

	return &ImportResult{Playlist: meta, Videos: videos, TotalFound: len(listing)}, nil
}

func (c *Client) fetchListingPage(ctx context.Context, playlistID, pageToken string) (*listingPage, error) {
	key := "playlist_items:" + playlistID + ":page:" + pageToken

	payload, _, err := c.cache.Fetch(ctx, key, models.CacheTypePlaylistItems, models.APIYouTube,
		costListingPage, c.cfg.ListingTTL, func(ctx context.Context) ([]byte, error) {
			pg, err := c.requestListingPage(ctx, playlistID, pageToken)
			if err != nil {
				return nil, err
			}
			return json.Marshal(pg)
		})
	if err != nil {
		return nil, err
	}

	var pg listingPage
	if err := json.Unmarshal(payload, &pg); err != nil {
		return nil, fmt.Errorf("failed to decode cached listing page: %w", err)
	}

	return &pg, nil
}

func (c *Client) fetchDetailBatch(ctx context.Context, batch []string) (map[string]*VideoDetails, error) {
	sorted := append([]string(nil), batch...)
	sort.Strings(sorted)
	key := "video_details:" + strings.Join(sorted, ",")

	payload, _, err := c.cache.Fetch(ctx, key, models.CacheTypeVideoDetails, models.APIYouTube,
		costDetailBatch, c.cfg.DetailsTTL, func(ctx context.Context) ([]byte, error) {
			details, err := c.requestDetailBatch(ctx, batch)
			if err != nil {
				return nil, err
			}
			return json.Marshal(details)
		})
	if err != nil {
		return nil, err
	}

	var details map[string]*VideoDetails
	if err := json.Unmarshal(payload, &details); err != nil {
		return nil, fmt.Errorf("failed to decode cached detail batch: %w", err)
	}

	return details, nil
}

// Raw upstream requests

func (c *Client) requestPlaylist(ctx context.Context, playlistID string) (*PlaylistMeta, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("id", playlistID)

	var resp playlistListResponse
	if err := c.doGet(ctx, "playlists", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		// Absent and private look identical upstream
		return nil, apperrors.Newf(apperrors.KindNotFound, "playlist %s not found", playlistID)
	}

	item := resp.Items[0]
	return &PlaylistMeta{
		ID:           item.ID,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		ChannelTitle: item.Snippet.ChannelTitle,
		ThumbnailURL: item.Snippet.Thumbnails.best(),
		ItemCount:    item.ContentDetails.ItemCount,
	}, nil
}

func (c *Client) requestListingPage(ctx context.Context, playlistID, pageToken string) (*listingPage, error) {
	params := url.Values{}
	params.Set("part", "snippet,status")
	params.Set("playlistId", playlistID)
	params.Set("maxResults", strconv.Itoa(c.cfg.PageSize))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var resp playlistItemsResponse
	if err := c.doGet(ctx, "playlistItems", params, &resp); err != nil {
		return nil, err
	}

	pg := &listingPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Status.PrivacyStatus != "public" {
			continue
		}
		pg.Items = append(pg.Items, ListingItem{
			VideoID:      item.Snippet.ResourceID.VideoID,
			Title:        item.Snippet.Title,
			Position:     item.Snippet.Position,
			ThumbnailURL: item.Snippet.Thumbnails.best(),
		})
	}

	return pg, nil
}

func (c *Client) requestDetailBatch(ctx context.Context, batch []string) (map[string]*VideoDetails, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("id", strings.Join(batch, ","))

	var resp videoListResponse
	if err := c.doGet(ctx, "videos", params, &resp); err != nil {
		return nil, err
	}

	details := make(map[string]*VideoDetails, len(resp.Items))
	for _, item := range resp.Items {
		details[item.ID] = &VideoDetails{
			ID:           item.ID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ChannelTitle: item.Snippet.ChannelTitle,
			Duration:     FormatDuration(item.ContentDetails.Duration),
			ThumbnailURL: item.Snippet.Thumbnails.best(),
		}
	}

	return details, nil
}

func (c *Client) doGet(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	params.Set("key", c.cfg.APIKey)
	reqURL := c.cfg.BaseURL + "/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstreamFailure, "failed to build upstream request", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordUpstreamCall(endpoint, "error", duration.Seconds())
		c.logger.LogUpstreamCall(endpoint, false, 1, duration, err)
		return apperrors.Wrap(apperrors.KindUpstreamFailure, "upstream request failed", err)
	}
	defer resp.Body.Close()

	metrics.RecordUpstreamCall(endpoint, strconv.Itoa(resp.StatusCode), duration.Seconds())
	c.logger.LogUpstreamCall(endpoint, false, 1, duration, nil)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.Newf(apperrors.KindUpstreamFailure,
			"upstream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.KindUpstreamFailure, "failed to decode upstream response", err)
	}

	return nil
}
