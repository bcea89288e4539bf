package youtube

// PlaylistMeta is the normalized playlist-level metadata
type PlaylistMeta struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channel_title"`
	ThumbnailURL string `json:"thumbnail_url"`
	ItemCount    int    `json:"item_count"`
}

// ListingItem is one public entry from the paginated playlist listing.
// Position is authoritative here, not in the detail lookup.
type ListingItem struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Position     int    `json:"position"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// VideoDetails is the normalized per-video detail record. Duration is
// already rendered in display form.
type VideoDetails struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channel_title"`
	Duration     string `json:"duration"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// ImportedVideo is a listing entry merged with its details, ready for
// persistence
type ImportedVideo struct {
	SourceVideoID string `json:"source_video_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ChannelTitle  string `json:"channel_title"`
	Duration      string `json:"duration"`
	ThumbnailURL  string `json:"thumbnail_url"`
	Position      int    `json:"position"`
}

// ImportResult is the outcome of a composite import fetch. TotalFound
// counts the public listing entries; Videos holds only those whose
// details resolved.
type ImportResult struct {
	Playlist   *PlaylistMeta   `json:"playlist"`
	Videos     []ImportedVideo `json:"videos"`
	TotalFound int             `json:"total_found"`
}

// listingPage is the cached unit of the paginated listing
type listingPage struct {
	Items         []ListingItem `json:"items"`
	NextPageToken string        `json:"next_page_token"`
}

// Upstream wire format

type thumbnailSet struct {
	Medium struct {
		URL string `json:"url"`
	} `json:"medium"`
	Default struct {
		URL string `json:"url"`
	} `json:"default"`
}

func (t thumbnailSet) best() string {
	if t.Medium.URL != "" {
		return t.Medium.URL
	}
	return t.Default.URL
}

type playlistListResponse struct {
	Items []struct {
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
	} `json:"items"`
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
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
	} `json:"items"`
}

type videoListResponse struct {
	Items []struct {
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
	} `json:"items"`
}
