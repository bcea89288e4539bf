package models

import "time"

// CacheEntry is a stored upstream API response keyed by a deterministic
// request signature. An entry past its expiry is treated as a miss even
// while the row still exists; sweep() removes such rows.
type CacheEntry struct {
	Key            string    `json:"key" db:"key"`
	CacheType      string    `json:"cache_type" db:"cache_type"`
	Payload        []byte    `json:"payload" db:"payload"`
	ExpiresAt      time.Time `json:"expires_at" db:"expires_at"`
	AccessCount    int       `json:"access_count" db:"access_count"`
	LastAccessedAt time.Time `json:"last_accessed_at" db:"last_accessed_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Cache type categories
const (
	CacheTypePlaylist      = "playlist"
	CacheTypePlaylistItems = "playlist_items"
	CacheTypeVideoDetails  = "video_details"
)
