package models

import "time"

// AudioCacheEntry - Model untuk blog_audio, one row per blog slug
type AudioCacheEntry struct {
	Slug        string    `json:"slug"`
	Audio       []byte    `json:"-"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}
