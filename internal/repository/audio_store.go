package repository

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"family-site/internal/models"
	"family-site/internal/narration"
)

// AudioStore keeps narration MP3s in blog_audio as base64 text, one row per slug.
type AudioStore struct {
	db *sql.DB
}

func NewAudioStore(db *sql.DB) *AudioStore {
	return &AudioStore{db: db}
}

func (s *AudioStore) Lookup(ctx context.Context, slug string) (models.AudioCacheEntry, error) {
	query := `
		SELECT slug, audio_data, content_hash, created_at
		FROM blog_audio
		WHERE slug = ?
	`

	var (
		entry   models.AudioCacheEntry
		encoded string
		hash    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, slug).Scan(&entry.Slug, &encoded, &hash, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AudioCacheEntry{}, narration.ErrCacheMiss
	}
	if err != nil {
		return models.AudioCacheEntry{}, fmt.Errorf("query audio for %q: %w", slug, err)
	}

	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return models.AudioCacheEntry{}, fmt.Errorf("decode audio for %q: %w", slug, err)
	}
	if len(audio) == 0 {
		return models.AudioCacheEntry{}, narration.ErrCacheMiss
	}

	entry.Audio = audio
	entry.ContentHash = hash.String

	return entry, nil
}

// Save - Upsert audio per slug, baris lama ditimpa
func (s *AudioStore) Save(ctx context.Context, entry models.AudioCacheEntry) error {
	query := `
		INSERT INTO blog_audio (slug, audio_data, content_hash, created_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			audio_data = VALUES(audio_data),
			content_hash = VALUES(content_hash),
			created_at = VALUES(created_at)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.Slug,
		base64.StdEncoding.EncodeToString(entry.Audio),
		entry.ContentHash,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save audio for %q: %w", entry.Slug, err)
	}

	return nil
}

// Delete removes the cached narration for slug. Deleting a missing row is not an error.
func (s *AudioStore) Delete(ctx context.Context, slug string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM blog_audio WHERE slug = ?", slug); err != nil {
		return fmt.Errorf("delete audio for %q: %w", slug, err)
	}
	return nil
}
