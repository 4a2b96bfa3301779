package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"family-site/internal/models"
	"family-site/internal/narration"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const contentHashKey = "content_hash"

// NATSAudioStore keeps narration MP3s in a JetStream object store bucket,
// one object per slug with the content hash in its metadata.
type NATSAudioStore struct {
	bucket string
	store  nats.ObjectStore
}

// NewNATSAudioStore creates the bucket, or binds to it when it already exists.
func NewNATSAudioStore(js nats.JetStreamContext, bucket string) (*NATSAudioStore, error) {
	store, err := js.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "Blog narration audio keyed by slug.",
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucket, err)
		}
		store, err = js.ObjectStore(bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucket, err)
		}
	}

	return &NATSAudioStore{bucket: bucket, store: store}, nil
}

func (n *NATSAudioStore) Lookup(_ context.Context, slug string) (models.AudioCacheEntry, error) {
	obj, err := n.store.Get(slug)
	if errors.Is(err, nats.ErrObjectNotFound) {
		return models.AudioCacheEntry{}, narration.ErrCacheMiss
	}
	if err != nil {
		return models.AudioCacheEntry{}, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", slug, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()
	if readErr != nil {
		return models.AudioCacheEntry{}, fmt.Errorf("failed to read object '%s': %w", slug, readErr)
	}
	if closeErr != nil {
		return models.AudioCacheEntry{}, fmt.Errorf("failed to close object '%s': %w", slug, closeErr)
	}
	if len(data) == 0 {
		return models.AudioCacheEntry{}, narration.ErrCacheMiss
	}

	info, err := obj.Info()
	if err != nil {
		return models.AudioCacheEntry{}, fmt.Errorf("failed to read info of object '%s': %w", slug, err)
	}

	return models.AudioCacheEntry{
		Slug:        slug,
		Audio:       data,
		ContentHash: info.Metadata[contentHashKey],
		CreatedAt:   info.ModTime,
	}, nil
}

// Save replaces the object for entry.Slug.
func (n *NATSAudioStore) Save(_ context.Context, entry models.AudioCacheEntry) error {
	_, err := n.store.Put(&nats.ObjectMeta{
		Name:     entry.Slug,
		Metadata: map[string]string{contentHashKey: entry.ContentHash},
	}, bytes.NewReader(entry.Audio))
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", entry.Slug, n.bucket, err)
	}

	return nil
}

func (n *NATSAudioStore) Delete(_ context.Context, slug string) error {
	err := n.store.Delete(slug)
	if err != nil && !errors.Is(err, nats.ErrObjectNotFound) {
		return fmt.Errorf("failed to delete object '%s' from bucket '%s': %w", slug, n.bucket, err)
	}
	return nil
}
