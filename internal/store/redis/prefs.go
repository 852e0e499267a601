package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store keeps opaque preference blobs in Redis. Blobs never expire.
type Store struct {
	client *redis.Client
	key    string
}

// NewStore creates a store for the blob called name (DefaultPrefsName when
// empty).
func NewStore(client *redis.Client, name string) *Store {
	if name == "" {
		name = DefaultPrefsName
	}
	return &Store{
		client: client,
		key:    PrefsKey(name),
	}
}

// Load returns the blob, or false when nothing was saved yet.
func (s *Store) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load preferences: %w", err)
	}
	return data, true, nil
}

// Save replaces the blob.
func (s *Store) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// Delete removes the blob.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	return nil
}

// Ping reports whether Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
