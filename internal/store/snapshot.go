package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// SnapshotStore keeps the last good upstream body per logical path in Redis
// so routes can serve a warm fallback during brief upstream outages.
type SnapshotStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// ErrNoSnapshot indicates Redis has no recorded body for the path.
var ErrNoSnapshot = errors.New("no snapshot recorded")

func NewSnapshotStore(client *redis.Client, prefix string, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SnapshotStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *SnapshotStore) key(path string) string {
	return s.prefix + ":" + strings.TrimPrefix(path, "/")
}

// Record stores the body for the path, replacing any previous entry.
func (s *SnapshotStore) Record(ctx context.Context, path string, body []byte) error {
	if s.prefix == "" {
		return fmt.Errorf("snapshot key prefix is not configured")
	}
	if err := s.client.Set(ctx, s.key(path), body, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", s.key(path), err)
	}
	return nil
}

// LastGood returns the most recently recorded body for the path.
func (s *SnapshotStore) LastGood(ctx context.Context, path string) ([]byte, error) {
	if s.prefix == "" {
		return nil, fmt.Errorf("snapshot key prefix is not configured")
	}
	body, err := s.client.Get(ctx, s.key(path)).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", s.key(path), err)
	}
	return body, nil
}
