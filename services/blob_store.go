package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
)

// ErrBlobNotFound is returned for missing keys.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is a small async key -> string store. All cache entries are
// JSON-serialized meal lists or timestamp strings; nothing here is
// authoritative, every value can be rebuilt from the meal store.
type BlobStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	// Keys lists keys matching a glob-style pattern (e.g. "meals:42:*").
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// RedisBlobStore backs the cache with redis.
type RedisBlobStore struct {
	rdb *redis.Client
}

func NewRedisBlobStore(rdb *redis.Client) *RedisBlobStore {
	return &RedisBlobStore{rdb: rdb}
}

func (s *RedisBlobStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrBlobNotFound
	}
	return v, err
}

func (s *RedisBlobStore) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *RedisBlobStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisBlobStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return s.rdb.Keys(ctx, pattern).Result()
}

// MemoryBlobStore is the in-process implementation used in tests and as a
// fallback when redis is not configured.
type MemoryBlobStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{data: make(map[string]string)}
}

func (s *MemoryBlobStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrBlobNotFound
	}
	return v, nil
}

func (s *MemoryBlobStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemoryBlobStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.data, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryBlobStore) Keys(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}
