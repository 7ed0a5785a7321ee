package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store persists the rate window mapping: composite key
// "<clientID>_<unixNano>_<random>" to the attempt timestamp in Unix
// nanoseconds.
// Load and Save together form a read-modify-write cycle; the file store
// offers no cross-process locking, so concurrent writers can lose an
// update. The redis store shares one hash between instances and narrows
// that window but keeps the same cycle.
type Store interface {
	Load(ctx context.Context) (map[string]int64, error)
	Save(ctx context.Context, entries map[string]int64) error
}

// MemoryStore is an in-process Store for tests and single-instance use
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]int64)}
}

// Load returns a copy of the stored entries
func (s *MemoryStore) Load(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

// Save replaces the stored entries
func (s *MemoryStore) Save(ctx context.Context, entries map[string]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]int64, len(entries))
	for k, v := range entries {
		s.entries[k] = v
	}
	return nil
}

// FileStore keeps the rate window in a JSON mapping file
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at path. The parent directory
// is created with owner-only permissions if absent.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create rate limit store directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load reads the mapping file. A missing or unreadable file yields an
// empty window so a corrupted store never blocks submissions.
func (s *FileStore) Load(ctx context.Context) (map[string]int64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]int64), nil
		}
		return make(map[string]int64), err
	}

	entries := make(map[string]int64)
	if err := json.Unmarshal(data, &entries); err != nil {
		return make(map[string]int64), err
	}
	return entries, nil
}

// Save writes the full mapping back to the file
func (s *FileStore) Save(ctx context.Context, entries map[string]int64) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode rate limit entries: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write rate limit store: %w", err)
	}
	return nil
}

// redisWindowKey is the hash holding all rate window entries
const redisWindowKey = "contact:rate_window"

// RedisStore keeps the rate window in a shared redis hash so multiple
// backend instances count against the same limits
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load reads all window entries from the hash
func (s *RedisStore) Load(ctx context.Context) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, redisWindowKey).Result()
	if err != nil {
		return make(map[string]int64), err
	}

	entries := make(map[string]int64, len(raw))
	for k, v := range raw {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		entries[k] = ts
	}
	return entries, nil
}

// Save replaces the hash with the purged window
func (s *RedisStore) Save(ctx context.Context, entries map[string]int64) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, redisWindowKey)
	if len(entries) > 0 {
		fields := make(map[string]interface{}, len(entries))
		for k, v := range entries {
			fields[k] = strconv.FormatInt(v, 10)
		}
		pipe.HSet(ctx, redisWindowKey, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist rate window: %w", err)
	}
	return nil
}
