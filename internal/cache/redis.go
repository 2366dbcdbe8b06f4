package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// opTimeout bounds each redis round trip so a dead server degrades to a
// cache miss instead of hanging the command.
const opTimeout = 2 * time.Second

// RedisStore keeps one cache entry in redis. TTL is enforced server-side
// via key expiry.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore connects to addr and scopes the entry the same way
// FileStore does. addr is either a plain host:port or a redis:// URL.
func NewRedisStore(addr, key, baseURL, credentialID string, ttl time.Duration) (*RedisStore, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis address: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	return &RedisStore{
		client: redis.NewClient(opts),
		key:    fmt.Sprintf("extrata-cli:%s:%s:%s", sanitizeKey(key), shortHash(baseURL), shortHash(credentialID)),
		ttl:    ttl,
	}, nil
}

// Get loads cached items into dst. Returns false on miss or any redis error.
func (s *RedisStore) Get(dst any) bool {
	if disabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// Put writes items with the store's TTL as the key expiry.
func (s *RedisStore) Put(items any) {
	if disabled() {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	_ = s.client.Set(ctx, s.key, data, s.ttl).Err()
}

// Clear removes the entry.
func (s *RedisStore) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	_ = s.client.Del(ctx, s.key).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
