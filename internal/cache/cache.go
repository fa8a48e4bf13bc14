package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ReportCache caches computed report payloads in Redis. A nil *ReportCache is
// valid and disables caching, so callers never need to branch on configuration.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and returns a report cache.
func New(redisURL string, ttl time.Duration) (*ReportCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if errPing := client.Ping(ctx).Err(); errPing != nil {
		return nil, errPing
	}

	log.Infof("report cache connected ttl=%s", ttl)
	return &ReportCache{client: client, ttl: ttl}, nil
}

// Get loads a cached payload into dest. Returns false on miss or when
// caching is disabled.
func (c *ReportCache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// Set stores a payload under key with the cache TTL. Failures are logged and
// otherwise ignored; caching is best-effort.
func (c *ReportCache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	data, errJSON := json.Marshal(value)
	if errJSON != nil {
		return
	}
	if errSet := c.client.Set(ctx, key, data, c.ttl).Err(); errSet != nil {
		log.Debugf("report cache set %s: %v", key, errSet)
	}
}

// Invalidate removes cached payloads matching the given keys.
func (c *ReportCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if errDel := c.client.Del(ctx, keys...).Err(); errDel != nil {
		log.Debugf("report cache invalidate: %v", errDel)
	}
}

// Close releases the Redis connection.
func (c *ReportCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
