// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"farberge/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client.
	CacheClient *redis.Client
)

// InitCache initializes the Redis client used for leases and webhook dedupe.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// Lease guards work that should run on one instance at a time.
type Lease interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

// RedisLease is a best-effort lock on a single key. The holder token makes
// Release a no-op once another instance has taken over.
type RedisLease struct {
	Client *redis.Client
	Key    string
	Holder string
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (l *RedisLease) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.Client.SetNX(ctx, l.Key, l.Holder, ttl).Result()
}

func (l *RedisLease) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.Client, []string{l.Key}, l.Holder).Err()
}

// EventDeduper remembers processed webhook event ids.
type EventDeduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

const (
	webhookEventPrefix = "webhook:event:"
	webhookEventTTL    = 72 * time.Hour
)

type RedisEventDeduper struct {
	Client *redis.Client
}

func (d *RedisEventDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := d.Client.Exists(ctx, webhookEventPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records eventID as processed. Only call it once the event was applied.
func (d *RedisEventDeduper) Mark(ctx context.Context, eventID string) error {
	return d.Client.Set(ctx, webhookEventPrefix+eventID, time.Now().Unix(), webhookEventTTL).Err()
}
