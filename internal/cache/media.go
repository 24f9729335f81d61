package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chirper-api/pkg/logger"
)

const (
	// MediaCachePrefix is the key prefix for cached blob payloads
	MediaCachePrefix = "media:"

	// MediaCacheTTL is the TTL for cached blob payloads (1 hour)
	MediaCacheTTL = time.Hour
)

// MediaCache memoizes decoded blob bytes for repeat reads.
// It is strictly best-effort: a miss or a Redis failure always falls back
// to the blob store, and staleness is handled by explicit Del calls at the
// call sites that change the underlying blob.
type MediaCache interface {
	// Get returns the cached payload for a blob reference.
	// found=false on a miss; errors are returned for visibility but callers
	// treat them as misses.
	Get(ctx context.Context, ref string) (payload []byte, found bool, err error)

	// Set stores the payload for a blob reference with the fixed TTL.
	Set(ctx context.Context, ref string, payload []byte) error

	// Del drops cache entries for the given blob references.
	// Called wherever the underlying blob is deleted or replaced.
	Del(ctx context.Context, refs ...string) error
}

// RedisMediaCache implements MediaCache on a shared Redis client.
type RedisMediaCache struct {
	client *redis.Client
	log    *logger.Logger
}

func NewMediaCache(client *redis.Client, log *logger.Logger) MediaCache {
	return &RedisMediaCache{client: client, log: log}
}

func mediaKey(ref string) string {
	return MediaCachePrefix + ref
}

func (c *RedisMediaCache) Get(ctx context.Context, ref string) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, mediaKey(ref)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		c.log.WithError(err).WithField("ref", ref).Warn("media cache get failed")
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return payload, true, nil
}

func (c *RedisMediaCache) Set(ctx context.Context, ref string, payload []byte) error {
	if err := c.client.Set(ctx, mediaKey(ref), payload, MediaCacheTTL).Err(); err != nil {
		c.log.WithError(err).WithField("ref", ref).Warn("media cache set failed")
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *RedisMediaCache) Del(ctx context.Context, refs ...string) error {
	if len(refs) == 0 {
		return nil
	}

	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = mediaKey(ref)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).WithField("keys", len(keys)).Warn("media cache del failed")
		return fmt.Errorf("cache del: %w", err)
	}
	return nil
}
