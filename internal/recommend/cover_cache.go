package recommend

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"bookshelf/internal/platform/openlibrary"
)

const coverKeyPrefix = "bookshelf:cover:"

// noCover is cached for lookups that found nothing so they are not repeated.
const noCover = "-"

// CoverCache stores resolved cover URLs. Get reports ok=false on a miss.
type CoverCache interface {
	Get(ctx context.Context, title, author string) (url string, ok bool, err error)
	Set(ctx context.Context, title, author, url string) error
}

// RedisCoverCache keeps cover URLs in Redis with a TTL.
type RedisCoverCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCoverCache(client *redis.Client, ttl time.Duration) *RedisCoverCache {
	return &RedisCoverCache{client: client, ttl: ttl}
}

func coverKey(title, author string) string {
	sum := sha1.Sum([]byte(titleKey(title) + "\x00" + titleKey(author)))
	return coverKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *RedisCoverCache) Get(ctx context.Context, title, author string) (string, bool, error) {
	v, err := c.client.Get(ctx, coverKey(title, author)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisCoverCache) Set(ctx context.Context, title, author, url string) error {
	return c.client.Set(ctx, coverKey(title, author), url, c.ttl).Err()
}

// cachedCovers wraps a CoverFinder with a CoverCache. Cache failures are
// ignored; the finder is asked instead.
type cachedCovers struct {
	finder CoverFinder
	cache  CoverCache
}

// WithCache returns finder unchanged when cache is nil.
func WithCache(finder CoverFinder, cache CoverCache) CoverFinder {
	if cache == nil {
		return finder
	}
	return &cachedCovers{finder: finder, cache: cache}
}

func (c *cachedCovers) FindCover(ctx context.Context, title, author string) (string, error) {
	if url, ok, err := c.cache.Get(ctx, title, author); err == nil && ok {
		if url == noCover {
			return "", openlibrary.ErrNoCover
		}
		return url, nil
	}

	url, err := c.finder.FindCover(ctx, title, author)
	switch {
	case err == nil:
		_ = c.cache.Set(ctx, title, author, url)
	case errors.Is(err, openlibrary.ErrNoCover):
		_ = c.cache.Set(ctx, title, author, noCover)
	}
	return url, err
}
