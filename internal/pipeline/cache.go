package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/billmal071/litdl/internal/book"
)

// BookCache stores resolved books between runs
type BookCache interface {
	GetCachedBook(url string) (*book.Book, error)
	SaveCachedBook(url string, b *book.Book, ttl time.Duration) error
}

// CachedResolver answers repeated URLs from a cache so that retries skip
// metadata requests. Cache failures only cost a fresh resolve.
type CachedResolver struct {
	next  Resolver
	cache BookCache
	ttl   time.Duration
	log   *zap.SugaredLogger
}

// NewCachedResolver wraps next. A ttl <= 0 disables caching.
func NewCachedResolver(next Resolver, cache BookCache, ttl time.Duration, log *zap.SugaredLogger) *CachedResolver {
	return &CachedResolver{next: next, cache: cache, ttl: ttl, log: log}
}

func (c *CachedResolver) Resolve(ctx context.Context, url string) (*book.Book, error) {
	if c.ttl <= 0 || c.cache == nil {
		return c.next.Resolve(ctx, url)
	}

	b, err := c.cache.GetCachedBook(url)
	if err != nil {
		c.log.Warnw("Metadata cache lookup failed", "url", url, "error", err)
	}
	if b != nil {
		c.log.Debugw("Using cached metadata", "url", url, "title", b.Meta.Title)
		return b, nil
	}

	b, err = c.next.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}
	if b.TotalParts() > 0 {
		if err := c.cache.SaveCachedBook(url, b, c.ttl); err != nil {
			c.log.Warnw("Failed to cache metadata", "url", url, "error", err)
		}
	}
	return b, nil
}
