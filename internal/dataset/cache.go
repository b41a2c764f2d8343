package dataset

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// CachedLoader memoizes profiles by source for a fixed TTL. Profiles are
// immutable once built, so cached values are shared between callers.
type CachedLoader struct {
	next  Loader
	cache *cache.Cache
}

// NewCachedLoader wraps next with a TTL cache. A non-positive ttl disables
// caching and returns next unchanged.
func NewCachedLoader(next Loader, ttl time.Duration) Loader {
	if ttl <= 0 {
		return next
	}
	return &CachedLoader{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Load implements Loader. Failures are not cached.
func (c *CachedLoader) Load(ctx context.Context, source string) (*domain.DatasetProfile, error) {
	if v, ok := c.cache.Get(source); ok {
		return v.(*domain.DatasetProfile), nil
	}
	profile, err := c.next.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(source, profile)
	return profile, nil
}

// Invalidate drops the cached profile for source.
func (c *CachedLoader) Invalidate(source string) {
	c.cache.Delete(source)
}

// Len returns the number of cached profiles.
func (c *CachedLoader) Len() int {
	return c.cache.ItemCount()
}
