package lookup

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/poyrazK/zonectl/internal/core/ports"
)

// Cached keeps successful lookups for ttl. Failures are never cached.
type Cached struct {
	next  ports.Lookup
	cache *cache.Cache
}

// NewCached wraps next with a cache of the given ttl.
func NewCached(next ports.Lookup, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *Cached) Query(ctx context.Context, zone string) (string, error) {
	if out, ok := c.cache.Get(zone); ok {
		return out.(string), nil
	}

	out, err := c.next.Query(ctx, zone)
	if err != nil {
		return "", err
	}
	c.cache.SetDefault(zone, out)
	return out, nil
}

// Forget drops the cached answer for zone; called after the zone changes.
func (c *Cached) Forget(zone string) {
	c.cache.Delete(zone)
}
