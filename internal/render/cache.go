package render

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dgallion1/docnav/internal/metrics"
)

// Cached memoizes successful renders by source hash.
type Cached struct {
	next  Renderer
	cache *cache.Cache
	rec   metrics.Recorder
}

// NewCached wraps next with a cache whose entries expire after ttl.
func NewCached(next Renderer, ttl time.Duration, rec metrics.Recorder) *Cached {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
		rec:   rec,
	}
}

func (c *Cached) Render(src []byte) (*Page, error) {
	sum := sha256.Sum256(src)
	key := hex.EncodeToString(sum[:])
	if v, ok := c.cache.Get(key); ok {
		c.rec.IncRenderCache(true)
		return v.(*Page), nil
	}
	c.rec.IncRenderCache(false)

	page, err := c.next.Render(src)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, page)
	return page, nil
}

// Flush drops every cached page.
func (c *Cached) Flush() {
	c.cache.Flush()
}

// Len returns the number of cached pages.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}
