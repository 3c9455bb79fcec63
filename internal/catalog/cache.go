package catalog

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/metrics"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/redis"
)

const productCacheName = "product_detail"

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// ProductCache is a read-through redis cache of product detail payloads.
// Concurrent misses for the same slug share one load. A nil *ProductCache
// always loads.
type ProductCache struct {
	store   cacheStore
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.CacheMetrics
	logg    *logger.Logger
}

func NewProductCache(store cacheStore, ttl time.Duration, m *metrics.CacheMetrics, logg *logger.Logger) *ProductCache {
	if store == nil || ttl <= 0 {
		return nil
	}
	return &ProductCache{store: store, ttl: ttl, metrics: m, logg: logg}
}

func (c *ProductCache) key(slug string) string {
	return c.store.CacheKey("product", slug)
}

// GetOrLoad returns the cached detail for slug or calls load and caches the
// result. Load errors are never cached and redis failures fall back to load.
func (c *ProductCache) GetOrLoad(ctx context.Context, slug string, load func(context.Context) (*ProductDetail, error)) (*ProductDetail, error) {
	if c == nil {
		return load(ctx)
	}

	if cached, ok := c.lookup(ctx, slug); ok {
		return cached, nil
	}

	value, err, _ := c.group.Do(slug, func() (interface{}, error) {
		if cached, ok := c.lookup(ctx, slug); ok {
			return cached, nil
		}
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.save(ctx, slug, fresh)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*ProductDetail), nil
}

func (c *ProductCache) lookup(ctx context.Context, slug string) (*ProductDetail, bool) {
	raw, err := c.store.Get(ctx, c.key(slug))
	if err != nil {
		if redis.IsMiss(err) {
			c.metrics.Miss(productCacheName)
		} else {
			c.metrics.Error(productCacheName)
			c.warn(ctx, slug, "product cache read failed", err)
		}
		return nil, false
	}
	var detail ProductDetail
	if err := json.Unmarshal([]byte(raw), &detail); err != nil {
		c.metrics.Error(productCacheName)
		c.warn(ctx, slug, "product cache entry undecodable", err)
		return nil, false
	}
	c.metrics.Hit(productCacheName)
	return &detail, true
}

func (c *ProductCache) save(ctx context.Context, slug string, detail *ProductDetail) {
	buf, err := json.Marshal(detail)
	if err != nil {
		c.warn(ctx, slug, "product cache encode failed", err)
		return
	}
	if err := c.store.Set(ctx, c.key(slug), string(buf), c.ttl); err != nil {
		c.metrics.Error(productCacheName)
		c.warn(ctx, slug, "product cache write failed", err)
	}
}

// Invalidate drops the cached detail for every given slug.
func (c *ProductCache) Invalidate(ctx context.Context, slugs ...string) error {
	if c == nil || len(slugs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if slug == "" {
			continue
		}
		keys = append(keys, c.key(slug))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.store.Del(ctx, keys...)
}

func (c *ProductCache) warn(ctx context.Context, slug, msg string, err error) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{"slug": slug, "error": err.Error()})
	c.logg.Warn(ctx, msg)
}
