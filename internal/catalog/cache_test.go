package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	getErr  error
	deleted []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func (m *memoryStore) CacheKey(parts ...string) string {
	return "sf:cache:" + strings.Join(parts, ":")
}

func TestProductCacheReadThrough(t *testing.T) {
	store := newMemoryStore()
	cache := NewProductCache(store, time.Minute, nil, nil)
	ctx := context.Background()

	var loads int32
	load := func(context.Context) (*ProductDetail, error) {
		atomic.AddInt32(&loads, 1)
		return &ProductDetail{ProductDTO: ProductDTO{Slug: "wireless-mouse", Price: "29.99"}}, nil
	}

	first, err := cache.GetOrLoad(ctx, "wireless-mouse", load)
	require.NoError(t, err)
	second, err := cache.GetOrLoad(ctx, "wireless-mouse", load)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
	assert.Equal(t, first.Price, second.Price)
	assert.Contains(t, store.values, "sf:cache:product:wireless-mouse")

	require.NoError(t, cache.Invalidate(ctx, "wireless-mouse", ""))
	assert.Equal(t, []string{"sf:cache:product:wireless-mouse"}, store.deleted)

	_, err = cache.GetOrLoad(ctx, "wireless-mouse", load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&loads))
}

func TestProductCacheCollapsesConcurrentMisses(t *testing.T) {
	cache := NewProductCache(newMemoryStore(), time.Minute, nil, nil)
	release := make(chan struct{})
	var loads int32
	load := func(context.Context) (*ProductDetail, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return &ProductDetail{ProductDTO: ProductDTO{Slug: "amp"}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.GetOrLoad(context.Background(), "amp", load)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&loads), int32(2))
}

func TestProductCacheFallsBackOnStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.getErr = errors.New("connection refused")
	cache := NewProductCache(store, time.Minute, nil, nil)

	detail, err := cache.GetOrLoad(context.Background(), "amp", func(context.Context) (*ProductDetail, error) {
		return &ProductDetail{ProductDTO: ProductDTO{Slug: "amp"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "amp", detail.Slug)
}

func TestProductCacheDoesNotCacheErrors(t *testing.T) {
	store := newMemoryStore()
	cache := NewProductCache(store, time.Minute, nil, nil)

	_, err := cache.GetOrLoad(context.Background(), "ghost", func(context.Context) (*ProductDetail, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)
	assert.Empty(t, store.values)
}

func TestNilProductCacheLoadsDirectly(t *testing.T) {
	var cache *ProductCache
	assert.Nil(t, NewProductCache(nil, time.Minute, nil, nil))

	detail, err := cache.GetOrLoad(context.Background(), "amp", func(context.Context) (*ProductDetail, error) {
		return &ProductDetail{ProductDTO: ProductDTO{Slug: "amp"}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "amp", detail.Slug)
	assert.NoError(t, cache.Invalidate(context.Background(), "amp"))
}
