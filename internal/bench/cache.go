package bench

import (
	"context"
	"errors"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/pior/mctext"
)

// Cache is the client surface driven by the Runner.
type Cache interface {
	Set(ctx context.Context, key string, value []byte) (bool, error)
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Close() error
}

// NewTextCache adapts an mctext client.
func NewTextCache(client *mctext.Client) Cache {
	return &textCache{client}
}

type textCache struct {
	client *mctext.Client
}

func (c *textCache) Set(ctx context.Context, key string, value []byte) (bool, error) {
	return c.client.Set(ctx, key, value)
}

func (c *textCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	item, err := c.client.Get(ctx, key)
	return item.Value, item.Found, err
}

func (c *textCache) Close() error {
	return c.client.Close()
}

// NewGomemcacheCache adapts the bradfitz/gomemcache client as a baseline.
func NewGomemcacheCache(addr string) Cache {
	client := memcache.New(addr)
	client.MaxIdleConns = 1
	return &gomemcacheCache{client}
}

type gomemcacheCache struct {
	client *memcache.Client
}

func (c *gomemcacheCache) Set(ctx context.Context, key string, value []byte) (bool, error) {
	err := c.client.Set(&memcache.Item{Key: key, Value: value})
	if errors.Is(err, memcache.ErrNotStored) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *gomemcacheCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	item, err := c.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return item.Value, true, nil
}

func (c *gomemcacheCache) Close() error {
	return c.client.Close()
}
