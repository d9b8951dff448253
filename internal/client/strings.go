package client

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// StringCache keeps translation tables per language for the lifetime of the process.
// Concurrent loads of one language share a single call.
type StringCache struct {
	sf     singleflight.Group
	mu     sync.RWMutex
	tables map[string]map[string]string
}

func NewStringCache() *StringCache {
	return &StringCache{tables: make(map[string]map[string]string)}
}

func (c *StringCache) Get(ctx context.Context, lang string, load func(context.Context, string) (map[string]string, error)) (map[string]string, error) {
	c.mu.RLock()
	table, ok := c.tables[lang]
	c.mu.RUnlock()
	if ok {
		return table, nil
	}

	v, err, _ := c.sf.Do(lang, func() (interface{}, error) {
		table, err := load(ctx, lang)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.tables[lang] = table
		c.mu.Unlock()
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}
