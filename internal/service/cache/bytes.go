package cache

import (
	"sync"
	"time"
)

// BytesCache stores rendered response bodies with a TTL.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

type entry struct {
	b   []byte
	exp time.Time
}

// TTLCache is an in-process BytesCache with lazy expiry and a soft entry cap.
type TTLCache struct {
	mu      sync.RWMutex
	m       map[string]entry
	maxSize int
}

func NewTTLCache(maxSize int) *TTLCache {
	if maxSize <= 0 {
		maxSize = 4096
	}
	return &TTLCache{m: make(map[string]entry), maxSize: maxSize}
}

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.b, true, nil
}

func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	if len(c.m) >= c.maxSize {
		c.evictExpiredLocked()
	}
	if len(c.m) < c.maxSize {
		c.m[key] = entry{b: value, exp: exp}
	}
	c.mu.Unlock()
	return nil
}

func (c *TTLCache) evictExpiredLocked() {
	now := time.Now()
	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, k)
		}
	}
}
