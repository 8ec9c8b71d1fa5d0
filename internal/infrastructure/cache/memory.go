package cache

import (
	"context"
	"sync"
	"time"
)

const defaultProgressTTL = 6 * time.Hour

// MemoryProgressCache is the in-process progress cache used when Redis is disabled
type MemoryProgressCache struct {
	mu    sync.RWMutex
	items map[string]*progressItem
	ttl   time.Duration
	stop  chan struct{}
	once  sync.Once
}

type progressItem struct {
	value      float64
	expireTime time.Time
}

// NewMemoryProgressCache creates the cache and starts its expiry sweeper; call Close to stop it
func NewMemoryProgressCache(ttl time.Duration) *MemoryProgressCache {
	if ttl <= 0 {
		ttl = defaultProgressTTL
	}
	c := &MemoryProgressCache{
		items: make(map[string]*progressItem),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	go c.cleanupExpired(5 * time.Minute)
	return c
}

func (c *MemoryProgressCache) SetProgress(ctx context.Context, lectureID string, progress float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[lectureID] = &progressItem{
		value:      progress,
		expireTime: time.Now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryProgressCache) GetProgress(ctx context.Context, lectureID string) (float64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[lectureID]
	if !exists || time.Now().After(item.expireTime) {
		return 0, false, nil
	}
	return item.value, true, nil
}

func (c *MemoryProgressCache) ClearProgress(ctx context.Context, lectureID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, lectureID)
	return nil
}

// Close stops the sweeper
func (c *MemoryProgressCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemoryProgressCache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, item := range c.items {
				if now.After(item.expireTime) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
