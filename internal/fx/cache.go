package fx

import (
	"sync"
	"time"
)

const latestRatesTTL = 60 * time.Second

type cacheEntry struct {
	createdAt time.Time
	rates     RateTable
}

type rateCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newRateCache() *rateCache {
	return &rateCache{entries: map[string]cacheEntry{}}
}

func (c *rateCache) get(base string) (RateTable, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[base]; ok {
		if time.Now().Before(entry.createdAt.Add(latestRatesTTL)) {
			rates := make(RateTable, len(entry.rates))
			for k, v := range entry.rates {
				rates[k] = v
			}
			return rates, true
		}
	}
	return nil, false
}

func (c *rateCache) set(base string, rates RateTable) {
	c.mu.Lock()
	c.entries[base] = cacheEntry{createdAt: time.Now(), rates: rates}
	c.mu.Unlock()
}
