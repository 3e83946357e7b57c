// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// ChartCache holds rendered PNGs under random ids until they expire.
type ChartCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewChartCache returns a cache whose entries live for ttl. A non-positive
// ttl means five minutes.
func NewChartCache(ttl time.Duration) *ChartCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ChartCache{cache: gocache.New(ttl, 2*ttl), ttl: ttl}
}

// Put stores png and returns its id and expiry time.
func (c *ChartCache) Put(png []byte) (string, time.Time) {
	id := uuid.NewString()
	c.cache.Set(id, png, gocache.DefaultExpiration)
	return id, time.Now().Add(c.ttl)
}

// Get returns the PNG stored under id.
func (c *ChartCache) Get(id string) ([]byte, bool) {
	v, ok := c.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Delete removes id and reports whether it was present.
func (c *ChartCache) Delete(id string) bool {
	_, ok := c.cache.Get(id)
	c.cache.Delete(id)
	return ok
}

// Len returns the number of live entries.
func (c *ChartCache) Len() int {
	return c.cache.ItemCount()
}
