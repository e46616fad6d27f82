// Package cache holds recently produced documents in memory for a bounded
// time, so they can be served by URL before (or instead of) object storage.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zuma-group/bill-integration-platform/internal/logger"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// Clock supplies the current time. Tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Stats summarises cache contents.
type Stats struct {
	Count           int   `json:"count"`
	EstimatedSizeKB int64 `json:"estimatedSizeKb"`
}

// AttachmentCache is a TTL cache of documents keyed by filename. Expired
// entries are dropped lazily on access and eagerly by Sweep.
type AttachmentCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	entries map[string]*port.CachedFile
}

// NewAttachmentCache creates a cache whose entries live for ttl. A nil clock
// means the wall clock.
func NewAttachmentCache(ttl time.Duration, clock Clock) *AttachmentCache {
	if clock == nil {
		clock = SystemClock
	}
	return &AttachmentCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]*port.CachedFile),
	}
}

// Put stores data under name, replacing any previous entry and restarting its TTL.
func (c *AttachmentCache) Put(name string, data []byte, contentType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = &port.CachedFile{
		Data:        data,
		ContentType: contentType,
		StoredAt:    c.clock.Now(),
	}
}

// Get returns the entry for name if present and not expired.
func (c *AttachmentCache) Get(name string) (*port.CachedFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	if c.expired(entry, c.clock.Now()) {
		delete(c.entries, name)
		return nil, false
	}
	return entry, true
}

// Delete removes name and reports whether it was present.
func (c *AttachmentCache) Delete(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[name]
	delete(c.entries, name)
	return ok
}

// Keys returns the names of live entries in sorted order.
func (c *AttachmentCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	keys := make([]string, 0, len(c.entries))
	for name, entry := range c.entries {
		if !c.expired(entry, now) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys
}

// Clear drops every entry.
func (c *AttachmentCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*port.CachedFile)
}

// Stats reports the number of live entries and their approximate size.
func (c *AttachmentCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	var s Stats
	var bytes int64
	for _, entry := range c.entries {
		if c.expired(entry, now) {
			continue
		}
		s.Count++
		bytes += int64(len(entry.Data))
	}
	s.EstimatedSizeKB = (bytes + 1023) / 1024
	return s
}

// Sweep removes expired entries and returns how many were removed.
func (c *AttachmentCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	removed := 0
	for name, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, name)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (c *AttachmentCache) RunJanitor(ctx context.Context, interval time.Duration) {
	log := logger.WithComponent("cache.attachments")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("swept expired attachments")
			}
		}
	}
}

func (c *AttachmentCache) expired(entry *port.CachedFile, now time.Time) bool {
	return c.ttl > 0 && now.Sub(entry.StoredAt) >= c.ttl
}
