package engine

import (
	"sync"
	"time"
)

// DefaultTombstoneTTL bounds how long a deleted assignment key keeps
// shadowing late submissions.
const DefaultTombstoneTTL = time.Hour

// AssignmentKey identifies one assignment by its (team, location, game)
// triple.
type AssignmentKey struct {
	TeamID     uint
	LocationID uint
	GameID     uint
}

// TombstoneCache remembers recently deleted assignment keys so that a found
// submission racing an administrator's delete is rejected instead of
// resurrecting the row. It is process-local and best-effort: losing it on
// restart is acceptable, the race window it closes is narrow.
type TombstoneCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[AssignmentKey]time.Time
	now     func() time.Time
}

func NewTombstoneCache(ttl time.Duration) *TombstoneCache {
	if ttl <= 0 {
		ttl = DefaultTombstoneTTL
	}
	return &TombstoneCache{
		ttl:     ttl,
		entries: make(map[AssignmentKey]time.Time),
		now:     time.Now,
	}
}

// RecordDeletion marks key as deleted at the current time, overwriting any
// earlier entry.
func (c *TombstoneCache) RecordDeletion(key AssignmentKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = c.now()
}

// IsTombstoned purges expired entries, then reports whether key is still
// shadowed (age within the TTL).
func (c *TombstoneCache) IsTombstoned(key AssignmentKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupLocked(c.ttl)
	_, ok := c.entries[key]
	return ok
}

// Cleanup removes all entries older than ttl. It runs opportunistically
// inside IsTombstoned as well; correctness does not depend on external
// callers invoking it.
func (c *TombstoneCache) Cleanup(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupLocked(ttl)
}

// Len reports the number of entries currently held, expired or not.
func (c *TombstoneCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TombstoneCache) cleanupLocked(ttl time.Duration) {
	cutoff := c.now().Add(-ttl)
	for key, deletedAt := range c.entries {
		if deletedAt.Before(cutoff) {
			delete(c.entries, key)
		}
	}
}
