package engine

import (
	"sync"
	"testing"
	"time"
)

func TestTombstoneRecordAndCheck(t *testing.T) {
	cache := NewTombstoneCache(time.Hour)
	key := AssignmentKey{TeamID: 1, LocationID: 2, GameID: 3}

	if cache.IsTombstoned(key) {
		t.Fatal("key should not be tombstoned before RecordDeletion")
	}
	cache.RecordDeletion(key)
	if !cache.IsTombstoned(key) {
		t.Fatal("key should be tombstoned after RecordDeletion")
	}
	other := AssignmentKey{TeamID: 1, LocationID: 2, GameID: 4}
	if cache.IsTombstoned(other) {
		t.Fatal("different game id must not match")
	}
}

func TestTombstoneExpiry(t *testing.T) {
	cache := NewTombstoneCache(time.Minute)
	base := time.Now()
	cache.now = func() time.Time { return base }

	key := AssignmentKey{TeamID: 1, LocationID: 1, GameID: 1}
	cache.RecordDeletion(key)

	cache.now = func() time.Time { return base.Add(59 * time.Second) }
	if !cache.IsTombstoned(key) {
		t.Fatal("key should still be tombstoned within the TTL")
	}

	cache.now = func() time.Time { return base.Add(2 * time.Minute) }
	if cache.IsTombstoned(key) {
		t.Fatal("expired key must not report as tombstoned")
	}
	if cache.Len() != 0 {
		t.Fatalf("expired entry should be evicted, %d left", cache.Len())
	}
}

func TestTombstoneCleanup(t *testing.T) {
	cache := NewTombstoneCache(time.Hour)
	base := time.Now()
	cache.now = func() time.Time { return base }
	cache.RecordDeletion(AssignmentKey{TeamID: 1, LocationID: 1, GameID: 1})
	cache.RecordDeletion(AssignmentKey{TeamID: 2, LocationID: 2, GameID: 1})

	cache.now = func() time.Time { return base.Add(10 * time.Minute) }
	cache.RecordDeletion(AssignmentKey{TeamID: 3, LocationID: 3, GameID: 1})

	cache.Cleanup(5 * time.Minute)
	if cache.Len() != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", cache.Len())
	}
	if !cache.IsTombstoned(AssignmentKey{TeamID: 3, LocationID: 3, GameID: 1}) {
		t.Fatal("recent entry should survive cleanup")
	}
}

func TestTombstoneConcurrentAccess(t *testing.T) {
	cache := NewTombstoneCache(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n uint) {
			defer wg.Done()
			key := AssignmentKey{TeamID: n, LocationID: n, GameID: 1}
			cache.RecordDeletion(key)
			cache.IsTombstoned(key)
			cache.Cleanup(time.Hour)
		}(uint(i))
	}
	wg.Wait()
	if cache.Len() != 16 {
		t.Fatalf("expected 16 entries, got %d", cache.Len())
	}
}
