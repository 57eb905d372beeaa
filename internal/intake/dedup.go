package intake

import (
	"sync"
	"time"
)

// dedupTable remembers deduplication keys for the configured window so that
// redelivered requests do not enqueue twice. Entries expire lazily.
type dedupTable struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time // key -> expiry
	now     func() time.Time
}

func newDedupTable(window time.Duration) *dedupTable {
	return &dedupTable{
		window:  window,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Claim records the key and reports whether it was unseen within the window.
// A false return means the request is a duplicate and must be dropped.
func (t *dedupTable) Claim(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if expiry, ok := t.entries[key]; ok && now.Before(expiry) {
		return false
	}
	t.entries[key] = now.Add(t.window)
	if len(t.entries) > 1024 {
		t.sweepLocked(now)
	}
	return true
}

// Forget drops the key so a redelivery can be processed again, used when the
// downstream commit failed permanently.
func (t *dedupTable) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

func (t *dedupTable) sweepLocked(now time.Time) {
	for key, expiry := range t.entries {
		if !now.Before(expiry) {
			delete(t.entries, key)
		}
	}
}
