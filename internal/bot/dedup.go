package bot

import (
	"sync"
	"time"
)

const dedupPruneThreshold = 4096

// dedup remembers recently seen provider message ids so at-least-once webhook
// deliveries do not advance the funnel twice. Entries expire after ttl; the
// map is pruned lazily once it grows past a threshold.
type dedup struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func newDedup(ttl time.Duration) *dedup {
	return &dedup{seen: make(map[string]time.Time), ttl: ttl}
}

// Seen records (channel, messageID) and reports whether it was already
// present. Messages without an id are never considered duplicates.
func (d *dedup) Seen(channel, messageID string) bool {
	if messageID == "" {
		return false
	}
	key := channel + ":" + messageID
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if ts, ok := d.seen[key]; ok && now.Sub(ts) <= d.ttl {
		return true
	}
	if len(d.seen) >= dedupPruneThreshold {
		for k, ts := range d.seen {
			if now.Sub(ts) > d.ttl {
				delete(d.seen, k)
			}
		}
	}
	d.seen[key] = now
	return false
}
