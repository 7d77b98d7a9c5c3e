package chat

import (
	"sync"
	"time"

	"github.com/dkeye/chatio/internal/core"
)

// FloodLimiter caps chatMessage events per connection over a sliding window.
type FloodLimiter struct {
	mu       sync.Mutex
	history  map[core.ConnID][]time.Time
	limit    int
	interval time.Duration
}

func NewFloodLimiter(limit int, interval time.Duration) *FloodLimiter {
	return &FloodLimiter{
		history:  make(map[core.ConnID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *FloodLimiter) Allow(cid core.ConnID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[cid]

	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[cid] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[cid] = fresh

	return true
}

// Forget drops a connection's history once it disconnects.
func (rl *FloodLimiter) Forget(cid core.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, cid)
}
