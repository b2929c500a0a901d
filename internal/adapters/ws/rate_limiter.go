package ws

import (
	"sync"
	"time"

	"github.com/dialpoint/signaling/internal/domain"
)

// CallRateLimiter throttles call attempts per peer over a sliding
// window, so one misbehaving client cannot ring-spam through the relay
// or burn push quota on offline targets.
type CallRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.PeerID][]time.Time
	limit    int
	interval time.Duration
}

func NewCallRateLimiter(limit int, interval time.Duration) *CallRateLimiter {
	return &CallRateLimiter{
		history:  make(map[domain.PeerID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *CallRateLimiter) Allow(peer domain.PeerID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[peer]
	fresh := make([]time.Time, 0, len(attempts))
	for _, ts := range attempts {
		if ts.After(windowStart) {
			fresh = append(fresh, ts)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[peer] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[peer] = fresh
	return true
}
