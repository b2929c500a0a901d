package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dialpoint/signaling/internal/domain"
)

// CallState is the implicit handshake state of one identifier pair as
// observed from the signal sequence.
type CallState int

const (
	StateRinging CallState = iota + 1
	StateAccepted
)

func (s CallState) String() string {
	switch s {
	case StateRinging:
		return "ringing"
	case StateAccepted:
		return "accepted"
	default:
		return "unknown"
	}
}

// ActiveCall is a read-only view of a tracked call attempt.
type ActiveCall struct {
	Caller domain.PeerID `json:"caller"`
	Callee domain.PeerID `json:"callee"`
	State  string        `json:"state"`
	Since  time.Time     `json:"since"`
}

// pairKey orders the two identifiers so either side addresses the same
// entry.
type pairKey struct {
	a, b domain.PeerID
}

func keyOf(x, y domain.PeerID) pairKey {
	if y < x {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

type callEntry struct {
	caller domain.PeerID
	callee domain.PeerID
	state  CallState
	since  time.Time
}

// CallTracker is the optional session layer on top of the implicit
// relay core. It observes the signal stream and mirrors it into
// per-pair state, but never rejects, delays or reorders a signal — the
// relay stays routing-only either way. Rings that never resolve are
// expired by Sweep; the relay itself enforces no timeout.
type CallTracker struct {
	mu          sync.Mutex
	calls       map[pairKey]*callEntry
	ringTimeout time.Duration
	now         func() time.Time
}

func NewCallTracker(ringTimeout time.Duration) *CallTracker {
	return &CallTracker{
		calls:       make(map[pairKey]*callEntry),
		ringTimeout: ringTimeout,
		now:         time.Now,
	}
}

// Observe folds one signal into the tracked state. A second call for
// the same pair resets the ring; decline and cancel are terminal.
// Negotiation signals carry no state here.
func (t *CallTracker) Observe(sig *domain.Signal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := keyOf(sig.From, sig.To)
	switch sig.Type {
	case domain.EventCall:
		t.calls[key] = &callEntry{
			caller: sig.From,
			callee: sig.To,
			state:  StateRinging,
			since:  t.now(),
		}
	case domain.EventCallAccepted:
		if e, ok := t.calls[key]; ok && e.state == StateRinging {
			e.state = StateAccepted
			e.since = t.now()
		}
	case domain.EventCallDeclined, domain.EventCancelCall:
		delete(t.calls, key)
	}
}

// Snapshot returns the currently tracked calls.
func (t *CallTracker) Snapshot() []ActiveCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ActiveCall, 0, len(t.calls))
	for _, e := range t.calls {
		out = append(out, ActiveCall{
			Caller: e.caller,
			Callee: e.callee,
			State:  e.state.String(),
			Since:  e.since,
		})
	}
	return out
}

// Sweep drops rings older than the ring timeout and reports how many
// were expired.
func (t *CallTracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	expired := 0
	for key, e := range t.calls {
		if e.state == StateRinging && now.Sub(e.since) > t.ringTimeout {
			delete(t.calls, key)
			expired++
		}
	}
	return expired
}

// Run sweeps periodically until the context is cancelled.
func (t *CallTracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.ringTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := t.Sweep(now); n > 0 {
				log.Info().Str("module", "app.tracker").Int("expired", n).Msg("expired stale rings")
			}
		}
	}
}
