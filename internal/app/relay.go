package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dialpoint/signaling/internal/core"
	"github.com/dialpoint/signaling/internal/domain"
)

// DispatchStatus is the outcome of routing one signal.
type DispatchStatus int

const (
	// StatusDelivered: handed to the target connection, or published to
	// the process owning it. Delivery past that point is unacknowledged.
	StatusDelivered DispatchStatus = iota
	// StatusFallback: target unreachable, push notification dispatched.
	StatusFallback
	// StatusDropped: target unreachable (or delivery failed) for a
	// signal type with no fallback. Intentionally silent; a stale
	// recipient is equivalent to no recipient.
	StatusDropped
)

// Relay resolves a target identifier to a reachable connection and
// forwards the signal verbatim. It performs routing only — out-of-state
// signals (a cancel after an accept, negotiation before a ring) are
// relayed like any other; protocol legality is the clients' concern.
type Relay struct {
	Node     string
	Presence core.PresenceStore
	Conns    *Registry
	Bcast    core.Broadcaster
	Fallback *Fallback
	Tracker  *CallTracker // optional, observe-only; may be nil
}

// Dispatch routes one signal. Never returns an error: every failure
// collapses to a status, and nothing is surfaced to the sender beyond
// the optional call acknowledgement.
func (r *Relay) Dispatch(ctx context.Context, sig *domain.Signal) DispatchStatus {
	if r.Tracker != nil {
		r.Tracker.Observe(sig)
	}

	rec, ok := r.lookup(ctx, sig.To)
	if !ok || !rec.Online {
		return r.unreachable(ctx, sig)
	}

	frame, err := sig.WireFrame()
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("type", string(sig.Type)).Msg("encode failed, signal dropped")
		return StatusDropped
	}

	if rec.Ref.Node == r.Node {
		conn, ok := r.Conns.Resolve(rec.Ref.Conn)
		if !ok {
			// Presence points at a connection this process no longer
			// holds. Same as unresolved.
			return r.unreachable(ctx, sig)
		}
		if err := conn.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.relay").Str("to", string(sig.To)).Msg("local send failed, signal dropped")
			return StatusDropped
		}
		return StatusDelivered
	}

	if err := r.Bcast.PublishTo(ctx, rec.Ref.Conn, frame); err != nil {
		// No retry: the client naturally retries or times out a ring.
		log.Error().Err(err).Str("module", "app.relay").Str("to", string(sig.To)).Msg("publish failed, signal dropped")
		return StatusDropped
	}
	return StatusDelivered
}

// lookup collapses the presence tri-state (reachable / unreachable /
// unknown) to a deliverable boolean. Store errors are logged here and
// never cross into the handshake logic.
func (r *Relay) lookup(ctx context.Context, id domain.PeerID) (domain.PresenceRecord, bool) {
	rec, ok, err := r.Presence.Get(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("peer", string(id)).Msg("presence lookup failed, treating as unknown")
		return domain.PresenceRecord{}, false
	}
	return rec, ok
}

func (r *Relay) unreachable(ctx context.Context, sig *domain.Signal) DispatchStatus {
	if sig.Type == domain.EventCall {
		r.Fallback.Dispatch(ctx, sig)
		return StatusFallback
	}
	return StatusDropped
}
