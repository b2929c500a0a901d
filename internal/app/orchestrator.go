package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dialpoint/signaling/internal/core"
	"github.com/dialpoint/signaling/internal/domain"
)

// Orchestrator owns the connection lifecycle: handshake registration,
// signal dispatch, and disconnect cleanup. Transport adapters call into
// it and never touch the stores directly.
type Orchestrator struct {
	Node     string
	Registry *Registry
	Presence core.PresenceStore
	Bcast    core.Broadcaster
	Relay    *Relay
}

// OnConnect binds a freshly upgraded connection. The presence write is
// a fire-and-forget task: a shared-store hiccup downgrades the peer to
// "presence unknown" but never tears down its transport. Latest
// handshake wins — a record written here silently supersedes any prior
// connection for the same identifier.
func (o *Orchestrator) OnConnect(ctx context.Context, peer domain.PeerID, conn core.SignalConnection, presence bool) domain.ConnID {
	id := domain.ConnID(uuid.NewString())
	o.Registry.Bind(id, Binding{Peer: peer, Conn: conn, Presence: presence})

	if err := o.Bcast.Subscribe(ctx, id); err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Str("conn", string(id)).Msg("broadcast subscribe failed")
	}

	if presence {
		rec := domain.NewOnlineRecord(o.Node, id)
		go func(ctx context.Context) {
			if err := o.Presence.Set(ctx, peer, rec); err != nil {
				log.Error().Err(err).Str("module", "app.orchestrator").Str("peer", string(peer)).Msg("presence write failed")
			}
		}(context.WithoutCancel(ctx))
	}
	return id
}

// OnSignal routes one inbound signal for an authenticated sender.
func (o *Orchestrator) OnSignal(ctx context.Context, sig *domain.Signal) DispatchStatus {
	return o.Relay.Dispatch(ctx, sig)
}

// OnDisconnect clears exactly the presence entry for the identifier
// that was active at handshake time. The remove is unconditional: it
// races with a simultaneous reconnect under the same identifier, and
// the later write wins, matching the store's last-write-wins contract.
// In-flight relay tasks already dispatched are not cancelled.
func (o *Orchestrator) OnDisconnect(ctx context.Context, id domain.ConnID) {
	b, ok := o.Registry.PeerOf(id)
	if !ok {
		return
	}
	// The connection's context is already cancelled by the time the
	// transport reports the disconnect; cleanup must still run.
	ctx = context.WithoutCancel(ctx)

	if err := o.Bcast.Unsubscribe(ctx, id); err != nil {
		log.Warn().Err(err).Str("module", "app.orchestrator").Str("conn", string(id)).Msg("broadcast unsubscribe failed")
	}
	o.Registry.Unbind(id)

	if b.Presence {
		go func() {
			if err := o.Presence.Remove(ctx, b.Peer); err != nil {
				log.Error().Err(err).Str("module", "app.orchestrator").Str("peer", string(b.Peer)).Msg("presence cleanup failed")
			}
		}()
	}
	log.Info().Str("module", "app.orchestrator").Str("conn", string(id)).Str("peer", string(b.Peer)).Msg("disconnected")
}
