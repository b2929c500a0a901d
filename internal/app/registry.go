package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dialpoint/signaling/internal/core"
	"github.com/dialpoint/signaling/internal/domain"
)

// Binding ties a local connection handle to the identifier claimed at
// handshake time and the transport endpoint. Presence records whether
// this connection registered a shared-store presence entry (caller-only
// devices do not).
type Binding struct {
	Peer     domain.PeerID
	Conn     core.SignalConnection
	Presence bool
}

// Registry is the per-process connection index. PeerOf exists only for
// disconnect cleanup; target resolution on the relay hot path always
// goes through the shared presence store, because the target may live
// on another process.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]Binding
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]Binding)}
}

func (r *Registry) Bind(id domain.ConnID, b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = b
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("peer", string(b.Peer)).Msg("bound connection")
}

// Resolve is the local delivery table: ConnID to transport. Used after
// the presence store has already named this process as the owner.
func (r *Registry) Resolve(id domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return b.Conn, true
}

// PeerOf recovers the identifier a connection claimed at handshake.
func (r *Registry) PeerOf(id domain.ConnID) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[id]
	return b, ok
}

func (r *Registry) Unbind(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unbound connection")
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Deliver hands a frame published for a scope to the owning local
// connection. Satisfies core.DeliverFunc. A missing connection or a
// full send buffer is a silent drop; signaling is best effort.
func (r *Registry) Deliver(scope domain.ConnID, data core.Frame) {
	conn, ok := r.Resolve(scope)
	if !ok {
		log.Debug().Str("module", "app.registry").Str("conn", string(scope)).Msg("deliver: no local connection for scope")
		return
	}
	if err := conn.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "app.registry").Str("conn", string(scope)).Msg("deliver: dropped frame")
	}
}
