// Package memstore backs single-process deployments: presence in a
// process-local map and a loopback broadcaster. The relay logic is
// identical either way; only the drivers change.
package memstore

import (
	"context"
	"sync"

	"github.com/dialpoint/signaling/internal/core"
	"github.com/dialpoint/signaling/internal/domain"
)

// Presence is an in-process core.PresenceStore. Same contract as the
// shared-store implementation: full-record overwrite, last write wins.
type Presence struct {
	mu   sync.RWMutex
	recs map[domain.PeerID]domain.PresenceRecord
}

func NewPresence() *Presence {
	return &Presence{recs: make(map[domain.PeerID]domain.PresenceRecord)}
}

func (p *Presence) Set(ctx context.Context, id domain.PeerID, rec domain.PresenceRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recs[id] = rec
	return nil
}

func (p *Presence) Get(ctx context.Context, id domain.PeerID) (domain.PresenceRecord, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec, ok := p.recs[id]
	return rec, ok, nil
}

func (p *Presence) Remove(ctx context.Context, id domain.PeerID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.recs, id)
	return nil
}

// Broadcaster short-circuits publishes straight to the local deliver
// function. With a single process every scope is local, so subscribe
// and unsubscribe are bookkeeping-free.
type Broadcaster struct {
	deliver core.DeliverFunc
}

func NewBroadcaster(deliver core.DeliverFunc) *Broadcaster {
	return &Broadcaster{deliver: deliver}
}

func (b *Broadcaster) PublishTo(ctx context.Context, scope domain.ConnID, data core.Frame) error {
	b.deliver(scope, data)
	return nil
}

func (b *Broadcaster) Subscribe(ctx context.Context, scope domain.ConnID) error   { return nil }
func (b *Broadcaster) Unsubscribe(ctx context.Context, scope domain.ConnID) error { return nil }
func (b *Broadcaster) Close() error                                               { return nil }
