// Package core defines the interfaces the relay logic is written
// against. Adapters own the concrete transports and stores.
package core

import (
	"context"
	"errors"

	"github.com/dialpoint/signaling/internal/domain"
)

// Frame is a raw outbound payload, already encoded for the wire.
type Frame []byte

// ErrBackpressure is returned by TrySend when the connection's send
// buffer is full. The frame is dropped, never queued.
var ErrBackpressure = errors.New("send buffer full")

// SignalConnection abstracts one live client transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PresenceStore is the shared mapping from identifier to live
// connection, reachable from every server process. Writes are full
// replaces with last-write-wins semantics; there is no multi-key
// atomicity. Get reports absent as (zero, false, nil) — callers must
// treat absent, offline and lookup error all as "cannot deliver".
type PresenceStore interface {
	Set(ctx context.Context, id domain.PeerID, rec domain.PresenceRecord) error
	Get(ctx context.Context, id domain.PeerID) (domain.PresenceRecord, bool, error)
	Remove(ctx context.Context, id domain.PeerID) error
}

// DeliverFunc hands a frame published for a connection scope to the
// local connection owning that scope, if any.
type DeliverFunc func(scope domain.ConnID, data Frame)

// Broadcaster propagates frames across processes. A scope is the
// ConnID of the target connection; each process subscribes the scopes
// of its local connections. At-least-once to the right process,
// at-most-once to the right connection within it. Publish failures are
// logged by callers and never retried.
type Broadcaster interface {
	PublishTo(ctx context.Context, scope domain.ConnID, data Frame) error
	Subscribe(ctx context.Context, scope domain.ConnID) error
	Unsubscribe(ctx context.Context, scope domain.ConnID) error
	Close() error
}

// TokenSource resolves the push registration tokens of an identifier.
type TokenSource interface {
	Tokens(ctx context.Context, id domain.PeerID) ([]string, error)
}

// PushSender submits a data-only push notification. Implementations
// must never queue for later delivery; a missed ring older than "now"
// is worthless.
type PushSender interface {
	Send(ctx context.Context, tokens []string, data map[string]string) error
}

// UserStore is the durable registration store behind the REST surface.
type UserStore interface {
	TokenSource
	Register(ctx context.Context, id domain.PeerID, token string) error
	Unregister(ctx context.Context, id domain.PeerID) error
	Lookup(ctx context.Context, ids []domain.PeerID) ([]domain.PeerID, error)
}
