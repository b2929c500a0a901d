// Package natsbus is the NATS driver for the cross-process broadcast
// adapter, selectable instead of Redis pub/sub where a NATS cluster is
// already deployed.
package natsbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/dialpoint/signaling/internal/core"
	"github.com/dialpoint/signaling/internal/domain"
)

const subjectPrefix = "signal.conn."

// Dial connects with retry; the bus is usually started alongside the
// server and may come up a moment later.
func Dial(url string) (*nats.Conn, error) {
	var nc *nats.Conn
	var err error
	for attempt := 1; attempt <= 30; attempt++ {
		nc, err = nats.Connect(url,
			nats.Name("signaling-relay"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err == nil {
			return nc, nil
		}
		log.Info().Str("module", "natsbus").Int("attempt", attempt).Err(err).Msg("waiting for NATS")
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
}

// Broadcaster publishes frames on a subject per connection scope and
// keeps one subscription per local connection.
type Broadcaster struct {
	nc      *nats.Conn
	deliver core.DeliverFunc

	mu   sync.Mutex
	subs map[domain.ConnID]*nats.Subscription
}

func NewBroadcaster(nc *nats.Conn, deliver core.DeliverFunc) *Broadcaster {
	return &Broadcaster{
		nc:      nc,
		deliver: deliver,
		subs:    make(map[domain.ConnID]*nats.Subscription),
	}
}

func (b *Broadcaster) PublishTo(ctx context.Context, scope domain.ConnID, data core.Frame) error {
	if err := b.nc.Publish(subjectPrefix+string(scope), []byte(data)); err != nil {
		return fmt.Errorf("publish to scope %s: %w", scope, err)
	}
	return nil
}

func (b *Broadcaster) Subscribe(ctx context.Context, scope domain.ConnID) error {
	sub, err := b.nc.Subscribe(subjectPrefix+string(scope), func(msg *nats.Msg) {
		b.deliver(scope, core.Frame(msg.Data))
	})
	if err != nil {
		return fmt.Errorf("subscribe scope %s: %w", scope, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.subs[scope]; ok {
		_ = prev.Unsubscribe()
	}
	b.subs[scope] = sub
	return nil
}

func (b *Broadcaster) Unsubscribe(ctx context.Context, scope domain.ConnID) error {
	b.mu.Lock()
	sub, ok := b.subs[scope]
	delete(b.subs, scope)
	b.mu.Unlock()
	if !ok {
		return nil
	}
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe scope %s: %w", scope, err)
	}
	return nil
}

func (b *Broadcaster) Close() error {
	log.Info().Str("module", "natsbus").Msg("closing broadcaster")
	b.nc.Close()
	return nil
}
