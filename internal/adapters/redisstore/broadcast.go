package redisstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/dialpoint/signaling/internal/core"
	"github.com/dialpoint/signaling/internal/domain"
)

const broadcastChanPrefix = "signal:conn:"

// Broadcaster carries frames between processes over Redis pub/sub, one
// channel per connection scope. Each process subscribes the scopes of
// its local connections, so a publish lands on exactly the process
// holding the target transport. Duplicate suppression past that point
// is the transport's concern, not ours.
type Broadcaster struct {
	rdb     *redis.Client
	ps      *redis.PubSub
	deliver core.DeliverFunc
}

// NewBroadcaster opens the subscriber connection and starts the
// dispatch loop. The loop exits when ctx is cancelled or Close is
// called.
func NewBroadcaster(ctx context.Context, rdb *redis.Client, deliver core.DeliverFunc) *Broadcaster {
	b := &Broadcaster{
		rdb:     rdb,
		ps:      rdb.Subscribe(ctx),
		deliver: deliver,
	}
	go b.loop(ctx)
	return b
}

func (b *Broadcaster) loop(ctx context.Context) {
	ch := b.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			scope := strings.TrimPrefix(msg.Channel, broadcastChanPrefix)
			b.deliver(domain.ConnID(scope), core.Frame(msg.Payload))
		}
	}
}

func (b *Broadcaster) PublishTo(ctx context.Context, scope domain.ConnID, data core.Frame) error {
	if err := b.rdb.Publish(ctx, broadcastChanPrefix+string(scope), []byte(data)).Err(); err != nil {
		return fmt.Errorf("publish to scope %s: %w", scope, err)
	}
	return nil
}

func (b *Broadcaster) Subscribe(ctx context.Context, scope domain.ConnID) error {
	if err := b.ps.Subscribe(ctx, broadcastChanPrefix+string(scope)); err != nil {
		return fmt.Errorf("subscribe scope %s: %w", scope, err)
	}
	return nil
}

func (b *Broadcaster) Unsubscribe(ctx context.Context, scope domain.ConnID) error {
	if err := b.ps.Unsubscribe(ctx, broadcastChanPrefix+string(scope)); err != nil {
		return fmt.Errorf("unsubscribe scope %s: %w", scope, err)
	}
	return nil
}

func (b *Broadcaster) Close() error {
	log.Info().Str("module", "redisstore.broadcast").Msg("closing broadcaster")
	return b.ps.Close()
}
