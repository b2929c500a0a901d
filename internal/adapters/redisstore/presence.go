// Package redisstore implements the shared presence store, the durable
// user-registration store and the pub/sub broadcaster on Redis, so that
// every server process sees the same state.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dialpoint/signaling/internal/domain"
)

const presenceKeyPrefix = "presence:"

// PresenceStore keeps one JSON record per identifier. Writes replace
// the whole record; concurrent writers for the same identifier resolve
// last-write-wins, which is exactly the "latest handshake wins"
// contract.
type PresenceStore struct {
	rdb *redis.Client
}

func NewPresenceStore(rdb *redis.Client) *PresenceStore {
	return &PresenceStore{rdb: rdb}
}

func presenceKey(id domain.PeerID) string {
	return presenceKeyPrefix + string(id)
}

func (s *PresenceStore) Set(ctx context.Context, id domain.PeerID, rec domain.PresenceRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode presence record: %w", err)
	}
	if err := s.rdb.Set(ctx, presenceKey(id), b, 0).Err(); err != nil {
		return fmt.Errorf("write presence record: %w", err)
	}
	return nil
}

func (s *PresenceStore) Get(ctx context.Context, id domain.PeerID) (domain.PresenceRecord, bool, error) {
	b, err := s.rdb.Get(ctx, presenceKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PresenceRecord{}, false, nil
	}
	if err != nil {
		return domain.PresenceRecord{}, false, fmt.Errorf("read presence record: %w", err)
	}
	var rec domain.PresenceRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.PresenceRecord{}, false, fmt.Errorf("decode presence record: %w", err)
	}
	return rec, true, nil
}

// Remove is best-effort and idempotent; deleting an absent id is fine.
func (s *PresenceStore) Remove(ctx context.Context, id domain.PeerID) error {
	if err := s.rdb.Del(ctx, presenceKey(id)).Err(); err != nil {
		return fmt.Errorf("remove presence record: %w", err)
	}
	return nil
}
