package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dialpoint/signaling/internal/domain"
)

// usersKey is a single hash of identifier to registration record.
const usersKey = "users"

type userRecord struct {
	Tokens []string `json:"tokens"`
}

// UserStore is the durable registration store behind the REST surface
// and the token lookup used by the offline fallback.
type UserStore struct {
	rdb *redis.Client
}

func NewUserStore(rdb *redis.Client) *UserStore {
	return &UserStore{rdb: rdb}
}

// Register creates the user's record if needed and appends the push
// token when one is supplied. Re-registering with a known token is a
// no-op.
func (s *UserStore) Register(ctx context.Context, id domain.PeerID, token string) error {
	rec, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &userRecord{}
	}
	if token != "" {
		for _, t := range rec.Tokens {
			if t == token {
				token = ""
				break
			}
		}
		if token != "" {
			rec.Tokens = append(rec.Tokens, token)
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode user record: %w", err)
	}
	if err := s.rdb.HSet(ctx, usersKey, string(id), b).Err(); err != nil {
		return fmt.Errorf("write user record: %w", err)
	}
	return nil
}

func (s *UserStore) Unregister(ctx context.Context, id domain.PeerID) error {
	if err := s.rdb.HDel(ctx, usersKey, string(id)).Err(); err != nil {
		return fmt.Errorf("remove user record: %w", err)
	}
	return nil
}

// Lookup returns the subset of the given identifiers that are
// currently registered, preserving input order.
func (s *UserStore) Lookup(ctx context.Context, ids []domain.PeerID) ([]domain.PeerID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = string(id)
	}
	vals, err := s.rdb.HMGet(ctx, usersKey, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("lookup users: %w", err)
	}
	found := make([]domain.PeerID, 0, len(ids))
	for i, v := range vals {
		if v != nil {
			found = append(found, ids[i])
		}
	}
	return found, nil
}

// Tokens resolves the push registration tokens of an identifier.
// An unregistered identifier has no tokens, which is not an error.
func (s *UserStore) Tokens(ctx context.Context, id domain.PeerID) ([]string, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return rec.Tokens, nil
}

func (s *UserStore) get(ctx context.Context, id domain.PeerID) (*userRecord, error) {
	b, err := s.rdb.HGet(ctx, usersKey, string(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read user record: %w", err)
	}
	var rec userRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode user record: %w", err)
	}
	return &rec, nil
}
