package memstore

import (
	"context"
	"sync"

	"github.com/dialpoint/signaling/internal/domain"
)

// UserStore is the in-process registration store for single-node runs.
type UserStore struct {
	mu    sync.RWMutex
	users map[domain.PeerID][]string
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[domain.PeerID][]string)}
}

func (s *UserStore) Register(ctx context.Context, id domain.PeerID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tokens, ok := s.users[id]
	if !ok {
		tokens = nil
	}
	if token != "" {
		known := false
		for _, t := range tokens {
			if t == token {
				known = true
				break
			}
		}
		if !known {
			tokens = append(tokens, token)
		}
	}
	s.users[id] = tokens
	return nil
}

func (s *UserStore) Unregister(ctx context.Context, id domain.PeerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *UserStore) Lookup(ctx context.Context, ids []domain.PeerID) ([]domain.PeerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make([]domain.PeerID, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.users[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

func (s *UserStore) Tokens(ctx context.Context, id domain.PeerID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id], nil
}
