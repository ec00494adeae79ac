package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"git-integration/internal/connection/repository"
	"git-integration/internal/model"
)

type stateStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, model.OAuthState]
}

// NewStateStore keeps at most capacity states, each evicted after ttl.
// When full, the least recently issued state is dropped first.
func NewStateStore(capacity int, ttl time.Duration) repository.StateStore {
	return &stateStore{
		cache: expirable.NewLRU[string, model.OAuthState](capacity, nil, ttl),
	}
}

func (s *stateStore) Save(_ context.Context, state model.OAuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(state.Token, state)
	return nil
}

func (s *stateStore) Consume(_ context.Context, token string) (model.OAuthState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.cache.Peek(token)
	if !ok {
		return model.OAuthState{}, false
	}
	s.cache.Remove(token)
	return state, true
}
