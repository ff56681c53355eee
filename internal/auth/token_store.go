package auth

import (
	"context"
	"sync"
	"time"

	"schools24/internal/cache"
)

const revokedTokenKeyPrefix = "blacklist:token:"

// TokenStoreInterface defines the interface for token revocation.
type TokenStoreInterface interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore records revoked token IDs in Redis until they would have expired.
// Without a Redis client it keeps the list in process memory.
type TokenStore struct {
	cache *cache.Client

	mu    sync.Mutex
	local map[string]time.Time
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store. client may be nil.
func NewTokenStore(client *cache.Client) *TokenStore {
	return &TokenStore{cache: client, local: make(map[string]time.Time)}
}

// Revoke blacklists tokenID for ttl.
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if s.cache != nil {
		return s.cache.Set(ctx, revokedTokenKeyPrefix+tokenID, []byte("1"), ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local[tokenID] = time.Now().Add(ttl)
	return nil
}

// IsRevoked checks if tokenID was revoked.
func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, revokedTokenKeyPrefix+tokenID)
		if err != nil {
			return false, nil // Not revoked if error (fail safe)
		}
		return data != nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.local[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(s.local, tokenID)
		return false, nil
	}
	return true, nil
}
